// Package config loads client settings from, in order of increasing
// precedence: built-in defaults, an optional YAML file, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBaseURL string
	LogLevel   string
	LogFormat  string

	RequestTimeout  time.Duration
	ExtendedTimeout time.Duration
	RefreshBuffer   time.Duration

	PollInterval  time.Duration
	PollRateRPS   float64
	PollRateBurst int

	TokenDir       string
	MetricsPort    string
	NotifyDuration time.Duration
}

// fileConfig is the YAML shape. Durations are strings ("30s") so the
// file reads the way the env vars do.
type fileConfig struct {
	APIBaseURL string `yaml:"api_base_url"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`

	RequestTimeout  string `yaml:"request_timeout"`
	ExtendedTimeout string `yaml:"extended_timeout"`
	RefreshBuffer   string `yaml:"refresh_buffer"`

	PollInterval  string  `yaml:"poll_interval"`
	PollRateRPS   float64 `yaml:"poll_rate_rps"`
	PollRateBurst int     `yaml:"poll_rate_burst"`

	TokenDir       string `yaml:"token_dir"`
	MetricsPort    string `yaml:"metrics_port"`
	NotifyDuration string `yaml:"notify_duration"`
}

func defaults() Config {
	return Config{
		APIBaseURL: "http://localhost:8000",
		LogLevel:   "info",
		LogFormat:  "json",

		RequestTimeout:  15 * time.Second,
		ExtendedTimeout: 2 * time.Minute,
		RefreshBuffer:   30 * time.Second,

		PollInterval:  3 * time.Second,
		PollRateRPS:   2,
		PollRateBurst: 4,

		TokenDir:       "",
		MetricsPort:    "9091",
		NotifyDuration: 5 * time.Second,
	}
}

// Load builds the effective configuration. A missing config file is
// fine; a malformed one is an error so a typo cannot silently fall back
// to defaults.
func Load() (Config, error) {
	cfg := defaults()

	path := configFilePath()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// configFilePath resolves the YAML overlay: DOCUSHIELD_CONFIG wins,
// otherwise ~/.docushield/config.yaml when it exists.
func configFilePath() string {
	if path := os.Getenv("DOCUSHIELD_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".docushield", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && os.Getenv("DOCUSHIELD_CONFIG") == "" {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if file.APIBaseURL != "" {
		c.APIBaseURL = file.APIBaseURL
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.LogFormat != "" {
		c.LogFormat = file.LogFormat
	}
	if file.TokenDir != "" {
		c.TokenDir = file.TokenDir
	}
	if file.MetricsPort != "" {
		c.MetricsPort = file.MetricsPort
	}
	if file.PollRateRPS > 0 {
		c.PollRateRPS = file.PollRateRPS
	}
	if file.PollRateBurst > 0 {
		c.PollRateBurst = file.PollRateBurst
	}

	durations := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{file.RequestTimeout, "request_timeout", &c.RequestTimeout},
		{file.ExtendedTimeout, "extended_timeout", &c.ExtendedTimeout},
		{file.RefreshBuffer, "refresh_buffer", &c.RefreshBuffer},
		{file.PollInterval, "poll_interval", &c.PollInterval},
		{file.NotifyDuration, "notify_duration", &c.NotifyDuration},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse config file %s: %s: %w", path, d.name, err)
		}
		*d.dst = parsed
	}

	return nil
}

func (c *Config) applyEnv() {
	c.APIBaseURL = mustEnv("DOCUSHIELD_API_URL", c.APIBaseURL)
	c.LogLevel = mustEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = mustEnv("LOG_FORMAT", c.LogFormat)

	c.RequestTimeout = mustEnvDuration("DOCUSHIELD_REQUEST_TIMEOUT", c.RequestTimeout)
	c.ExtendedTimeout = mustEnvDuration("DOCUSHIELD_EXTENDED_TIMEOUT", c.ExtendedTimeout)
	c.RefreshBuffer = mustEnvDuration("DOCUSHIELD_REFRESH_BUFFER", c.RefreshBuffer)

	c.PollInterval = mustEnvDuration("DOCUSHIELD_POLL_INTERVAL", c.PollInterval)
	c.PollRateRPS = mustEnvFloat("DOCUSHIELD_POLL_RATE_RPS", c.PollRateRPS)
	c.PollRateBurst = mustEnvInt("DOCUSHIELD_POLL_RATE_BURST", c.PollRateBurst)

	c.TokenDir = mustEnv("DOCUSHIELD_TOKEN_DIR", c.TokenDir)
	c.MetricsPort = mustEnv("DOCUSHIELD_METRICS_PORT", c.MetricsPort)
	c.NotifyDuration = mustEnvDuration("DOCUSHIELD_NOTIFY_DURATION", c.NotifyDuration)
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
