package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/access2chakri-ai/docushield-sub000/internal/api"
	"github.com/access2chakri-ai/docushield-sub000/internal/auth/session"
	"github.com/access2chakri-ai/docushield-sub000/internal/auth/store"
	"github.com/access2chakri-ai/docushield-sub000/internal/config"
	"github.com/access2chakri-ai/docushield-sub000/internal/jobs"
	"github.com/access2chakri-ai/docushield-sub000/internal/notify"
	"github.com/access2chakri-ai/docushield-sub000/internal/observability/logging"
	"github.com/access2chakri-ai/docushield-sub000/internal/observability/metrics"
	"github.com/access2chakri-ai/docushield-sub000/internal/resilience"
	"github.com/access2chakri-ai/docushield-sub000/internal/transport"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Store    *store.FileStore
	Session  *session.Manager
	API      *api.Client
	Notify   *notify.Center
	Jobs     *jobs.Coordinator
	Metrics  *metrics.ClientMetrics
	Executor *transport.Executor

	closeFn func()
}

// New wires the client stack. The api.Client is both the session
// manager's refresh backend and the job coordinator's status source, so
// the executor is built first with a deferred session hook.
func New(cfg config.Config) (*App, error) {
	logger := logging.NewLogger("docushield-client", cfg.LogLevel, cfg.LogFormat)
	clientMetrics := metrics.NewClientMetrics("docushield-client")

	tokenStore, err := store.New(cfg.TokenDir)
	if err != nil {
		return nil, fmt.Errorf("init token store: %w", err)
	}

	manager := session.NewManager(tokenStore, nil, logger, clientMetrics)

	executor := transport.NewExecutor(
		tokenStore,
		manager,
		logger,
		clientMetrics,
		cfg.RefreshBuffer,
		cfg.RequestTimeout,
	)

	res := resilience.NewExecutor(resilience.DefaultConfig(), logger)
	apiClient := api.New(cfg.APIBaseURL, executor, res, logger, cfg.RequestTimeout, cfg.ExtendedTimeout)

	// Close the cycle: session refreshes go through the API client's
	// unauthenticated refresh endpoint.
	manager.SetRefreshClient(apiClient)

	center := notify.NewCenter(logger, clientMetrics, cfg.NotifyDuration)

	var limiter *rate.Limiter
	if cfg.PollRateRPS > 0 {
		burst := cfg.PollRateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.PollRateRPS), burst)
	}
	coordinator := jobs.NewCoordinator(
		apiClient,
		center,
		logger,
		clientMetrics,
		cfg.PollInterval,
		limiter,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    tokenStore,
		Session:  manager,
		API:      apiClient,
		Notify:   center,
		Jobs:     coordinator,
		Metrics:  clientMetrics,
		Executor: executor,

		closeFn: func() {
			coordinator.Stop()
			center.Close()
		},
	}, nil
}

// WaitJobs blocks until no tracked jobs remain or the timeout passes.
// Used by the CLI's --watch mode before exiting.
func (a *App) WaitJobs(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if a.Jobs.Tracked() == 0 {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return a.Jobs.Tracked() == 0
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
