// Package store persists session credentials on disk, the desktop
// counterpart of the product-prefixed browser storage the web client
// uses. The token pair lives in one file so it is always replaced as a
// unit; the cached profile is independent.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
)

const (
	tokensFile  = "docushield_tokens.json"
	profileFile = "docushield_profile.json"
)

// FileStore keeps session state under a single directory. Writes go
// through a temp file and rename, so a reader never observes a torn
// value; concurrent writers race last-writer-wins, which refresh
// semantics tolerate.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".docushield")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create token dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the backing directory, used by the change watcher.
func (s *FileStore) Dir() string {
	return s.dir
}

// SaveTokens replaces the stored pair atomically. An interleaving writer
// can win the race, but a mixed pair is never observable.
func (s *FileStore) SaveTokens(pair domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal token pair: %w", err)
	}
	if err := s.writeAtomic(tokensFile, data); err != nil {
		return fmt.Errorf("save token pair: %w", err)
	}
	return nil
}

func (s *FileStore) AccessToken() (string, error) {
	pair, err := s.tokens()
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

func (s *FileStore) RefreshToken() (string, error) {
	pair, err := s.tokens()
	if err != nil {
		return "", err
	}
	return pair.RefreshToken, nil
}

func (s *FileStore) SaveProfile(profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.writeAtomic(profileFile, data); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Profile returns the cached profile or nil when none is stored.
func (s *FileStore) Profile() (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, profileFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// Clear removes every session entry. Missing entries are not an error,
// so a repeated or concurrent clear stays a no-op.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{tokensFile, profileFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("clear %s: %w", name, err)
		}
	}
	return nil
}

func (s *FileStore) tokens() (domain.TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, tokensFile))
	if errors.Is(err, os.ErrNotExist) {
		return domain.TokenPair{}, nil
	}
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("read token pair: %w", err)
	}

	var pair domain.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return domain.TokenPair{}, fmt.Errorf("decode token pair: %w", err)
	}
	return pair, nil
}

func (s *FileStore) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
