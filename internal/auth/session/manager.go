// Package session owns the refresh flow and the lifecycle of the stored
// credential pair.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
	"github.com/access2chakri-ai/docushield-sub000/internal/core/ports"
	"github.com/access2chakri-ai/docushield-sub000/internal/observability/metrics"
)

const service = "docushield-client"

// Manager decides whether the stored access token is usable and runs the
// refresh flow. Concurrent callers that each observe an expiring token
// share a single in-flight refresh instead of issuing redundant network
// calls.
type Manager struct {
	store     ports.TokenStore
	refresher ports.TokenRefreshClient
	logger    *slog.Logger
	metrics   *metrics.ClientMetrics

	group singleflight.Group

	mu        sync.Mutex
	listeners []func()
}

func NewManager(store ports.TokenStore, refresher ports.TokenRefreshClient, logger *slog.Logger, m *metrics.ClientMetrics) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		logger:    logger,
		metrics:   m,
	}
}

// SetRefreshClient installs the refresh backend. The API client depends
// on the manager for authenticated calls, so its refresh path is wired
// in after construction.
func (m *Manager) SetRefreshClient(refresher ports.TokenRefreshClient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresher = refresher
}

func (m *Manager) refreshClient() ports.TokenRefreshClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresher
}

// EnsureFresh refreshes the stored pair using the refresh token. A nil
// return means a new pair is persisted. The refresh endpoint is called at
// most once per in-flight refresh, never retried here: retry policy
// belongs to callers, so a misbehaving backend cannot induce a refresh
// loop.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	refreshToken, err := m.store.RefreshToken()
	if err != nil {
		return fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		return domain.WrapError(domain.ErrNoSession, "refresh session", errors.New("no refresh token stored"))
	}

	refresher := m.refreshClient()
	if refresher == nil {
		return fmt.Errorf("refresh session: no refresh client configured")
	}

	_, err, _ = m.group.Do("refresh", func() (any, error) {
		pair, err := refresher.RefreshTokens(ctx, refreshToken)
		if err != nil {
			m.metrics.RecordRefresh(service, "error")
			m.logger.Warn("token_refresh_failed", "error", err)
			return nil, fmt.Errorf("refresh tokens: %w", err)
		}
		if err := m.store.SaveTokens(pair); err != nil {
			m.metrics.RecordRefresh(service, "error")
			return nil, fmt.Errorf("persist refreshed tokens: %w", err)
		}
		m.metrics.RecordRefresh(service, "success")
		m.logger.Debug("token_refresh_ok")
		return nil, nil
	})
	return err
}

// Establish persists a freshly issued pair (login/register) plus the
// profile when available, then broadcasts the auth change.
func (m *Manager) Establish(pair domain.TokenPair, profile *domain.UserProfile) error {
	if err := m.store.SaveTokens(pair); err != nil {
		return fmt.Errorf("persist session tokens: %w", err)
	}
	if profile != nil {
		if err := m.store.SaveProfile(profile); err != nil {
			return fmt.Errorf("persist profile: %w", err)
		}
	}
	m.broadcast()
	return nil
}

// Clear drops all session state and broadcasts the auth change. Used on
// logout and on unrecoverable session failure.
func (m *Manager) Clear() error {
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.broadcast()
	return nil
}

// OnAuthChanged registers a callback fired after login, logout and
// session termination so other components re-read session state.
func (m *Manager) OnAuthChanged(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) broadcast() {
	m.mu.Lock()
	listeners := make([]func(), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
