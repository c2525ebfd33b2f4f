package ports

import (
	"context"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
)

// TokenStore persists session credentials and the cached profile. It is a
// dumb store: no validation happens here. Clear removes everything so a
// partially cleared session is never observable.
type TokenStore interface {
	SaveTokens(pair domain.TokenPair) error
	AccessToken() (string, error)
	RefreshToken() (string, error)
	SaveProfile(profile *domain.UserProfile) error
	Profile() (*domain.UserProfile, error)
	Clear() error
}

// TokenRefreshClient exchanges a refresh token for a new pair against the
// backend refresh endpoint. One network call per invocation, no internal
// retries.
type TokenRefreshClient interface {
	RefreshTokens(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}

// SessionRefresher guarantees a usable access token is stored, refreshing
// it when needed. A nil EnsureFresh return means the stored token may be
// used. Clear terminates the local session after an unrecoverable
// failure.
type SessionRefresher interface {
	EnsureFresh(ctx context.Context) error
	Clear() error
}

// JobStatusSource reports the current server-side status of a job.
type JobStatusSource interface {
	JobStatus(ctx context.Context, jobID string) (domain.JobStatus, error)
}

// Notifier accepts user-facing notifications and returns the assigned id.
type Notifier interface {
	Push(n domain.Notification) string
}
