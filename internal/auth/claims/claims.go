// Package claims decodes access-token payloads without verifying the
// signature. The client never trusts these claims for authorization; it
// only reads expiry and identity hints, so verification stays on the
// server side.
package claims

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
)

// timeNow is swapped in tests.
var timeNow = time.Now

type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Decode parses the unverified payload of an access token. It returns nil
// on any malformed input (wrong segment count, bad encoding, bad JSON);
// callers must treat nil as expired and untrusted.
func Decode(token string) *domain.Claims {
	if token == "" {
		return nil
	}

	parsed := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, parsed); err != nil {
		return nil
	}

	out := &domain.Claims{
		Subject: parsed.Subject,
		Email:   parsed.Email,
		Name:    parsed.Name,
	}
	if parsed.ExpiresAt != nil {
		out.ExpiresAt = parsed.ExpiresAt.Time
	}
	if parsed.IssuedAt != nil {
		out.IssuedAt = parsed.IssuedAt.Time
	}
	return out
}

// IsExpiringSoon reports whether the token expires within buffer from now.
// Undecodable tokens and tokens without an exp claim count as expiring
// (fail closed).
func IsExpiringSoon(token string, buffer time.Duration) bool {
	decoded := Decode(token)
	if decoded == nil || decoded.ExpiresAt.IsZero() {
		return true
	}
	return !timeNow().Add(buffer).Before(decoded.ExpiresAt)
}

// IsExpired reports whether the token is past its expiry right now.
func IsExpired(token string) bool {
	return IsExpiringSoon(token, 0)
}
