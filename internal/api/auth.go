package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
	"github.com/access2chakri-ai/docushield-sub000/internal/transport"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (t tokenResponse) pair() (domain.TokenPair, error) {
	if t.AccessToken == "" || t.RefreshToken == "" {
		return domain.TokenPair{}, fmt.Errorf("backend returned incomplete token pair")
	}
	return domain.TokenPair{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}, nil
}

// Login exchanges credentials for a token pair. Establishing the session
// is the caller's job (session manager).
func (c *Client) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	var resp tokenResponse
	err := c.postJSON(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp, "login")
	if err != nil {
		return domain.TokenPair{}, err
	}
	return resp.pair()
}

// Register creates an account and returns the initial token pair.
func (c *Client) Register(ctx context.Context, email, name, password string) (domain.TokenPair, error) {
	var resp tokenResponse
	err := c.postJSON(ctx, "/api/auth/register", map[string]string{
		"email":    email,
		"name":     name,
		"password": password,
	}, &resp, "register")
	if err != nil {
		return domain.TokenPair{}, err
	}
	return resp.pair()
}

// RefreshTokens exchanges a refresh token for a new pair. One network
// call, no retries; the session manager coordinates callers.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	var resp tokenResponse
	err := c.postJSON(ctx, "/api/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, &resp, "refresh")
	if err != nil {
		return domain.TokenPair{}, err
	}
	return resp.pair()
}

// Me fetches the authenticated profile. Idempotent, so transient
// failures are retried under the resilience executor.
func (c *Client) Me(ctx context.Context) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := c.resilience.Execute(ctx, "me", func(ctx context.Context) error {
		return c.authed(ctx, transport.Request{
			Method:    http.MethodGet,
			URL:       c.baseURL + "/api/auth/me",
			Operation: "me",
		}, c.defaultTimeout, &profile)
	}, classifyRequestError)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout tells the backend to drop the refresh session. Best effort:
// the local session is cleared by the caller regardless, so failures are
// logged and swallowed.
func (c *Client) Logout(ctx context.Context) {
	err := c.authed(ctx, transport.Request{
		Method:    http.MethodPost,
		URL:       c.baseURL + "/api/auth/logout",
		Operation: "logout",
	}, c.defaultTimeout, nil)
	if err != nil {
		c.logger.Debug("logout_request_failed", "error", err)
	}
}
