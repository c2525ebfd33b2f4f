// Package api is the DocuShield backend client. Authenticated endpoints
// go through the transport executor; the auth endpoints (login, register,
// refresh) carry no bearer credential and use a plain HTTP path.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
	"github.com/access2chakri-ai/docushield-sub000/internal/resilience"
	"github.com/access2chakri-ai/docushield-sub000/internal/transport"
)

const errorBodyExcerpt = 2048

type Client struct {
	baseURL    string
	executor   *transport.Executor
	resilience *resilience.Executor
	logger     *slog.Logger

	httpClient *http.Client

	defaultTimeout  time.Duration
	extendedTimeout time.Duration
}

func New(
	baseURL string,
	executor *transport.Executor,
	res *resilience.Executor,
	logger *slog.Logger,
	defaultTimeout time.Duration,
	extendedTimeout time.Duration,
) *Client {
	if defaultTimeout <= 0 {
		defaultTimeout = 15 * time.Second
	}
	if extendedTimeout <= 0 {
		// Document analysis runs LLM passes server-side; give it room.
		extendedTimeout = 2 * time.Minute
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		executor:        executor,
		resilience:      res,
		logger:          logger,
		httpClient:      &http.Client{},
		defaultTimeout:  defaultTimeout,
		extendedTimeout: extendedTimeout,
	}
}

// postJSON issues an unauthenticated JSON POST with its own timeout
// scope. Used only by the auth endpoints.
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transport.TranslateError(ctx, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return httpErrorFromReader(resp.StatusCode, resp.Body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// authed runs one authenticated request and converts any non-2xx reply
// into a typed HTTPError.
func (c *Client) authed(ctx context.Context, req transport.Request, timeout time.Duration, out any) error {
	resp, err := c.executor.Do(ctx, req, timeout)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return httpErrorFromBody(resp.StatusCode, resp.Body)
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func httpErrorFromBody(status int, body []byte) error {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > errorBodyExcerpt {
		excerpt = excerpt[:errorBodyExcerpt]
	}
	return &domain.HTTPError{StatusCode: status, Body: excerpt}
}

func httpErrorFromReader(status int, r io.Reader) error {
	body, _ := io.ReadAll(io.LimitReader(r, errorBodyExcerpt))
	return httpErrorFromBody(status, body)
}
