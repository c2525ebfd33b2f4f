// Package transport issues authenticated HTTP calls against the backend.
// It owns the token lifecycle around each request: proactive refresh when
// the access token is close to expiry, a per-call timeout scope, and
// exactly one reactive refresh-and-reissue after a 401.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/access2chakri-ai/docushield-sub000/internal/auth/claims"
	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
	"github.com/access2chakri-ai/docushield-sub000/internal/core/ports"
	"github.com/access2chakri-ai/docushield-sub000/internal/observability/metrics"
)

const (
	service         = "docushield-client"
	requestIDHeader = "X-Request-Id"

	// maxResponseBody bounds how much of a response is buffered; backend
	// payloads in this API are small JSON documents.
	maxResponseBody = 4 << 20
)

// Request is a rebuildable outbound call, so the reactive 401 path can
// reissue it byte-identically under a fresh timeout scope.
type Request struct {
	Method    string
	URL       string
	Body      []byte
	Header    http.Header
	Operation string
}

func (r Request) operation() string {
	if r.Operation == "" {
		return "request"
	}
	return r.Operation
}

// Response is a fully buffered backend reply. Buffering lets the per-call
// timeout context be released before the caller reads the payload.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Success reports whether the status code is 2xx.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the buffered JSON body.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Executor wraps outbound calls with token lifecycle management. Non-2xx
// responses other than the handled 401 are returned as-is for the caller
// to interpret; transport failures surface as typed errors instead of raw
// platform errors.
type Executor struct {
	store   ports.TokenStore
	session ports.SessionRefresher
	logger  *slog.Logger
	metrics *metrics.ClientMetrics

	httpClient     *http.Client
	refreshBuffer  time.Duration
	defaultTimeout time.Duration
}

func NewExecutor(
	store ports.TokenStore,
	session ports.SessionRefresher,
	logger *slog.Logger,
	m *metrics.ClientMetrics,
	refreshBuffer time.Duration,
	defaultTimeout time.Duration,
) *Executor {
	if refreshBuffer <= 0 {
		refreshBuffer = 30 * time.Second
	}
	if defaultTimeout <= 0 {
		defaultTimeout = 15 * time.Second
	}
	return &Executor{
		store:   store,
		session: session,
		logger:  logger,
		metrics: m,
		// Per-call timeouts come from the request context, not the
		// client, so one executor serves default and extended deadlines.
		httpClient:     &http.Client{},
		refreshBuffer:  refreshBuffer,
		defaultTimeout: defaultTimeout,
	}
}

// Do issues one authenticated request. A timeout of zero uses the
// executor default. At most one reissue happens per logical call.
func (e *Executor) Do(ctx context.Context, req Request, timeout time.Duration) (*Response, error) {
	op := req.operation()
	start := time.Now()

	resp, err := e.do(ctx, req, timeout)
	e.metrics.RecordRequest(service, op, outcomeOf(resp, err), time.Since(start))
	return resp, err
}

func (e *Executor) do(ctx context.Context, req Request, timeout time.Duration) (*Response, error) {
	op := req.operation()

	token, err := e.store.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}
	if token == "" {
		return nil, domain.WrapError(domain.ErrNoSession, op, errors.New("no access token stored"))
	}

	if claims.IsExpiringSoon(token, e.refreshBuffer) {
		if err := e.session.EnsureFresh(ctx); err != nil {
			if claims.IsExpired(token) {
				// The token is unusable and refresh failed: the session
				// is over. The original call never reaches the network.
				_ = e.session.Clear()
				return nil, domain.WrapError(domain.ErrSessionExpired, op, err)
			}
			// Still inside the validity window; best effort with the
			// current token and let the 401 path catch a stale one.
			e.logger.Warn("proactive_refresh_failed", "operation", op, "error", err)
		} else if token, err = e.store.AccessToken(); err != nil {
			return nil, fmt.Errorf("read refreshed access token: %w", err)
		}
	}

	resp, err := e.issue(ctx, req, token, timeout)
	if err != nil {
		return nil, TranslateError(ctx, op, err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Reactive path: one refresh, one reissue. A second 401 goes back to
	// the caller so a misbehaving backend cannot induce a retry loop.
	if err := e.session.EnsureFresh(ctx); err != nil {
		_ = e.session.Clear()
		return nil, domain.WrapError(domain.ErrSessionExpired, op, err)
	}
	token, err = e.store.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("read refreshed access token: %w", err)
	}

	e.logger.Debug("request_reissued_after_401", "operation", op)
	resp, err = e.issue(ctx, req, token, timeout)
	if err != nil {
		return nil, TranslateError(ctx, op, err)
	}
	return resp, nil
}

func (e *Executor) issue(ctx context.Context, req Request, token string, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", req.operation(), err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if httpReq.Header.Get(requestIDHeader) == "" {
		httpReq.Header.Set(requestIDHeader, uuid.NewString())
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       data,
	}, nil
}

// TranslateError maps raw transport failures to the typed taxonomy. A
// timeout and an unreachable backend must stay distinguishable for the
// caller. Cancellation of the caller's own context passes through
// untouched.
func TranslateError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrRequestTimeout, op, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return domain.WrapError(domain.ErrRequestTimeout, op, err)
	}
	return domain.WrapError(domain.ErrNetworkUnavailable, op, err)
}

func outcomeOf(resp *Response, err error) string {
	switch {
	case err == nil && resp.Success():
		return "success"
	case err == nil:
		return "http_error"
	case domain.IsKind(err, domain.ErrRequestTimeout):
		return "timeout"
	case domain.IsKind(err, domain.ErrNetworkUnavailable):
		return "network_error"
	case domain.IsKind(err, domain.ErrSessionExpired):
		return "session_expired"
	case domain.IsKind(err, domain.ErrNoSession):
		return "no_session"
	default:
		return "error"
	}
}
