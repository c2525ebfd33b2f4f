package api

import (
	"context"
	"errors"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
	"github.com/access2chakri-ai/docushield-sub000/internal/resilience"
)

// classifyRequestError maps the request layer's typed errors onto the
// retry/breaker policy. Only transport-level failures and server-side
// 5xx are worth another attempt; session and client errors are final and
// must not trip the breaker.
func classifyRequestError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	// Typed kinds first: ErrRequestTimeout wraps the per-call deadline
	// error, so a bare ctx check would misread it as caller cancellation.
	if domain.IsKind(err, domain.ErrRequestTimeout) || domain.IsKind(err, domain.ErrNetworkUnavailable) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrNoSession) || domain.IsKind(err, domain.ErrSessionExpired) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if httpErr, ok := domain.AsHTTPError(err); ok {
		if httpErr.StatusCode >= 500 {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
