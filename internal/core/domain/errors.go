package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession means no access token is stored; the caller must
	// send the user through authentication.
	ErrNoSession = errors.New("no active session")

	// ErrSessionExpired means the access token is past its expiry and a
	// refresh attempt failed; local session state has been cleared.
	ErrSessionExpired = errors.New("session expired")

	// ErrRequestTimeout means the request exceeded its allotted timeout.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrNetworkUnavailable means the backend could not be reached at the
	// transport level (DNS, connection refused, resets).
	ErrNetworkUnavailable = errors.New("network unavailable")
)

// HTTPError carries a non-2xx backend response the request layer does not
// handle itself. Body holds an excerpt of the response payload.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// AsHTTPError unwraps err into an HTTPError when one is present.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
