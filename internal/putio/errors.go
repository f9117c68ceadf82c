// Package putio is a client for the put.io v2 REST API with automatic
// retry, error classification, and a paginated folder listing that
// satisfies walk.Lister.
package putio

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, putio.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("putio: bad request")
	ErrUnauthorized = errors.New("putio: unauthorized")
	ErrForbidden    = errors.New("putio: forbidden")
	ErrNotFound     = errors.New("putio: not found")
	ErrConflict     = errors.New("putio: conflict")
	ErrThrottled    = errors.New("putio: throttled")
	ErrServerError  = errors.New("putio: server error")
)

// ErrNotLoggedIn is returned when no saved token exists.
var ErrNotLoggedIn = errors.New("putio: not logged in")

// APIError wraps a sentinel error with the HTTP status code, the put.io
// error type (e.g. "NotFound") and the response body for debugging.
type APIError struct {
	StatusCode int
	ErrorType  string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.ErrorType != "" {
		return fmt.Sprintf("putio: HTTP %d (%s): %s", e.StatusCode, e.ErrorType, e.Message)
	}

	return fmt.Sprintf("putio: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for codes without a sentinel.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// isRetryable reports whether the given HTTP status code should be retried.
func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
