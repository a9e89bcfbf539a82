package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// Transport errors.
var (
	// ErrRetriesExhausted is returned when a request still fails after the
	// rate-limit or transient retry budget has been used up.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// StatusError is returned for HTTP responses that are treated as failures.
type StatusError struct {
	// StatusCode is the HTTP status code of the failed response.
	StatusCode int

	// Body holds the beginning of the response body for diagnostics.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected HTTP status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected HTTP status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// IsClientError reports whether err carries a non-retryable 4xx response.
// Rate limiting (429) is not a client error in this sense.
func IsClientError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
}

// IsAuthError reports whether err carries a 401 or 403 response.
func IsAuthError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}
