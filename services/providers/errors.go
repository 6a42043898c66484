package providers

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrProviderUnavailable is matched by errors for a provider that is not registered
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrUpstream is matched by errors for a non-success reply from a provider API
	ErrUpstream = errors.New("upstream error")
)

// UnavailableError names the provider that was requested but is not registered.
type UnavailableError struct {
	Provider string
}

// Error implements the error interface
func (e *UnavailableError) Error() string {
	if e.Provider == "" {
		return "provider unavailable: no provider requested"
	}
	return fmt.Sprintf("provider unavailable: %s", e.Provider)
}

// Is makes errors.Is(err, ErrProviderUnavailable) succeed.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// NewUnavailableError creates an UnavailableError for name.
func NewUnavailableError(name string) *UnavailableError {
	return &UnavailableError{Provider: name}
}

// UpstreamError is returned when a provider API answers with a non-2xx status.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: upstream returned status %d", e.Provider, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns the underlying SDK or transport error, if any
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrUpstream) succeed.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Retryable reports whether the status usually clears on its own (429, 5xx).
// Nothing in this module retries; the flag is for callers.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NewUpstreamError creates an UpstreamError.
func NewUpstreamError(provider string, statusCode int, message string, cause error) *UpstreamError {
	return &UpstreamError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// IsRetryable checks if err is an UpstreamError with a transient status
func IsRetryable(err error) bool {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Retryable()
	}
	return false
}

// UpstreamStatus returns the HTTP status carried by err, or 0.
func UpstreamStatus(err error) int {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode
	}
	return 0
}
