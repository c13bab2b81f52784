package providers

import (
	"errors"
	"fmt"
	"time"
)

// ErrBackend is matched by every BackendError via errors.Is.
var ErrBackend = errors.New("backend call failed")

// BackendError is returned when an individual backend call fails
// (network, vendor-side error, malformed response). It is recorded in the
// backend's stats and is subject to retry and failover.
type BackendError struct {
	// Backend is the ID of the backend that failed
	Backend string

	// Op is the operation that failed ("completion", "stream", "health")
	Op string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend %q %s failed (status %d): %s", e.Backend, e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("backend %q %s failed: %s", e.Backend, e.Op, msg)
}

// Unwrap returns the underlying error for error chain support.
func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for errors.Is().
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// NewBackendError wraps cause as a BackendError unless it already is one.
func NewBackendError(backend, op string, cause error) *BackendError {
	var be *BackendError
	if errors.As(cause, &be) {
		return be
	}
	return &BackendError{
		Backend: backend,
		Op:      op,
		Cause:   cause,
	}
}

// AuthError represents an authentication failure.
// This occurs when the backend rejects the API key (HTTP 401 or 403).
type AuthError struct {
	Backend string
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("backend %q authentication failed: %s", e.Backend, e.Message)
}

// RateLimitError represents an upstream rate limit (HTTP 429).
type RateLimitError struct {
	Backend string

	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("backend %q rate limit exceeded (retry after %s): %s",
			e.Backend, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("backend %q rate limit exceeded: %s", e.Backend, e.Message)
}

// TimeoutError represents a request that exceeded its deadline.
type TimeoutError struct {
	Backend string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("backend %q request timeout after %s", e.Backend, e.Timeout)
	}
	return fmt.Sprintf("backend %q request deadline exceeded", e.Backend)
}

// ParseError represents a malformed backend response.
type ParseError struct {
	Backend string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("backend %q response parse error: %v", e.Backend, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a request that is invalid before it is sent.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// StreamError represents a failure in the middle of a stream.
type StreamError struct {
	Backend string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend %q stream error: %s: %v", e.Backend, e.Message, e.Cause)
	}
	return fmt.Sprintf("backend %q stream error: %s", e.Backend, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ConfigError represents an invalid backend configuration.
type ConfigError struct {
	Backend string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("backend %q configuration error for field %q: %s",
		e.Backend, e.Field, e.Message)
}
