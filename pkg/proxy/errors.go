package proxy

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing"
)

// Common service errors that can be checked with errors.Is().
var (
	// ErrServiceStopped is returned by generate calls while the service is
	// not running.
	ErrServiceStopped = errors.New("service is not running")

	// ErrRetriesExhausted is matched by RetriesExhaustedError.
	ErrRetriesExhausted = errors.New("all attempts failed")

	// ErrOverloaded is returned when the in-flight request bound is reached.
	ErrOverloaded = errors.New("too many concurrent requests")

	// ErrNoBackendAvailable aliases routing.ErrNoBackendAvailable.
	ErrNoBackendAvailable = routing.ErrNoBackendAvailable

	// ErrCapability aliases routing.ErrCapability.
	ErrCapability = routing.ErrCapability
)

// RetriesExhaustedError is returned when every allowed attempt failed, or
// when selection found nothing after at least one failure. It unwraps to
// the last attempt's error.
type RetriesExhaustedError struct {
	// Attempts is the number of backend calls made.
	Attempts int

	// LastErr is the error of the final attempt.
	LastErr error
}

// Error implements the error interface.
func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.LastErr)
}

// Unwrap returns the last attempt's error.
func (e *RetriesExhaustedError) Unwrap() error {
	return e.LastErr
}

// Is implements error matching for errors.Is().
func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// errorType classifies err for metrics and traces.
func errorType(err error) string {
	var (
		rle *providers.RateLimitError
		te  *providers.TimeoutError
		ae  *providers.AuthError
		pe  *providers.ParseError
		se  *providers.StreamError
		ce  *providers.ConfigError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rle):
		return "rate_limit"
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &ae):
		return "auth"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &se):
		return "stream"
	case errors.As(err, &ce):
		return "config"
	default:
		return "backend"
	}
}

// noBackendReason labels an empty selection for metrics.
func noBackendReason(err error) string {
	var nb *routing.NoBackendAvailableError
	if errors.As(err, &nb) && len(nb.RateLimited) > 0 {
		return "rate_limited"
	}
	var ce *routing.CapabilityError
	if errors.As(err, &ce) {
		return "capability"
	}
	return "unavailable"
}
