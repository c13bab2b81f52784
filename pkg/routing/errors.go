package routing

import (
	"errors"
	"fmt"
	"strings"

	"mercator-hq/switchboard/pkg/providers"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrNoBackendAvailable is returned when no registered backend is
	// eligible for a request (all incapable or rate limited).
	ErrNoBackendAvailable = errors.New("no backend available")

	// ErrCapability is returned when no registered backend declares the
	// capabilities a request needs. Asking again will not help.
	ErrCapability = errors.New("no backend supports the requested capabilities")

	// ErrBackendNotFound is returned when a backend ID is not registered.
	ErrBackendNotFound = errors.New("backend not found")
)

// NoBackendAvailableError is returned by Select when the eligible set is
// empty. It records why each registered backend was rejected.
type NoBackendAvailableError struct {
	// Capability lists backends lacking a required capability.
	Capability []string

	// RateLimited lists capable backends refused by their limiter.
	RateLimited []string
}

// Error implements the error interface.
func (e *NoBackendAvailableError) Error() string {
	if len(e.Capability) == 0 && len(e.RateLimited) == 0 {
		return "no backend available: no backends registered"
	}
	var parts []string
	if len(e.RateLimited) > 0 {
		parts = append(parts, "rate limited: "+strings.Join(e.RateLimited, ", "))
	}
	if len(e.Capability) > 0 {
		parts = append(parts, "incapable: "+strings.Join(e.Capability, ", "))
	}
	return "no backend available (" + strings.Join(parts, "; ") + ")"
}

// Is implements error matching for errors.Is().
func (e *NoBackendAvailableError) Is(target error) bool {
	return target == ErrNoBackendAvailable
}

// CapabilityError is returned when no registered backend declares every
// capability a request needs. It also matches ErrNoBackendAvailable so
// callers that only check for "no backend" still see it.
type CapabilityError struct {
	// Required lists the capabilities the request needs.
	Required []providers.Capability
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	names := make([]string, len(e.Required))
	for i, c := range e.Required {
		names[i] = string(c)
	}
	return fmt.Sprintf("no registered backend supports %s", strings.Join(names, ", "))
}

// Is implements error matching for errors.Is().
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability || target == ErrNoBackendAvailable
}

// BackendNotFoundError is returned when a backend ID is not registered.
type BackendNotFoundError struct {
	// ID is the requested backend.
	ID string

	// Available contains the registered backend IDs.
	Available []string
}

// Error implements the error interface.
func (e *BackendNotFoundError) Error() string {
	return fmt.Sprintf("backend %q not found (registered: %s)", e.ID, strings.Join(e.Available, ", "))
}

// Is implements error matching for errors.Is().
func (e *BackendNotFoundError) Is(target error) bool {
	return target == ErrBackendNotFound
}
