// Package routing implements the load balancer that picks a backend for each
// request.
//
// # Overview
//
// A Balancer keeps the registered adapters in registration order. For every
// request it builds the eligible set (adapters whose CanHandleRequest returns
// true, which covers both declared capabilities and rate-limit admission) and
// hands that set to the active strategy from the strategies package.
//
// # Errors
//
// When the eligible set is empty Select returns a *NoBackendAvailableError
// listing which backends were rejected for capability and which for rate
// limit. It matches ErrNoBackendAvailable:
//
//	p, err := balancer.Select(req)
//	if errors.Is(err, routing.ErrNoBackendAvailable) {
//	    // try later or ask differently
//	}
//
// # Registration
//
// Register with an ID that already exists replaces the adapter in its
// original slot and closes the old one. Unregister removes and closes.
//
// # Statistics
//
// Stats returns total selections, per-backend selections and the number of
// selections that found nothing eligible. Counters are lock-free.
package routing
