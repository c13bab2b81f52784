// Package tracing provides OpenTelemetry tracing for the gateway.
//
// Every public call opens a switchboard.completion (or switchboard.stream)
// span. Each backend attempt is a child switchboard.attempt span carrying
// the backend ID, attempt number and outcome, so a failover chain reads as
// a sequence of sibling spans under one request.
//
// # Configuration
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    sampler: ratio
//	    sample_ratio: 0.1
//	    endpoint: localhost:4317
//	    insecure: true
//
// Spans are exported over OTLP gRPC. When tracing is disabled New returns a
// noop tracer and the global OpenTelemetry state is left alone.
//
// # Propagation
//
// HTTPMiddleware extracts W3C traceparent headers from incoming requests.
// The HTTP adapters inject the current context into upstream calls through
// the global propagator.
package tracing
