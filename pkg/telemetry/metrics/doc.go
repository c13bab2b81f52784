// Package metrics exports gateway metrics to Prometheus.
//
// # Overview
//
// A Collector owns a registry and three metric groups:
//
//   - RequestMetrics: public calls by status, duration, attempts per call
//   - BackendMetrics: attempts, latency, errors, tokens and cost per backend
//   - CacheMetrics: hits and misses, plus size and eviction counters read
//     from the response cache at scrape time
//
// All names share the configured namespace and subsystem, by default
// "switchboard_gateway_".
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordAttempt("openai-primary", "success", 800*time.Millisecond)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Latency of failed attempts is only visible here, in the outcome="failure"
// series of backend_latency_seconds.
package metrics
