package metrics

import (
	"time"

	"mercator-hq/switchboard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric the gateway exports.
//
// A disabled collector accepts every call and records nothing, so callers
// never need to check whether metrics are on.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics *RequestMetrics
	backendMetrics *BackendMetrics
	cacheMetrics   *CacheMetrics
}

// NewCollector creates a collector registering into registry. If registry
// is nil a fresh one is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// LLM latencies: 100ms to 30s
		cfg.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}
	if len(cfg.TokenCountBuckets) == 0 {
		cfg.TokenCountBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.backendMetrics = NewBackendMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)

	return c
}

// Enabled reports whether metrics are recorded.
func (c *Collector) Enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRequest records one public gateway call.
//
// Parameters:
//   - status: "success", "error" or "cache_hit"
//   - attempts: backend attempts made (0 for cache hits)
func (c *Collector) RecordRequest(status string, duration time.Duration, attempts int) {
	if !c.Enabled() {
		return
	}
	c.requestMetrics.RecordRequest(status, duration, attempts)
}

// RecordStream records one streaming call.
func (c *Collector) RecordStream(backend, status string) {
	if !c.Enabled() {
		return
	}
	c.requestMetrics.RecordStream(backend, status)
}

// RecordAttempt records one backend attempt.
//
// Parameters:
//   - backend: backend ID
//   - outcome: "success" or "failure"
//   - latency: wall time of the attempt
func (c *Collector) RecordAttempt(backend, outcome string, latency time.Duration) {
	if !c.Enabled() {
		return
	}
	c.backendMetrics.RecordAttempt(backend, outcome, latency)
}

// RecordUsage records tokens and cost of a successful attempt.
func (c *Collector) RecordUsage(backend string, promptTokens, completionTokens int, cost float64) {
	if !c.Enabled() {
		return
	}
	c.backendMetrics.RecordUsage(backend, promptTokens, completionTokens, cost)
	c.requestMetrics.RecordTokens(promptTokens + completionTokens)
}

// RecordBackendError records a failed attempt by error type.
//
// Common error types: "rate_limit", "timeout", "auth", "parse",
// "server_error", "client_error", "network", "unknown".
func (c *Collector) RecordBackendError(backend, errorType string) {
	if !c.Enabled() {
		return
	}
	c.backendMetrics.RecordError(backend, errorType)
}

// RecordNoBackend records a selection that found no eligible backend.
//
// Parameters:
//   - reason: "capability" or "unavailable"
func (c *Collector) RecordNoBackend(reason string) {
	if !c.Enabled() {
		return
	}
	c.backendMetrics.RecordNoBackend(reason)
}

// UpdateBackendHealth sets the health gauge of a backend (1=available).
func (c *Collector) UpdateBackendHealth(backend string, healthy bool) {
	if !c.Enabled() {
		return
	}
	c.backendMetrics.UpdateHealth(backend, healthy)
}

// RemoveBackend drops every series labelled with backend.
func (c *Collector) RemoveBackend(backend string) {
	if !c.Enabled() {
		return
	}
	c.backendMetrics.Remove(backend)
}

// RecordCacheHit records a response cache hit.
func (c *Collector) RecordCacheHit() {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.RecordHit()
}

// RecordCacheMiss records a response cache miss.
func (c *Collector) RecordCacheMiss() {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.RecordMiss()
}

// ObserveCache exports size, evictions and expirations read from source at
// scrape time. Only the first call has an effect.
func (c *Collector) ObserveCache(source CacheStatsFunc) {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.Observe(source)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
