package metrics

import (
	"time"

	"mercator-hq/switchboard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics tracks per-backend health and performance.
//
// Metrics:
//   - switchboard_gateway_backend_health: 1=available, 0=not
//   - switchboard_gateway_backend_attempts_total: attempts by outcome
//   - switchboard_gateway_backend_latency_seconds: attempt latency by outcome
//   - switchboard_gateway_backend_errors_total: failures by error type
//   - switchboard_gateway_backend_tokens_total: tokens by type
//   - switchboard_gateway_backend_cost_usd_total: accumulated cost
//   - switchboard_gateway_no_backend_total: selections with nothing eligible
type BackendMetrics struct {
	health    *prometheus.GaugeVec
	attempts  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	errors    *prometheus.CounterVec
	tokens    *prometheus.CounterVec
	cost      *prometheus.CounterVec
	noBackend *prometheus.CounterVec
}

// NewBackendMetrics creates and registers backend metrics with the provided registry.
func NewBackendMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BackendMetrics {
	bm := &BackendMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_health",
				Help:      "Backend health status (1=available, 0=unavailable or rate limited)",
			},
			[]string{"backend"},
		),

		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_attempts_total",
				Help:      "Total number of backend attempts by outcome",
			},
			[]string{"backend", "outcome"},
		),

		// Failed attempts are observed here too; they never move the
		// backend's average response time.
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_latency_seconds",
				Help:      "Backend attempt latency in seconds by outcome",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"backend", "outcome"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_errors_total",
				Help:      "Total number of backend errors by type",
			},
			[]string{"backend", "error_type"},
		),

		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_tokens_total",
				Help:      "Total tokens consumed per backend",
			},
			[]string{"backend", "type"},
		),

		cost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_cost_usd_total",
				Help:      "Accumulated cost per backend in USD",
			},
			[]string{"backend"},
		),

		noBackend: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "no_backend_total",
				Help:      "Selections that found no eligible backend",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		bm.health,
		bm.attempts,
		bm.latency,
		bm.errors,
		bm.tokens,
		bm.cost,
		bm.noBackend,
	)

	return bm
}

// UpdateHealth sets the health gauge.
func (bm *BackendMetrics) UpdateHealth(backend string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	bm.health.WithLabelValues(backend).Set(value)
}

// RecordAttempt records one attempt.
func (bm *BackendMetrics) RecordAttempt(backend, outcome string, latency time.Duration) {
	bm.attempts.WithLabelValues(backend, outcome).Inc()
	bm.latency.WithLabelValues(backend, outcome).Observe(latency.Seconds())
}

// RecordUsage records tokens and cost.
func (bm *BackendMetrics) RecordUsage(backend string, promptTokens, completionTokens int, cost float64) {
	if promptTokens > 0 {
		bm.tokens.WithLabelValues(backend, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		bm.tokens.WithLabelValues(backend, "completion").Add(float64(completionTokens))
	}
	if cost > 0 {
		bm.cost.WithLabelValues(backend).Add(cost)
	}
}

// RecordError records a failure by type.
func (bm *BackendMetrics) RecordError(backend, errorType string) {
	bm.errors.WithLabelValues(backend, errorType).Inc()
}

// RecordNoBackend records an empty selection.
func (bm *BackendMetrics) RecordNoBackend(reason string) {
	bm.noBackend.WithLabelValues(reason).Inc()
}

// Remove deletes every series for backend.
func (bm *BackendMetrics) Remove(backend string) {
	labels := prometheus.Labels{"backend": backend}
	bm.health.DeletePartialMatch(labels)
	bm.attempts.DeletePartialMatch(labels)
	bm.latency.DeletePartialMatch(labels)
	bm.errors.DeletePartialMatch(labels)
	bm.tokens.DeletePartialMatch(labels)
	bm.cost.DeletePartialMatch(labels)
}
