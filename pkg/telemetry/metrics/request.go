package metrics

import (
	"time"

	"mercator-hq/switchboard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks gateway-level calls.
//
// Metrics:
//   - switchboard_gateway_requests_total: calls by status
//   - switchboard_gateway_request_duration_seconds: call duration by status
//   - switchboard_gateway_request_attempts: backend attempts per call
//   - switchboard_gateway_request_tokens: tokens per successful attempt
//   - switchboard_gateway_streams_total: streaming calls by backend and status
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	attempts        prometheus.Histogram
	tokens          prometheus.Histogram
	streamsTotal    *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of completion requests handled",
			},
			[]string{"status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of completion requests in seconds, including retries",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"status"},
		),

		attempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_attempts",
				Help:      "Number of backend attempts per completion request",
				Buckets:   []float64{0, 1, 2, 3, 5, 10},
			},
		),

		tokens: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_tokens",
				Help:      "Total tokens per successful backend attempt",
				Buckets:   cfg.TokenCountBuckets,
			},
		),

		streamsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "streams_total",
				Help:      "Total number of streaming requests by backend and status",
			},
			[]string{"backend", "status"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.attempts,
		rm.tokens,
		rm.streamsTotal,
	)

	return rm
}

// RecordRequest records a completed call.
func (rm *RequestMetrics) RecordRequest(status string, duration time.Duration, attempts int) {
	rm.requestsTotal.WithLabelValues(status).Inc()
	rm.requestDuration.WithLabelValues(status).Observe(duration.Seconds())
	rm.attempts.Observe(float64(attempts))
}

// RecordTokens records the total token count of an attempt.
func (rm *RequestMetrics) RecordTokens(tokens int) {
	if tokens > 0 {
		rm.tokens.Observe(float64(tokens))
	}
}

// RecordStream records a streaming call.
func (rm *RequestMetrics) RecordStream(backend, status string) {
	rm.streamsTotal.WithLabelValues(backend, status).Inc()
}
