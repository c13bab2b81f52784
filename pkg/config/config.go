package config

import (
	"time"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/telemetry/logging"
)

// Config is the root configuration structure for Switchboard.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Backends lists the upstream LLM backends to register.
	Backends []providers.BackendConfig `yaml:"backends"`

	// Routing contains load balancing, retry and failover settings.
	Routing RoutingConfig `yaml:"routing"`

	// Cache contains response cache settings.
	Cache CacheConfig `yaml:"cache"`

	// Usage contains usage ledger settings.
	Usage UsageConfig `yaml:"usage"`

	// Telemetry contains logging, metrics, tracing and health settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Streaming responses need this to be generous.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxRequestBytes limits the request body size.
	// Default: 10MB
	MaxRequestBytes int64 `yaml:"max_request_bytes"`

	// RequestTimeout bounds each API request, including every backend
	// attempt it makes. Zero disables the bound.
	// Default: 0
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// RoutingConfig contains load-balancing and retry configuration.
type RoutingConfig struct {
	// Strategy is the load-balancing strategy.
	// Options: "round_robin", "least_loaded", "fastest_response",
	// "cost_optimized", "weighted", "random"
	// Default: "round_robin"
	Strategy string `yaml:"strategy"`

	// MaxAttempts is the total number of backend attempts per request.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// Failover re-selects a backend after a failed attempt. When false a
	// request gets exactly one attempt.
	// Default: true
	Failover bool `yaml:"failover"`

	// MaxConcurrentRequests bounds in-flight backend calls (0 = unlimited).
	// Default: 0
	MaxConcurrentRequests int `yaml:"max_concurrent_requests"`

	// DefaultEstimateTokens is the token estimate used for admission when a
	// request does not set max_tokens.
	// Default: 1000
	DefaultEstimateTokens int `yaml:"default_estimate_tokens"`

	// Seed fixes the random source of the weighted and random strategies
	// (0 = time based).
	Seed int64 `yaml:"seed"`
}

// CacheConfig contains response cache configuration.
type CacheConfig struct {
	// Enabled controls whether responses are cached.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// MaxSize is the maximum number of cached responses.
	// Default: 1000
	MaxSize int `yaml:"max_size"`

	// TTL is the lifetime of a cached response.
	// Default: 1h
	TTL time.Duration `yaml:"ttl"`

	// CleanupInterval is how often expired entries are swept.
	// Default: 5m
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// UsageConfig contains usage ledger configuration.
type UsageConfig struct {
	// Enabled controls whether per-attempt usage is recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the store.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Driver selects the SQLite driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database path.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// BufferSize is the async recorder buffer.
	// Default: 1000
	BufferSize int `yaml:"buffer_size"`

	// MaxRecords caps the memory store (0 = unlimited).
	// Default: 10000
	MaxRecords int `yaml:"max_records"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactPII redacts API keys, bearer tokens and emails.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains custom redaction patterns.
	RedactPatterns []logging.RedactPattern `yaml:"redact_patterns"`

	// Output selects "stdout", "stderr" or "file".
	// Default: "stdout"
	Output string `yaml:"output"`

	// File configures rotation for file output.
	File LogFileConfig `yaml:"file"`
}

// LogFileConfig configures rotating log files.
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "switchboard"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for durations (seconds).
	// Default: [0.1, 0.25, 0.5, 1, 2, 5, 10, 30]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// TokenCountBuckets defines histogram buckets for token counts.
	// Default: [100, 500, 1000, 5000, 10000, 50000, 100000]
	TokenCountBuckets []float64 `yaml:"token_count_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "switchboard"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS to the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	// CheckTimeout bounds each backend probe.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
