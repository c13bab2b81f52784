package config

import (
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxRequestBytes = 10 << 20

	// Backend defaults
	DefaultBackendWeight    = 1.0
	DefaultBackendMaxTokens = 4096
	DefaultBackendTimeout   = 60 * time.Second
	DefaultMockDelay        = 10 * time.Millisecond

	// Routing defaults
	DefaultStrategy              = "round_robin"
	DefaultMaxAttempts           = 3
	DefaultFailover              = true
	DefaultDefaultEstimateTokens = providers.DefaultEstimateTokens

	// Cache defaults
	DefaultCacheEnabled         = true
	DefaultCacheMaxSize         = 1000
	DefaultCacheTTL             = time.Hour
	DefaultCacheCleanupInterval = 5 * time.Minute

	// Usage defaults
	DefaultUsageBackend    = "memory"
	DefaultUsageDriver     = "sqlite"
	DefaultUsagePath       = "data/usage.db"
	DefaultUsageBufferSize = 1000
	DefaultUsageMaxRecords = 10000

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultLoggingOutput      = "stdout"
	DefaultLoggingRedactPII   = true
	DefaultLogFileMaxSizeMB   = 100
	DefaultLogFileMaxBackups  = 5
	DefaultLogFileMaxAgeDays  = 28
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "switchboard"
	DefaultMetricsSubsystem   = "gateway"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "switchboard"
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
	DefaultHealthCheckTimeout = 5 * time.Second
)

// Default returns a configuration with every default applied, including the
// boolean switches. Load decodes YAML over this value, so a key missing from
// the file keeps its default while an explicit false is honored.
func Default() *Config {
	cfg := &Config{}
	cfg.Routing.Failover = DefaultFailover
	cfg.Cache.Enabled = DefaultCacheEnabled
	cfg.Telemetry.Logging.RedactPII = DefaultLoggingRedactPII
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Insecure = DefaultTracingInsecure
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for fields that have zero values. Boolean
// switches are left alone because false is a valid choice; see Default.
// This function is idempotent.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxRequestBytes == 0 {
		cfg.Server.MaxRequestBytes = DefaultMaxRequestBytes
	}

	// Backends
	for i := range cfg.Backends {
		ApplyBackendDefaults(&cfg.Backends[i])
	}

	// Routing
	if cfg.Routing.Strategy == "" {
		cfg.Routing.Strategy = DefaultStrategy
	}
	if cfg.Routing.MaxAttempts == 0 {
		cfg.Routing.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Routing.DefaultEstimateTokens == 0 {
		cfg.Routing.DefaultEstimateTokens = DefaultDefaultEstimateTokens
	}

	// Cache
	if cfg.Cache.MaxSize == 0 {
		cfg.Cache.MaxSize = DefaultCacheMaxSize
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.CleanupInterval == 0 {
		cfg.Cache.CleanupInterval = DefaultCacheCleanupInterval
	}

	// Usage
	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Usage.Driver == "" {
		cfg.Usage.Driver = DefaultUsageDriver
	}
	if cfg.Usage.Path == "" {
		cfg.Usage.Path = DefaultUsagePath
	}
	if cfg.Usage.BufferSize == 0 {
		cfg.Usage.BufferSize = DefaultUsageBufferSize
	}
	if cfg.Usage.MaxRecords == 0 {
		cfg.Usage.MaxRecords = DefaultUsageMaxRecords
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

// ApplyBackendDefaults fills the zero fields of one backend.
func ApplyBackendDefaults(b *providers.BackendConfig) {
	if b.Family == "" {
		b.Family = providers.FamilyMock
	}
	if b.Model == "" {
		b.Model = b.ID
	}
	if len(b.Capabilities) == 0 {
		b.Capabilities = []providers.Capability{providers.CapabilityChat, providers.CapabilityCompletion}
	}
	if b.MaxTokens == 0 {
		b.MaxTokens = DefaultBackendMaxTokens
	}
	if b.ContextWindow == 0 {
		b.ContextWindow = b.MaxTokens
	}
	if b.Weight == 0 {
		b.Weight = DefaultBackendWeight
	}
	if b.Timeout == 0 && b.Family != providers.FamilyMock {
		b.Timeout = DefaultBackendTimeout
	}
	if b.Delay == 0 && b.Family == providers.FamilyMock {
		b.Delay = DefaultMockDelay
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Logging.Output == "" {
		t.Logging.Output = DefaultLoggingOutput
	}
	if t.Logging.File.MaxSizeMB == 0 {
		t.Logging.File.MaxSizeMB = DefaultLogFileMaxSizeMB
	}
	if t.Logging.File.MaxBackups == 0 {
		t.Logging.File.MaxBackups = DefaultLogFileMaxBackups
	}
	if t.Logging.File.MaxAgeDays == 0 {
		t.Logging.File.MaxAgeDays = DefaultLogFileMaxAgeDays
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.RequestDurationBuckets) == 0 {
		t.Metrics.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}
	if len(t.Metrics.TokenCountBuckets) == 0 {
		t.Metrics.TokenCountBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000}
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}

	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
