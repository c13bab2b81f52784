package proxy

import (
	"time"

	"mercator-hq/switchboard/pkg/cache"
	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing/strategies"
	"mercator-hq/switchboard/pkg/telemetry/health"
	"mercator-hq/switchboard/pkg/telemetry/metrics"
	"mercator-hq/switchboard/pkg/telemetry/tracing"
	"mercator-hq/switchboard/pkg/usage"
)

// DefaultMaxAttempts is the attempt bound when none is configured.
const DefaultMaxAttempts = 3

// DefaultCleanupInterval is the cache maintenance period.
const DefaultCleanupInterval = 5 * time.Minute

// Options configures a Service. Start from DefaultOptions so boolean
// defaults are set; zero numeric fields are replaced by their defaults.
type Options struct {
	// Strategy is the load-balancing strategy.
	Strategy strategies.Kind

	// Seed seeds the weighted and random strategies (0 = time based).
	Seed int64

	// MaxAttempts bounds backend calls per request.
	MaxAttempts int

	// Failover enables retrying on another backend after a failure.
	Failover bool

	// MaxConcurrentRequests bounds in-flight calls (0 = unlimited).
	MaxConcurrentRequests int

	// DefaultEstimateTokens is the admission estimate for requests
	// without max_tokens.
	DefaultEstimateTokens int

	// CacheEnabled turns the response cache on.
	CacheEnabled bool

	// CacheMaxSize is the cache capacity in entries.
	CacheMaxSize int

	// CacheTTL is the lifetime of cached responses.
	CacheTTL time.Duration

	// CleanupInterval is the period of the expired-entry sweep.
	CleanupInterval time.Duration

	// HealthCheckTimeout bounds each backend probe.
	HealthCheckTimeout time.Duration

	// Metrics records Prometheus metrics. Nil disables them.
	Metrics *metrics.Collector

	// Tracer opens spans. Nil disables tracing.
	Tracer *tracing.Tracer

	// Usage receives one record per attempt. Nil disables the ledger.
	Usage *usage.Recorder

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	// BackendOptions are passed to every adapter the service creates.
	BackendOptions []providers.BaseOption
}

// DefaultOptions returns options with failover and the cache enabled.
func DefaultOptions() Options {
	return Options{
		Strategy:              strategies.RoundRobin,
		MaxAttempts:           DefaultMaxAttempts,
		Failover:              true,
		DefaultEstimateTokens: providers.DefaultEstimateTokens,
		CacheEnabled:          true,
		CacheMaxSize:          cache.DefaultMaxSize,
		CacheTTL:              cache.DefaultTTL,
		CleanupInterval:       DefaultCleanupInterval,
		HealthCheckTimeout:    health.DefaultCheckTimeout,
	}
}

// OptionsFromConfig builds service options from a loaded configuration.
// Telemetry and usage collaborators are left for the caller to attach.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.Strategy = strategies.Kind(cfg.Routing.Strategy)
	opts.Seed = cfg.Routing.Seed
	opts.MaxAttempts = cfg.Routing.MaxAttempts
	opts.Failover = cfg.Routing.Failover
	opts.MaxConcurrentRequests = cfg.Routing.MaxConcurrentRequests
	opts.DefaultEstimateTokens = cfg.Routing.DefaultEstimateTokens
	opts.CacheEnabled = cfg.Cache.Enabled
	opts.CacheMaxSize = cfg.Cache.MaxSize
	opts.CacheTTL = cfg.Cache.TTL
	opts.CleanupInterval = cfg.Cache.CleanupInterval
	opts.HealthCheckTimeout = cfg.Telemetry.Health.CheckTimeout
	return opts
}

func (o *Options) applyDefaults() {
	if o.Strategy == "" {
		o.Strategy = strategies.RoundRobin
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.DefaultEstimateTokens <= 0 {
		o.DefaultEstimateTokens = providers.DefaultEstimateTokens
	}
	if o.CacheMaxSize <= 0 {
		o.CacheMaxSize = cache.DefaultMaxSize
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = cache.DefaultTTL
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = DefaultCleanupInterval
	}
	if o.HealthCheckTimeout <= 0 {
		o.HealthCheckTimeout = health.DefaultCheckTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

func (o *Options) strategyOptions() []strategies.Option {
	if o.Seed != 0 {
		return []strategies.Option{strategies.WithSeed(o.Seed)}
	}
	return nil
}
