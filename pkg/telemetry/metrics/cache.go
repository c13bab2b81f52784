package metrics

import (
	"sync"

	"mercator-hq/switchboard/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheStats is the subset of response cache counters exported at scrape
// time.
type CacheStats struct {
	Size        int
	Evictions   int64
	Expirations int64
}

// CacheStatsFunc reads the current cache counters.
type CacheStatsFunc func() CacheStats

// CacheMetrics tracks response cache performance.
//
// Metrics:
//   - switchboard_gateway_cache_hits_total
//   - switchboard_gateway_cache_misses_total
//   - switchboard_gateway_cache_entries (read at scrape time)
//   - switchboard_gateway_cache_evictions_total (read at scrape time)
//   - switchboard_gateway_cache_expirations_total (read at scrape time)
type CacheMetrics struct {
	cfg      *config.MetricsConfig
	registry *prometheus.Registry

	hitsTotal   prometheus.Counter
	missesTotal prometheus.Counter

	observeOnce sync.Once
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		cfg:      cfg,
		registry: registry,

		hitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of response cache hits",
			},
		),

		missesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of response cache misses",
			},
		),
	}

	registry.MustRegister(cm.hitsTotal, cm.missesTotal)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit() {
	cm.hitsTotal.Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss() {
	cm.missesTotal.Inc()
}

// Observe registers scrape-time metrics backed by source.
func (cm *CacheMetrics) Observe(source CacheStatsFunc) {
	cm.observeOnce.Do(func() {
		opts := func(name, help string) prometheus.Opts {
			return prometheus.Opts{
				Namespace: cm.cfg.Namespace,
				Subsystem: cm.cfg.Subsystem,
				Name:      name,
				Help:      help,
			}
		}

		cm.registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts(opts("cache_entries", "Current number of cached responses")),
				func() float64 { return float64(source().Size) },
			),
			prometheus.NewCounterFunc(
				prometheus.CounterOpts(opts("cache_evictions_total", "Total number of LRU evictions")),
				func() float64 { return float64(source().Evictions) },
			),
			prometheus.NewCounterFunc(
				prometheus.CounterOpts(opts("cache_expirations_total", "Total number of expired entries removed")),
				func() float64 { return float64(source().Expirations) },
			),
		)
	})
}
