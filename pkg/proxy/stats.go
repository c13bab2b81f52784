package proxy

import (
	"slices"
	"time"

	"mercator-hq/switchboard/pkg/cache"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing"
)

// ModelInfo describes one registered backend for model listings.
type ModelInfo struct {
	ID                      string                  `json:"id"`
	Family                  providers.Family        `json:"family"`
	Model                   string                  `json:"model"`
	Capabilities            []providers.Capability  `json:"capabilities"`
	MaxTokens               int                     `json:"max_tokens"`
	CostPerToken            float64                 `json:"cost_per_token"`
	ContextWindow           int                     `json:"context_window"`
	SupportsStreaming       bool                    `json:"supports_streaming"`
	SupportsFunctionCalling bool                    `json:"supports_function_calling"`
	Weight                  float64                 `json:"weight"`
	Priority                int                     `json:"priority"`
	Available               bool                    `json:"available"`
	Stats                   *providers.BackendStats `json:"stats,omitempty"`
}

// ServiceStats is a snapshot of service-level counters.
type ServiceStats struct {
	Running   bool          `json:"running"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Uptime    time.Duration `json:"uptime"`

	// TotalRequests counts every public generate call, streaming included.
	TotalRequests int64 `json:"total_requests"`

	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	CacheHitRatio float64 `json:"cache_hit_ratio"`

	RegisteredBackends int      `json:"registered_backends"`
	Backends           []string `json:"backends"`

	Strategy  string                 `json:"strategy"`
	Selection routing.SelectionStats `json:"selection"`
	InFlight  int64                  `json:"in_flight"`

	CacheEnabled bool         `json:"cache_enabled"`
	Cache        *cache.Stats `json:"cache,omitempty"`

	MaxAttempts int  `json:"max_attempts"`
	Failover    bool `json:"failover"`
}

// ListAvailableModels describes every registered backend in registration
// order. Available reports whether the backend would admit a minimal
// request right now.
func (s *Service) ListAvailableModels() []ModelInfo {
	backends := s.balancer.Providers()
	models := make([]ModelInfo, 0, len(backends))

	for _, p := range backends {
		cfg := p.Config()
		stats := p.Stats()
		models = append(models, ModelInfo{
			ID:                      cfg.ID,
			Family:                  cfg.Family,
			Model:                   cfg.Model,
			Capabilities:            slices.Clone(cfg.Capabilities),
			MaxTokens:               cfg.MaxTokens,
			CostPerToken:            cfg.CostPerToken,
			ContextWindow:           cfg.ContextWindow,
			SupportsStreaming:       cfg.HasCapability(providers.CapabilityStreaming),
			SupportsFunctionCalling: cfg.HasCapability(providers.CapabilityFunctionCalling),
			Weight:                  cfg.Weight,
			Priority:                cfg.Priority,
			Available:               providers.ClassifyHealth(p, nil) == providers.HealthAvailable,
			Stats:                   &stats,
		})
	}
	return models
}

// GetProviderStats returns a stats snapshot per backend ID.
func (s *Service) GetProviderStats() map[string]providers.BackendStats {
	backends := s.balancer.Providers()
	stats := make(map[string]providers.BackendStats, len(backends))
	for _, p := range backends {
		stats[p.Config().ID] = p.Stats()
	}
	return stats
}

// GetServiceStats returns a snapshot of the service counters.
func (s *Service) GetServiceStats() ServiceStats {
	s.mu.RLock()
	running := s.running
	startedAt := s.startedAt
	maxAttempts := s.maxAttempts
	failover := s.failover
	s.mu.RUnlock()

	hits := s.cacheHits.Load()
	misses := s.cacheMisses.Load()

	stats := ServiceStats{
		Running:       running,
		TotalRequests: s.totalRequests.Load(),
		CacheHits:     hits,
		CacheMisses:   misses,
		Strategy:      string(s.balancer.Strategy()),
		Selection:     s.balancer.Stats(),
		InFlight:      s.inflight.Current(),
		CacheEnabled:  s.cache != nil,
		MaxAttempts:   maxAttempts,
		Failover:      failover,
	}

	if running {
		stats.StartedAt = startedAt
		stats.Uptime = s.opts.Now().Sub(startedAt)
	}
	if lookups := hits + misses; lookups > 0 {
		stats.CacheHitRatio = float64(hits) / float64(lookups)
	}

	stats.Backends = s.balancer.IDs()
	stats.RegisteredBackends = len(stats.Backends)

	if s.cache != nil {
		cs := s.cache.Stats()
		stats.Cache = &cs
	}
	return stats
}
