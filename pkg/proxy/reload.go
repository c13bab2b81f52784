package proxy

import (
	"errors"
	"fmt"
	"reflect"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing/strategies"
)

// ReloadResult summarizes what ApplyConfig changed.
type ReloadResult struct {
	Added     []string
	Updated   []string
	Removed   []string
	Unchanged int
}

// ApplyConfig reconciles the running service with cfg. Backends missing
// from cfg are unregistered; new and changed backends are registered, which
// resets a changed backend's stats and limiter. Routing settings take effect
// for the next request. Cache settings need a restart.
//
// Every backend is attempted; the errors of those that failed are joined.
func (s *Service) ApplyConfig(cfg *config.Config) (ReloadResult, error) {
	var result ReloadResult
	if cfg == nil {
		return result, errors.New("config is nil")
	}

	var errs []error

	if err := s.applyRouting(cfg.Routing); err != nil {
		errs = append(errs, err)
	}

	desired := make(map[string]providers.BackendConfig, len(cfg.Backends))
	for _, b := range cfg.Backends {
		b = b.Clone()
		config.ApplyBackendDefaults(&b)
		desired[b.ID] = b
	}

	s.mu.RLock()
	current := make(map[string]providers.BackendConfig, len(s.configs))
	for id, b := range s.configs {
		current[id] = b
	}
	s.mu.RUnlock()

	for id := range current {
		if _, ok := desired[id]; ok {
			continue
		}
		if err := s.UnregisterBackend(id); err != nil {
			errs = append(errs, fmt.Errorf("unregister backend %q: %w", id, err))
			continue
		}
		result.Removed = append(result.Removed, id)
	}

	// Registration order follows the file so round robin stays predictable.
	for _, b := range cfg.Backends {
		want := desired[b.ID]
		have, exists := current[b.ID]
		if exists && reflect.DeepEqual(have, want) {
			result.Unchanged++
			continue
		}
		// A changed backend is replaced in its registration slot.
		if err := s.RegisterBackend(want); err != nil {
			errs = append(errs, fmt.Errorf("register backend %q: %w", b.ID, err))
			continue
		}
		if exists {
			result.Updated = append(result.Updated, b.ID)
		} else {
			result.Added = append(result.Added, b.ID)
		}
	}

	if cfg.Cache.Enabled != (s.cache != nil) ||
		(s.cache != nil && (cfg.Cache.MaxSize != s.opts.CacheMaxSize || cfg.Cache.TTL != s.opts.CacheTTL)) {
		s.logger.Warn("cache settings changed; restart to apply")
	}

	s.logger.Info("configuration applied",
		"added", len(result.Added),
		"updated", len(result.Updated),
		"removed", len(result.Removed),
		"unchanged", result.Unchanged,
		"errors", len(errs),
	)
	return result, errors.Join(errs...)
}

// applyRouting updates the strategy, retry policy and in-flight bound.
func (s *Service) applyRouting(rc config.RoutingConfig) error {
	kind := strategies.Kind(rc.Strategy)
	if kind == "" {
		kind = strategies.RoundRobin
	}

	var stratErr error
	if kind != s.balancer.Strategy() {
		var opts []strategies.Option
		if rc.Seed != 0 {
			opts = append(opts, strategies.WithSeed(rc.Seed))
		}
		strategy, err := strategies.New(kind, opts...)
		if err != nil {
			stratErr = fmt.Errorf("routing.strategy: %w", err)
		} else {
			s.balancer.SetStrategy(strategy)
		}
	}

	maxAttempts := rc.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	s.mu.Lock()
	s.maxAttempts = maxAttempts
	s.failover = rc.Failover
	s.mu.Unlock()

	s.inflight.SetLimit(rc.MaxConcurrentRequests)
	return stratErr
}
