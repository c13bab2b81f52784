package routing

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/routing/strategies"
)

// Balancer owns the set of registered backend adapters and picks one per
// request using the active strategy.
//
// Registration order is preserved and is the order candidates are handed to
// the strategy. The registry lock is never held while a strategy runs or
// while an adapter is asked whether it can take a request.
type Balancer struct {
	mu       sync.RWMutex
	backends []providers.Provider
	index    map[string]int
	strategy strategies.Strategy

	stats  *atomicStats
	logger *slog.Logger
}

// NewBalancer creates an empty balancer using strategy.
func NewBalancer(strategy strategies.Strategy) *Balancer {
	if strategy == nil {
		strategy = strategies.NewRoundRobinStrategy()
	}
	return &Balancer{
		index:    make(map[string]int),
		strategy: strategy,
		stats:    newAtomicStats(),
		logger:   slog.Default().With("component", "routing.balancer"),
	}
}

// Register adds p. A backend with the same ID is replaced in place, keeping
// its registration slot, and the replaced adapter is closed.
func (b *Balancer) Register(p providers.Provider) error {
	if p == nil {
		return fmt.Errorf("register: nil provider")
	}
	id := p.Config().ID
	if id == "" {
		return &providers.ConfigError{Field: "id", Message: "backend ID is required"}
	}

	b.mu.Lock()
	var replaced providers.Provider
	if i, ok := b.index[id]; ok {
		replaced = b.backends[i]
		b.backends[i] = p
	} else {
		b.index[id] = len(b.backends)
		b.backends = append(b.backends, p)
	}
	b.mu.Unlock()

	if replaced != nil && replaced != p {
		if err := replaced.Close(); err != nil {
			b.logger.Warn("failed to close replaced backend", "backend", id, "error", err)
		}
		b.logger.Info("backend replaced", "backend", id)
		return nil
	}
	b.logger.Info("backend registered", "backend", id, "family", p.Config().Family)
	return nil
}

// Unregister removes and closes the backend with the given ID.
func (b *Balancer) Unregister(id string) error {
	b.mu.Lock()
	i, ok := b.index[id]
	if !ok {
		available := b.idsLocked()
		b.mu.Unlock()
		return &BackendNotFoundError{ID: id, Available: available}
	}
	p := b.backends[i]
	b.backends = slices.Delete(b.backends, i, i+1)
	delete(b.index, id)
	for j := i; j < len(b.backends); j++ {
		b.index[b.backends[j].Config().ID] = j
	}
	b.mu.Unlock()

	b.logger.Info("backend unregistered", "backend", id)
	return p.Close()
}

// Get returns the backend with the given ID.
func (b *Balancer) Get(id string) (providers.Provider, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return b.backends[i], true
}

// Providers returns the registered backends in registration order.
func (b *Balancer) Providers() []providers.Provider {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.backends)
}

// IDs returns the registered backend IDs in registration order.
func (b *Balancer) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.idsLocked()
}

func (b *Balancer) idsLocked() []string {
	ids := make([]string, len(b.backends))
	for i, p := range b.backends {
		ids[i] = p.Config().ID
	}
	return ids
}

// Len returns the number of registered backends.
func (b *Balancer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.backends)
}

// Strategy returns the active strategy kind.
func (b *Balancer) Strategy() strategies.Kind {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.strategy.Kind()
}

// SetStrategy swaps the active strategy.
func (b *Balancer) SetStrategy(strategy strategies.Strategy) {
	if strategy == nil {
		return
	}
	b.mu.Lock()
	b.strategy = strategy
	b.mu.Unlock()
	b.logger.Info("strategy changed", "strategy", strategy.Kind())
}

// Supports reports whether any registered backend declares every capability
// req needs, ignoring rate limits.
func (b *Balancer) Supports(req *providers.Request) bool {
	for _, p := range b.Providers() {
		if supports(p, req) {
			return true
		}
	}
	return false
}

// Select returns one eligible backend for req. When nothing is eligible it
// returns a *NoBackendAvailableError.
func (b *Balancer) Select(req *providers.Request) (providers.Provider, error) {
	b.mu.RLock()
	backends := slices.Clone(b.backends)
	strategy := b.strategy
	b.mu.RUnlock()

	candidates, rejected := filterEligible(backends, req)
	if len(rejected.RateLimited) > 0 {
		b.stats.recordRateLimited(len(rejected.RateLimited))
	}
	if len(candidates) == 0 {
		b.stats.recordNoBackend()
		return nil, rejected
	}

	selected := strategy.Select(candidates)
	if selected == nil {
		b.stats.recordNoBackend()
		return nil, rejected
	}

	id := selected.Config().ID
	b.stats.recordSelection(id)
	b.logger.Debug("backend selected",
		"request_id", req.ID,
		"backend", id,
		"strategy", strategy.Kind(),
		"candidates", len(candidates),
	)
	return selected, nil
}

// Stats returns a snapshot of selection statistics.
func (b *Balancer) Stats() SelectionStats {
	s := b.stats.snapshot()
	s.Strategy = string(b.Strategy())
	return s
}

// ResetStats clears selection statistics and strategy state.
func (b *Balancer) ResetStats() {
	b.stats.reset()
	b.mu.RLock()
	b.strategy.Reset()
	b.mu.RUnlock()
}

// Close closes and removes every registered backend.
func (b *Balancer) Close() error {
	b.mu.Lock()
	backends := b.backends
	b.backends = nil
	b.index = make(map[string]int)
	b.mu.Unlock()

	var firstErr error
	for _, p := range backends {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close backend %q: %w", p.Config().ID, err)
		}
	}
	return firstErr
}
