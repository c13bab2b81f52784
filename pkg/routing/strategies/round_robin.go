package strategies

import (
	"sync/atomic"

	"mercator-hq/switchboard/pkg/providers"
)

// RoundRobinStrategy cycles through the candidates with a shared counter.
//
// Fairness holds among the backends eligible at each call: with k eligible
// backends, k consecutive selections visit each one once, in registration
// order. When the eligible set changes between calls the counter keeps
// running, so fairness is not global.
type RoundRobinStrategy struct {
	counter atomic.Uint64
}

// NewRoundRobinStrategy creates a round-robin strategy starting at the first
// candidate.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Select returns candidates[counter % len(candidates)] and increments the
// counter.
func (s *RoundRobinStrategy) Select(candidates []providers.Provider) providers.Provider {
	if len(candidates) == 1 {
		s.counter.Add(1)
		return candidates[0]
	}

	// Add returns the incremented value; subtract one to use the value
	// before increment. Unsigned overflow wraps around harmlessly.
	count := s.counter.Add(1) - 1
	return candidates[count%uint64(len(candidates))]
}

func (s *RoundRobinStrategy) Kind() Kind {
	return RoundRobin
}

// Reset restarts the cycle at the first candidate.
func (s *RoundRobinStrategy) Reset() {
	s.counter.Store(0)
}
