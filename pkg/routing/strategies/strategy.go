package strategies

import (
	"fmt"
	"math/rand"
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

// Kind names a load-balancing strategy.
type Kind string

const (
	RoundRobin      Kind = "round_robin"
	LeastLoaded     Kind = "least_loaded"
	FastestResponse Kind = "fastest_response"
	CostOptimized   Kind = "cost_optimized"
	Weighted        Kind = "weighted"
	Random          Kind = "random"
)

// Kinds lists every strategy in a stable order.
func Kinds() []Kind {
	return []Kind{RoundRobin, LeastLoaded, FastestResponse, CostOptimized, Weighted, Random}
}

// Strategy picks one backend out of an already filtered candidate list.
//
// Candidates arrive in registration order and are never empty. For the
// numeric strategies the first candidate wins ties, so a fixed input order
// always gives the same answer.
//
// Implementations must be safe for concurrent use.
type Strategy interface {
	// Select returns one of candidates.
	Select(candidates []providers.Provider) providers.Provider

	// Kind returns the strategy name for logging and statistics.
	Kind() Kind

	// Reset clears internal state such as counters.
	Reset()
}

// Option configures strategies that draw random numbers.
type Option func(*options)

type options struct {
	rnd *rand.Rand
}

// WithRand injects the random source used by the weighted and random
// strategies.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rnd = r
	}
}

// WithSeed seeds the random source used by the weighted and random
// strategies.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// UnknownStrategyError is returned by Parse and New for an unrecognized name.
type UnknownStrategyError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown load balancing strategy %q (available: %v)", e.Name, Kinds())
}

// Parse validates a strategy name.
func Parse(name string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", &UnknownStrategyError{Name: name}
}

// New creates the strategy named by kind.
func New(kind Kind, opts ...Option) (Strategy, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	switch kind {
	case RoundRobin:
		return NewRoundRobinStrategy(), nil
	case LeastLoaded:
		return NewLeastLoadedStrategy(), nil
	case FastestResponse:
		return NewFastestResponseStrategy(), nil
	case CostOptimized:
		return NewCostOptimizedStrategy(), nil
	case Weighted:
		return NewWeightedStrategy(o.rnd), nil
	case Random:
		return NewRandomStrategy(o.rnd), nil
	default:
		return nil, &UnknownStrategyError{Name: string(kind)}
	}
}
