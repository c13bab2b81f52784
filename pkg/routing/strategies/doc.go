// Package strategies implements the load-balancing strategies used to pick
// one backend among the eligible candidates.
//
//   - round_robin: shared atomic counter modulo the candidate count
//   - least_loaded: fewest total requests
//   - fastest_response: lowest average latency; backends without data rank last
//   - cost_optimized: lowest cost per token
//   - weighted: random draw proportional to weight
//   - random: uniform random draw
//
// Create a strategy by name:
//
//	kind, err := strategies.Parse(cfg.Routing.Strategy)
//	if err != nil {
//	    return err
//	}
//	strategy, err := strategies.New(kind, strategies.WithSeed(42))
//
// Tests inject a seeded source so weighted and random draws are repeatable.
package strategies
