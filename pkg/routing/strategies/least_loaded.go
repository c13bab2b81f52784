package strategies

import "mercator-hq/switchboard/pkg/providers"

// LeastLoadedStrategy picks the candidate with the fewest total requests.
type LeastLoadedStrategy struct{}

func NewLeastLoadedStrategy() *LeastLoadedStrategy {
	return &LeastLoadedStrategy{}
}

func (s *LeastLoadedStrategy) Select(candidates []providers.Provider) providers.Provider {
	best := candidates[0]
	bestLoad := best.Stats().TotalRequests
	for _, c := range candidates[1:] {
		if load := c.Stats().TotalRequests; load < bestLoad {
			best, bestLoad = c, load
		}
	}
	return best
}

func (s *LeastLoadedStrategy) Kind() Kind {
	return LeastLoaded
}

func (s *LeastLoadedStrategy) Reset() {}
