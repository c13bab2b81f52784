package strategies

import "mercator-hq/switchboard/pkg/providers"

// CostOptimizedStrategy picks the candidate with the lowest cost per token.
type CostOptimizedStrategy struct{}

func NewCostOptimizedStrategy() *CostOptimizedStrategy {
	return &CostOptimizedStrategy{}
}

func (s *CostOptimizedStrategy) Select(candidates []providers.Provider) providers.Provider {
	best := candidates[0]
	bestCost := best.Config().CostPerToken
	for _, c := range candidates[1:] {
		if cost := c.Config().CostPerToken; cost < bestCost {
			best, bestCost = c, cost
		}
	}
	return best
}

func (s *CostOptimizedStrategy) Kind() Kind {
	return CostOptimized
}

func (s *CostOptimizedStrategy) Reset() {}
