package strategies

import (
	"math/rand"

	"mercator-hq/switchboard/pkg/providers"
)

// WeightedStrategy draws one candidate with probability proportional to its
// configured weight. Non-positive weights take no share; when every weight
// is non-positive the draw is uniform.
type WeightedStrategy struct {
	rnd *lockedRand
}

// NewWeightedStrategy creates the strategy. It takes ownership of rnd.
func NewWeightedStrategy(rnd *rand.Rand) *WeightedStrategy {
	return &WeightedStrategy{rnd: newLockedRand(rnd)}
}

func (s *WeightedStrategy) Select(candidates []providers.Provider) providers.Provider {
	weights := make([]float64, len(candidates))
	var total float64
	for i, c := range candidates {
		if w := c.Config().Weight; w > 0 {
			weights[i] = w
			total += w
		}
	}

	if total <= 0 {
		return candidates[s.rnd.Intn(len(candidates))]
	}

	target := s.rnd.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if target < w {
			return candidates[i]
		}
		target -= w
	}

	// Float rounding can leave target marginally above the last share.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

func (s *WeightedStrategy) Kind() Kind {
	return Weighted
}

func (s *WeightedStrategy) Reset() {}
