package strategies

import (
	"math/rand"

	"mercator-hq/switchboard/pkg/providers"
)

// RandomStrategy picks a candidate uniformly at random.
type RandomStrategy struct {
	rnd *lockedRand
}

// NewRandomStrategy creates the strategy. It takes ownership of rnd.
func NewRandomStrategy(rnd *rand.Rand) *RandomStrategy {
	return &RandomStrategy{rnd: newLockedRand(rnd)}
}

func (s *RandomStrategy) Select(candidates []providers.Provider) providers.Provider {
	return candidates[s.rnd.Intn(len(candidates))]
}

func (s *RandomStrategy) Kind() Kind {
	return Random
}

func (s *RandomStrategy) Reset() {}
