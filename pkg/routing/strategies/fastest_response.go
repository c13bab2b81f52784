package strategies

import (
	"math"

	"mercator-hq/switchboard/pkg/providers"
)

// FastestResponseStrategy picks the candidate with the lowest average
// response time. A backend without any successful call has no latency and
// ranks last, but is still chosen when no candidate has data.
type FastestResponseStrategy struct{}

func NewFastestResponseStrategy() *FastestResponseStrategy {
	return &FastestResponseStrategy{}
}

func (s *FastestResponseStrategy) Select(candidates []providers.Provider) providers.Provider {
	best := candidates[0]
	bestLatency := latency(best.Stats())
	for _, c := range candidates[1:] {
		if l := latency(c.Stats()); l < bestLatency {
			best, bestLatency = c, l
		}
	}
	return best
}

func latency(stats providers.BackendStats) float64 {
	if !stats.HasLatency() {
		return math.Inf(1)
	}
	return float64(stats.AverageResponseTime)
}

func (s *FastestResponseStrategy) Kind() Kind {
	return FastestResponse
}

func (s *FastestResponseStrategy) Reset() {}
