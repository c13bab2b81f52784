package routing

import (
	"log/slog"

	"mercator-hq/switchboard/pkg/providers"
)

// capabilityChecker is implemented by adapters that can report capability
// support separately from rate-limit admission. providers.Base does.
type capabilityChecker interface {
	Supports(req *providers.Request) bool
}

// supports reports whether p declares every capability req needs.
func supports(p providers.Provider, req *providers.Request) bool {
	if cc, ok := p.(capabilityChecker); ok {
		return cc.Supports(req)
	}
	cfg := p.Config()
	for _, c := range req.RequiredCapabilities() {
		if !cfg.HasCapability(c) {
			return false
		}
	}
	return true
}

// filterEligible splits backends into the candidates that can handle req
// now and the IDs rejected for capability or rate limit. Order is preserved.
func filterEligible(backends []providers.Provider, req *providers.Request) ([]providers.Provider, *NoBackendAvailableError) {
	candidates := make([]providers.Provider, 0, len(backends))
	rejected := &NoBackendAvailableError{}

	for _, p := range backends {
		if p.CanHandleRequest(req) {
			candidates = append(candidates, p)
			continue
		}
		id := p.Config().ID
		if supports(p, req) {
			rejected.RateLimited = append(rejected.RateLimited, id)
		} else {
			rejected.Capability = append(rejected.Capability, id)
		}
	}

	slog.Debug("filtered backends by eligibility",
		"total", len(backends),
		"eligible", len(candidates),
		"rate_limited", len(rejected.RateLimited),
		"incapable", len(rejected.Capability),
	)

	return candidates, rejected
}
