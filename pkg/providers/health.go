package providers

import (
	"errors"
	"time"
)

// HealthStatus is the availability of one backend as seen by HealthCheck.
type HealthStatus string

const (
	HealthAvailable   HealthStatus = "available"
	HealthUnavailable HealthStatus = "unavailable"
	HealthRateLimited HealthStatus = "rate_limited"
)

// BackendHealth is the result of probing one backend.
type BackendHealth struct {
	Backend   string        `json:"backend"`
	Status    HealthStatus  `json:"status"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
}

// ClassifyHealth turns a HealthCheck outcome into a status. A backend whose
// probe succeeded but whose limiter is saturated is rate limited, as is one
// whose probe was refused with a 429.
func ClassifyHealth(p Provider, err error) HealthStatus {
	if err != nil {
		var rle *RateLimitError
		if errors.As(err, &rle) {
			return HealthRateLimited
		}
		return HealthUnavailable
	}
	if limited, ok := p.(interface{ Saturated() bool }); ok && limited.Saturated() {
		return HealthRateLimited
	}
	return HealthAvailable
}

// Saturated reports whether the limiter would refuse a minimal request now.
func (b *Base) Saturated() bool {
	return !b.limiter.CanAdmit(0)
}
