package ratelimit

import "time"

// DefaultWindow is the trailing window both logs are scoped to.
const DefaultWindow = time.Minute

// Config contains the throughput budget of a single backend.
// A zero limit disables that dimension.
type Config struct {
	// RequestsPerMinute caps admitted requests in the trailing window.
	RequestsPerMinute int

	// TokensPerMinute caps tokens used in the trailing window.
	TokensPerMinute int

	// Window overrides the trailing window length (default: one minute).
	Window time.Duration

	// Now overrides the clock. Tests use it to slide the window.
	Now func() time.Time
}

// Usage is a point-in-time view of a limiter's window.
type Usage struct {
	// Requests is the number of recorded requests in the window.
	Requests int `json:"requests"`

	// Tokens is the number of recorded tokens in the window.
	Tokens int64 `json:"tokens"`

	// RequestsPerMinute is the configured request budget.
	RequestsPerMinute int `json:"requests_per_minute"`

	// TokensPerMinute is the configured token budget.
	TokensPerMinute int `json:"tokens_per_minute"`
}
