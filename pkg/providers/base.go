package providers

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/switchboard/pkg/limits/ratelimit"
)

// DefaultEstimateTokens is the admission estimate used when a request does
// not set MaxTokens.
const DefaultEstimateTokens = 1000

// Base holds the state every adapter shares: the registration config, the
// backend's rate limiter, and its running statistics. Adapters embed it and
// call Observe after every attempt.
type Base struct {
	config  BackendConfig
	limiter *ratelimit.Limiter

	defaultEstimate int
	now             func() time.Time

	mu    sync.Mutex
	stats BackendStats

	// refusals counts limiter refusals seen by CanHandleRequest. It is kept
	// apart from stats so the eligibility check stays lock-free.
	refusals atomic.Int64
}

// BaseOption customizes a Base.
type BaseOption func(*Base)

// WithDefaultEstimate sets the admission estimate for requests without
// MaxTokens.
func WithDefaultEstimate(tokens int) BaseOption {
	return func(b *Base) {
		if tokens > 0 {
			b.defaultEstimate = tokens
		}
	}
}

// WithClock overrides the clock used by the limiter and the stats.
func WithClock(now func() time.Time) BaseOption {
	return func(b *Base) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBase creates the shared adapter state for config.
func NewBase(config BackendConfig, opts ...BaseOption) *Base {
	b := &Base{
		config:          config.Clone(),
		defaultEstimate: DefaultEstimateTokens,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: config.RequestsPerMinute,
		TokensPerMinute:   config.TokensPerMinute,
		Now:               b.now,
	})
	return b
}

// ID returns the backend ID.
func (b *Base) ID() string {
	return b.config.ID
}

// Config returns a copy of the registration config.
func (b *Base) Config() BackendConfig {
	return b.config.Clone()
}

// Limiter returns the backend's rate limiter.
func (b *Base) Limiter() *ratelimit.Limiter {
	return b.limiter
}

// Supports reports whether the backend declares every capability req needs.
func (b *Base) Supports(req *Request) bool {
	for _, capability := range req.RequiredCapabilities() {
		if !b.config.HasCapability(capability) {
			return false
		}
	}
	return true
}

// EstimateTokens returns the admission estimate for req.
func (b *Base) EstimateTokens(req *Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return b.defaultEstimate
}

// CanHandleRequest reports whether the backend supports req and its limiter
// would admit it now. No rate-limit budget is consumed.
func (b *Base) CanHandleRequest(req *Request) bool {
	if !b.Supports(req) {
		return false
	}
	if !b.limiter.CanAdmit(b.EstimateTokens(req)) {
		b.refusals.Add(1)
		return false
	}
	return true
}

// Stats returns a snapshot of the running statistics.
func (b *Base) Stats() BackendStats {
	b.mu.Lock()
	stats := b.stats
	b.mu.Unlock()

	stats.RateLimitHits += b.refusals.Load()
	return stats
}

// Observe updates the statistics after one attempt that started at start.
// A nil err counts as a success. Tokens reported by resp are added to the
// token counters whatever the outcome. Only a success takes a request slot
// in the limiter; a failure records its partial tokens, if any.
func (b *Base) Observe(start time.Time, resp *Response, err error) {
	now := b.now()
	elapsed := now.Sub(start)

	tokens := 0
	if resp != nil {
		tokens = resp.Usage.TotalTokens
	}

	b.mu.Lock()
	b.stats.TotalRequests++
	b.stats.LastRequestTime = now
	b.stats.TotalTokens += int64(tokens)
	b.stats.TotalCost += float64(tokens) * b.config.CostPerToken

	if err == nil {
		b.stats.SuccessfulRequests++
		n := b.stats.SuccessfulRequests
		avg := b.stats.AverageResponseTime
		b.stats.AverageResponseTime = avg + (elapsed-avg)/time.Duration(n)
	} else {
		b.stats.FailedRequests++
		var rle *RateLimitError
		if errors.As(err, &rle) {
			b.stats.RateLimitHits++
		}
	}
	b.mu.Unlock()

	if err == nil {
		b.limiter.Record(tokens)
		return
	}
	b.limiter.RecordTokens(tokens)
}

// ObserveUsage is Observe for callers that only hold token usage, such as
// a stream that terminated before a Response was built.
func (b *Base) ObserveUsage(start time.Time, usage *TokenUsage, err error) {
	var resp *Response
	if usage != nil {
		resp = &Response{Usage: *usage}
	}
	b.Observe(start, resp, err)
}

// Now returns the current time according to the Base clock.
func (b *Base) Now() time.Time {
	return b.now()
}

// ResetStats clears the statistics and the limiter window.
func (b *Base) ResetStats() {
	b.mu.Lock()
	b.stats = BackendStats{}
	b.mu.Unlock()
	b.refusals.Store(0)
	b.limiter.Reset()
}
