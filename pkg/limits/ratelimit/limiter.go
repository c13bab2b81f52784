package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces the throughput budget of one backend.
//
// It keeps two trailing-window logs: one timestamp per recorded request and
// one (timestamp, tokens) pair per recorded token usage. Both logs are
// pruned to the configured window before every read, so admission always
// reflects exactly the last minute of traffic.
//
// Admission and recording are separate steps. CanAdmit never consumes
// budget; the caller records actual usage once the backend call finishes:
//
//	if !limiter.CanAdmit(estimated) {
//	    return errRateLimited
//	}
//	resp, err := call()
//	limiter.Record(resp.Usage.TotalTokens)
//
// # Thread Safety
//
// Each Limiter owns its own mutex, so limiters of different backends never
// contend with each other.
type Limiter struct {
	mu       sync.Mutex
	requests *windowLog
	tokens   *windowLog

	requestsPerMinute int
	tokensPerMinute   int
	window            time.Duration
	now               func() time.Time
}

// NewLimiter creates a limiter for the given budget. Zero limits are
// treated as unlimited.
//
// Example:
//
//	limiter := NewLimiter(Config{
//	    RequestsPerMinute: 60,
//	    TokensPerMinute:   90000,
//	})
func NewLimiter(config Config) *Limiter {
	window := config.Window
	if window <= 0 {
		window = DefaultWindow
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	// Initial ring size only; the logs grow on demand.
	capacity := 64
	if config.RequestsPerMinute > 0 {
		capacity = min(config.RequestsPerMinute, 1024)
	}

	return &Limiter{
		requests:          newWindowLog(capacity),
		tokens:            newWindowLog(capacity),
		requestsPerMinute: config.RequestsPerMinute,
		tokensPerMinute:   config.TokensPerMinute,
		window:            window,
		now:               now,
	}
}

// CanAdmit reports whether a request estimated to use estimatedTokens fits
// in the remaining budget. It does not record anything.
func (l *Limiter) CanAdmit(estimatedTokens int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked()

	if l.requestsPerMinute > 0 && l.requests.len() >= l.requestsPerMinute {
		return false
	}
	if l.tokensPerMinute > 0 && l.tokens.total()+int64(estimatedTokens) > int64(l.tokensPerMinute) {
		return false
	}
	return true
}

// Record logs one completed request at the current time, plus tokensUsed
// when it is positive. Only successful calls are recorded this way.
func (l *Limiter) Record(tokensUsed int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.requests.push(now, 1)
	if tokensUsed > 0 {
		l.tokens.push(now, int64(tokensUsed))
	}
}

// RecordTokens logs tokensUsed without counting a request. Failed calls
// that still reported partial usage are recorded this way.
func (l *Limiter) RecordTokens(tokensUsed int) {
	if tokensUsed <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens.push(l.now(), int64(tokensUsed))
}

// Usage returns the current window contents.
func (l *Limiter) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked()
	return Usage{
		Requests:          l.requests.len(),
		Tokens:            l.tokens.total(),
		RequestsPerMinute: l.requestsPerMinute,
		TokensPerMinute:   l.tokensPerMinute,
	}
}

// RetryAfter returns how long until the oldest request leaves the window.
// It is zero when the request log is empty.
func (l *Limiter) RetryAfter() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneAt(now)

	oldest, ok := l.requests.oldest()
	if !ok {
		return 0
	}
	wait := oldest.Add(l.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Reset clears both logs.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests.reset()
	l.tokens.reset()
}

func (l *Limiter) pruneLocked() {
	l.pruneAt(l.now())
}

// pruneAt drops every entry older than the window. An entry exactly one
// window old has expired.
func (l *Limiter) pruneAt(now time.Time) {
	cutoff := now.Add(-l.window)
	l.requests.prune(cutoff)
	l.tokens.prune(cutoff)
}
