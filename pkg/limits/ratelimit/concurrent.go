package ratelimit

import (
	"sync/atomic"
)

// ConcurrentLimiter bounds the number of backend calls in flight at once.
//
// It is a counting semaphore built on atomic operations: Acquire increments
// the counter and backs out if the limit was exceeded. A limit of zero or
// less disables the bound, in which case Acquire always succeeds but the
// in-flight count is still tracked for reporting.
type ConcurrentLimiter struct {
	limit   atomic.Int64
	current atomic.Int64
}

// NewConcurrentLimiter creates a limiter allowing limit simultaneous calls.
//
// Example:
//
//	inflight := NewConcurrentLimiter(50)
//	if !inflight.Acquire() {
//	    return ErrTooManyInFlight
//	}
//	defer inflight.Release()
func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	cl := &ConcurrentLimiter{}
	cl.limit.Store(int64(limit))
	return cl
}

// Acquire takes a slot. If it returns true the caller must call Release.
func (cl *ConcurrentLimiter) Acquire() bool {
	current := cl.current.Add(1)
	limit := cl.limit.Load()
	if limit > 0 && current > limit {
		cl.current.Add(-1)
		return false
	}
	return true
}

// Release returns a slot taken by Acquire.
func (cl *ConcurrentLimiter) Release() {
	if cl.current.Add(-1) < 0 {
		cl.current.Store(0)
	}
}

// Current returns the number of in-flight calls.
func (cl *ConcurrentLimiter) Current() int64 {
	return cl.current.Load()
}

// Limit returns the configured bound (0 = unlimited).
func (cl *ConcurrentLimiter) Limit() int64 {
	return cl.limit.Load()
}

// SetLimit changes the bound. Calls already in flight are not affected.
func (cl *ConcurrentLimiter) SetLimit(limit int) {
	cl.limit.Store(int64(limit))
}

// Remaining returns the number of free slots, or -1 when unlimited.
func (cl *ConcurrentLimiter) Remaining() int64 {
	limit := cl.limit.Load()
	if limit <= 0 {
		return -1
	}
	remaining := limit - cl.current.Load()
	if remaining < 0 {
		return 0
	}
	return remaining
}
