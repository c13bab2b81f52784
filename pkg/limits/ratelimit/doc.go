// Package ratelimit provides the per-backend throughput limiter and the
// in-flight call bound used by the gateway.
//
// # Sliding Window Limiter
//
// Limiter tracks requests and tokens over a trailing one-minute window.
// Admission is checked without side effects and usage is recorded after
// the backend call completes:
//
//	limiter := ratelimit.NewLimiter(ratelimit.Config{
//	    RequestsPerMinute: 60,
//	    TokensPerMinute:   90000,
//	})
//	if limiter.CanAdmit(1000) {
//	    // call backend
//	    if err == nil {
//	        limiter.Record(tokensUsed)
//	    } else {
//	        limiter.RecordTokens(partialTokens)
//	    }
//	}
//
// A failed call never takes a request slot, so a transient error does not
// push a backend out of the eligible set before it can be retried.
//
// Both logs are ring buffers ordered by time, so pruning only pops from the
// head and never reallocates in steady state.
//
// # Concurrent Limiter
//
// ConcurrentLimiter caps simultaneous backend calls across the service:
//
//	inflight := ratelimit.NewConcurrentLimiter(50)
//	if inflight.Acquire() {
//	    defer inflight.Release()
//	    // process request
//	}
//
// # Thread Safety
//
// Every Limiter has its own mutex; ConcurrentLimiter is lock-free.
package ratelimit
