package providers

import "time"

// BackendStats is a snapshot of one backend's running statistics.
// Snapshots are plain values; mutating one has no effect on the backend.
type BackendStats struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	TotalTokens        int64   `json:"total_tokens"`
	TotalCost          float64 `json:"total_cost"`

	// AverageResponseTime is the mean latency of successful calls.
	// It is zero until the first success.
	AverageResponseTime time.Duration `json:"average_response_time"`

	LastRequestTime time.Time `json:"last_request_time"`

	// RateLimitHits counts local limiter refusals and upstream 429s.
	RateLimitHits int64 `json:"rate_limit_hits"`
}

// ErrorRate returns failed / total, or 0 before the first request.
func (s BackendStats) ErrorRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.FailedRequests) / float64(s.TotalRequests)
}

// SuccessRate returns successful / total, or 0 before the first request.
func (s BackendStats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests)
}

// HasLatency reports whether at least one successful call has been timed.
func (s BackendStats) HasLatency() bool {
	return s.SuccessfulRequests > 0
}
