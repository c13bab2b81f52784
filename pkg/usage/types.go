package usage

import (
	"context"
	"time"
)

// Status is the outcome of one backend attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Record is one backend attempt as seen by the ledger. Every attempt of a
// failover chain produces its own record, all sharing RequestID.
type Record struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	Backend   string `json:"backend"`
	Model     string `json:"model"`
	Status    Status `json:"status"`

	// Attempt is the 1-based attempt number within the request.
	Attempt int  `json:"attempt"`
	Stream  bool `json:"stream,omitempty"`

	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`

	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
	Time    time.Time     `json:"time"`
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	RequestID string
	Backend   string
	Status    Status
	Since     time.Time
	Until     time.Time

	// Limit caps the number of records returned by Query (0 = no cap).
	Limit int
}

// Matches reports whether r satisfies f.
func (f Filter) Matches(r *Record) bool {
	if f.RequestID != "" && r.RequestID != f.RequestID {
		return false
	}
	if f.Backend != "" && r.Backend != f.Backend {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && r.Time.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !r.Time.Before(f.Until) {
		return false
	}
	return true
}

// BackendSummary aggregates the records of one backend.
type BackendSummary struct {
	Backend          string  `json:"backend"`
	Attempts         int64   `json:"attempts"`
	Successes        int64   `json:"successes"`
	Failures         int64   `json:"failures"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	Cost             float64 `json:"cost"`

	// AverageLatency is the mean latency of successful attempts.
	AverageLatency time.Duration `json:"average_latency"`
}

// Store persists usage records.
type Store interface {
	// Store persists one record.
	Store(ctx context.Context, record *Record) error

	// Query returns matching records, newest first.
	Query(ctx context.Context, filter Filter) ([]*Record, error)

	// Summary aggregates matching records per backend, ordered by backend ID.
	Summary(ctx context.Context, filter Filter) ([]BackendSummary, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases the store.
	Close() error
}
