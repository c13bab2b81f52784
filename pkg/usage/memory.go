package usage

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps records in memory, oldest first. When MaxRecords is
// reached the oldest record is dropped.
type MemoryStore struct {
	mu         sync.RWMutex
	records    []*Record
	maxRecords int
	closed     bool
}

// NewMemoryStore creates an in-memory store. maxRecords <= 0 means unlimited.
func NewMemoryStore(maxRecords int) *MemoryStore {
	return &MemoryStore{
		maxRecords: maxRecords,
	}
}

// Store appends a copy of record.
func (s *MemoryStore) Store(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageError("memory", "store", ErrStoreClosed)
	}

	recordCopy := *record
	s.records = append(s.records, &recordCopy)
	if s.maxRecords > 0 && len(s.records) > s.maxRecords {
		drop := len(s.records) - s.maxRecords
		clear(s.records[:drop])
		s.records = s.records[drop:]
	}
	return nil
}

// Query returns copies of matching records, newest first.
func (s *MemoryStore) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageError("memory", "query", ErrStoreClosed)
	}

	results := []*Record{}
	for i := len(s.records) - 1; i >= 0; i-- {
		if !filter.Matches(s.records[i]) {
			continue
		}
		recordCopy := *s.records[i]
		results = append(results, &recordCopy)
		if filter.Limit > 0 && len(results) == filter.Limit {
			break
		}
	}
	return results, nil
}

// Summary aggregates matching records per backend.
func (s *MemoryStore) Summary(ctx context.Context, filter Filter) ([]BackendSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageError("memory", "summary", ErrStoreClosed)
	}

	byBackend := make(map[string]*BackendSummary)
	latency := make(map[string]time.Duration)
	for _, r := range s.records {
		if !filter.Matches(r) {
			continue
		}
		sum, ok := byBackend[r.Backend]
		if !ok {
			sum = &BackendSummary{Backend: r.Backend}
			byBackend[r.Backend] = sum
		}
		sum.Attempts++
		if r.Status == StatusSuccess {
			sum.Successes++
			latency[r.Backend] += r.Latency
		} else {
			sum.Failures++
		}
		sum.PromptTokens += int64(r.PromptTokens)
		sum.CompletionTokens += int64(r.CompletionTokens)
		sum.TotalTokens += int64(r.TotalTokens)
		sum.Cost += r.Cost
	}

	summaries := make([]BackendSummary, 0, len(byBackend))
	for backend, sum := range byBackend {
		if sum.Successes > 0 {
			sum.AverageLatency = latency[backend] / time.Duration(sum.Successes)
		}
		summaries = append(summaries, *sum)
	}
	slices.SortFunc(summaries, func(a, b BackendSummary) int {
		return strings.Compare(a.Backend, b.Backend)
	})
	return summaries, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.records)), nil
}

// Close drops all records.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.records = nil
	return nil
}
