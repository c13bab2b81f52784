package routing

import (
	"sync"
	"sync/atomic"
	"time"
)

// SelectionStats is a snapshot of load-balancer activity.
type SelectionStats struct {
	// TotalSelections counts successful selections.
	TotalSelections int64 `json:"total_selections"`

	// PerBackend counts selections per backend ID.
	PerBackend map[string]int64 `json:"per_backend"`

	// NoBackend counts selections that found no eligible backend.
	NoBackend int64 `json:"no_backend"`

	// RateLimited counts backends skipped because their limiter refused.
	RateLimited int64 `json:"rate_limited"`

	// Strategy is the active strategy name.
	Strategy string `json:"strategy"`

	// LastResetTime is when statistics were last reset.
	LastResetTime time.Time `json:"last_reset_time"`
}

// atomicStats holds the live counters behind SelectionStats.
type atomicStats struct {
	total       atomic.Int64
	perBackend  sync.Map // map[string]*atomic.Int64
	noBackend   atomic.Int64
	rateLimited atomic.Int64

	mu            sync.RWMutex
	lastResetTime time.Time
}

func newAtomicStats() *atomicStats {
	return &atomicStats{lastResetTime: time.Now()}
}

func (s *atomicStats) recordSelection(id string) {
	s.total.Add(1)
	val, _ := s.perBackend.LoadOrStore(id, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

func (s *atomicStats) recordNoBackend() {
	s.noBackend.Add(1)
}

func (s *atomicStats) recordRateLimited(n int) {
	s.rateLimited.Add(int64(n))
}

// snapshot returns a point-in-time copy safe to read without locks.
func (s *atomicStats) snapshot() SelectionStats {
	perBackend := make(map[string]int64)
	s.perBackend.Range(func(key, value interface{}) bool {
		perBackend[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})

	s.mu.RLock()
	defer s.mu.RUnlock()

	return SelectionStats{
		TotalSelections: s.total.Load(),
		PerBackend:      perBackend,
		NoBackend:       s.noBackend.Load(),
		RateLimited:     s.rateLimited.Load(),
		LastResetTime:   s.lastResetTime,
	}
}

func (s *atomicStats) reset() {
	s.total.Store(0)
	s.noBackend.Store(0)
	s.rateLimited.Store(0)
	s.perBackend.Range(func(key, value interface{}) bool {
		s.perBackend.Delete(key)
		return true
	})

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
