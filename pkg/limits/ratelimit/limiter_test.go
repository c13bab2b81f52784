package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ============================================================================
// Limiter Tests
// ============================================================================

func TestLimiter_RequestAdmission(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(Config{RequestsPerMinute: 3, Now: clock.Now})

	for i := 0; i < 3; i++ {
		if !limiter.CanAdmit(0) {
			t.Fatalf("request %d should be admitted", i+1)
		}
		limiter.Record(0)
		clock.Advance(time.Second)
	}

	if limiter.CanAdmit(0) {
		t.Error("4th request should be refused")
	}

	// The first record was at t=0; at t=60s it is exactly one window old.
	clock.Advance(57 * time.Second)
	if !limiter.CanAdmit(0) {
		t.Error("request should be admitted once the oldest entry leaves the window")
	}
}

func TestLimiter_CanAdmitDoesNotConsume(t *testing.T) {
	limiter := NewLimiter(Config{RequestsPerMinute: 1})

	for i := 0; i < 10; i++ {
		if !limiter.CanAdmit(0) {
			t.Fatalf("CanAdmit call %d refused without any Record", i+1)
		}
	}

	if got := limiter.Usage().Requests; got != 0 {
		t.Errorf("Usage().Requests = %d, want 0", got)
	}
}

func TestLimiter_TokenBudget(t *testing.T) {
	tests := []struct {
		name      string
		recorded  []int
		estimated int
		want      bool
	}{
		{name: "empty window", recorded: nil, estimated: 1000, want: true},
		{name: "exactly at budget", recorded: []int{600}, estimated: 400, want: true},
		{name: "over budget", recorded: []int{600}, estimated: 401, want: false},
		{name: "many small records", recorded: []int{300, 300, 300}, estimated: 200, want: false},
		{name: "zero tokens not logged", recorded: []int{0, 0, 0}, estimated: 1000, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := NewLimiter(Config{TokensPerMinute: 1000})
			for _, tokens := range tt.recorded {
				limiter.Record(tokens)
			}
			if got := limiter.CanAdmit(tt.estimated); got != tt.want {
				t.Errorf("CanAdmit(%d) = %v, want %v", tt.estimated, got, tt.want)
			}
		})
	}
}

func TestLimiter_TokenWindowSlides(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(Config{TokensPerMinute: 1000, Now: clock.Now})

	limiter.Record(800)
	clock.Advance(30 * time.Second)
	limiter.Record(200)

	if limiter.CanAdmit(1) {
		t.Fatal("budget should be exhausted")
	}

	clock.Advance(31 * time.Second)
	if !limiter.CanAdmit(800) {
		t.Error("800 tokens should fit after the first record expired")
	}
	if got := limiter.Usage().Tokens; got != 200 {
		t.Errorf("Usage().Tokens = %d, want 200", got)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(Config{})
	for i := 0; i < 5000; i++ {
		limiter.Record(1000)
	}
	if !limiter.CanAdmit(1 << 20) {
		t.Error("limiter without limits should always admit")
	}
	if got := limiter.Usage().Requests; got != 5000 {
		t.Errorf("Usage().Requests = %d, want 5000", got)
	}
}

func TestLimiter_RetryAfter(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(Config{RequestsPerMinute: 1, Now: clock.Now})

	if got := limiter.RetryAfter(); got != 0 {
		t.Errorf("RetryAfter() on empty log = %v, want 0", got)
	}

	limiter.Record(0)
	clock.Advance(20 * time.Second)

	if got := limiter.RetryAfter(); got != 40*time.Second {
		t.Errorf("RetryAfter() = %v, want 40s", got)
	}
}

func TestLimiter_Reset(t *testing.T) {
	limiter := NewLimiter(Config{RequestsPerMinute: 1, TokensPerMinute: 10})
	limiter.Record(10)
	if limiter.CanAdmit(0) {
		t.Fatal("limiter should be saturated")
	}

	limiter.Reset()
	if !limiter.CanAdmit(10) {
		t.Error("limiter should admit after Reset")
	}
}

func TestLimiter_RecordTokens(t *testing.T) {
	limiter := NewLimiter(Config{RequestsPerMinute: 1, TokensPerMinute: 100})

	limiter.RecordTokens(0)
	limiter.RecordTokens(60)

	usage := limiter.Usage()
	if usage.Requests != 0 {
		t.Errorf("Usage().Requests = %d, want 0", usage.Requests)
	}
	if usage.Tokens != 60 {
		t.Errorf("Usage().Tokens = %d, want 60", usage.Tokens)
	}
	if !limiter.CanAdmit(40) {
		t.Error("request slot should still be free")
	}
	if limiter.CanAdmit(41) {
		t.Error("token budget should count the recorded tokens")
	}
}

func TestLimiter_LargeRequestBudget(t *testing.T) {
	limiter := NewLimiter(Config{RequestsPerMinute: 5000})

	for i := 0; i < 5000; i++ {
		if !limiter.CanAdmit(0) {
			t.Fatalf("request %d refused below the budget", i+1)
		}
		limiter.Record(0)
	}
	if limiter.CanAdmit(0) {
		t.Error("request above the budget admitted")
	}
}

func TestLimiter_RingBufferGrowth(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(Config{RequestsPerMinute: 500, Now: clock.Now})

	for i := 0; i < 300; i++ {
		limiter.Record(1)
		clock.Advance(100 * time.Millisecond)
	}
	if got := limiter.Usage().Requests; got != 300 {
		t.Fatalf("Usage().Requests = %d, want 300", got)
	}

	// Records span t=0s..29.9s; at t=65s everything at or before t=5s
	// (51 records) has expired.
	clock.Advance(35 * time.Second)
	usage := limiter.Usage()
	if usage.Requests != 249 {
		t.Errorf("Usage().Requests = %d, want 249", usage.Requests)
	}
	if usage.Tokens != 249 {
		t.Errorf("Usage().Tokens = %d, want 249", usage.Tokens)
	}

	for i := 0; i < 400; i++ {
		limiter.Record(1)
	}
	if got := limiter.Usage().Requests; got != 649 {
		t.Errorf("Usage().Requests after growth = %d, want 649", got)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(Config{RequestsPerMinute: 10000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if limiter.CanAdmit(1) {
					limiter.Record(1)
				}
				_ = limiter.Usage()
			}
		}()
	}
	wg.Wait()

	usage := limiter.Usage()
	if usage.Requests != 1000 {
		t.Errorf("Usage().Requests = %d, want 1000", usage.Requests)
	}
	if usage.Tokens != 1000 {
		t.Errorf("Usage().Tokens = %d, want 1000", usage.Tokens)
	}
}

// ============================================================================
// Concurrent Limiter Tests
// ============================================================================

func TestConcurrentLimiter_Basic(t *testing.T) {
	limiter := NewConcurrentLimiter(2)

	if !limiter.Acquire() || !limiter.Acquire() {
		t.Fatal("first two acquires should succeed")
	}
	if limiter.Acquire() {
		t.Error("third acquire should fail")
	}
	if got := limiter.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}

	limiter.Release()
	if !limiter.Acquire() {
		t.Error("acquire after release should succeed")
	}
	if got := limiter.Current(); got != 2 {
		t.Errorf("Current() = %d, want 2", got)
	}
}

func TestConcurrentLimiter_Unlimited(t *testing.T) {
	limiter := NewConcurrentLimiter(0)
	for i := 0; i < 100; i++ {
		if !limiter.Acquire() {
			t.Fatalf("acquire %d failed on unlimited limiter", i)
		}
	}
	if got := limiter.Remaining(); got != -1 {
		t.Errorf("Remaining() = %d, want -1", got)
	}
	if got := limiter.Current(); got != 100 {
		t.Errorf("Current() = %d, want 100", got)
	}
}

func TestConcurrentLimiter_Parallel(t *testing.T) {
	limiter := NewConcurrentLimiter(5)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		peak    int64
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !limiter.Acquire() {
				return
			}
			defer limiter.Release()

			mu.Lock()
			allowed++
			if c := limiter.Current(); c > peak {
				peak = c
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
		}()
	}
	wg.Wait()

	if peak > 5 {
		t.Errorf("peak in-flight = %d, want <= 5", peak)
	}
	if allowed == 0 {
		t.Error("expected some acquires to succeed")
	}
	if got := limiter.Current(); got != 0 {
		t.Errorf("Current() after all releases = %d, want 0", got)
	}
}
