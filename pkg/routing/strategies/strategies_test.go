package strategies

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"mercator-hq/switchboard/internal/routing"
	"mercator-hq/switchboard/pkg/providers"
)

func ids(ps ...*routing.MockProvider) []providers.Provider {
	out := make([]providers.Provider, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

func TestParse(t *testing.T) {
	for _, k := range Kinds() {
		got, err := Parse(string(k))
		if err != nil || got != k {
			t.Errorf("Parse(%q) = %q, %v", k, got, err)
		}
	}

	_, err := Parse("sticky")
	var ue *UnknownStrategyError
	if !errors.As(err, &ue) {
		t.Errorf("expected UnknownStrategyError, got %v", err)
	}
}

func TestNew(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			s, err := New(k, WithSeed(1))
			if err != nil {
				t.Fatalf("New(%q) error = %v", k, err)
			}
			if s.Kind() != k {
				t.Errorf("Kind() = %q, want %q", s.Kind(), k)
			}
		})
	}

	if _, err := New("bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRoundRobinStrategy_RegistrationOrder(t *testing.T) {
	a, b, c := routing.NewMockProvider("a"), routing.NewMockProvider("b"), routing.NewMockProvider("c")
	candidates := ids(a, b, c)
	s := NewRoundRobinStrategy()

	want := []string{"a", "b", "c", "a", "b", "c", "a"}
	for i, w := range want {
		if got := s.Select(candidates).Config().ID; got != w {
			t.Errorf("selection %d = %q, want %q", i, got, w)
		}
	}

	s.Reset()
	if got := s.Select(candidates).Config().ID; got != "a" {
		t.Errorf("after Reset selection = %q, want a", got)
	}
}

func TestRoundRobinStrategy_Concurrent(t *testing.T) {
	candidates := ids(routing.NewMockProvider("a"), routing.NewMockProvider("b"))
	s := NewRoundRobinStrategy()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = map[string]int{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := s.Select(candidates).Config().ID
				mu.Lock()
				counts[id]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if counts["a"] != 500 || counts["b"] != 500 {
		t.Errorf("uneven distribution %v", counts)
	}
}

func TestLeastLoadedStrategy(t *testing.T) {
	tests := []struct {
		name  string
		loads []int64
		want  string
	}{
		{"picks minimum", []int64{5, 2, 9}, "b"},
		{"first wins ties", []int64{3, 3, 3}, "a"},
		{"tie after first", []int64{4, 1, 1}, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ps []*routing.MockProvider
			for i, load := range tt.loads {
				p := routing.NewMockProvider(string(rune('a' + i)))
				p.SetStats(providers.BackendStats{TotalRequests: load})
				ps = append(ps, p)
			}
			if got := NewLeastLoadedStrategy().Select(ids(ps...)).Config().ID; got != tt.want {
				t.Errorf("Select() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFastestResponseStrategy(t *testing.T) {
	withLatency := func(id string, d time.Duration) *routing.MockProvider {
		p := routing.NewMockProvider(id)
		if d > 0 {
			p.SetStats(providers.BackendStats{SuccessfulRequests: 1, AverageResponseTime: d})
		}
		return p
	}

	tests := []struct {
		name       string
		candidates []providers.Provider
		want       string
	}{
		{
			name:       "lowest latency",
			candidates: ids(withLatency("a", 300*time.Millisecond), withLatency("b", 100*time.Millisecond)),
			want:       "b",
		},
		{
			name:       "untested ranks last",
			candidates: ids(withLatency("a", 0), withLatency("b", 5*time.Second)),
			want:       "b",
		},
		{
			name:       "all untested picks first",
			candidates: ids(withLatency("a", 0), withLatency("b", 0)),
			want:       "a",
		},
		{
			name:       "first wins ties",
			candidates: ids(withLatency("a", time.Second), withLatency("b", time.Second)),
			want:       "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewFastestResponseStrategy().Select(tt.candidates).Config().ID; got != tt.want {
				t.Errorf("Select() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCostOptimizedStrategy(t *testing.T) {
	withCost := func(id string, cost float64) *routing.MockProvider {
		return routing.NewMockProvider(id).WithConfig(func(c *providers.BackendConfig) { c.CostPerToken = cost })
	}

	tests := []struct {
		name       string
		candidates []providers.Provider
		want       string
	}{
		{"cheapest", ids(withCost("a", 0.03), withCost("b", 0.001), withCost("c", 0.01)), "b"},
		{"free first", ids(withCost("a", 0), withCost("b", 0)), "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewCostOptimizedStrategy().Select(tt.candidates).Config().ID; got != tt.want {
				t.Errorf("Select() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWeightedStrategy_Distribution(t *testing.T) {
	withWeight := func(id string, w float64) *routing.MockProvider {
		return routing.NewMockProvider(id).WithConfig(func(c *providers.BackendConfig) { c.Weight = w })
	}

	candidates := ids(withWeight("heavy", 3), withWeight("light", 1), withWeight("off", 0))
	s := NewWeightedStrategy(rand.New(rand.NewSource(7)))

	counts := map[string]int{}
	const draws = 4000
	for i := 0; i < draws; i++ {
		counts[s.Select(candidates).Config().ID]++
	}

	if counts["off"] != 0 {
		t.Errorf("zero-weight backend selected %d times", counts["off"])
	}
	ratio := float64(counts["heavy"]) / float64(draws)
	if ratio < 0.70 || ratio > 0.80 {
		t.Errorf("heavy share = %.3f, want about 0.75 (counts %v)", ratio, counts)
	}
}

func TestWeightedStrategy_AllNonPositiveIsUniform(t *testing.T) {
	withWeight := func(id string, w float64) *routing.MockProvider {
		return routing.NewMockProvider(id).WithConfig(func(c *providers.BackendConfig) { c.Weight = w })
	}

	candidates := ids(withWeight("a", 0), withWeight("b", -1))
	s := NewWeightedStrategy(rand.New(rand.NewSource(3)))

	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		counts[s.Select(candidates).Config().ID]++
	}
	if counts["a"] == 0 || counts["b"] == 0 {
		t.Errorf("uniform fallback should pick both, got %v", counts)
	}
}

func TestRandomStrategy_SeededIsRepeatable(t *testing.T) {
	candidates := ids(routing.NewMockProvider("a"), routing.NewMockProvider("b"), routing.NewMockProvider("c"))

	draw := func() []string {
		s := NewRandomStrategy(rand.New(rand.NewSource(99)))
		var out []string
		for i := 0; i < 20; i++ {
			out = append(out, s.Select(candidates).Config().ID)
		}
		return out
	}

	first, second := draw(), draw()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("draw %d differs: %q vs %q", i, first[i], second[i])
		}
	}

	seen := map[string]bool{}
	for _, id := range first {
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Errorf("20 random draws hit only %v", seen)
	}
}
