package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func ok(ctx context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(ctx context.Context) error { return errors.New(msg) }
}

// blocking ignores ctx until released.
func blocking(release <-chan struct{}) CheckFunc {
	return func(ctx context.Context) error {
		<-release
		return nil
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	c := New(0)
	if c.checkTimeout != DefaultCheckTimeout {
		t.Errorf("checkTimeout = %v, want %v", c.checkTimeout, DefaultCheckTimeout)
	}
}

func TestChecker_Register(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("b", ok)
	c.RegisterCheck("a", ok)
	c.RegisterCheck("a", failing("replaced"))

	if c.CheckCount() != 2 {
		t.Fatalf("CheckCount() = %d, want 2", c.CheckCount())
	}
	names := c.ListChecks()
	if names[0] != "a" || names[1] != "b" {
		t.Errorf("ListChecks() = %v, want [a b]", names)
	}

	c.UnregisterCheck("b")
	if c.CheckCount() != 1 {
		t.Errorf("CheckCount() after unregister = %d, want 1", c.CheckCount())
	}
}

func TestChecker_CheckReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{"no checks", nil, StatusReady},
		{"all ok", map[string]CheckFunc{"a": ok, "b": ok}, StatusReady},
		{"some failing", map[string]CheckFunc{"a": ok, "b": failing("down")}, StatusDegraded},
		{"all failing", map[string]CheckFunc{"a": failing("x"), "b": failing("y")}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			status := c.CheckReadiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("Status = %q, want %q", status.Status, tt.want)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("len(Checks) = %d, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestRun_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	results := Run(context.Background(), 50*time.Millisecond, map[string]CheckFunc{
		"stuck": blocking(release),
		"fast":  ok,
	})
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("Run took %v, want it bounded by the timeout", elapsed)
	}
	if !results["fast"].Healthy() {
		t.Errorf("fast = %+v, want healthy", results["fast"])
	}
	stuck := results["stuck"]
	if stuck.Healthy() || !errors.Is(stuck.Err, ErrCheckTimeout) {
		t.Errorf("stuck = %+v, want ErrCheckTimeout", stuck)
	}
}

func TestRun_PreservesError(t *testing.T) {
	sentinel := errors.New("rate limited")
	results := Run(context.Background(), time.Second, map[string]CheckFunc{
		"a": func(ctx context.Context) error { return sentinel },
	})

	if !errors.Is(results["a"].Err, sentinel) {
		t.Errorf("Err = %v, want %v", results["a"].Err, sentinel)
	}
	if results["a"].Message != "rate limited" {
		t.Errorf("Message = %q", results["a"].Message)
	}
}

func TestHandlers(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("backends", failing("no backend available"))

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		method   string
		wantCode int
	}{
		{"liveness", c.LivenessHandler(), http.MethodGet, http.StatusOK},
		{"liveness head", c.LivenessHandler(), http.MethodHead, http.StatusOK},
		{"liveness post", c.LivenessHandler(), http.MethodPost, http.StatusMethodNotAllowed},
		{"readiness unhealthy", c.ReadinessHandler(), http.MethodGet, http.StatusServiceUnavailable},
		{"version", VersionHandler("1.0.0", "abc123", "2026-01-01"), http.MethodGet, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(tt.method, "/", nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestReadinessHandler_Body(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("config", ok)

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != StatusReady || status.Checks["config"].Status != StatusOK {
		t.Errorf("body = %+v", status)
	}
}
