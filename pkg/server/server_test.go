package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/providers/mock"
	"mercator-hq/switchboard/pkg/proxy"
	"mercator-hq/switchboard/pkg/server/middleware"
	"mercator-hq/switchboard/pkg/server/types"
	"mercator-hq/switchboard/pkg/telemetry/metrics"
)

func newTestService(t *testing.T, collector *metrics.Collector, ids ...string) *proxy.Service {
	t.Helper()

	opts := proxy.DefaultOptions()
	opts.Metrics = collector
	svc := proxy.NewService(opts)
	for _, id := range ids {
		cfg := providers.BackendConfig{ID: id, Family: providers.FamilyMock, SupportsStreaming: true}
		config.ApplyBackendDefaults(&cfg)
		if err := svc.RegisterProvider(mock.New(cfg)); err != nil {
			t.Fatalf("RegisterProvider() error = %v", err)
		}
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })
	return svc
}

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxRequestBytes: 1 << 20,
		RequestTimeout:  5 * time.Second,
	}
}

func TestServer_Routes(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Namespace: "test"}, nil)
	svc := newTestService(t, collector, "A", "B")
	srv := NewServer(testConfig(), svc, Options{Metrics: collector, Version: "1.2.3"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"completion", http.MethodPost, "/v1/completions", `{"prompt":"hi"}`, http.StatusOK, `"object":"completion"`},
		{"stream", http.MethodPost, "/v1/completions", `{"prompt":"hi","stream":true}`, http.StatusOK, "data: [DONE]"},
		{"models", http.MethodGet, "/v1/models", "", http.StatusOK, `"id":"A"`},
		{"stats", http.MethodGet, "/v1/stats", "", http.StatusOK, `"registered_backends":2`},
		{"provider stats", http.MethodGet, "/v1/stats/providers", "", http.StatusOK, `"B"`},
		{"health", http.MethodGet, "/health", "", http.StatusOK, `"status":"healthy"`},
		{"liveness", http.MethodGet, "/livez", "", http.StatusOK, `"status":"ok"`},
		{"readiness", http.MethodGet, "/readyz", "", http.StatusOK, `"status":"ready"`},
		{"version", http.MethodGet, "/version", "", http.StatusOK, `"version":"1.2.3"`},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, "test_"},
		{"usage disabled", http.MethodGet, "/v1/usage", "", http.StatusNotFound, "usage_disabled"},
		{"wrong method", http.MethodGet, "/v1/completions", "", http.StatusMethodNotAllowed, ""},
		{"unknown route", http.MethodGet, "/v1/chat/completions", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", resp.StatusCode, tt.wantStatus, body)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body = %s, want substring %q", body, tt.wantBody)
			}
			if resp.Header.Get(middleware.RequestIDHeader) == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestServer_RequestIDCorrelation(t *testing.T) {
	svc := newTestService(t, nil, "A")
	srv := NewServer(testConfig(), svc, Options{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/completions", strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set(middleware.RequestIDHeader, "client-id-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body types.CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RequestID != "client-id-1" {
		t.Errorf("RequestID = %q, want client-id-1", body.RequestID)
	}
}

func TestServer_StoppedService(t *testing.T) {
	svc := proxy.NewService(proxy.DefaultOptions())
	srv := NewServer(testConfig(), svc, Options{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/completions", "application/json", strings.NewReader(`{"prompt":"hi"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("completion status = %d, want 503", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", resp.StatusCode)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	svc := newTestService(t, nil, "A")
	srv := NewServer(testConfig(), svc, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() == "" || !srv.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/livez")
	if err != nil {
		t.Fatalf("GET /livez: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start() succeeded, want error")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}
