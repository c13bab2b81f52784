package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/switchboard/pkg/config"
	"mercator-hq/switchboard/pkg/providers"
	"mercator-hq/switchboard/pkg/providers/mock"
	"mercator-hq/switchboard/pkg/proxy"
	"mercator-hq/switchboard/pkg/routing"
	"mercator-hq/switchboard/pkg/server/types"
	"mercator-hq/switchboard/pkg/usage"
)

func newBackend(id string, streaming bool) *mock.Provider {
	cfg := providers.BackendConfig{ID: id, Family: providers.FamilyMock, SupportsStreaming: streaming}
	config.ApplyBackendDefaults(&cfg)
	return mock.New(cfg)
}

func newService(t *testing.T, backends ...providers.Provider) *proxy.Service {
	t.Helper()

	opts := proxy.DefaultOptions()
	opts.CacheEnabled = false
	svc := proxy.NewService(opts)
	for _, b := range backends {
		if err := svc.RegisterProvider(b); err != nil {
			t.Fatalf("RegisterProvider() error = %v", err)
		}
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })
	return svc
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/completions", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var resp types.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

// stubService returns canned results.
type stubService struct {
	resp   *providers.Response
	err    error
	chunks []providers.StreamChunk
	health proxy.HealthReport
}

func (s *stubService) GenerateCompletion(ctx context.Context, req providers.Request) (*providers.Response, error) {
	return s.resp, s.err
}

func (s *stubService) GenerateStreamingCompletion(ctx context.Context, req providers.Request) (<-chan providers.StreamChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan providers.StreamChunk, len(s.chunks))
	for _, c := range s.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (s *stubService) ListAvailableModels() []proxy.ModelInfo { return nil }

func (s *stubService) GetProviderStats() map[string]providers.BackendStats {
	return map[string]providers.BackendStats{}
}

func (s *stubService) GetServiceStats() proxy.ServiceStats { return proxy.ServiceStats{} }

func (s *stubService) HealthCheck(ctx context.Context) proxy.HealthReport { return s.health }

func TestCompletionsHandler_JSON(t *testing.T) {
	svc := newService(t, newBackend("A", false))
	h := NewCompletionsHandler(svc, 0)

	w := post(t, h, `{"messages":[{"role":"user","content":"hello"}],"max_tokens":16}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp types.CompletionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Object != types.ObjectCompletion {
		t.Errorf("Object = %q", resp.Object)
	}
	if resp.Backend != "A" {
		t.Errorf("Backend = %q, want A", resp.Backend)
	}
	if !strings.Contains(resp.Content, "hello") {
		t.Errorf("Content = %q, want echo of prompt", resp.Content)
	}
	if resp.Usage.TotalTokens == 0 {
		t.Error("Usage.TotalTokens = 0")
	}
}

func TestCompletionsHandler_Stream(t *testing.T) {
	svc := newService(t, newBackend("S", true))
	h := NewCompletionsHandler(svc, 0)

	w := post(t, h, `{"messages":[{"role":"user","content":"hi"}],"stream":true}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	var content strings.Builder
	var events []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		events = append(events, data)
		if data == "[DONE]" {
			continue
		}
		var chunk types.StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			t.Fatalf("decode chunk %q: %v", data, err)
		}
		content.WriteString(chunk.Delta)
	}

	if len(events) == 0 || events[len(events)-1] != "[DONE]" {
		t.Errorf("stream did not end with [DONE]: %v", events)
	}
	if want := strings.Join(mock.StreamTokens("S"), ""); content.String() != want {
		t.Errorf("content = %q, want %q", content.String(), want)
	}
}

func TestCompletionsHandler_StreamError(t *testing.T) {
	stub := &stubService{chunks: []providers.StreamChunk{
		{Delta: "partial"},
		{Err: &providers.StreamError{Backend: "S", Message: "stream interrupted"}},
	}}
	h := NewCompletionsHandler(stub, 0)

	w := post(t, h, `{"prompt":"hi","stream":true}`)

	body := w.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Errorf("missing error event: %s", body)
	}
	if strings.Contains(body, "[DONE]") {
		t.Errorf("failed stream sent [DONE]: %s", body)
	}
}

func TestCompletionsHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeInvalidJSON,
		},
		{
			name:       "missing messages",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeMissingField,
		},
		{
			name:       "temperature out of range",
			body:       `{"prompt":"x","temperature":3}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeInvalidValue,
		},
		{
			name:       "capability",
			body:       `{"prompt":"x"}`,
			err:        &routing.CapabilityError{Required: []providers.Capability{providers.CapabilityCompletion}},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeCapabilityUnsupported,
		},
		{
			name:       "no backend",
			body:       `{"prompt":"x"}`,
			err:        &routing.NoBackendAvailableError{RateLimited: []string{"A"}},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   types.CodeProviderUnavailable,
		},
		{
			name:       "retries exhausted",
			body:       `{"prompt":"x"}`,
			err:        &proxy.RetriesExhaustedError{Attempts: 3, LastErr: &providers.BackendError{Backend: "A", StatusCode: 500}},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   types.CodeRetriesExhausted,
		},
		{
			name:       "stopped",
			body:       `{"prompt":"x"}`,
			err:        proxy.ErrServiceStopped,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   types.CodeServiceStopped,
		},
		{
			name:       "upstream rate limit",
			body:       `{"prompt":"x"}`,
			err:        providers.NewBackendError("A", "completion", &providers.RateLimitError{Backend: "A"}),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   types.CodeRateLimited,
		},
		{
			name:       "upstream timeout",
			body:       `{"prompt":"x"}`,
			err:        providers.NewBackendError("A", "completion", &providers.TimeoutError{Backend: "A", Timeout: time.Second}),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   types.CodeProviderTimeout,
		},
		{
			name:       "upstream failure",
			body:       `{"prompt":"x"}`,
			err:        &providers.BackendError{Backend: "A", Op: "completion", StatusCode: 500, Message: "boom"},
			wantStatus: http.StatusBadGateway,
			wantCode:   types.CodeProviderError,
		},
		{
			name:       "unknown",
			body:       `{"prompt":"x"}`,
			err:        errors.New("unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCompletionsHandler(&stubService{err: tt.err}, 0)

			w := post(t, h, tt.body)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := decodeError(t, w).Error.Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestCompletionsHandler_BodyTooLarge(t *testing.T) {
	h := NewCompletionsHandler(&stubService{}, 16)

	w := post(t, h, `{"prompt":"this body is longer than sixteen bytes"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decodeError(t, w).Error.Code; got != types.CodeRequestTooLarge {
		t.Errorf("code = %q, want %q", got, types.CodeRequestTooLarge)
	}
}

func TestModelsHandler(t *testing.T) {
	svc := newService(t, newBackend("A", false), newBackend("B", true))
	h := NewModelsHandler(svc)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	var list types.ModelList
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Data) != 2 {
		t.Fatalf("len(Data) = %d, want 2", len(list.Data))
	}
	if list.Data[0].ID != "A" || list.Data[1].ID != "B" {
		t.Errorf("order = %s, %s; want A, B", list.Data[0].ID, list.Data[1].ID)
	}
	if !list.Data[1].SupportsStreaming {
		t.Error("B should support streaming")
	}
}

func TestStatsHandlers(t *testing.T) {
	svc := newService(t, newBackend("A", false))
	if _, err := svc.GenerateCompletion(context.Background(), providers.Request{Prompt: "x"}); err != nil {
		t.Fatalf("GenerateCompletion() error = %v", err)
	}

	w := httptest.NewRecorder()
	NewStatsHandler(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	var stats proxy.ServiceStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalRequests != 1 || !stats.Running {
		t.Errorf("stats = %+v", stats)
	}

	w = httptest.NewRecorder()
	NewProviderStatsHandler(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/stats/providers", nil))
	var perBackend map[string]providers.BackendStats
	if err := json.NewDecoder(w.Body).Decode(&perBackend); err != nil {
		t.Fatalf("decode provider stats: %v", err)
	}
	if perBackend["A"].SuccessfulRequests != 1 {
		t.Errorf("A successes = %d, want 1", perBackend["A"].SuccessfulRequests)
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{proxy.StatusHealthy, http.StatusOK},
		{proxy.StatusDegraded, http.StatusOK},
		{proxy.StatusUnhealthy, http.StatusServiceUnavailable},
		{proxy.StatusStopped, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			h := NewHealthHandler(&stubService{health: proxy.HealthReport{Status: tt.status}})
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestUsageHandler(t *testing.T) {
	store := usage.NewMemoryStore(0)
	ctx := context.Background()
	now := time.Now()
	for _, r := range []*usage.Record{
		{ID: "1", RequestID: "r1", Backend: "A", Status: usage.StatusSuccess, TotalTokens: 10, Time: now},
		{ID: "2", RequestID: "r2", Backend: "B", Status: usage.StatusFailure, Time: now},
	} {
		if err := store.Store(ctx, r); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}
	h := NewUsageHandler(store)

	t.Run("list filters by backend", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/v1/usage?backend=A", nil))

		var list UsageList
		if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(list.Data) != 1 || list.Data[0].Backend != "A" {
			t.Errorf("data = %+v", list.Data)
		}
	})

	t.Run("summary", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Summary(w, httptest.NewRequest(http.MethodGet, "/v1/usage/summary", nil))

		var sum UsageSummary
		if err := json.NewDecoder(w.Body).Decode(&sum); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(sum.Data) != 2 {
			t.Errorf("len(Data) = %d, want 2", len(sum.Data))
		}
	})

	t.Run("bad parameter", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest(http.MethodGet, "/v1/usage?since=yesterday", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewUsageHandler(nil).List(w, httptest.NewRequest(http.MethodGet, "/v1/usage", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}
