package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"mercator-hq/switchboard/pkg/providers"
)

func newTestProvider(t *testing.T, url string) *Provider {
	t.Helper()
	p, err := NewProvider(providers.BackendConfig{
		ID:                "gpt",
		Model:             "gpt-4o",
		BaseURL:           url,
		APIKey:            "sk-test",
		CostPerToken:      0.01,
		SupportsStreaming: true,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestNewProvider_Validation(t *testing.T) {
	tests := []struct {
		name  string
		cfg   providers.BackendConfig
		field string
	}{
		{"missing id", providers.BackendConfig{Model: "gpt-4o"}, "id"},
		{"missing model", providers.BackendConfig{ID: "gpt"}, "model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg)
			var ce *providers.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}

	p, err := NewProvider(providers.BackendConfig{ID: "gpt", Model: "gpt-4o"})
	if err != nil {
		t.Fatal(err)
	}
	if p.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want default", p.baseURL)
	}
}

func TestProvider_GenerateCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}

		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Model != "gpt-4o" {
			t.Errorf("model = %q, want backend model", body.Model)
		}
		if len(body.Messages) != 1 || body.Messages[0].Content != "Hello" {
			t.Errorf("messages = %+v", body.Messages)
		}
		if len(body.Tools) != 1 || body.Tools[0].Function.Name != "lookup" {
			t.Errorf("tools = %+v", body.Tools)
		}

		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-2024",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hi!",
				"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "lookup", "arguments": "{}"}}]},
				"finish_reason": "tool_calls"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
		}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	req := &providers.Request{
		ID:        "req-1",
		Messages:  []providers.Message{{Role: providers.RoleUser, Content: "Hello"}},
		Functions: []providers.FunctionDefinition{{Name: "lookup"}},
	}

	resp, err := p.GenerateCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateCompletion() error = %v", err)
	}

	if resp.Content != "Hi!" || resp.Backend != "gpt" || resp.RequestID != "req-1" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.FinishReason != providers.FinishReasonFunctionCall {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if len(resp.FunctionCalls) != 1 || resp.FunctionCalls[0].Name != "lookup" {
		t.Errorf("FunctionCalls = %+v", resp.FunctionCalls)
	}

	stats := p.Stats()
	if stats.SuccessfulRequests != 1 || stats.TotalTokens != 8 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestProvider_GenerateCompletionPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) != 1 || body.Messages[0].Role != providers.RoleUser || body.Messages[0].Content != "raw" {
			t.Errorf("prompt not sent as user message: %+v", body.Messages)
		}
		_, _ = w.Write([]byte(`{"id":"x","choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	if _, err := p.GenerateCompletion(context.Background(), &providers.Request{Prompt: "raw"}); err != nil {
		t.Fatalf("GenerateCompletion() error = %v", err)
	}
}

func TestProvider_GenerateCompletionErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, func(err error) bool {
			var rle *providers.RateLimitError
			return errors.As(err, &rle)
		}},
		{"server error", http.StatusBadGateway, `{}`, func(err error) bool {
			return errors.Is(err, providers.ErrBackend)
		}},
		{"no choices", http.StatusOK, `{"id":"x","choices":[]}`, func(err error) bool {
			var pe *providers.ParseError
			return errors.As(err, &pe)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := newTestProvider(t, server.URL)
			_, err := p.GenerateCompletion(context.Background(), &providers.Request{Prompt: "x"})
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
			if got := p.Stats().FailedRequests; got != 1 {
				t.Errorf("FailedRequests = %d, want 1", got)
			}
		})
	}
}

func TestProvider_Streaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !body.Stream {
			t.Error("expected stream=true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range []string{"Hel", "lo", "!"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", tok)
		}
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":2,\"completion_tokens\":3,\"total_tokens\":5}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	chunks, err := p.GenerateStreamingCompletion(context.Background(), &providers.Request{Prompt: "hi", Stream: true})
	if err != nil {
		t.Fatalf("GenerateStreamingCompletion() error = %v", err)
	}

	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("stream error: %v", chunk.Err)
		}
		sb.WriteString(chunk.Delta)
	}

	if sb.String() != "Hello!" {
		t.Errorf("stream = %q, want Hello!", sb.String())
	}
	stats := p.Stats()
	if stats.SuccessfulRequests != 1 || stats.TotalTokens != 5 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestProvider_StreamingMalformedChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n")
		fmt.Fprint(w, "data: {broken\n\n")
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	chunks, err := p.GenerateStreamingCompletion(context.Background(), &providers.Request{Prompt: "hi", Stream: true})
	if err != nil {
		t.Fatal(err)
	}

	var last providers.StreamChunk
	for chunk := range chunks {
		last = chunk
	}

	var pe *providers.ParseError
	if !errors.As(last.Err, &pe) {
		t.Fatalf("expected ParseError as final chunk, got %v", last.Err)
	}
	if got := p.Stats().FailedRequests; got != 1 {
		t.Errorf("FailedRequests = %d, want 1", got)
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	var probed atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed.Store(r.URL.Path == "/models")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if probed.Load() {
		t.Error("health check should not probe unless configured")
	}

	probing, err := NewProvider(providers.BackendConfig{ID: "gpt", Model: "gpt-4o", BaseURL: server.URL, Probe: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := probing.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if !probed.Load() {
		t.Error("expected probe request to /models")
	}
}

func TestNormalizeFinishReason(t *testing.T) {
	tests := map[string]string{
		"stop":           providers.FinishReasonStop,
		"length":         providers.FinishReasonLength,
		"tool_calls":     providers.FinishReasonFunctionCall,
		"function_call":  providers.FinishReasonFunctionCall,
		"content_filter": providers.FinishReasonContentFilter,
		"":               "",
	}
	for in, want := range tests {
		if got := normalizeFinishReason(in); got != want {
			t.Errorf("normalizeFinishReason(%q) = %q, want %q", in, got, want)
		}
	}
}
