package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/switchboard/pkg/providers"
)

func newTestProvider(t *testing.T, url string) *Provider {
	t.Helper()
	p, err := NewProvider(providers.BackendConfig{
		ID:                "claude",
		Model:             "claude-3-5-sonnet",
		BaseURL:           url,
		APIKey:            "ak-test",
		SupportsStreaming: true,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewProvider(providers.BackendConfig{ID: "claude", Model: "claude-3-5-sonnet"})

	var ce *providers.ConfigError
	if !errors.As(err, &ce) || ce.Field != "api_key" {
		t.Fatalf("expected api_key ConfigError, got %v", err)
	}
}

func TestAnthropicProvider_GenerateCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "ak-test" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != DefaultAnthropicVersion {
			t.Errorf("anthropic-version = %q", got)
		}

		var body messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.System != "be brief" {
			t.Errorf("system = %q", body.System)
		}
		if body.MaxTokens != defaultMaxTokens {
			t.Errorf("max_tokens = %d, want default", body.MaxTokens)
		}

		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "Hello, "}, {"type": "text", "text": "world!"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 20}
		}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	req := &providers.Request{
		ID: "req-1",
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: "be brief"},
			{Role: providers.RoleUser, Content: "Hello"},
		},
	}

	resp, err := p.GenerateCompletion(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateCompletion() error = %v", err)
	}

	if resp.Content != "Hello, world!" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, want 30", resp.Usage.TotalTokens)
	}
	if resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Backend != "claude" || resp.Family != providers.FamilyAnthropic {
		t.Errorf("Backend/Family = %s/%s", resp.Backend, resp.Family)
	}
}

func TestAnthropicProvider_ToolUse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "msg_2",
			"content": [{"type": "tool_use", "id": "tu_1", "name": "lookup", "input": {"q": "go"}}],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.GenerateCompletion(context.Background(), &providers.Request{
		Prompt:    "find",
		Functions: []providers.FunctionDefinition{{Name: "lookup"}},
	})
	if err != nil {
		t.Fatalf("GenerateCompletion() error = %v", err)
	}

	if len(resp.FunctionCalls) != 1 {
		t.Fatalf("FunctionCalls = %+v", resp.FunctionCalls)
	}
	if fc := resp.FunctionCalls[0]; fc.Name != "lookup" || fc.Arguments != `{"q":"go"}` {
		t.Errorf("FunctionCall = %+v", fc)
	}
	if resp.FinishReason != providers.FinishReasonFunctionCall {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
}

func TestAnthropicProvider_ValidationError(t *testing.T) {
	tests := []struct {
		name     string
		messages []providers.Message
	}{
		{"empty", nil},
		{"assistant first", []providers.Message{{Role: providers.RoleAssistant, Content: "hi"}}},
		{"consecutive user", []providers.Message{
			{Role: providers.RoleUser, Content: "a"},
			{Role: providers.RoleUser, Content: "b"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, "http://127.0.0.1:0")
			_, err := p.GenerateCompletion(context.Background(), &providers.Request{Messages: tt.messages})

			var ve *providers.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func writeEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func TestAnthropicProvider_Streaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(w, "message_start", `{"type":"message_start","message":{"id":"msg_1","usage":{"input_tokens":7,"output_tokens":1}}}`)
		writeEvent(w, "content_block_start", `{"type":"content_block_start","index":0}`)
		writeEvent(w, "ping", `{"type":"ping"}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}`)
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"lo"}}`)
		writeEvent(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		writeEvent(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":4}}`)
		writeEvent(w, "message_stop", `{"type":"message_stop"}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	chunks, err := p.GenerateStreamingCompletion(context.Background(), &providers.Request{Prompt: "hi", Stream: true})
	if err != nil {
		t.Fatalf("GenerateStreamingCompletion() error = %v", err)
	}

	var sb strings.Builder
	var last providers.StreamChunk
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("stream error: %v", chunk.Err)
		}
		sb.WriteString(chunk.Delta)
		last = chunk
	}

	if sb.String() != "Hello" {
		t.Errorf("stream = %q, want Hello", sb.String())
	}
	if last.FinishReason != providers.FinishReasonStop {
		t.Errorf("FinishReason = %q", last.FinishReason)
	}
	if last.Usage == nil || last.Usage.TotalTokens != 11 {
		t.Errorf("Usage = %+v, want 11 total tokens", last.Usage)
	}
	if got := p.Stats().TotalTokens; got != 11 {
		t.Errorf("TotalTokens = %d, want 11", got)
	}
}

func TestAnthropicProvider_StreamingErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEvent(w, "content_block_delta", `{"type":"content_block_delta","delta":{"text":"par"}}`)
		writeEvent(w, "error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
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

	var se *providers.StreamError
	if !errors.As(last.Err, &se) {
		t.Fatalf("expected StreamError, got %v", last.Err)
	}
	if !strings.Contains(last.Err.Error(), "overloaded_error") {
		t.Errorf("error %q should mention the upstream error type", last.Err)
	}
	if got := p.Stats().FailedRequests; got != 1 {
		t.Errorf("FailedRequests = %d, want 1", got)
	}
}

func TestNormalizeStopReason(t *testing.T) {
	tests := map[string]string{
		"end_turn":      providers.FinishReasonStop,
		"stop_sequence": providers.FinishReasonStop,
		"max_tokens":    providers.FinishReasonLength,
		"tool_use":      providers.FinishReasonFunctionCall,
		"other":         "other",
	}
	for in, want := range tests {
		if got := normalizeStopReason(in); got != want {
			t.Errorf("normalizeStopReason(%q) = %q, want %q", in, got, want)
		}
	}
}
