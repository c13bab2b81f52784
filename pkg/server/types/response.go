package types

import (
	"time"

	"mercator-hq/switchboard/pkg/providers"
)

// Object type markers.
const (
	ObjectCompletion      = "completion"
	ObjectCompletionChunk = "completion.chunk"
	ObjectList            = "list"
	ObjectModel           = "model"
)

// CompletionResponse is returned for non-streaming completions.
type CompletionResponse struct {
	// ID is the backend response ID.
	ID string `json:"id"`

	// Object is always "completion".
	Object string `json:"object"`

	// Created is the Unix timestamp (seconds since epoch) of when the completion was created.
	Created int64 `json:"created"`

	// RequestID correlates the response with the X-Request-ID header.
	RequestID string `json:"request_id"`

	// Backend is the ID of the backend that produced the response.
	Backend string `json:"backend"`

	// Model is the upstream model that produced the response.
	Model string `json:"model"`

	// Content is the generated text.
	Content string `json:"content"`

	// FinishReason explains why the model stopped generating tokens.
	FinishReason string `json:"finish_reason,omitempty"`

	// FunctionCalls are the calls the model asked for, if any.
	FunctionCalls []FunctionCall `json:"function_calls,omitempty"`

	// Usage contains token usage statistics.
	Usage Usage `json:"usage"`

	// Cached is true when the response was served from the cache.
	Cached bool `json:"cached"`

	// LatencyMS is the backend response time in milliseconds.
	LatencyMS int64 `json:"latency_ms"`
}

// FunctionCall represents the function name and arguments.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage contains token usage statistics.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens (prompt + completion).
	TotalTokens int `json:"total_tokens"`
}

// StreamChunk is one Server-Sent Event of a streaming completion.
type StreamChunk struct {
	// ID is shared by every chunk of one stream.
	ID string `json:"id"`

	// Object is always "completion.chunk".
	Object string `json:"object"`

	// Created is the Unix timestamp (seconds since epoch) of when the chunk was created.
	Created int64 `json:"created"`

	// Delta is the incremental text.
	Delta string `json:"delta"`

	// FinishReason is only present in the final chunk.
	FinishReason *string `json:"finish_reason"`

	// Usage is only present in the final chunk when the backend reports it.
	Usage *Usage `json:"usage,omitempty"`
}

// ModelList is returned by GET /v1/models.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// Model describes one registered backend.
type Model struct {
	ID                      string   `json:"id"`
	Object                  string   `json:"object"`
	Family                  string   `json:"family"`
	Model                   string   `json:"model"`
	Capabilities            []string `json:"capabilities"`
	MaxTokens               int      `json:"max_tokens"`
	ContextWindow           int      `json:"context_window"`
	CostPerToken            float64  `json:"cost_per_token"`
	SupportsStreaming       bool     `json:"supports_streaming"`
	SupportsFunctionCalling bool     `json:"supports_function_calling"`
	Available               bool     `json:"available"`
}

// FromProviderResponse converts a gateway response to the wire format.
func FromProviderResponse(resp *providers.Response) *CompletionResponse {
	created := resp.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	out := &CompletionResponse{
		ID:           resp.ID,
		Object:       ObjectCompletion,
		Created:      created.Unix(),
		RequestID:    resp.RequestID,
		Backend:      resp.Backend,
		Model:        resp.Model,
		Content:      resp.Content,
		FinishReason: resp.FinishReason,
		Usage:        FromTokenUsage(resp.Usage),
		Cached:       resp.Metadata["cache"] == "hit",
		LatencyMS:    resp.ResponseTime.Milliseconds(),
	}

	for _, fc := range resp.FunctionCalls {
		out.FunctionCalls = append(out.FunctionCalls, FunctionCall{
			ID:        fc.ID,
			Name:      fc.Name,
			Arguments: fc.Arguments,
		})
	}
	return out
}

// FromTokenUsage converts gateway token usage to the wire format.
func FromTokenUsage(u providers.TokenUsage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// FromStreamChunk converts one backend fragment to an SSE chunk.
func FromStreamChunk(chunk providers.StreamChunk, streamID string) *StreamChunk {
	out := &StreamChunk{
		ID:      streamID,
		Object:  ObjectCompletionChunk,
		Created: time.Now().Unix(),
		Delta:   chunk.Delta,
	}

	// Include finish_reason only in final chunk
	if chunk.FinishReason != "" {
		finishReason := chunk.FinishReason
		out.FinishReason = &finishReason
	}
	if chunk.Usage != nil {
		u := FromTokenUsage(*chunk.Usage)
		out.Usage = &u
	}
	return out
}
