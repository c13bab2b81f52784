package providers

import (
	"maps"
	"slices"
	"time"
)

// Capability is a feature a backend declares it supports.
type Capability string

const (
	CapabilityChat            Capability = "chat"
	CapabilityCompletion      Capability = "completion"
	CapabilityFunctionCalling Capability = "function_calling"
	CapabilityEmbeddings      Capability = "embeddings"
	CapabilityStreaming       Capability = "streaming"
)

// Family identifies the wire protocol a backend speaks.
type Family string

const (
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
	FamilyMock      Family = "mock"
)

// Families lists every supported provider family.
func Families() []Family {
	return []Family{FamilyOpenAI, FamilyAnthropic, FamilyMock}
}

// RequestKind classifies a unit of work.
type RequestKind string

const (
	KindCompletion   RequestKind = "completion"
	KindChat         RequestKind = "chat"
	KindEmbedding    RequestKind = "embedding"
	KindFunctionCall RequestKind = "function_call"
	KindStreaming    RequestKind = "streaming"
)

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender (system, user, assistant, tool)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`

	// Name is an optional name for the message sender
	Name string `json:"name,omitempty"`
}

// FunctionDefinition describes a function the model may call.
type FunctionDefinition struct {
	// Name is the function name
	Name string `json:"name"`

	// Description explains what the function does
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the function parameters
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// FunctionCall is a function invocation produced by the model.
type FunctionCall struct {
	// ID is the backend-assigned call identifier (may be empty)
	ID string `json:"id,omitempty"`

	// Name is the function name to call
	Name string `json:"name"`

	// Arguments is a JSON string containing the function arguments
	Arguments string `json:"arguments"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// BackendConfig is the static description of one registered backend.
// It is created once at registration time and treated as immutable afterwards.
type BackendConfig struct {
	// ID is the unique backend name used for registration and overrides.
	ID string `json:"id" yaml:"id"`

	// Family selects the adapter implementation.
	Family Family `json:"family" yaml:"family"`

	// Model is the upstream model name (e.g. "gpt-4o", "claude-3-5-sonnet").
	Model string `json:"model" yaml:"model"`

	// Capabilities lists the request kinds the backend can serve.
	Capabilities []Capability `json:"capabilities" yaml:"capabilities"`

	// MaxTokens is the maximum completion size the backend accepts.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// CostPerToken is the blended price of one token in USD.
	CostPerToken float64 `json:"cost_per_token" yaml:"cost_per_token"`

	// RequestsPerMinute is the request budget (0 = unlimited).
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`

	// TokensPerMinute is the token budget (0 = unlimited).
	TokensPerMinute int `json:"tokens_per_minute" yaml:"tokens_per_minute"`

	// ContextWindow is the model's context size in tokens.
	ContextWindow int `json:"context_window" yaml:"context_window"`

	SupportsStreaming       bool `json:"supports_streaming" yaml:"supports_streaming"`
	SupportsFunctionCalling bool `json:"supports_function_calling" yaml:"supports_function_calling"`

	// Weight is the relative share used by the weighted strategy.
	Weight float64 `json:"weight" yaml:"weight"`

	// Priority orders backends for reporting; lower is preferred.
	Priority int `json:"priority" yaml:"priority"`

	// BaseURL is the API endpoint base URL (live families only).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url"`

	// APIKey is the authentication key (live families only).
	APIKey string `json:"-" yaml:"api_key"`

	// Timeout bounds a single backend call. Zero means the caller's deadline only.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout"`

	// Probe makes HealthCheck issue a real request for live families.
	Probe bool `json:"probe,omitempty" yaml:"probe"`

	// Delay is the synthetic latency of the mock family.
	Delay time.Duration `json:"delay,omitempty" yaml:"delay"`
}

// HasCapability reports whether the backend declares c. Streaming and
// function calling are governed by their flags alone; listing them in
// Capabilities does not enable them.
func (c BackendConfig) HasCapability(capability Capability) bool {
	switch capability {
	case CapabilityStreaming:
		return c.SupportsStreaming
	case CapabilityFunctionCalling:
		return c.SupportsFunctionCalling
	}
	return slices.Contains(c.Capabilities, capability)
}

// Clone returns a deep copy of the config.
func (c BackendConfig) Clone() BackendConfig {
	c.Capabilities = slices.Clone(c.Capabilities)
	return c
}

// Request is a provider-agnostic unit of work.
type Request struct {
	// ID is the unique request identifier. The service assigns one when empty.
	ID string `json:"id"`

	// Kind is the request kind. Defaults to chat when messages are set.
	Kind RequestKind `json:"kind,omitempty"`

	// Model optionally pins the first attempt to a backend ID or model name.
	Model string `json:"model,omitempty"`

	// Messages is the conversation history (chat style).
	Messages []Message `json:"messages,omitempty"`

	// Prompt is the raw prompt (completion style).
	Prompt string `json:"prompt,omitempty"`

	MaxTokens        int      `json:"max_tokens,omitempty"`
	Temperature      float64  `json:"temperature,omitempty"`
	TopP             float64  `json:"top_p,omitempty"`
	FrequencyPenalty float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64  `json:"presence_penalty,omitempty"`
	Stop             []string `json:"stop,omitempty"`

	// Functions is the function-call schema offered to the model.
	Functions []FunctionDefinition `json:"functions,omitempty"`

	// Stream requests incremental output.
	Stream bool `json:"stream,omitempty"`

	// Metadata is free-form caller context. It is never sent upstream.
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt is when the caller built the request.
	CreatedAt time.Time `json:"created_at"`
}

// RequiredCapabilities returns the capabilities a backend needs to serve r.
func (r *Request) RequiredCapabilities() []Capability {
	var caps []Capability
	if r.Stream || r.Kind == KindStreaming {
		caps = append(caps, CapabilityStreaming)
	}
	if len(r.Functions) > 0 || r.Kind == KindFunctionCall {
		caps = append(caps, CapabilityFunctionCalling)
	}
	if r.Kind == KindEmbedding {
		caps = append(caps, CapabilityEmbeddings)
	}
	return caps
}

// IsStreaming reports whether r asks for a stream.
func (r *Request) IsStreaming() bool {
	return r.Stream || r.Kind == KindStreaming
}

// LastUserContent returns the prompt or the content of the last message.
func (r *Request) LastUserContent() string {
	if len(r.Messages) > 0 {
		return r.Messages[len(r.Messages)-1].Content
	}
	return r.Prompt
}

// Clone returns a deep copy so the caller's value is never mutated.
func (r Request) Clone() Request {
	r.Messages = slices.Clone(r.Messages)
	r.Stop = slices.Clone(r.Stop)
	r.Functions = slices.Clone(r.Functions)
	r.Metadata = maps.Clone(r.Metadata)
	return r
}

// Response is the result of one successful backend call.
type Response struct {
	ID            string            `json:"id"`
	RequestID     string            `json:"request_id"`
	Backend       string            `json:"backend"`
	Family        Family            `json:"family"`
	Model         string            `json:"model"`
	Content       string            `json:"content"`
	Usage         TokenUsage        `json:"usage"`
	FinishReason  string            `json:"finish_reason"`
	FunctionCalls []FunctionCall    `json:"function_calls,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ResponseTime  time.Duration     `json:"response_time"`
}

// Clone returns a deep copy of the response.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	c.FunctionCalls = slices.Clone(r.FunctionCalls)
	c.Metadata = maps.Clone(r.Metadata)
	return &c
}

// StreamChunk is one incremental fragment of a streaming response.
// A chunk with a non-nil Err is always the last one on the channel.
type StreamChunk struct {
	// Delta is the incremental text.
	Delta string

	// FinishReason is set on the final chunk when the backend reports one.
	FinishReason string

	// Usage is set on the final chunk when the backend reports it.
	Usage *TokenUsage

	// Err terminates the stream with a failure.
	Err error
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonFunctionCall  = "function_call"
	FinishReasonContentFilter = "content_filter"
)
