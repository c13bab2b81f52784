package openai

import (
	"fmt"

	"mercator-hq/switchboard/pkg/providers"
)

// chatRequest is an OpenAI chat completion request body.
type chatRequest struct {
	Model            string         `json:"model"`
	Messages         []chatMessage  `json:"messages"`
	Temperature      float64        `json:"temperature,omitempty"`
	MaxTokens        int            `json:"max_tokens,omitempty"`
	TopP             float64        `json:"top_p,omitempty"`
	Stream           bool           `json:"stream,omitempty"`
	StreamOptions    *streamOptions `json:"stream_options,omitempty"`
	Tools            []tool         `json:"tools,omitempty"`
	Stop             []string       `json:"stop,omitempty"`
	PresencePenalty  float64        `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64        `json:"frequency_penalty,omitempty"`
	N                int            `json:"n,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	Name      string     `json:"name,omitempty"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type tool struct {
	Type     string             `json:"type"`
	Function functionDefinition `json:"function"`
}

type functionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// chatResponse is an OpenAI chat completion response body.
type chatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// streamResponse is one chunk of the SSE stream.
type streamResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []streamChoice `json:"choices"`
	Usage   *usage         `json:"usage,omitempty"`
}

type streamChoice struct {
	Index        int         `json:"index"`
	Delta        streamDelta `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

type streamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// transformRequest builds the OpenAI body for req against model.
func transformRequest(req *providers.Request, model string) *chatRequest {
	out := &chatRequest{
		Model:            model,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		TopP:             req.TopP,
		Stop:             req.Stop,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
		N:                1,
	}

	if len(req.Messages) > 0 {
		out.Messages = make([]chatMessage, len(req.Messages))
		for i, msg := range req.Messages {
			out.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content, Name: msg.Name}
		}
	} else {
		out.Messages = []chatMessage{{Role: providers.RoleUser, Content: req.Prompt}}
	}

	if len(req.Functions) > 0 {
		out.Tools = make([]tool, len(req.Functions))
		for i, fn := range req.Functions {
			out.Tools[i] = tool{
				Type: "function",
				Function: functionDefinition{
					Name:        fn.Name,
					Description: fn.Description,
					Parameters:  fn.Parameters,
				},
			}
		}
	}

	return out
}

// transformResponse converts an OpenAI response into a providers.Response.
func transformResponse(resp *chatResponse) (*providers.Response, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	// N is always 1.
	c := resp.Choices[0]

	result := &providers.Response{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      c.Message.Content,
		FinishReason: normalizeFinishReason(c.FinishReason),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, tc := range c.Message.ToolCalls {
		result.FunctionCalls = append(result.FunctionCalls, providers.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return result, nil
}

// transformStreamChunk converts one SSE chunk. Usage-only chunks carry no
// choices and are returned with an empty delta.
func transformStreamChunk(chunk *streamResponse) providers.StreamChunk {
	var out providers.StreamChunk
	if len(chunk.Choices) > 0 {
		out.Delta = chunk.Choices[0].Delta.Content
		out.FinishReason = normalizeFinishReason(chunk.Choices[0].FinishReason)
	}
	if chunk.Usage != nil {
		out.Usage = &providers.TokenUsage{
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
			TotalTokens:      chunk.Usage.TotalTokens,
		}
	}
	return out
}

func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "tool_calls", "function_call":
		return providers.FinishReasonFunctionCall
	case "content_filter":
		return providers.FinishReasonContentFilter
	default:
		return reason
	}
}
