package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"mercator-hq/switchboard/pkg/providers"
)

// keyMessage is the cached subset of a message.
type keyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// keyFields is the canonical form hashed into a cache key. Field order is
// fixed by the struct, so two requests with equal values always serialize
// to the same bytes no matter how they were built.
type keyFields struct {
	Model       string       `json:"model"`
	Messages    []keyMessage `json:"messages,omitempty"`
	Prompt      string       `json:"prompt,omitempty"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
	TopP        float64      `json:"top_p"`
}

// Key returns the SHA-256 hex digest of the request fields that determine
// a response: model, messages or prompt, temperature, max_tokens and top_p.
func Key(req *providers.Request) string {
	fields := keyFields{
		Model:       req.Model,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	}
	if len(req.Messages) > 0 {
		fields.Messages = make([]keyMessage, len(req.Messages))
		for i, m := range req.Messages {
			fields.Messages[i] = keyMessage{Role: m.Role, Content: m.Content, Name: m.Name}
		}
	}

	// Marshal of this struct cannot fail: it holds only strings and numbers.
	// Non-finite floats are the one exception and hash as their zero form.
	data, err := json.Marshal(fields)
	if err != nil {
		fields.Temperature, fields.TopP = 0, 0
		data, _ = json.Marshal(fields)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
