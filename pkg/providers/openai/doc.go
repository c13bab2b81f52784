// Package openai implements the adapter for OpenAI-compatible chat
// completions APIs.
//
// It supports:
//
//   - Chat and prompt-style completions (a prompt is sent as one user message)
//   - Streaming responses (Server-Sent Events, usage reported on the last chunk)
//   - Function calling through the tools field
//
// # Basic Usage
//
//	p, err := openai.NewProvider(providers.BackendConfig{
//	    ID:      "gpt-4o",
//	    Model:   "gpt-4o",
//	    BaseURL: "https://api.openai.com/v1",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
// The adapter performs a single HTTP exchange per call. Retries and failover
// happen in the gateway's orchestrator.
package openai
