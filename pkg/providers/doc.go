// Package providers defines the provider-agnostic request/response model and
// the contract every backend adapter implements.
//
// # Overview
//
// The gateway never talks to a vendor API directly. Each registered backend
// is wrapped in an adapter implementing Provider; the load balancer and the
// orchestrator only see that interface.
//
// # Architecture
//
//  1. Provider - the adapter contract (completion, streaming, eligibility, stats, health)
//  2. Base - shared state embedded by every adapter: config, rate limiter, statistics
//  3. HTTPProvider - pooled single-shot HTTP transport with status-to-error mapping
//  4. Adapters - mock, openai and anthropic subpackages
//
// # Basic Usage
//
//	p, err := providerfactory.New(providers.BackendConfig{
//	    ID:                "gpt-4o",
//	    Family:            providers.FamilyOpenAI,
//	    Model:             "gpt-4o",
//	    BaseURL:           "https://api.openai.com/v1",
//	    APIKey:            os.Getenv("OPENAI_API_KEY"),
//	    RequestsPerMinute: 500,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	req := &providers.Request{
//	    Messages: []providers.Message{{Role: providers.RoleUser, Content: "Hello"}},
//	}
//	if p.CanHandleRequest(req) {
//	    resp, err := p.GenerateCompletion(ctx, req)
//	    ...
//	}
//
// # Statistics
//
// Every attempt, successful or not, is passed to Base.Observe. Successful
// attempts update the rolling average latency; token usage is recorded in
// the backend's limiter and counters even when the attempt failed.
//
// # Error Handling
//
// Adapter failures are returned as *BackendError. Its Cause carries the
// detailed kind:
//
//   - AuthError: HTTP 401/403
//   - RateLimitError: HTTP 429, with Retry-After when provided
//   - TimeoutError: deadline exceeded
//   - ParseError: malformed response body
//   - StreamError: failure after a stream opened
//
// Use errors.Is(err, providers.ErrBackend) to detect any backend failure.
package providers
