package providers

import "context"

// Provider is the contract every backend adapter implements. The gateway
// depends only on this interface, never on a concrete adapter type.
//
// All blocking methods accept a context.Context for cancellation and timeout
// control. Implementations must return promptly when the context is done.
//
// Example usage:
//
//	p, err := providerfactory.New(cfg)
//	if err != nil {
//	    return err
//	}
//	if !p.CanHandleRequest(req) {
//	    return routing.ErrNoBackendAvailable
//	}
//	resp, err := p.GenerateCompletion(ctx, req)
type Provider interface {
	// GenerateCompletion performs one backend call and returns the normalized
	// response. Stats are updated whether the call succeeds or fails.
	GenerateCompletion(ctx context.Context, req *Request) (*Response, error)

	// GenerateStreamingCompletion opens a stream of incremental text fragments.
	// The channel is forward-only and not restartable; it is closed after the
	// final chunk. A failure after the stream opened is delivered as a chunk
	// with Err set.
	//
	// Example:
	//
	//  chunks, err := p.GenerateStreamingCompletion(ctx, req)
	//  if err != nil {
	//      return err
	//  }
	//  for chunk := range chunks {
	//      if chunk.Err != nil {
	//          return chunk.Err
	//      }
	//      fmt.Print(chunk.Delta)
	//  }
	GenerateStreamingCompletion(ctx context.Context, req *Request) (<-chan StreamChunk, error)

	// CanHandleRequest reports whether the backend declares every capability
	// the request needs and its rate limiter would admit it right now.
	// It never consumes rate-limit budget.
	CanHandleRequest(req *Request) bool

	// Stats returns a snapshot of the backend's running statistics.
	Stats() BackendStats

	// Config returns the backend's registration config.
	Config() BackendConfig

	// HealthCheck verifies the backend is usable. The mock family performs a
	// trial call; live families only probe when configured to.
	HealthCheck(ctx context.Context) error

	// Close releases resources (HTTP connections, etc.).
	Close() error
}
