// Package proxy provides the Switchboard Service, the orchestrator that turns
// one gateway request into a response from one of several LLM backends.
//
// # Request flow
//
// A non-streaming request goes through:
//
//	cache lookup -> select backend -> attempt -> cache store -> return
//	                     ^               |
//	                     +--- failure ---+ (while attempts remain and failover is on)
//
// An explicit model on the request pins the first attempt to the backend
// with that ID, or to the backend serving that model name. Retries always
// go through the load balancer.
//
// Streaming requests skip the cache and are never retried. A failure before
// the stream opens is returned; a failure afterwards is the final chunk's Err.
//
// # Errors
//
// Errors are typed and matched with errors.Is / errors.As:
//
//   - routing.CapabilityError (ErrCapability): no backend declares the
//     capabilities the request needs; never retried
//   - routing.NoBackendAvailableError (ErrNoBackendAvailable): every capable
//     backend is rate limited
//   - RetriesExhaustedError (ErrRetriesExhausted): every attempt failed; it
//     unwraps to the last providers.BackendError
//   - ErrServiceStopped: the service was not started
//
// # Basic Usage
//
//	svc := proxy.NewService(proxy.DefaultOptions())
//	if err := svc.RegisterBackend(providers.BackendConfig{ID: "a", Family: providers.FamilyMock}); err != nil {
//	    return err
//	}
//	if err := svc.Start(ctx); err != nil {
//	    return err
//	}
//	defer svc.Stop(context.Background())
//
//	resp, err := svc.GenerateCompletion(ctx, providers.Request{
//	    Messages: []providers.Message{{Role: "user", Content: "hello"}},
//	})
//
// # Maintenance
//
// While running, a cron job sweeps expired cache entries every
// CleanupInterval. ApplyConfig reconciles registered backends and routing
// settings with a reloaded configuration.
package proxy
