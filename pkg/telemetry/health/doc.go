// Package health runs named health checks concurrently.
//
// Each check gets its own timeout. A check that does not return before its
// timeout is reported unhealthy with ErrCheckTimeout, so one stuck backend
// cannot hold up the others.
//
// The gateway uses Run directly to probe every registered backend, and a
// Checker for the /livez and /readyz endpoints:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("backends", func(ctx context.Context) error {
//	    if svc.HealthCheck(ctx).Status == proxy.StatusUnhealthy {
//	        return errors.New("no backend available")
//	    }
//	    return nil
//	})
//	mux.Handle("/readyz", checker.ReadinessHandler())
package health
