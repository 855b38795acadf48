// Package circuitbreaker implements the circuit breaker pattern for guarding
// calls to flaky external services.
//
// Each breaker has three states:
//
//   - CLOSED: normal operation, calls pass through
//   - OPEN: service failing, calls rejected with *OpenError
//   - HALF_OPEN: probing whether the service recovered
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(circuitbreaker.Config{}, nil)
//	err := registry.Execute("github-api", func() error {
//	    return client.RerunFailedJobs(ctx, runID)
//	})
package circuitbreaker
