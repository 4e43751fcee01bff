// Package resilience retries fallible operations with exponential backoff.
//
//	manifest, err := resilience.Retry(ctx, policy.Config(), func() (*Manifest, error) {
//	    return fetch(ctx, endpoint)
//	})
//
// AppErrors are retried only when marked retryable; context cancellation
// is never retried.
package resilience
