// Package httputil provides HTTP utilities for the remote API client.
//
// # Retry
//
// [Retry] re-runs an operation for transient failures. Only errors wrapped
// in [RetryableError] are retried:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Everything else (404, malformed bodies, cancelled contexts) is returned on
// the first attempt:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// The delay starts at the given value and doubles after every attempt. A
// [RetryableError] with a positive After (from a Retry-After header) waits
// that long instead. No single wait exceeds 30 seconds.
//
// Response caching lives in package cache; this package only deals with
// request-level concerns.
package httputil
