// Package resilience provides retry and client-side rate limiting for
// calls against a rate-limited API.
//
//   - Retry: retries failed operations with exponential backoff, or with a
//     delay dictated by the error itself (e.g. a rate-limit reset time)
//   - RateLimiter: paces outgoing requests with a token bucket
//
// The two compose naturally:
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 1, Burst: 5})
//	resp, err := resilience.Retry(ctx, cfg, func() (*Response, error) {
//	    if err := rl.Wait(ctx); err != nil {
//	        return nil, err
//	    }
//	    return client.Do(ctx, req)
//	})
package resilience
