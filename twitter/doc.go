// Package twitter is a thin client for the platform's v2 REST and
// filtered-stream endpoints.
//
// REST calls are generic over the response type:
//
//	c, err := twitter.New(cfg)
//	user, err := twitter.Get[twitter.UserResponse](ctx, c, "/2/users/by/username/jack")
//
// A rate-limited GET waits for the window the server reports (or
// Config.RateLimitWait) and retries up to Config.MaxRateLimitRetries times.
// A 401 returns a nil result and an error for which httpclient.IsAuth is
// true. Other API errors return whatever the error body decoded to,
// alongside the error.
//
// Streams deliver decoded records to a handler on a dedicated goroutine:
//
//	s, err := c.Stream(ctx, twitter.SearchStreamPath, nil, stream.Handler[twitter.Tweet, twitter.StreamError]{
//	    OnRecord: func(t twitter.Tweet) error { ...; return nil },
//	    OnError:  func(e twitter.StreamError) error { ...; return nil },
//	})
//	defer s.Close()
//	<-s.Done()
package twitter
