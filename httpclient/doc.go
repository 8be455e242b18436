// Package httpclient provides a configurable HTTP adapter with built-in
// authentication, TLS, connection pooling, retry, client-side rate limiting
// and streaming support.
//
// # Basic Usage
//
//	a, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.twitter.com",
//	    Auth:    httpclient.BearerAuth("my-token"),
//	})
//
//	resp, err := a.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/2/users/by/username/jack",
//	})
//
// # Typed requests
//
//	resp, err := httpclient.Get[User](a, ctx, "/2/users/12")
//
// # Streaming
//
// DoStream returns the live body for every status code so that error
// documents sent on a stream connection can be read by the caller.
//
//	sr, err := a.DoStream(ctx, httpclient.Request{Method: http.MethodGet, Path: "/2/tweets/search/stream"})
//	defer sr.Close()
//
// Non-2xx responses from Do are returned as *Error alongside the response.
// Rate-limited responses carry the server's reset hint, see RetryAfter.
package httpclient
