package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/tweetkit/errors"
)

// TypedResponse wraps a response with a decoded body of type T.
type TypedResponse[T any] struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Data is the decoded response body.
	Data T
	// Raw is the undecoded response body.
	Raw []byte
}

// RequestOption configures a single request.
type RequestOption func(*Request)

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithHeaders adds every header in h to the request.
func WithHeaders(h map[string]string) RequestOption {
	return func(r *Request) {
		for k, v := range h {
			WithHeader(k, v)(r)
		}
	}
}

// WithQueryParam adds a query parameter to the request.
func WithQueryParam(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(map[string]string)
		}
		r.Query[key] = value
	}
}

// WithQuery adds every parameter in q to the request.
func WithQuery(q map[string]string) RequestOption {
	return func(r *Request) {
		for k, v := range q {
			WithQueryParam(k, v)(r)
		}
	}
}

// WithRequestAuth overrides authentication for the request.
func WithRequestAuth(auth *AuthConfig) RequestOption {
	return func(r *Request) {
		r.Auth = auth
	}
}

// Get performs a GET request and decodes the JSON response into type T.
func Get[T any](a *Adapter, ctx context.Context, path string, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](a, ctx, http.MethodGet, path, nil, opts...)
}

// Post performs a POST request and decodes the response into type T.
// See Request.Body for accepted body types.
func Post[T any](a *Adapter, ctx context.Context, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	return doTyped[T](a, ctx, http.MethodPost, path, body, opts...)
}

// doTyped executes a typed REST request and decodes the JSON response.
// For non-2xx responses the body is decoded when possible and returned
// alongside the classified error.
func doTyped[T any](a *Adapter, ctx context.Context, method, path string, body any, opts ...RequestOption) (*TypedResponse[T], error) {
	req := Request{
		Method: method,
		Path:   path,
		Body:   body,
	}
	for _, opt := range opts {
		opt(&req)
	}

	resp, err := a.Do(ctx, req)
	if err != nil {
		if resp != nil {
			var data T
			if jsonErr := json.Unmarshal(resp.Body, &data); jsonErr == nil {
				return &TypedResponse[T]{
					StatusCode: resp.StatusCode,
					Headers:    resp.Headers,
					Data:       data,
					Raw:        resp.Body,
				}, err
			}
		}
		return nil, err
	}

	var data T
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return nil, apperrors.DecodeFailed(fmt.Sprintf("%T", data), err).
				WithDetail("status_code", resp.StatusCode)
		}
	}

	return &TypedResponse[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Data:       data,
		Raw:        resp.Body,
	}, nil
}
