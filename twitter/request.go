package twitter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kbukum/tweetkit/httpclient"
	"github.com/kbukum/tweetkit/logger"
	"github.com/kbukum/tweetkit/resilience"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Get performs a bearer-authenticated GET and decodes the body as T.
func Get[T any](ctx context.Context, c *Client, url string) (*T, error) {
	return GetWithParams[T](ctx, c, url, nil)
}

// GetWithParams is Get with query parameters.
func GetWithParams[T any](ctx context.Context, c *Client, url string, params map[string]string) (*T, error) {
	return send[T](ctx, c, http.MethodGet, url, nil, true, httpclient.WithQuery(params))
}

// Post performs a bearer-authenticated POST with a JSON body.
func Post[T any](ctx context.Context, c *Client, url, body string) (*T, error) {
	return send[T](ctx, c, http.MethodPost, url, []byte(body), false,
		httpclient.WithHeader("Content-Type", contentTypeJSON))
}

// PostWithHeaders performs a POST with a form-encoded body and only the
// given headers, for endpoints that do not take the bearer token.
func PostWithHeaders[T any](ctx context.Context, c *Client, url string, headers map[string]string, body string) (*T, error) {
	return send[T](ctx, c, http.MethodPost, url, []byte(body), false,
		httpclient.WithHeader("Content-Type", contentTypeForm),
		httpclient.WithHeaders(headers),
		httpclient.WithRequestAuth(httpclient.NoAuth()))
}

// GetWithHeaders performs a GET with only the given headers.
func GetWithHeaders[T any](ctx context.Context, c *Client, url string, headers map[string]string) (*T, error) {
	return send[T](ctx, c, http.MethodGet, url, nil, true,
		httpclient.WithHeaders(headers),
		httpclient.WithRequestAuth(httpclient.NoAuth()))
}

func send[T any](ctx context.Context, c *Client, method, url string, body any, retryRateLimit bool, opts ...httpclient.RequestOption) (*T, error) {
	call := func() (*httpclient.TypedResponse[T], error) {
		if method == http.MethodGet {
			return httpclient.Get[T](c.adapter, ctx, url, opts...)
		}
		return httpclient.Post[T](c.adapter, ctx, url, body, opts...)
	}

	var (
		resp *httpclient.TypedResponse[T]
		err  error
	)
	if retryRateLimit && c.cfg.MaxRateLimitRetries > 0 {
		resp, err = resilience.Retry(ctx, c.rateLimitRetry(ctx, method, url), call)
	} else {
		resp, err = call()
	}

	if err == nil {
		return &resp.Data, nil
	}

	status := httpclient.StatusCode(err)
	switch {
	case status == http.StatusUnauthorized:
		c.log.Info("unauthorized, user may be private", logger.RequestFields(method, url, status))
		return nil, err
	case status != 0:
		c.logAPIError(method, url, err)
		if resp != nil {
			return &resp.Data, err
		}
		return nil, err
	default:
		c.log.Error("request failed", logger.MergeWithError(logger.RequestFields(method, url, 0), err))
		return nil, err
	}
}

// rateLimitRetry waits out 429 responses: the server's reset hint when
// present, RateLimitWait otherwise.
func (c *Client) rateLimitRetry(ctx context.Context, method, url string) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    c.cfg.MaxRateLimitRetries + 1,
		InitialBackoff: c.cfg.RateLimitWait,
		MaxBackoff:     c.cfg.RateLimitWait,
		BackoffFactor:  1,
		RetryIf:        httpclient.IsRateLimit,
		DelayFor:       httpclient.RetryAfter,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			c.log.Warn("rate limited, waiting before retry", logger.Fields(
				logger.FieldMethod, method,
				logger.FieldURL, url,
				logger.FieldAttempt, attempt,
				logger.FieldWait, wait.String(),
			))
			c.requestMetrics.RecordRateLimitWait(ctx, method)
		},
	}
}

func (c *Client) logAPIError(method, url string, err error) {
	fields := logger.RequestFields(method, url, httpclient.StatusCode(err))
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) && len(httpErr.Body) > 0 {
		fields[logger.FieldBody] = string(httpErr.Body)
	}
	c.log.Error("API error", fields)
}
