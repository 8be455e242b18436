package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/tweetkit/logger"
	"github.com/kbukum/tweetkit/observability"
	"github.com/kbukum/tweetkit/resilience"
)

// Adapter is a configurable HTTP adapter with built-in auth, TLS, pooling,
// retry and client-side rate limiting.
type Adapter struct {
	httpClient   *http.Client
	streamClient *http.Client
	config       Config
	rl           *resilience.RateLimiter
	log          *logger.Logger
	tracer       trace.Tracer
	metrics      *observability.RequestMetrics
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l.WithComponent("httpclient")
		}
	}
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Adapter) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithMetrics sets the request instruments.
func WithMetrics(m *observability.RequestMetrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.MaxIdleConns = cfg.MaxIdleConns
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	transport.IdleConnTimeout = cfg.IdleConnTimeout

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		// Streams are bounded by the caller's context, not a global timeout.
		streamClient: &http.Client{Transport: transport},
		config:       cfg,
		log:          logger.WithComponent("httpclient"),
		tracer:       observability.DefaultTracer(),
	}

	if cfg.RateLimiter != nil {
		a.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Do executes an HTTP request and returns the complete response.
// Non-2xx responses are returned together with a classified *Error.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if a.config.Retry != nil {
		cfg := *a.config.Retry
		onRetry := cfg.OnRetry
		cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
			a.log.Warn("retrying request", logger.Fields(
				logger.FieldMethod, req.Method,
				logger.FieldURL, req.Path,
				logger.FieldAttempt, attempt,
				logger.FieldWait, backoff.String(),
				logger.FieldError, err.Error(),
			))
			if onRetry != nil {
				onRetry(attempt, err, backoff)
			}
		}
		return resilience.Retry(ctx, cfg, func() (*Response, error) {
			return a.doOnce(ctx, req)
		})
	}
	return a.doOnce(ctx, req)
}

// DoStream executes an HTTP request and returns a streaming response for
// any status code. The caller must close the returned StreamResponse.
// Retry is not applied to streaming requests.
func (a *Adapter) DoStream(ctx context.Context, req Request) (*StreamResponse, error) {
	if err := a.waitRateLimit(ctx); err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, observability.SpanStreamConnect,
		trace.WithSpanKind(trace.SpanKindClient))
	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String(observability.AttrHTTPMethod, httpReq.Method),
		attribute.String(observability.AttrHTTPURL, httpReq.URL.String()),
	)

	start := time.Now()
	resp, err := a.streamClient.Do(httpReq) //nolint:bodyclose // Body is owned by the returned StreamResponse
	if err != nil {
		err = transportError(ctx, err)
		a.metrics.RecordRequest(ctx, httpReq.Method, 0, time.Since(start))
		observability.EndSpan(span, err)
		return nil, err
	}
	a.metrics.RecordRequest(ctx, httpReq.Method, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, resp.StatusCode))

	sr := &StreamResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       resp.Body,
		rawResp:    resp,
	}
	a.noteRateLimit(sr.Classify())
	observability.EndSpan(span, nil)
	return sr, nil
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// Name returns the configured adapter name.
func (a *Adapter) Name() string {
	return a.config.Name
}

// Close releases idle pooled connections.
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// GetConfig returns the adapter's configuration with defaults applied.
func (a *Adapter) GetConfig() Config {
	return a.config
}

// doOnce executes a single HTTP request behind the rate limiter.
func (a *Adapter) doOnce(ctx context.Context, req Request) (*Response, error) {
	if err := a.waitRateLimit(ctx); err != nil {
		return nil, err
	}
	return a.executeRequest(ctx, req)
}

func (a *Adapter) waitRateLimit(ctx context.Context) error {
	if a.rl == nil {
		return nil
	}
	if err := a.rl.Wait(ctx); err != nil {
		return NewTimeoutError(err)
	}
	return nil
}

// noteRateLimit freezes the limiter until a 429's reset time.
func (a *Adapter) noteRateLimit(e *Error) {
	if a.rl == nil || e == nil || e.Code != ErrCodeRateLimit || e.ResetAt.IsZero() {
		return
	}
	a.rl.BlockUntil(e.ResetAt)
}

// executeRequest builds and sends the HTTP request.
func (a *Adapter) executeRequest(ctx context.Context, req Request) (resp *Response, err error) {
	ctx, span := a.tracer.Start(ctx, observability.SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindClient))
	defer func() { observability.EndSpan(span, err) }()

	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String(observability.AttrHTTPMethod, httpReq.Method),
		attribute.String(observability.AttrHTTPURL, httpReq.URL.String()),
	)

	start := time.Now()
	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		a.metrics.RecordRequest(ctx, httpReq.Method, 0, time.Since(start))
		return nil, transportError(ctx, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	a.metrics.RecordRequest(ctx, httpReq.Method, httpResp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int(observability.AttrHTTPStatus, httpResp.StatusCode))
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    flattenHeaders(httpResp.Header),
		Body:       body,
	}

	a.log.Debug("request completed", logger.MergeWithDuration(
		logger.RequestFields(httpReq.Method, httpReq.URL.Path, httpResp.StatusCode),
		time.Since(start),
	))

	if classErr := ClassifyResponse(httpResp.StatusCode, result.Headers, body); classErr != nil {
		a.noteRateLimit(classErr)
		return result, classErr
	}

	return result, nil
}

func transportError(ctx context.Context, err error) *Error {
	if ctx.Err() != nil {
		return NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := req.Path
	if a.config.BaseURL != "" && !strings.HasPrefix(req.Path, "http://") && !strings.HasPrefix(req.Path, "https://") {
		target = strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	if a.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", a.config.UserAgent)
	}

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	// Request-specific headers override defaults.
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	auth := a.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	case url.Values:
		return strings.NewReader(v.Encode()), "application/x-www-form-urlencoded", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
