package twitter

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/tweetkit/httpclient"
	"github.com/kbukum/tweetkit/logger"
	"github.com/kbukum/tweetkit/observability"
	"github.com/kbukum/tweetkit/token"
)

// Client talks to the REST and streaming API with one pooled adapter.
type Client struct {
	cfg     Config
	adapter *httpclient.Adapter
	token   token.Provider
	owned   *token.File
	log     *logger.Logger

	requestMetrics *observability.RequestMetrics
	streamMetrics  *observability.StreamMetrics
}

type options struct {
	log            *logger.Logger
	token          token.Provider
	tracer         trace.Tracer
	requestMetrics *observability.RequestMetrics
	streamMetrics  *observability.StreamMetrics
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the client's logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTokenProvider supplies the bearer token, overriding the token fields
// of Config.
func WithTokenProvider(p token.Provider) Option {
	return func(o *options) { o.token = p }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithRequestMetrics sets the REST request instruments.
func WithRequestMetrics(m *observability.RequestMetrics) Option {
	return func(o *options) { o.requestMetrics = m }
}

// WithStreamMetrics sets the stream instruments.
func WithStreamMetrics(m *observability.StreamMetrics) Option {
	return func(o *options) { o.streamMetrics = m }
}

// New creates a Client. A BearerTokenFile is watched for rotation until
// Close.
func New(cfg Config, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg.ApplyDefaults()
	if err := cfg.validate(o.token != nil); err != nil {
		return nil, err
	}

	log := o.log
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("twitter")

	c := &Client{
		cfg:            cfg,
		token:          o.token,
		log:            log,
		requestMetrics: o.requestMetrics,
		streamMetrics:  o.streamMetrics,
	}

	if c.token == nil {
		if err := c.openToken(); err != nil {
			return nil, err
		}
	}

	adapterOpts := []httpclient.Option{
		httpclient.WithLogger(log),
		httpclient.WithMetrics(o.requestMetrics),
	}
	if o.tracer != nil {
		adapterOpts = append(adapterOpts, httpclient.WithTracer(o.tracer))
	}

	adapter, err := httpclient.New(httpclient.Config{
		Name:           "twitter",
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		ConnectTimeout: cfg.ConnectTimeout,
		TLS:            cfg.TLS,
		RateLimiter:    cfg.RateLimiter,
		Auth:           httpclient.TokenAuth(c.token),
	}, adapterOpts...)
	if err != nil {
		_ = c.closeToken()
		return nil, err
	}
	c.adapter = adapter
	return c, nil
}

func (c *Client) openToken() error {
	if c.cfg.BearerTokenFile != "" {
		f, err := token.NewFile(c.cfg.BearerTokenFile)
		if err != nil {
			return err
		}
		c.token, c.owned = f, f
		return nil
	}
	s, err := token.NewStatic(c.cfg.BearerToken)
	if err != nil {
		return err
	}
	c.token = s
	return nil
}

func (c *Client) closeToken() error {
	if c.owned == nil {
		return nil
	}
	return c.owned.Close()
}

// Config returns the client's configuration with defaults applied.
func (c *Client) Config() Config {
	return c.cfg
}

// Close releases pooled connections and stops watching the token file.
// Open streams are not affected; close them individually.
func (c *Client) Close(ctx context.Context) error {
	return errors.Join(c.adapter.Close(ctx), c.closeToken())
}
