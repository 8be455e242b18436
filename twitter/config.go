package twitter

import (
	"strings"
	"time"

	"github.com/kbukum/tweetkit/httpclient"
	"github.com/kbukum/tweetkit/resilience"
	"github.com/kbukum/tweetkit/validation"
)

const (
	DefaultBaseURL             = "https://api.twitter.com"
	defaultTimeout             = 30 * time.Second
	defaultConnectTimeout      = 60 * time.Second
	defaultMaxRateLimitRetries = 5
	defaultRateLimitWait       = 5 * time.Minute
	defaultReadTimeout         = 60 * time.Second
	defaultReadBufferSize      = 4096
)

// NoRateLimitRetry disables the 429 retry of GET requests.
const NoRateLimitRetry = -1

// Config configures a Client.
type Config struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	BearerToken     string `yaml:"bearer_token" mapstructure:"bearer_token" validate:"required_without=BearerTokenFile"`
	BearerTokenFile string `yaml:"bearer_token_file" mapstructure:"bearer_token_file"`

	// Timeout bounds a REST request. Streams ignore it.
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout" validate:"gt=0"`

	// MaxRateLimitRetries caps how often a rate-limited GET is retried.
	// Zero selects the default of 5; NoRateLimitRetry turns retrying off.
	MaxRateLimitRetries int `yaml:"max_rate_limit_retries" mapstructure:"max_rate_limit_retries" validate:"gte=-1"`
	// RateLimitWait is the wait used when a 429 carries no reset hint.
	RateLimitWait time.Duration `yaml:"rate_limit_wait" mapstructure:"rate_limit_wait" validate:"gt=0"`

	Stream      StreamConfig                  `yaml:"stream" mapstructure:"stream"`
	TLS         *httpclient.TLSConfig         `yaml:"tls" mapstructure:"tls"`
	RateLimiter *resilience.RateLimiterConfig `yaml:"rate_limiter" mapstructure:"rate_limiter"`
}

// StreamConfig configures streaming connections.
type StreamConfig struct {
	// ReadTimeout closes a stream that delivers no bytes for this long.
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gt=0"`
	ReadBufferSize int           `yaml:"read_buffer_size" mapstructure:"read_buffer_size" validate:"gte=64"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.MaxRateLimitRetries == 0 {
		c.MaxRateLimitRetries = defaultMaxRateLimitRetries
	}
	if c.RateLimitWait <= 0 {
		c.RateLimitWait = defaultRateLimitWait
	}
	if c.Stream.ReadTimeout <= 0 {
		c.Stream.ReadTimeout = defaultReadTimeout
	}
	if c.Stream.ReadBufferSize == 0 {
		c.Stream.ReadBufferSize = defaultReadBufferSize
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	v := validation.New().
		Custom(!strings.ContainsAny(strings.TrimSpace(c.BearerToken), " \t\r\n"), "bearer_token", "must not contain whitespace")
	if err := v.Validate(); err != nil {
		return err
	}
	if c.TLS != nil {
		return c.TLS.Validate()
	}
	return nil
}

// validate skips the token requirement when a provider is supplied.
func (c *Config) validate(hasProvider bool) error {
	check := *c
	if hasProvider && check.BearerToken == "" && check.BearerTokenFile == "" {
		check.BearerToken = "provided"
	}
	return check.Validate()
}
