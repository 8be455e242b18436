package mockstream

import (
	"time"

	"github.com/kbukum/tweetkit/validation"
)

// Config holds replay server configuration.
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	// Port 0 picks a free port; see Server.Addr.
	Port int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	Path string `yaml:"path" mapstructure:"path" validate:"required,startswith=/"`

	// Status is sent with every replayed stream. Use a 4xx or 5xx status
	// to replay error documents.
	Status int `yaml:"status" mapstructure:"status" validate:"gte=100,lte=599"`

	MinChunk int           `yaml:"min_chunk" mapstructure:"min_chunk" validate:"gte=1"`
	MaxChunk int           `yaml:"max_chunk" mapstructure:"max_chunk" validate:"gtefield=MinChunk"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`

	// HeartbeatEvery inserts a blank line after every n records. 0 disables.
	HeartbeatEvery int `yaml:"heartbeat_every" mapstructure:"heartbeat_every" validate:"gte=0"`
	// Loop replays the recording until the client disconnects.
	Loop bool `yaml:"loop" mapstructure:"loop"`
	// Seed makes chunk sizes reproducible. 0 seeds from the clock.
	Seed uint64 `yaml:"seed" mapstructure:"seed"`

	// BearerToken, when set, is required on every stream request.
	BearerToken string `yaml:"bearer_token" mapstructure:"bearer_token"`

	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Path == "" {
		c.Path = "/2/tweets/search/stream"
	}
	if c.Status == 0 {
		c.Status = 200
	}
	if c.MinChunk == 0 {
		c.MinChunk = 1
	}
	if c.MaxChunk == 0 {
		c.MaxChunk = max(64, c.MinChunk)
	}
	if c.Interval == 0 {
		c.Interval = 5 * time.Millisecond
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
