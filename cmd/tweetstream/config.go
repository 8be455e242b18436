package main

import (
	"fmt"

	"github.com/kbukum/tweetkit/config"
	"github.com/kbukum/tweetkit/mockstream"
	"github.com/kbukum/tweetkit/observability"
	"github.com/kbukum/tweetkit/twitter"
)

const serviceName = "tweetstream"

// AppConfig is the tweetstream configuration, read from config.yml, .env
// and TWEETSTREAM_* environment variables.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API           twitter.Config       `yaml:"api" mapstructure:"api"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Replay        mockstream.Config    `yaml:"replay" mapstructure:"replay"`
}

// ApplyDefaults applies defaults to every section.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.API.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Replay.ApplyDefaults()
}

// Validate checks every section except API credentials, which only the
// commands that talk to the API need; twitter.New checks them.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config.observability: %w", err)
	}
	if err := c.Replay.Validate(); err != nil {
		return fmt.Errorf("config.replay: %w", err)
	}
	return nil
}

func loadConfig(configFile, envFile string) (*AppConfig, error) {
	opts := []config.LoaderOption{config.WithEnvPrefix("TWEETSTREAM")}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	var cfg AppConfig
	if err := config.Load(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
