// Package config loads service configuration with Viper.
//
// A config.yml is resolved from the usual locations (cmd/<service>/,
// config/, the working directory) and a .env file is loaded with
// godotenv. Every mapstructure key of the target struct can be overridden
// by an environment variable named after its path: api.base_url reads
// API_BASE_URL.
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    API twitter.Config   `yaml:"api" mapstructure:"api"`
//	}
//
//	var cfg AppConfig
//	err := config.Load("tweetstream", &cfg)
package config
