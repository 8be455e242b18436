package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/tweetkit/logger"
	"github.com/kbukum/tweetkit/observability"
	"github.com/kbukum/tweetkit/twitter"
	"github.com/kbukum/tweetkit/version"
)

const rootLongDesc = `tweetstream reads the platform's streaming API and prints every record
as one line of JSON.

  tweetstream stream                 Follow the filtered stream
  tweetstream stream --sample        Follow the sampled stream
  tweetstream get /2/users/by/username/jack
  tweetstream post /2/tweets '{"text":"hello"}'
  tweetstream replay recording.ndjson

Configuration is read from config.yml, .env and TWEETSTREAM_* environment
variables (TWEETSTREAM_API_BEARER_TOKEN, for example).`

// app carries what every command needs once configuration is loaded.
type app struct {
	configFile string
	envFile    string
	debug      bool

	cfg      *AppConfig
	log      *logger.Logger
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "tweetstream",
		Short:        "Stream and query the platform API",
		Long:         rootLongDesc,
		Version:      version.Get().String(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to config.yml")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Path to .env file")
	cmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "Enable debug logging")

	cmd.AddCommand(
		newStreamCmd(a),
		newGetCmd(a),
		newPostCmd(a),
		newReplayCmd(a),
	)
	return cmd
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := loadConfig(a.configFile, a.envFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg

	logger.Init(&cfg.Logging, cfg.Name)
	a.log = logger.GetGlobalLogger()

	shutdown, err := observability.Init(ctx, cfg.Observability, observability.Identity{
		Service:     cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	a.shutdown = shutdown

	a.log.Debug("configuration loaded", logger.Fields(
		"environment", cfg.Environment,
		"base_url", cfg.API.BaseURL,
		"telemetry", cfg.Observability.Enabled,
	))
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return a.shutdown(ctx)
}

// client builds an API client wired to the global telemetry providers.
func (a *app) client() (*twitter.Client, error) {
	meter := observability.Meter(serviceName)
	requestMetrics, err := observability.NewRequestMetrics(meter)
	if err != nil {
		return nil, err
	}
	streamMetrics, err := observability.NewStreamMetrics(meter)
	if err != nil {
		return nil, err
	}
	return twitter.New(a.cfg.API,
		twitter.WithLogger(a.log),
		twitter.WithTracer(observability.Tracer(serviceName)),
		twitter.WithRequestMetrics(requestMetrics),
		twitter.WithStreamMetrics(streamMetrics),
	)
}

// parseParams turns key=value flags into query parameters.
func parseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", p)
		}
		params[k] = v
	}
	return params, nil
}
