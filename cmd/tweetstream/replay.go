package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/tweetkit/mockstream"
)

func newReplayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <recording>",
		Short: "Serve a recorded stream locally",
		Long: `Serve a file of newline-delimited JSON records the way the streaming API
does: "\r\n" terminators, heartbeat lines and randomly sized chunks. Point
api.base_url at the printed address to test stream consumers offline.

Flags override the replay section of the configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg := a.cfg.Replay
			if flags.Changed("port") {
				cfg.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("status") {
				cfg.Status, _ = flags.GetInt("status")
			}
			if flags.Changed("loop") {
				cfg.Loop, _ = flags.GetBool("loop")
			}
			if flags.Changed("interval") {
				cfg.Interval, _ = flags.GetDuration("interval")
			}
			if flags.Changed("heartbeat-every") {
				cfg.HeartbeatEvery, _ = flags.GetInt("heartbeat-every")
			}
			return runReplay(cmd.Context(), a, cmd.OutOrStdout(), args[0], cfg)
		},
	}

	cmd.Flags().Int("port", 0, "Port to listen on (0 = any free port)")
	cmd.Flags().Int("status", 200, "HTTP status sent with the stream")
	cmd.Flags().Bool("loop", false, "Replay the recording until the client disconnects")
	cmd.Flags().Duration("interval", 0, "Pause between chunks")
	cmd.Flags().Int("heartbeat-every", 0, "Send a heartbeat line after every n records")
	return cmd
}

func runReplay(ctx context.Context, a *app, out io.Writer, path string, cfg mockstream.Config) error {
	rec, err := mockstream.LoadRecordingFile(path)
	if err != nil {
		return err
	}

	srv, err := mockstream.New(cfg, rec, a.log)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "replaying %d records at %s%s\n", rec.Len(), srv.URL(), cfg.Path)

	<-ctx.Done()
	return srv.Stop(context.WithoutCancel(ctx))
}
