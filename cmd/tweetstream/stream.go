package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/tweetkit/stream"
	"github.com/kbukum/tweetkit/twitter"
)

type streamCommander struct {
	app *app

	sample   bool
	path     string
	params   []string
	max      int
	duration time.Duration
}

func newStreamCmd(a *app) *cobra.Command {
	cmder := &streamCommander{app: a}

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Print records from a streaming endpoint",
		Long: `Connect to a streaming endpoint and print every record as one line of
JSON. Error documents sent by the server are printed to stderr.

The stream runs until the server closes it, --max records arrive,
--duration elapses, or the process is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&cmder.sample, "sample", false, "Use the sampled stream")
	cmd.Flags().StringVar(&cmder.path, "path", "", "Stream endpoint path (overrides --sample)")
	cmd.Flags().StringArrayVarP(&cmder.params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().IntVarP(&cmder.max, "max", "n", 0, "Stop after this many records (0 = unlimited)")
	cmd.Flags().DurationVar(&cmder.duration, "duration", 0, "Stop after this long (0 = unlimited)")
	return cmd
}

func (c *streamCommander) endpoint() string {
	switch {
	case c.path != "":
		return c.path
	case c.sample:
		return twitter.SampleStreamPath
	default:
		return twitter.SearchStreamPath
	}
}

func (c *streamCommander) run(ctx context.Context, stdout, stderr io.Writer) error {
	params, err := parseParams(c.params)
	if err != nil {
		return err
	}

	client, err := c.app.client()
	if err != nil {
		return err
	}
	defer client.Close(context.WithoutCancel(ctx))

	if c.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.duration)
		defer cancel()
	}

	var (
		count atomic.Int64
		s     *twitter.Stream
		ready = make(chan struct{})
	)
	enc := json.NewEncoder(stdout)
	errEnc := json.NewEncoder(stderr)

	h := stream.Handler[twitter.Tweet, twitter.StreamError]{
		OnRecord: func(t twitter.Tweet) error {
			n := count.Add(1)
			if c.max > 0 && n > int64(c.max) {
				return nil
			}
			if err := enc.Encode(t); err != nil {
				return err
			}
			if c.max > 0 && n == int64(c.max) {
				<-ready
				return s.Close()
			}
			return nil
		},
		OnError: func(e twitter.StreamError) error {
			return errEnc.Encode(e)
		},
	}

	s, err = client.Stream(ctx, c.endpoint(), params, h)
	close(ready)
	if err != nil {
		return err
	}

	if err := s.Wait(); err != nil {
		return err
	}
	if s.Status() >= 400 {
		return fmt.Errorf("stream closed with status %d", s.Status())
	}
	return nil
}
