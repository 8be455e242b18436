package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/tweetkit/twitter"
)

func newGetCmd(a *app) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Perform an authenticated GET and print the response",
		Long: `Perform a bearer-authenticated GET against the API and print the JSON
response. Rate-limited requests are retried after the server's reset time.

Example:
  tweetstream get /2/users/by/username/jack -p user.fields=created_at`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseParams(params)
			if err != nil {
				return err
			}
			return runGet(cmd.Context(), a, cmd.OutOrStdout(), args[0], q)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value (repeatable)")
	return cmd
}

func runGet(ctx context.Context, a *app, out io.Writer, path string, params map[string]string) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	defer client.Close(context.WithoutCancel(ctx))

	body, err := twitter.GetWithParams[json.RawMessage](ctx, client, path, params)
	return printBody(out, body, err)
}

// printBody prints whatever body was decoded, even alongside an API error.
func printBody(out io.Writer, body *json.RawMessage, err error) error {
	if body != nil && len(*body) > 0 {
		if _, werr := out.Write(append(*body, '\n')); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
