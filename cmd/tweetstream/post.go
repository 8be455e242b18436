package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/tweetkit/twitter"
)

func newPostCmd(a *app) *cobra.Command {
	var headers []string

	cmd := &cobra.Command{
		Use:   "post <path> <json-body>",
		Short: "Perform an authenticated POST and print the response",
		Long: `Perform a bearer-authenticated POST with a JSON body and print the JSON
response. With --header the bearer token is not sent and the body is posted
form-encoded, as token endpoints expect.

Example:
  tweetstream post /2/tweets/search/stream/rules '{"add":[{"value":"golang"}]}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := parseParams(headers)
			if err != nil {
				return err
			}
			return runPost(cmd.Context(), a, cmd.OutOrStdout(), args[0], args[1], h)
		},
	}

	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Header as key=value (repeatable)")
	return cmd
}

func runPost(ctx context.Context, a *app, out io.Writer, path, body string, headers map[string]string) error {
	client, err := a.client()
	if err != nil {
		return err
	}
	defer client.Close(context.WithoutCancel(ctx))

	var resp *json.RawMessage
	if len(headers) > 0 {
		resp, err = twitter.PostWithHeaders[json.RawMessage](ctx, client, path, headers, body)
	} else {
		resp, err = twitter.Post[json.RawMessage](ctx, client, path, body)
	}
	return printBody(out, resp, err)
}
