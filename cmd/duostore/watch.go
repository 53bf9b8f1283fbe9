package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/duostore/client"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream lifecycle events from a running server as JSON lines",
	Long: `Connects to the event stream of a running "duostore serve" and prints each
event as one JSON line until interrupted or the server shuts down.

Topics: backends, backend:<relational|document|cache>, selector, operations,
health and firehose (the default).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server, _ := cmd.Flags().GetString("server")
		topics, _ := cmd.Flags().GetStringSlice("topic")
		retries, _ := cmd.Flags().GetInt("reconnect")

		var opts []client.Option
		if retries > 0 {
			opts = append(opts, client.WithReconnect(retries, time.Second))
		}
		c, err := client.New(server, opts...)
		if err != nil {
			return err
		}
		events, err := c.Subscribe(ctx, topics...)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for evt := range events {
			if err := enc.Encode(evt); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().String("server", "http://localhost:8080", "Base URL of the server")
	watchCmd.Flags().StringSlice("topic", nil, "Topic to receive; repeatable")
	watchCmd.Flags().Int("reconnect", 5, "Reconnect attempts after the stream is lost; 0 disables reconnecting")
}
