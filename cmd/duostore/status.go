package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/client"
)

// statusOutput is what the status command prints.
type statusOutput struct {
	Status duostore.Status       `json:"status"`
	Health duostore.HealthReport `json:"health"`
	Error  string                `json:"error,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the selector status as JSON",
	Long: `Without --server, initialises a selector from the local configuration and
prints its status and health. With --server, asks a running server instead.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if server, _ := cmd.Flags().GetString("server"); server != "" {
			return remoteStatus(cmd, server)
		}

		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.selector.Shutdown(ctx)
		}()

		initErr := a.selector.Initialize(cmd.Context())

		out := statusOutput{
			Status: a.selector.GetStatus(),
			Health: a.selector.HealthCheck(cmd.Context()),
		}
		if initErr != nil {
			out.Error = initErr.Error()
		}
		if err := printStatus(cmd, out); err != nil {
			return err
		}
		return initErr
	},
}

func init() {
	statusCmd.Flags().String("server", "", "Base URL of a running server to query instead")
}

// remoteStatus prints the status of a running server. An unhealthy server
// is reported through the exit status.
func remoteStatus(cmd *cobra.Command, server string) error {
	c, err := client.New(server)
	if err != nil {
		return err
	}
	status, err := c.Status(cmd.Context())
	if err != nil {
		return err
	}
	report, err := c.Health(cmd.Context())
	if err != nil {
		return err
	}
	out := statusOutput{Status: status, Health: report}
	if err := printStatus(cmd, out); err != nil {
		return err
	}
	if !report.Healthy {
		return fmt.Errorf("server unhealthy: %s", report.Error)
	}
	return nil
}

func printStatus(cmd *cobra.Command, out statusOutput) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
