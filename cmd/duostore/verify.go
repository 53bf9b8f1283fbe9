package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/duostore/bootstrap"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Probe every dependency and print a report",
	Long: `Runs the startup checks against the configured stores and the cache,
prints a pass/fail report and shuts everything down again. Exits non-zero
when a required check fails.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.selector.Shutdown(ctx)
		}()

		timeout, _ := cmd.Flags().GetDuration("timeout")
		report, runErr := bootstrap.Run(cmd.Context(), a.selector,
			bootstrap.WithLogger(a.logger),
			bootstrap.WithTimeout(timeout),
		)
		if err := report.Print(cmd.OutOrStdout()); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	verifyCmd.Flags().Duration("timeout", time.Minute, "Bound on the whole verification run")
}
