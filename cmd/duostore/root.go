package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/duostore/config"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "duostore",
	Short: "Relational storefront data layer with document store fallback",
	Long: fmt.Sprintf(`duostore (%s)

Runs the storefront data layer: a relational primary store with automatic
one-way fallback to a document store, plus an optional cache.

Every flag can also be set as an environment variable with the DUOSTORE_
prefix, e.g. DUOSTORE_SQL_HOST. Variables are also read from .env and
.env.local.`, Version),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "duostore %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(config.LoadEnvFiles)
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd, verifyCmd, statusCmd, watchCmd, versionCmd)
}
