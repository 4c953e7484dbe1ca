package main

import (
	"github.com/spf13/cobra"

	"github.com/darhnoel/markql-sub000/internal/cliconfig"
)

// Global flags available to all subcommands (spec §6's "CLI"
// collaborator), the way holomush's cmd/holomush carries a
// package-level configFile bound to the root command's persistent
// flag.
var configFile string

// exitCode is set by whichever command ran and read by main after
// Execute returns, so a query/runtime failure (exit 1) and a usage
// error cobra itself catches (exit 2) stay distinguishable.
var exitCode int

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markql",
		Short: "MarkQL - query HTML documents with SQL",
		Long: `MarkQL treats an HTML document's elements as rows in a table and
lets you query them with a SQL-like language: select tags and
attributes, filter with WHERE, walk parent/child/ancestor/descendant
axes, join multiple documents, and export the results.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (defaults to the XDG config home)")

	registerQueryFlags(cmd)
	cmd.RunE = runQueryCmd

	cmd.AddCommand(newLintCmd())
	cmd.AddCommand(newExploreCmd())
	return cmd
}

func loadConfig() (cliconfig.Config, error) {
	return cliconfig.Load(configFile)
}
