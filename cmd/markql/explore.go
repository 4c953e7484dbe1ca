package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newExploreCmd is a stub for the interactive TUI explorer spec §6
// marks out of scope: it exists so the command tree matches the
// documented CLI surface, but doesn't implement a terminal UI.
func newExploreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explore <file>",
		Short: "interactively explore an HTML document (not yet implemented)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "markql explore is not implemented in this build; use --query/--query-file instead.")
			exitCode = 1
			return nil
		},
	}
}
