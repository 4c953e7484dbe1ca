package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newLintCmd is the explicit "markql lint" form of --lint: same
// behavior, reached without also naming --query-file/--query via the
// default command's flags.
func newLintCmd() *cobra.Command {
	var queryFile string
	var query string
	var format string

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "parse and validate a query without executing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			queryFlags.queryFile = queryFile
			queryFlags.query = query
			queryFlags.lintFormat = format
			stmts, err := queryStatements()
			if err != nil {
				exitCode = 2
				fmt.Fprintln(os.Stderr, "markql lint:", err)
				return nil
			}
			exitCode = runLintStatements(stmts)
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "the MarkQL query to lint")
	cmd.Flags().StringVar(&queryFile, "query-file", "", "read one or more ';'-separated queries from a file instead of --query")
	cmd.Flags().StringVar(&format, "lint-format", "text", "diagnostic format: text or json")
	return cmd
}
