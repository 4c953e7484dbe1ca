package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/darhnoel/markql-sub000/internal/diag"
	"github.com/darhnoel/markql-sub000/internal/render"
	markql "github.com/darhnoel/markql-sub000"
)

var queryFlags struct {
	query            string
	input            string
	mode             string
	queryFile        string
	continueOnError  bool
	quiet            bool
	lint             bool
	lintFormat       string
	color            bool
	noColor          bool
}

func registerQueryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&queryFlags.query, "query", "", "the MarkQL query to run")
	f.StringVar(&queryFlags.input, "input", "", "the HTML document to query: a file path or URL")
	f.StringVar(&queryFlags.mode, "mode", "duckbox", "output mode: duckbox, json, or plain")
	f.StringVar(&queryFlags.queryFile, "query-file", "", "read one or more ';'-separated queries from a file instead of --query")
	f.BoolVar(&queryFlags.continueOnError, "continue-on-error", false, "keep running remaining --query-file statements after one fails")
	f.BoolVar(&queryFlags.quiet, "quiet", false, "suppress informational output")
	f.BoolVar(&queryFlags.lint, "lint", false, "parse and validate the query without executing it")
	f.StringVar(&queryFlags.lintFormat, "lint-format", "text", "diagnostic format for --lint: text or json")
	f.BoolVar(&queryFlags.color, "color", true, "force colored output")
	f.BoolVar(&queryFlags.noColor, "no-color", false, "disable colored output")
}

// runQueryCmd is the CLI's default behavior (spec §6): run --query or
// --query-file's statements against --input, rendering with --mode,
// or lint-and-exit when --lint is set.
func runQueryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		exitCode = 2
		fmt.Fprintln(os.Stderr, "markql:", err)
		return nil
	}

	statements, err := queryStatements()
	if err != nil {
		exitCode = 2
		fmt.Fprintln(os.Stderr, "markql:", err)
		return nil
	}

	if queryFlags.lint {
		exitCode = runLintStatements(statements)
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	exitCode = runStatements(ctx, statements)
	return nil
}

func queryStatements() ([]string, error) {
	if queryFlags.queryFile != "" {
		b, err := os.ReadFile(queryFlags.queryFile)
		if err != nil {
			return nil, fmt.Errorf("reading --query-file: %w", err)
		}
		var stmts []string
		for _, s := range strings.Split(string(b), ";") {
			s = strings.TrimSpace(s)
			if s != "" {
				stmts = append(stmts, s)
			}
		}
		return stmts, nil
	}
	if queryFlags.query == "" {
		return nil, fmt.Errorf("one of --query or --query-file is required")
	}
	return []string{queryFlags.query}, nil
}

func runLintStatements(statements []string) int {
	code := 0
	for _, stmt := range statements {
		diags := markql.LintQuery(stmt)
		printDiagnostics(diags)
		if hasError(diags) {
			code = 1
			if !queryFlags.continueOnError {
				break
			}
		}
	}
	return code
}

func printDiagnostics(diags []diag.Diagnostic) {
	if queryFlags.lintFormat == "json" {
		printDiagnosticsJSON(diags)
		return
	}
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, colorize(d.Code, d.Severity, d.Text()))
	}
}

func hasError(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}

func runStatements(ctx context.Context, statements []string) int {
	engine := markql.New(0) // PATH/URL sources inside the query use ctx's own timeout
	code := 0

	for _, stmt := range statements {
		src, err := inputDescriptor()
		if err != nil {
			fmt.Fprintln(os.Stderr, "markql:", err)
			code = 1
			if !queryFlags.continueOnError {
				break
			}
			continue
		}

		res, diags := engine.ExecuteQueryWithLoader(ctx, src, stmt, 0)
		if res == nil {
			printDiagnostics(diags)
			code = 1
			if !queryFlags.continueOnError {
				break
			}
			continue
		}
		if len(diags) > 0 && !queryFlags.quiet {
			printDiagnostics(diags)
		}
		if err := render.Write(os.Stdout, res, render.Mode(queryFlags.mode)); err != nil {
			fmt.Fprintln(os.Stderr, "markql:", err)
			code = 1
			if !queryFlags.continueOnError {
				break
			}
		}
	}
	return code
}

// inputDescriptor turns --input into the SourceDescriptor
// execute_query_with_loader expects: a bare path/URL, resolved lazily
// by the engine's Loader. With no --input, the query text must supply
// its own FROM source (e.g. FROM 'doc.html'); the descriptor then
// names an empty inline document.
func inputDescriptor() (markql.SourceDescriptor, error) {
	if queryFlags.input == "" {
		return markql.SourceDescriptor{Kind: markql.Inline}, nil
	}
	if strings.HasPrefix(queryFlags.input, "http://") || strings.HasPrefix(queryFlags.input, "https://") {
		return markql.SourceDescriptor{Kind: markql.Url, URI: queryFlags.input}, nil
	}
	return markql.SourceDescriptor{Kind: markql.Path, URI: queryFlags.input}, nil
}
