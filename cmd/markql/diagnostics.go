package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/darhnoel/markql-sub000/internal/diag"
)

func printDiagnosticsJSON(diags []diag.Diagnostic) {
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(diags)
}

// useColor honors --no-color over --color. The config file's color
// setting is not consulted.
func useColor() bool {
	return queryFlags.color && !queryFlags.noColor
}

func colorize(code string, sev diag.Severity, s string) string {
	if !useColor() {
		return s
	}
	color := "32" // green
	if sev == diag.Error {
		color = "31" // red
	}
	return fmt.Sprintf("\x1b[%sm%s\x1b[0m", color, s)
}
