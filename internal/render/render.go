// Package render formats a QueryResult for the CLI's --mode flag
// (spec §6): duckbox (a box-drawn table, the CLI's default — named
// for the DuckDB-style box table markql's author had in mind), plain
// (tab-separated, script-friendly), or json (the stable envelope
// schema internal/result defines, shared with the HTTP agent).
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/result"
)

type Mode string

const (
	ModeDuckbox Mode = "duckbox"
	ModePlain   Mode = "plain"
	ModeJSON    Mode = "json"
)

// Write renders r to w in the requested mode.
func Write(w io.Writer, r *result.QueryResult, mode Mode) error {
	switch mode {
	case ModeJSON:
		return writeJSON(w, r)
	case ModePlain:
		return writePlain(w, r)
	default:
		return writeDuckbox(w, r)
	}
}

func writeJSON(w io.Writer, r *result.QueryResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result.NewEnvelope(r))
}

func writePlain(w io.Writer, r *result.QueryResult) error {
	if _, err := fmt.Fprintln(w, strings.Join(r.Columns, "\t")); err != nil {
		return err
	}
	for _, row := range r.Rows {
		cells := make([]string, len(r.Columns))
		for i, c := range r.Columns {
			cells[i] = row[c].AsString()
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// writeDuckbox renders a box-drawn table sized to each column's widest
// cell, the way the DuckDB CLI's default "duckbox" output looks.
func writeDuckbox(w io.Writer, r *result.QueryResult) error {
	widths := make([]int, len(r.Columns))
	for i, c := range r.Columns {
		widths[i] = len(c)
	}
	cellRows := make([][]string, len(r.Rows))
	for ri, row := range r.Rows {
		cells := make([]string, len(r.Columns))
		for i, c := range r.Columns {
			s := row[c].AsString()
			if row[c].IsNull() {
				s = "NULL"
			}
			cells[i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
		cellRows[ri] = cells
	}

	border := func(left, mid, right string) string {
		var b strings.Builder
		b.WriteString(left)
		for i, width := range widths {
			if i > 0 {
				b.WriteString(mid)
			}
			b.WriteString(strings.Repeat("─", width+2))
		}
		b.WriteString(right)
		return b.String()
	}
	line := func(cells []string) string {
		var b strings.Builder
		b.WriteString("│")
		for i, width := range widths {
			fmt.Fprintf(&b, " %-*s │", width, cells[i])
		}
		return b.String()
	}

	fmt.Fprintln(w, border("┌", "┬", "┐"))
	fmt.Fprintln(w, line(r.Columns))
	fmt.Fprintln(w, border("├", "┼", "┤"))
	for _, cells := range cellRows {
		fmt.Fprintln(w, line(cells))
	}
	fmt.Fprintln(w, border("└", "┴", "┘"))
	if r.Truncated {
		fmt.Fprintf(w, "(%d rows, truncated)\n", len(r.Rows))
	} else {
		fmt.Fprintf(w, "(%d rows)\n", len(r.Rows))
	}
	return nil
}
