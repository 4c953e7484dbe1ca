// Package result implements QueryResult (spec §3, §6): the uniform
// columns+rows shape every SELECT produces, TO TABLE's column
// normalization/trimming rules, and the CSV/JSON/NDJSON/Parquet export
// sinks of spec §4.9.
//
// The teacher's Result here was a polymorphic interface over five
// unrelated probabilistic-graph result shapes (path/paths/probability/
// sample/boolean). MarkQL's SELECT always produces the same shape —
// columns and rows — so one concrete type replaces the interface;
// Kind lives on in ExportSinkKind-driven rendering instead.
package result

import (
	"regexp"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
)

// Row is one output row, column name -> value.
type Row map[string]evalcore.Value

// QueryResult is what every executor entry point in spec §6 returns
// on success.
type QueryResult struct {
	Columns     []string
	Rows        []Row
	Truncated   bool
	ElapsedMs   int64
	SourceURI   string
	Diagnostics []string // non-fatal warnings (e.g. FRAGMENTS() deprecation)
}

var normalizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// NormalizeColumnName applies spec §3's column-name normalization:
// lowercase, non-alphanumeric runs collapsed to a single underscore,
// leading/trailing underscores trimmed.
func NormalizeColumnName(s string) string {
	lower := strings.ToLower(s)
	collapsed := normalizeRe.ReplaceAllString(lower, "_")
	return strings.Trim(collapsed, "_")
}

// NewResult builds a QueryResult, normalizing column names when opts
// requests it.
func NewResult(columns []string, rows []Row, opts ast.TableOptions) *QueryResult {
	cols := columns
	if opts.Normalize {
		cols = make([]string, len(columns))
		for i, c := range columns {
			cols[i] = NormalizeColumnName(c)
		}
	}
	return &QueryResult{Columns: cols, Rows: rows}
}

func isEmptyValue(v evalcore.Value, pred ast.EmptyPredicate) bool {
	switch pred {
	case ast.NullOnly:
		return v.IsNull()
	case ast.BlankOnly:
		return !v.IsNull() && strings.TrimSpace(v.AsString()) == ""
	default: // BlankOrNull
		return v.IsNull() || strings.TrimSpace(v.AsString()) == ""
	}
}

// ApplyTableOptions trims empty rows/columns per spec §3's TO TABLE
// semantics, mutating and returning the receiver's Columns/Rows.
func (r *QueryResult) ApplyTableOptions(opts ast.TableOptions) {
	if opts.TrimEmptyRows {
		kept := r.Rows[:0]
		emptyStreak := 0
		for _, row := range r.Rows {
			allEmpty := true
			for _, c := range r.Columns {
				if !isEmptyValue(row[c], opts.EmptyIs) {
					allEmpty = false
					break
				}
			}
			if allEmpty {
				emptyStreak++
				if opts.StopAfterEmptyRows > 0 && emptyStreak >= opts.StopAfterEmptyRows {
					break
				}
				continue
			}
			emptyStreak = 0
			kept = append(kept, row)
		}
		r.Rows = kept
	}

	if opts.TrimEmptyCols == ast.TrimOff {
		return
	}
	keepCol := make(map[string]bool, len(r.Columns))
	for _, c := range r.Columns {
		keepCol[c] = false
	}
	for _, row := range r.Rows {
		for _, c := range r.Columns {
			if !keepCol[c] && !isEmptyValue(row[c], opts.EmptyIs) {
				keepCol[c] = true
			}
		}
	}
	if opts.TrimEmptyCols == ast.TrimTrailing {
		// Only drop a suffix run of wholly-empty trailing columns,
		// leaving interior empty columns in place.
		last := len(r.Columns)
		for last > 0 && !keepCol[r.Columns[last-1]] {
			last--
		}
		r.Columns = r.Columns[:last]
		return
	}
	var kept []string
	for _, c := range r.Columns {
		if keepCol[c] {
			kept = append(kept, c)
		}
	}
	r.Columns = kept
}
