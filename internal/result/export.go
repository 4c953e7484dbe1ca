package result

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// WriteCSV renders r as CSV, one row per output row, columns in
// r.Columns order (spec §4.9 CSV sink).
func WriteCSV(r *QueryResult, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range r.Rows {
		rec := make([]string, len(r.Columns))
		for i, c := range r.Columns {
			rec[i] = row[c].AsString()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON renders r as a single JSON array of row objects (spec
// §4.9 JSON sink), grounded on the teacher's WriteJSON
// (json.NewEncoder-to-writer) shape in internal/serialization.
func WriteJSON(r *QueryResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		obj := make(map[string]any, len(r.Columns))
		for _, c := range r.Columns {
			obj[c] = row[c]
		}
		out[i] = obj
	}
	return enc.Encode(out)
}

// WriteNDJSON renders r as newline-delimited JSON, one row object per
// line (spec §4.9 NDJSON sink) — the streaming counterpart to
// WriteJSON, using the same per-row object shape.
func WriteNDJSON(r *QueryResult, w io.Writer) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, row := range r.Rows {
		obj := make(map[string]any, len(r.Columns))
		for _, c := range r.Columns {
			obj[c] = row[c]
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("writing ndjson row: %w", err)
		}
	}
	return bw.Flush()
}

// WriteParquet renders r as a Parquet file with one optional string
// column per result column. Every column is typed as string: MarkQL's
// extracted values (attributes, text, flattened HTML) are
// fundamentally string-shaped, and columns vary row to row in TO
// TABLE's sparse mode, so a uniform optional-string schema avoids
// forcing a numeric/bool type pass over the whole result first.
func WriteParquet(r *QueryResult, w io.Writer) error {
	group := parquet.Group{}
	for _, c := range r.Columns {
		group[c] = parquet.String().Optional()
	}
	schema := parquet.NewSchema("markql_row", group)

	pw := parquet.NewGenericWriter[map[string]string](w, schema)
	for _, row := range r.Rows {
		rec := make(map[string]string, len(r.Columns))
		for _, c := range r.Columns {
			if v := row[c]; !v.IsNull() {
				rec[c] = v.AsString()
			}
		}
		if _, err := pw.Write([]map[string]string{rec}); err != nil {
			return fmt.Errorf("writing parquet row: %w", err)
		}
	}
	return pw.Close()
}

// WriteToPath dispatches to the right writer and creates path,
// mirroring the teacher's SaveJSON (open-file-then-delegate) shape.
func WriteToPath(r *QueryResult, path string, write func(*QueryResult, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return write(r, f)
}
