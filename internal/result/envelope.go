package result

import "github.com/darhnoel/markql-sub000/internal/evalcore"

// ColumnInfo is one entry of the stable JSON output schema's columns
// array (spec §6): a column name paired with a loosely-inferred type,
// taken from the first non-null value seen in that column.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// EnvelopeError is the JSON envelope's "error" field: null on success,
// {code, message} on failure.
type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the stable JSON shape the json renderer and the HTTP
// agent return (spec §6); the CSV/JSON/NDJSON/Parquet exporters in
// export.go write rows directly and do not use it. It holds columns
// with inferred types, rows as
// plain arrays (not column-keyed objects, so column order is
// unambiguous over the wire), plus truncated/elapsed_ms/error.
type Envelope struct {
	Columns   []ColumnInfo    `json:"columns"`
	Rows      [][]evalcore.Value `json:"rows"`
	Truncated bool            `json:"truncated"`
	ElapsedMs int64           `json:"elapsed_ms"`
	Error     *EnvelopeError  `json:"error"`
}

// NewEnvelope builds the success envelope for r.
func NewEnvelope(r *QueryResult) Envelope {
	env := Envelope{
		Columns:   make([]ColumnInfo, len(r.Columns)),
		Rows:      make([][]evalcore.Value, len(r.Rows)),
		Truncated: r.Truncated,
		ElapsedMs: r.ElapsedMs,
	}
	for i, c := range r.Columns {
		env.Columns[i] = ColumnInfo{Name: c, Type: inferColumnType(r, c)}
	}
	for i, row := range r.Rows {
		vals := make([]evalcore.Value, len(r.Columns))
		for j, c := range r.Columns {
			vals[j] = row[c]
		}
		env.Rows[i] = vals
	}
	return env
}

// ErrorEnvelope builds the failure envelope spec §6 promises: no
// columns or rows, just the error code/message.
func ErrorEnvelope(code, message string) Envelope {
	return Envelope{Error: &EnvelopeError{Code: code, Message: message}}
}

func inferColumnType(r *QueryResult, col string) string {
	for _, row := range r.Rows {
		v := row[col]
		switch v.Kind {
		case evalcore.KindNumber:
			return "number"
		case evalcore.KindBool:
			return "bool"
		case evalcore.KindString:
			return "string"
		}
	}
	return "string"
}
