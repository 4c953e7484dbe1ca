package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/result"
)

func sampleResult() *result.QueryResult {
	return &result.QueryResult{
		Columns: []string{"tag", "text"},
		Rows: []result.Row{
			{"tag": evalcore.StringVal("p"), "text": evalcore.StringVal("hi")},
		},
	}
}

func TestWritePlainTabSeparated(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), ModePlain); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 || lines[0] != "tag\ttext" || lines[1] != "p\thi" {
		t.Errorf("unexpected plain output: %q", buf.String())
	}
}

func TestWriteJSONContainsEnvelopeFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), ModeJSON); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"columns"`, `"rows"`, `"truncated"`, `"elapsed_ms"`, `"error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected JSON output to contain %s, got %s", want, out)
		}
	}
}

func TestWriteDuckboxDrawsBorders(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(), ModeDuckbox); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "┌") || !strings.Contains(buf.String(), "(1 rows)") {
		t.Errorf("expected a box-drawn table, got %q", buf.String())
	}
}
