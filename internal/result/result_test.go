package result

import (
	"testing"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
)

func TestNormalizeColumnName(t *testing.T) {
	cases := map[string]string{
		"Tag Name":      "tag_name",
		"attributes.id": "attributes_id",
		"__weird__":     "weird",
		"already_ok":    "already_ok",
	}
	for in, want := range cases {
		if got := NormalizeColumnName(in); got != want {
			t.Errorf("NormalizeColumnName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplyTableOptionsTrimsTrailingEmptyColumns(t *testing.T) {
	r := &QueryResult{
		Columns: []string{"tag", "id", "unused"},
		Rows: []Row{
			{"tag": evalcore.StringVal("div"), "id": evalcore.StringVal("a"), "unused": evalcore.Null()},
			{"tag": evalcore.StringVal("p"), "id": evalcore.Null(), "unused": evalcore.Null()},
		},
	}
	opts := ast.DefaultTableOptions()
	r.ApplyTableOptions(opts)
	if len(r.Columns) != 2 || r.Columns[1] != "id" {
		t.Errorf("expected trailing empty column dropped, got %v", r.Columns)
	}
}

func TestApplyTableOptionsTrimsEmptyRows(t *testing.T) {
	r := &QueryResult{
		Columns: []string{"tag"},
		Rows: []Row{
			{"tag": evalcore.StringVal("div")},
			{"tag": evalcore.Null()},
		},
	}
	opts := ast.DefaultTableOptions()
	opts.TrimEmptyRows = true
	r.ApplyTableOptions(opts)
	if len(r.Rows) != 1 {
		t.Errorf("expected 1 row after trimming, got %d", len(r.Rows))
	}
}
