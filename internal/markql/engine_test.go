package markql

import (
	"context"
	"testing"

	"github.com/darhnoel/markql-sub000/internal/diag"
)

type fakeLoader struct{ docs map[string]string }

func (f fakeLoader) Load(ctx context.Context, uri string) (string, error) {
	return f.docs[uri], nil
}

func TestExecuteQueryNodePath(t *testing.T) {
	e := NewEngineWithLoader(fakeLoader{})
	res, diags := e.ExecuteQuery(context.Background(), []byte(`<p class="intro">hi</p><p>bye</p>`), "test://a", `SELECT p FROM DOCUMENT`)
	if hasError(diags) {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if res == nil || len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", res)
	}
}

func TestExecuteQueryRelationPath(t *testing.T) {
	e := NewEngineWithLoader(fakeLoader{docs: map[string]string{
		"a.html": "<p>left</p>",
		"b.html": "<span>right</span>",
	}})
	q := `SELECT d1, d2.tag AS right_tag
FROM 'a.html' AS d1
CROSS JOIN 'b.html' AS d2`
	res, diags := e.ExecuteQuery(context.Background(), nil, "", q)
	if hasError(diags) {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if res == nil || len(res.Rows) != 1 {
		t.Fatalf("expected 1 joined row, got %+v", res)
	}
}

func TestExecuteQuerySyntaxErrorNeverReachesExecutor(t *testing.T) {
	e := NewEngineWithLoader(fakeLoader{})
	res, diags := e.ExecuteQuery(context.Background(), []byte(`<p>x</p>`), "test://a", `SELECT FROM WHERE`)
	if res != nil {
		t.Fatalf("expected nil result on a syntax error")
	}
	if !hasError(diags) {
		t.Fatalf("expected at least one error diagnostic")
	}
}

func TestLintQueryReturnsDiagnosticsWithoutExecuting(t *testing.T) {
	diags := LintQuery(`SELECT p FROM DOCUMENT ORDER BY missing_tag.field`)
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic for an unbound ORDER BY qualifier")
	}
}

func TestDiagnoseFailureFallsBackToWrappedError(t *testing.T) {
	diags := DiagnoseFailure(`SELECT p FROM DOCUMENT`, "loader timed out fetching https://example.test/x")
	if len(diags) != 1 || diags[0].Code != diag.CodeRuntimeFailure {
		t.Fatalf("expected a single runtime-failure diagnostic, got %+v", diags)
	}
}

func TestPrepareAndExecuteWithPrepared(t *testing.T) {
	e := NewEngineWithLoader(fakeLoader{})
	handle, err := e.PrepareDocument([]byte(`<p>hi</p>`), "test://a")
	if err != nil {
		t.Fatalf("PrepareDocument: %v", err)
	}
	res, diags := e.ExecuteWithPrepared(context.Background(), handle.HandleID, `SELECT p FROM DOCUMENT`)
	if hasError(diags) {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if res == nil || len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %+v", res)
	}
}

func TestInnerHTMLMinifiesRawInnerHTMLDoesNot(t *testing.T) {
	e := NewEngineWithLoader(fakeLoader{})
	html := `<div id='r'><span>   hi   there  </span></div>`

	res, diags := e.ExecuteQuery(context.Background(), []byte(html), "test://a",
		`SELECT inner_html(div) FROM DOCUMENT WHERE attributes.id='r'`)
	if hasError(diags) {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if res == nil || len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %+v", res)
	}
	if got := res.Rows[0]["inner_html"].AsString(); got != "<span> hi there </span>" {
		t.Errorf("inner_html = %q, want minified whitespace", got)
	}

	res, diags = e.ExecuteQuery(context.Background(), []byte(html), "test://a",
		`SELECT raw_inner_html(div) FROM DOCUMENT WHERE attributes.id='r'`)
	if hasError(diags) {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if res == nil || len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %+v", res)
	}
	if got := res.Rows[0]["raw_inner_html"].AsString(); got != "<span>   hi   there  </span>" {
		t.Errorf("raw_inner_html = %q, want untouched whitespace", got)
	}
}

func TestInnerHTMLDepthOperand(t *testing.T) {
	e := NewEngineWithLoader(fakeLoader{})
	html := `<div id='r'><section><p>a</p><p>b</p></section></div>`

	res, diags := e.ExecuteQuery(context.Background(), []byte(html), "test://a",
		`SELECT raw_inner_html(div, 1) FROM DOCUMENT WHERE attributes.id='r'`)
	if hasError(diags) {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if got := res.Rows[0]["raw_inner_html"].AsString(); got != "<section>ab</section>" {
		t.Errorf("raw_inner_html(div, 1) = %q, want tags stripped below depth 1", got)
	}

	res, diags = e.ExecuteQuery(context.Background(), []byte(html), "test://a",
		`SELECT raw_inner_html(div, MAX_DEPTH) FROM DOCUMENT WHERE attributes.id='r'`)
	if hasError(diags) {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	want := "<section><p>a</p><p>b</p></section>"
	if got := res.Rows[0]["raw_inner_html"].AsString(); got != want {
		t.Errorf("raw_inner_html(div, MAX_DEPTH) = %q, want %q", got, want)
	}

	res, diags = e.ExecuteQuery(context.Background(), []byte(html), "test://a",
		`SELECT raw_inner_html(div) FROM DOCUMENT WHERE attributes.id='r'`)
	if hasError(diags) {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if got := res.Rows[0]["raw_inner_html"].AsString(); got != "<section>ab</section>" {
		t.Errorf("raw_inner_html(div) with no depth operand = %q, want the depth-1 default", got)
	}
}

func TestExecuteWithPreparedUnknownHandle(t *testing.T) {
	e := NewEngineWithLoader(fakeLoader{})
	_, diags := e.ExecuteWithPrepared(context.Background(), "nope", `SELECT p FROM DOCUMENT`)
	if !hasError(diags) {
		t.Fatalf("expected an error diagnostic for an unknown handle")
	}
}
