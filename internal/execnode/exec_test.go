package execnode

import (
	"context"
	"testing"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
)

func buildTestDoc(t *testing.T) *htmldoc.HtmlDocument {
	t.Helper()
	b := htmldoc.NewBuilder("test://doc")
	root := b.AddRoot("html")
	body, err := b.AddElement(root, "body", nil)
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}
	p1, err := b.AddElement(body, "p", map[string]string{"class": "intro"})
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}
	if _, err := b.AddText(p1, "hello world"); err != nil {
		t.Fatalf("AddText: %v", err)
	}
	p2, err := b.AddElement(body, "p", map[string]string{"class": "outro"})
	if err != nil {
		t.Fatalf("AddElement: %v", err)
	}
	if _, err := b.AddText(p2, "goodbye"); err != nil {
		t.Fatalf("AddText: %v", err)
	}
	return b.Finish()
}

func selectAllP() *ast.Query {
	return &ast.Query{
		Kind:        ast.KindSelect,
		SelectItems: []ast.SelectItem{{Tag: "p"}},
	}
}

func TestExecuteSelectsTagScopedCandidates(t *testing.T) {
	doc := buildTestDoc(t)
	res, err := NewNodeExecutor().Execute(context.Background(), doc, selectAllP())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	if res.Rows[0]["tag"].Str != "p" {
		t.Errorf("expected tag column 'p', got %q", res.Rows[0]["tag"].Str)
	}
}

func TestExecuteAppliesWhereFilter(t *testing.T) {
	doc := buildTestDoc(t)
	q := selectAllP()
	q.Where = &ast.CompareExpr{
		Left: ast.ScalarExpr{Operand: &ast.Operand{FieldKind: ast.FieldAttribute, Attribute: "class"}},
		Op:   ast.OpEq,
		Right: &ast.ScalarExpr{StringLiteral: strPtr("intro")},
	}
	res, err := NewNodeExecutor().Execute(context.Background(), doc, q)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row after WHERE, got %d", len(res.Rows))
	}
}

func TestExecuteCount(t *testing.T) {
	doc := buildTestDoc(t)
	q := selectAllP()
	q.SelectItems[0].Aggregate = ast.AggCount
	res, err := NewNodeExecutor().Execute(context.Background(), doc, q)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["count"].Num != 2 {
		t.Fatalf("expected count=2, got %+v", res.Rows)
	}
}

func TestExecuteLimit(t *testing.T) {
	doc := buildTestDoc(t)
	q := selectAllP()
	lim := 1
	q.Limit = &lim
	q.LimitSet = true
	res, err := NewNodeExecutor().Execute(context.Background(), doc, q)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected LIMIT 1 to trim to 1 row, got %d", len(res.Rows))
	}
	if !res.Truncated {
		t.Errorf("expected Truncated to be set when LIMIT drops rows")
	}
}

func strPtr(s string) *string { return &s }
