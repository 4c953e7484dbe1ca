package execrel

import (
	"context"
	"testing"

	"github.com/darhnoel/markql-sub000/internal/ast"
)

type stubLoader struct{ docs map[string]string }

func (s stubLoader) Load(ctx context.Context, uri string) (string, error) {
	return s.docs[uri], nil
}

func crossJoinQuery(leftURI, rightURI string) *ast.Query {
	return &ast.Query{
		Kind: ast.KindSelect,
		SelectItems: []ast.SelectItem{
			{Tag: "left", Field: "tag", Alias: "left_tag"},
			{Tag: "right", Field: "tag", Alias: "right_tag"},
		},
		Source: &ast.Source{Kind: ast.SrcPath, Path: leftURI, Alias: "left"},
		Joins: []ast.Join{
			{Kind: ast.JoinCross, Right: &ast.Source{Kind: ast.SrcPath, Path: rightURI, Alias: "right"}},
		},
	}
}

func TestExecuteCrossJoinProducesCartesianProduct(t *testing.T) {
	l := stubLoader{docs: map[string]string{
		"a.html": "<p>left</p>",
		"b.html": "<span>right</span>",
	}}
	e := NewExecutor(l, nil)
	res, err := e.Execute(context.Background(), crossJoinQuery("a.html", "b.html"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 joined row (1 element node each side), got %d", len(res.Rows))
	}
	if res.Rows[0]["left_tag"].Str != "p" || res.Rows[0]["right_tag"].Str != "span" {
		t.Errorf("expected both sides' tag columns, got %+v", res.Rows[0])
	}
}

func TestExecuteDuplicateAliasRejected(t *testing.T) {
	l := stubLoader{docs: map[string]string{"a.html": "<p>x</p>"}}
	q := crossJoinQuery("a.html", "a.html")
	q.Joins[0].Right.Alias = "left"
	e := NewExecutor(l, nil)
	_, err := e.Execute(context.Background(), q)
	if err == nil {
		t.Fatalf("expected duplicate alias error")
	}
}

func TestExecuteInnerJoinAppliesOn(t *testing.T) {
	l := stubLoader{docs: map[string]string{
		"a.html": `<p id="1">x</p>`,
		"b.html": `<span id="1">y</span><span id="2">z</span>`,
	}}
	q := &ast.Query{
		Kind: ast.KindSelect,
		SelectItems: []ast.SelectItem{
			{Tag: "left", Field: "tag"},
		},
		Source: &ast.Source{Kind: ast.SrcPath, Path: "a.html", Alias: "left"},
		Joins: []ast.Join{
			{
				Kind:  ast.JoinInner,
				Right: &ast.Source{Kind: ast.SrcPath, Path: "b.html", Alias: "right"},
				On: &ast.CompareExpr{
					Left:  ast.ScalarExpr{Operand: &ast.Operand{Qualifier: "left", FieldKind: ast.FieldAttribute, Attribute: "id"}},
					Op:    ast.OpEq,
					Right: &ast.ScalarExpr{Operand: &ast.Operand{Qualifier: "right", FieldKind: ast.FieldAttribute, Attribute: "id"}},
				},
			},
		},
	}
	e := NewExecutor(l, nil)
	res, err := e.Execute(context.Background(), q)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 matching row, got %d", len(res.Rows))
	}
}
