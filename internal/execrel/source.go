package execrel

import (
	"context"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
	"github.com/darhnoel/markql-sub000/internal/loader"
	"github.com/darhnoel/markql-sub000/internal/result"
)

// QueryRunner executes an arbitrary nested ast.Query (a CTE body, a
// derived-table subquery, or a PARSE(SelectStmt) argument) end to end
// — including its own source resolution — and returns its QueryResult.
// It is supplied by the facade that owns node-path/relation-path
// dispatch (markqlcore), since answering "is this nested query itself
// node-path or relation-path" is that facade's job, not execrel's.
type QueryRunner func(ctx context.Context, q *ast.Query) (*result.QueryResult, error)

// binding is one alias's resolved candidate row set before joining.
type binding struct {
	alias      string
	nodeBacked bool
	doc        *htmldoc.HtmlDocument
	nodes      []htmldoc.NodeID
	rows       []result.Row
	warnings   []string
}

func (b binding) records() []RelationRecord {
	if b.nodeBacked {
		out := make([]RelationRecord, len(b.nodes))
		for i, id := range b.nodes {
			out[i] = RelationRecord{Doc: b.doc, Node: id}
		}
		return out
	}
	out := make([]RelationRecord, len(b.rows))
	for i, row := range b.rows {
		out[i] = RelationRecord{Row: row}
	}
	return out
}

// resolver resolves sources to bindings, holding the loader and CTE
// environment for one top-level statement's execution.
type resolver struct {
	loader loader.Loader
	runner QueryRunner
	ctes   map[string]*result.QueryResult
}

func newResolver(l loader.Loader, runner QueryRunner) *resolver {
	return &resolver{loader: l, runner: runner, ctes: map[string]*result.QueryResult{}}
}

func (rs *resolver) materializeCTEs(ctx context.Context, defs []ast.CteDef) error {
	for _, def := range defs {
		res, err := rs.runner(ctx, def.Query)
		if err != nil {
			return err
		}
		rs.ctes[def.Name] = res
	}
	return nil
}

func allNodes(doc *htmldoc.HtmlDocument) []htmldoc.NodeID {
	ids := make([]htmldoc.NodeID, 0, doc.NodeCount())
	for i := 0; i < doc.NodeCount(); i++ {
		id := htmldoc.NodeID(i)
		n, err := doc.Node(id)
		if err != nil || n.IsText || n.Tag == "#document" {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func rowsFromResult(res *result.QueryResult) []result.Row {
	out := make([]result.Row, len(res.Rows))
	copy(out, res.Rows)
	return out
}

// resolveStatic resolves a source that doesn't vary per outer row
// (every kind except a LATERAL right side).
func (rs *resolver) resolveStatic(ctx context.Context, src *ast.Source) (binding, error) {
	b := binding{alias: src.Alias}
	switch src.Kind {
	case ast.SrcDocument:
		return binding{}, ExecError{Code: "IMPLICIT_DOC_IN_RELATION", Message: "relation-path queries require an explicit FROM source"}

	case ast.SrcPath, ast.SrcURL:
		uri := src.Path
		if src.Kind == ast.SrcURL {
			uri = src.URL
		}
		html, err := rs.loader.Load(ctx, uri)
		if err != nil {
			return binding{}, err
		}
		b.nodeBacked = true
		b.doc = htmldoc.ParseHTML(html, uri)
		b.nodes = allNodes(b.doc)
		return b, nil

	case ast.SrcRawHTML:
		b.nodeBacked = true
		b.doc = htmldoc.ParseHTML(src.RawHTML, "")
		b.nodes = allNodes(b.doc)
		return b, nil

	case ast.SrcParse, ast.SrcFragments:
		frags, err := rs.evalFragmentArgs(ctx, src)
		if err != nil {
			return binding{}, err
		}
		doc, err := htmldoc.ParseFragments(frags, "")
		if err != nil {
			return binding{}, err
		}
		b.nodeBacked = true
		b.doc = doc
		b.nodes = allNodes(doc)
		if src.Kind == ast.SrcFragments {
			b.warnings = append(b.warnings, "FRAGMENTS is deprecated; use PARSE")
		}
		return b, nil

	case ast.SrcCteRef:
		res, ok := rs.ctes[src.CteName]
		if !ok {
			return binding{}, ExecError{Code: "UNKNOWN_CTE", Message: "unknown CTE " + src.CteName}
		}
		b.rows = rowsFromResult(res)
		return b, nil

	case ast.SrcDerivedSubquery:
		res, err := rs.runner(ctx, src.Subquery)
		if err != nil {
			return binding{}, err
		}
		b.rows = rowsFromResult(res)
		return b, nil

	default:
		return binding{}, ExecError{Code: "UNKNOWN_SOURCE_KIND", Message: "unhandled source kind"}
	}
}

// evalFragmentArgs evaluates PARSE/FRAGMENTS's argument into a list of
// HTML fragment strings: a scalar expression yields one fragment, a
// nested SELECT yields one fragment per result row (its sole column).
func (rs *resolver) evalFragmentArgs(ctx context.Context, src *ast.Source) ([]string, error) {
	if src.ParseExpr != nil || src.FragmentsExpr != nil {
		expr := src.ParseExpr
		if expr == nil {
			expr = src.FragmentsExpr
		}
		v, err := evalcore.EvalScalar(emptyRowContext{}, expr)
		if err != nil {
			return nil, err
		}
		return []string{v.AsString()}, nil
	}
	q := src.ParseQuery
	if q == nil {
		q = src.FragmentsQuery
	}
	res, err := rs.runner(ctx, q)
	if err != nil {
		return nil, err
	}
	frags := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		for _, c := range res.Columns {
			frags = append(frags, row[c].AsString())
			break
		}
	}
	return frags, nil
}

// emptyRowContext lets PARSE(<literal-or-function expr>) evaluate
// without a row — a field reference in the expression fails here with a
// NO_ROW_CONTEXT error; the validator does not check for one.
type emptyRowContext struct{}

func (emptyRowContext) Doc() *htmldoc.HtmlDocument { return nil }
func (emptyRowContext) WithNode(htmldoc.NodeID) evalcore.RowContext { return emptyRowContext{} }
func (emptyRowContext) ValueOf(*ast.Operand) (evalcore.Value, error) {
	return evalcore.Null(), ExecError{Code: "NO_ROW_CONTEXT", Message: "PARSE/FRAGMENTS scalar argument may not reference row fields"}
}
func (emptyRowContext) AxisNodes(ast.Axis) ([]htmldoc.NodeID, error)          { return nil, nil }
func (emptyRowContext) ScopedNodes(ast.Axis, string) ([]htmldoc.NodeID, error) { return nil, nil }
