// Package markql wires every other internal package into the six
// entry points spec §6 promises callers: execute_query,
// execute_query_with_loader, prepare_document, execute_with_prepared,
// lint_query and diagnose_failure. It is the only package that knows
// both executors exist — everything else only knows its own half.
//
// The teacher's engine.go here was a two-line adapter handing a query
// straight to a single probabilistic-graph Execute method. MarkQL has
// two executors with different activation rules (spec §9), a loader
// seam, and a prepared-document cache, so the adapter grows into a
// small facade instead of staying a pass-through.
package markql

import (
	"context"
	"time"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/diag"
	"github.com/darhnoel/markql-sub000/internal/execnode"
	"github.com/darhnoel/markql-sub000/internal/execrel"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
	"github.com/darhnoel/markql-sub000/internal/loader"
	"github.com/darhnoel/markql-sub000/internal/parser"
	"github.com/darhnoel/markql-sub000/internal/prepare"
	"github.com/darhnoel/markql-sub000/internal/result"
	"github.com/darhnoel/markql-sub000/internal/validator"
)

// Engine holds the collaborators every entry point shares: a Loader for
// path/URL sources and a Cache for prepare_document/execute_with_prepared.
type Engine struct {
	Loader loader.Loader
	Cache  *prepare.Cache
}

// NewEngine builds an Engine with the default file/HTTP loader (spec
// §5's Loader collaborator) and a fresh prepared-document cache.
func NewEngine(timeout time.Duration) *Engine {
	return &Engine{Loader: loader.NewDefault(timeout), Cache: prepare.NewCache()}
}

// NewEngineWithLoader builds an Engine around a caller-supplied Loader,
// for execute_query_with_loader callers that need a non-default
// fetch policy (auth headers, a test stub, ...).
func NewEngineWithLoader(l loader.Loader) *Engine {
	return &Engine{Loader: l, Cache: prepare.NewCache()}
}

// compile parses and statically validates queryText, returning the
// parsed query only when validation raised no Error-severity
// diagnostic (spec §4.9's "diagnostics as data": a query with only
// Warning diagnostics still executes).
func compile(queryText string) (*ast.Query, []diag.Diagnostic) {
	q, diags := parser.Parse(queryText)
	if hasError(diags) {
		return nil, diags
	}
	diags = append(diags, validator.Validate(queryText, q)...)
	if hasError(diags) {
		return nil, diags
	}
	return q, diags
}

func hasError(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}

// needsRelationPath applies spec §9's activation rule: any WITH, any
// JOIN, a CTE-ref/derived-subquery source, or an alias-qualified ORDER
// BY field routes to execrel; everything else is faster on execnode.
func needsRelationPath(q *ast.Query) bool {
	if len(q.With) > 0 || len(q.Joins) > 0 {
		return true
	}
	if q.Source != nil && (q.Source.Kind == ast.SrcCteRef || q.Source.Kind == ast.SrcDerivedSubquery) {
		return true
	}
	for _, k := range q.OrderBy {
		if containsDot(k.Field) {
			return true
		}
	}
	return false
}

func containsDot(s string) bool {
	for _, c := range s {
		if c == '.' {
			return true
		}
	}
	return false
}

// runQuery dispatches a single query (top-level or any nested
// CTE/derived/PARSE(SelectStmt) subquery) against baseDoc, the
// document the implicit DOCUMENT source refers to. Relation-path
// queries get a Runner that recurses back into runQuery, bound to the
// same baseDoc, so a nested subquery's own DOCUMENT source still
// resolves against the document the caller originally supplied.
func (e *Engine) runQuery(ctx context.Context, baseDoc *htmldoc.HtmlDocument, sourceURI string, q *ast.Query) (*result.QueryResult, error) {
	if needsRelationPath(q) {
		runner := func(ctx context.Context, nested *ast.Query) (*result.QueryResult, error) {
			return e.runQuery(ctx, baseDoc, sourceURI, nested)
		}
		return execrel.NewExecutor(e.Loader, runner).Execute(ctx, q)
	}

	doc, err := e.resolveNodeDoc(ctx, baseDoc, sourceURI, q.Source)
	if err != nil {
		return nil, err
	}
	return execnode.NewNodeExecutor().Execute(ctx, doc, q)
}

// resolveNodeDoc resolves the document a node-path query's FROM
// clause names. SrcDocument (the implicit "DOCUMENT" source, or no
// FROM at all) is the document execute_query/execute_with_prepared
// was called with; every other SourceKind fetches or parses its own.
func (e *Engine) resolveNodeDoc(ctx context.Context, baseDoc *htmldoc.HtmlDocument, sourceURI string, src *ast.Source) (*htmldoc.HtmlDocument, error) {
	if src == nil || src.Kind == ast.SrcDocument {
		return baseDoc, nil
	}
	switch src.Kind {
	case ast.SrcPath:
		html, err := e.Loader.Load(ctx, src.Path)
		if err != nil {
			return nil, err
		}
		return htmldoc.ParseHTML(html, src.Path), nil
	case ast.SrcURL:
		html, err := e.Loader.Load(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		return htmldoc.ParseHTML(html, src.URL), nil
	case ast.SrcRawHTML:
		return htmldoc.ParseHTML(src.RawHTML, sourceURI), nil
	case ast.SrcParse, ast.SrcFragments:
		if sub := src.ParseQuery; sub != nil || src.FragmentsQuery != nil {
			if sub == nil {
				sub = src.FragmentsQuery
			}
			res, err := e.runQuery(ctx, baseDoc, sourceURI, sub)
			if err != nil {
				return nil, err
			}
			frags := make([]string, 0, len(res.Rows))
			for _, row := range res.Rows {
				if len(res.Columns) > 0 {
					frags = append(frags, row[res.Columns[0]].AsString())
				}
			}
			return htmldoc.ParseFragments(frags, sourceURI)
		}
		frag, err := e.evalTopLevelFragmentArg(src)
		if err != nil {
			return nil, err
		}
		return htmldoc.ParseFragments([]string{frag}, sourceURI)
	default:
		return baseDoc, nil
	}
}

// evalTopLevelFragmentArg evaluates a top-level (non-LATERAL)
// PARSE/FRAGMENTS scalar argument, which by construction cannot
// reference row fields — there is no row yet. The validator does not
// check this; a field-referencing operand fails here at evaluation
// with a NO_ROW_CONTEXT error.
func (e *Engine) evalTopLevelFragmentArg(src *ast.Source) (string, error) {
	expr := src.ParseExpr
	if expr == nil {
		expr = src.FragmentsExpr
	}
	if expr == nil {
		return "", nil
	}
	v, err := evalLiteralScalar(expr)
	if err != nil {
		return "", err
	}
	return v, nil
}
