package execrel

import (
	"context"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
)

// buildRows runs the FROM/JOIN chain into a flat []RelationRow (spec
// §4.6): the first source seeds one row per candidate record, each
// subsequent join extends every existing row by its matching (or, for
// LEFT, padded-NULL) right-hand records.
func buildRows(ctx context.Context, rs *resolver, q *ast.Query) ([]RelationRow, string, []string, error) {
	if q.Source == nil {
		return nil, "", nil, ExecError{Code: "MISSING_SOURCE", Message: "relation-path query has no FROM source"}
	}
	first, err := rs.resolveStatic(ctx, q.Source)
	if err != nil {
		return nil, "", nil, err
	}
	primary := q.Source.Alias
	if primary == "" {
		primary = "doc"
	}
	var warnings []string
	warnings = append(warnings, first.warnings...)

	rows := make([]RelationRow, 0, len(first.records()))
	for _, rec := range first.records() {
		row := RelationRow{primary: rec}
		rows = append(rows, row)
	}

	seenAliases := map[string]bool{primary: true}

	for _, join := range q.Joins {
		alias := join.Right.Alias
		if seenAliases[alias] {
			return nil, "", nil, ExecError{Code: "DUPLICATE_ALIAS", Message: "duplicate alias " + alias + " in FROM/JOIN chain"}
		}
		seenAliases[alias] = true

		var staticBinding *binding
		if !join.Lateral {
			b, err := rs.resolveStatic(ctx, join.Right)
			if err != nil {
				return nil, "", nil, err
			}
			warnings = append(warnings, b.warnings...)
			staticBinding = &b
		}

		var out []RelationRow
		for _, leftRow := range rows {
			var rightRecs []RelationRecord
			if join.Lateral {
				b, err := rs.resolveLateral(ctx, join.Right, leftRow, primary)
				if err != nil {
					return nil, "", nil, err
				}
				warnings = append(warnings, b.warnings...)
				rightRecs = b.records()
			} else {
				rightRecs = staticBinding.records()
			}

			matched := false
			for _, rec := range rightRecs {
				candidate := leftRow.clone()
				candidate[alias] = rec
				if join.Kind == ast.JoinCross {
					out = append(out, candidate)
					matched = true
					continue
				}
				ok, err := evalcore.EvalExpr(newRowContext(candidate, primary), join.On)
				if err != nil {
					return nil, "", nil, err
				}
				if ok {
					out = append(out, candidate)
					matched = true
				}
			}
			if !matched && join.Kind == ast.JoinLeft {
				padded := leftRow.clone()
				padded[alias] = RelationRecord{}
				out = append(out, padded)
			}
		}
		rows = out
	}

	return rows, primary, warnings, nil
}

// resolveLateral resolves a LATERAL right source with the outer row's
// bindings visible. Full correlated-subquery support (a LATERAL
// derived SELECT or PARSE(SelectStmt) referencing outer fields in its
// own WHERE) is not implemented — only a scalar PARSE/FRAGMENTS
// argument referencing the outer row is evaluated with outer
// visibility; other LATERAL source kinds resolve the same as their
// non-lateral form.
func (rs *resolver) resolveLateral(ctx context.Context, src *ast.Source, outer RelationRow, primary string) (binding, error) {
	if src.Kind == ast.SrcParse || src.Kind == ast.SrcFragments {
		expr := src.ParseExpr
		if expr == nil {
			expr = src.FragmentsExpr
		}
		if expr != nil {
			rc := newRowContext(outer, primary)
			v, err := evalcore.EvalScalar(rc, expr)
			if err != nil {
				return binding{}, err
			}
			frags := []string{v.AsString()}
			doc, err := htmldoc.ParseFragments(frags, "")
			if err != nil {
				return binding{}, err
			}
			b := binding{alias: src.Alias, nodeBacked: true, doc: doc, nodes: allNodes(doc)}
			if src.Kind == ast.SrcFragments {
				b.warnings = append(b.warnings, "FRAGMENTS is deprecated; use PARSE")
			}
			return b, nil
		}
	}
	return rs.resolveStatic(ctx, src)
}
