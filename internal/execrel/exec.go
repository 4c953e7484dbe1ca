package execrel

import (
	"context"
	"sort"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/loader"
	"github.com/darhnoel/markql-sub000/internal/result"
)

// Executor runs a relation-path Query (spec §4.6): materializes WITH,
// builds the FROM/JOIN relation, applies WHERE, projects, orders, and
// limits. Use it when ast.Query has any WITH, any Join, a CteRef or
// DerivedSubquery source, or an alias-qualified ORDER BY field —
// execnode.NodeExecutor is faster for everything else.
type Executor struct {
	Loader loader.Loader
	Runner QueryRunner
}

func NewExecutor(l loader.Loader, runner QueryRunner) *Executor {
	return &Executor{Loader: l, Runner: runner}
}

func (e *Executor) Execute(ctx context.Context, q *ast.Query) (*result.QueryResult, error) {
	rs := newResolver(e.Loader, e.Runner)
	if err := rs.materializeCTEs(ctx, q.With); err != nil {
		return nil, err
	}

	rows, primary, warnings, err := buildRows(ctx, rs, q)
	if err != nil {
		return nil, err
	}

	if q.Where != nil {
		filtered := rows[:0]
		for _, row := range rows {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			ok, err := evalcore.EvalExpr(newRowContext(row, primary), q.Where)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	if len(q.OrderBy) > 0 {
		if err := orderRows(rows, primary, q.OrderBy); err != nil {
			return nil, err
		}
	}
	truncated := false
	if q.LimitSet && q.Limit != nil && *q.Limit < len(rows) {
		rows = rows[:*q.Limit]
		truncated = true
	}

	columns, outRows, err := project(rows, primary, q)
	if err != nil {
		return nil, err
	}

	res := result.NewResult(columns, outRows, q.TableOptions)
	res.Diagnostics = append(res.Diagnostics, warnings...)
	res.Truncated = truncated
	if q.ToTable {
		res.ApplyTableOptions(q.TableOptions)
	}
	return res, nil
}

// orderRows sorts the joined relation in place by OrderBy's keys,
// each of which may be a bare field name (resolved against primary)
// or an "alias.field" qualified name (spec §4.6).
func orderRows(rows []RelationRow, primary string, keys []ast.OrderKey) error {
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		for _, k := range keys {
			a, err := orderKeyValue(rows[i], primary, k.Field)
			if err != nil {
				sortErr = err
				return false
			}
			b, err := orderKeyValue(rows[j], primary, k.Field)
			if err != nil {
				sortErr = err
				return false
			}
			if a.Equal(b) {
				continue
			}
			less := rowValueLess(a, b)
			if k.Descending {
				return !less
			}
			return less
		}
		return false
	})
	return sortErr
}

func orderKeyValue(row RelationRow, primary, field string) (evalcore.Value, error) {
	alias := primary
	name := field
	if idx := strings.IndexByte(field, '.'); idx >= 0 {
		alias = field[:idx]
		name = field[idx+1:]
	}
	rec, ok := row[alias]
	if !ok {
		return evalcore.Null(), ExecError{Code: "QUALIFIER_NOT_BOUND", Message: "ORDER BY references unbound alias " + alias}
	}
	return fieldValue(rec, name)
}

// project resolves every SELECT item (bare alias, alias.field,
// alias.attributes.name, scalar expression, or PROJECT(...) bindings)
// against each joined row (spec §4.6's projection rule).
func project(rows []RelationRow, primary string, q *ast.Query) ([]string, []result.Row, error) {
	var columns []string
	seen := map[string]bool{}
	addCol := func(name string) {
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}
	for _, it := range q.SelectItems {
		for _, name := range relationItemColumns(it) {
			addCol(name)
		}
	}

	out := make([]result.Row, 0, len(rows))
	for _, row := range rows {
		rc := newRowContext(row, primary)
		outRow := result.Row{}
		for _, it := range q.SelectItems {
			if err := projectRelationItem(row, rc, it, outRow); err != nil {
				return nil, nil, err
			}
		}
		out = append(out, outRow)
	}
	return columns, out, nil
}

func relationItemColumns(it ast.SelectItem) []string {
	if len(it.Project) > 0 {
		cols := make([]string, len(it.Project))
		for i, b := range it.Project {
			cols[i] = b.Alias
		}
		return cols
	}
	if it.Alias != "" {
		return []string{it.Alias}
	}
	if it.Tag != "" {
		if it.Field != "" {
			return []string{it.Field}
		}
		return append([]string(nil), relationFieldNames...)
	}
	return []string{"value"}
}

func projectRelationItem(row RelationRow, rc evalcore.RowContext, it ast.SelectItem, out result.Row) error {
	switch {
	case len(it.Project) > 0:
		for _, b := range it.Project {
			v, err := evalcore.EvalScalar(rc, &b.Expr)
			if err != nil {
				return err
			}
			out[b.Alias] = v
		}
		return nil

	case it.Tag != "":
		// A bare alias reference (e.g. "SELECT left, right.tag FROM
		// ... AS left JOIN ... AS right"): emit the alias's default
		// field set, or a single named field when Field is set.
		rec, ok := row[it.Tag]
		if !ok {
			return ExecError{Code: "QUALIFIER_NOT_BOUND", Message: "unbound alias " + it.Tag + " in SELECT list"}
		}
		if it.Field != "" {
			v, err := fieldValue(rec, it.Field)
			if err != nil {
				return err
			}
			name := it.Alias
			if name == "" {
				name = it.Field
			}
			out[name] = v
			return nil
		}
		fields, err := defaultFields(rec)
		if err != nil {
			return err
		}
		for k, v := range fields {
			out[k] = v
		}
		return nil

	default:
		v, err := evalRelationScalar(rc, it)
		if err != nil {
			return err
		}
		name := it.Alias
		if name == "" {
			name = "value"
		}
		out[name] = v
		return nil
	}
}

func evalRelationScalar(rc evalcore.RowContext, it ast.SelectItem) (evalcore.Value, error) {
	if it.Scalar == nil {
		return evalcore.Null(), nil
	}
	v, err := evalcore.EvalScalar(rc, it.Scalar)
	if err != nil {
		return evalcore.Null(), err
	}
	if it.Trim && v.Kind == evalcore.KindString {
		v = evalcore.StringVal(strings.TrimSpace(v.Str))
	}
	return v, nil
}

func rowValueLess(a, b evalcore.Value) bool {
	if a.IsNull() != b.IsNull() {
		return a.IsNull()
	}
	if a.Kind == evalcore.KindNumber && b.Kind == evalcore.KindNumber {
		return a.Num < b.Num
	}
	return a.AsString() < b.AsString()
}
