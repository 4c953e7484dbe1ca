// Package validator implements the MarkQL static validator (spec §4.3).
// Validate never mutates the IR it is given; it only produces diagnostics.
// lint_query (spec §6) is literally parse + Validate with the diagnostics
// concatenated (spec §9 "Diagnostics as data").
package validator

import (
	"strconv"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/diag"
)

const maxLimit = 10_000_000

var orderByFieldsNodePath = map[string]bool{
	"node_id": true, "tag": true, "text": true, "parent_id": true,
	"sibling_pos": true, "max_depth": true, "doc_order": true,
}

var orderBySummarizeFields = map[string]bool{"tag": true, "count": true}

// Validate checks q and returns every diagnostic it can find (spec §4.3
// says "Validator emits one diagnostic per violation where feasible").
func Validate(src string, q *ast.Query) []diag.Diagnostic {
	if q == nil {
		return nil
	}
	v := &validator{src: src, q: q}
	v.run()
	return v.diags
}

type validator struct {
	src   string
	q     *ast.Query
	diags []diag.Diagnostic
}

func (v *validator) emit(sev diag.Severity, code, msg, help string, sp diag.Span) {
	v.diags = append(v.diags, diag.New(sev, code, msg, help, sp, v.src))
}

func (v *validator) run() {
	if v.q.Kind != ast.KindSelect {
		return
	}

	// Recursively validate CTE bodies and the derived/nested subqueries
	// they and the main source may carry.
	for _, c := range v.q.With {
		v.diags = append(v.diags, Validate(v.src, c.Query)...)
	}
	if v.q.Source != nil {
		v.validateNestedSource(v.q.Source)
	}
	for _, j := range v.q.Joins {
		if j.Right != nil {
			v.validateNestedSource(j.Right)
		}
	}

	v.validateAliases()
	v.validateProjectionShape()
	v.validateScopedTextDump()
	v.validateOrderBy()
	v.validateAttributesMapUsage(v.q.Where)
	v.validateExportSink()
	v.validateLimit()
}

func (v *validator) validateNestedSource(s *ast.Source) {
	switch s.Kind {
	case ast.SrcDerivedSubquery:
		v.diags = append(v.diags, Validate(v.src, s.Subquery)...)
	case ast.SrcParse:
		if s.ParseQuery != nil {
			v.diags = append(v.diags, Validate(v.src, s.ParseQuery)...)
		}
	case ast.SrcFragments:
		if s.FragmentsQuery != nil {
			v.diags = append(v.diags, Validate(v.src, s.FragmentsQuery)...)
		}
	}
}

// validateAliases collects the set of bound aliases (source + joins + the
// implicit "doc") and checks every qualifier used in WHERE/ORDER BY/scalar
// expressions resolves to one of them.
func (v *validator) validateAliases() {
	bound := map[string]bool{}
	implicitDoc := true
	if v.q.Source != nil {
		name := v.q.Source.Alias
		if name == "" {
			name = "doc"
		} else {
			implicitDoc = false
		}
		if bound[strings.ToLower(name)] {
			v.emit(diag.Error, diag.CodeDuplicateAlias, "duplicate FROM alias "+strconv.Quote(name), "rename one of the aliases", v.q.Source.Span)
		}
		bound[strings.ToLower(name)] = true
	}
	for _, j := range v.q.Joins {
		if j.Right == nil || j.Right.Alias == "" {
			continue
		}
		name := strings.ToLower(j.Right.Alias)
		if bound[name] {
			v.emit(diag.Error, diag.CodeDuplicateAlias, "duplicate alias "+strconv.Quote(j.Right.Alias), "rename one of the joined sources", j.Right.Span)
		}
		bound[name] = true
	}

	isRelational := len(v.q.Joins) > 0 || len(v.q.With) > 0 ||
		(v.q.Source != nil && (v.q.Source.Kind == ast.SrcCteRef || v.q.Source.Kind == ast.SrcDerivedSubquery))

	checkQualifier := func(qual string, sp diag.Span) {
		if qual == "" {
			return
		}
		if bound[strings.ToLower(qual)] {
			return
		}
		if strings.EqualFold(qual, "doc") && implicitDoc {
			return
		}
		help := "known aliases: "
		var names []string
		for n := range bound {
			names = append(names, n)
		}
		help += strings.Join(names, ", ")
		if strings.EqualFold(qual, "doc") && !implicitDoc && isRelational {
			v.emit(diag.Error, diag.CodeQualifierNotBound, "the implicit alias 'doc' is not available once FROM has an explicit alias", "did you mean the FROM alias instead of 'doc'?", sp)
			return
		}
		v.emit(diag.Error, diag.CodeUnknownAlias, "unknown alias "+strconv.Quote(qual), help, sp)
	}

	var walkScalar func(s *ast.ScalarExpr)
	var walkExpr func(e ast.Expr)

	walkScalar = func(s *ast.ScalarExpr) {
		if s == nil {
			return
		}
		if s.Operand != nil {
			checkQualifier(s.Operand.Qualifier, s.Operand.Span)
		}
		if s.FunctionCall != nil {
			for i := range s.FunctionCall.Args {
				walkScalar(&s.FunctionCall.Args[i])
			}
		}
		if s.Case != nil {
			for _, w := range s.Case.Whens {
				walkExpr(w.Cond)
				walkScalar(&w.Then)
			}
			walkScalar(s.Case.Else)
		}
	}

	walkExpr = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.CompareExpr:
			walkScalar(&n.Left)
			walkScalar(n.Right)
			for i := range n.Values {
				walkScalar(&n.Values[i])
			}
		case *ast.Binary:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.Exists:
			walkExpr(n.Where)
		}
	}

	walkExpr(v.q.Where)
	for _, j := range v.q.Joins {
		walkExpr(j.On)
	}
	for _, it := range v.q.SelectItems {
		walkScalar(it.Scalar)
		for i := range it.Project {
			walkScalar(&it.Project[i].Expr)
		}
	}
	for _, k := range v.q.OrderBy {
		if idx := strings.IndexByte(k.Field, '.'); idx >= 0 {
			checkQualifier(k.Field[:idx], v.q.Span)
		}
	}
}

// validateProjectionShape enforces spec §4.3's projection-shape rules.
func (v *validator) validateProjectionShape() {
	items := v.q.SelectItems
	hasStar := false
	hasTagOnly := false
	hasProjected := false
	hasAggregate := false

	// A bare item naming a FROM/JOIN alias projects that alias's row,
	// so it counts as projected rather than tag-only.
	aliases := map[string]bool{}
	if v.q.Source != nil && v.q.Source.Alias != "" {
		aliases[strings.ToLower(v.q.Source.Alias)] = true
	}
	for _, j := range v.q.Joins {
		if j.Right != nil && j.Right.Alias != "" {
			aliases[strings.ToLower(j.Right.Alias)] = true
		}
	}

	for _, it := range items {
		switch {
		case it.Star:
			hasStar = true
		case it.Aggregate != ast.AggNone:
			hasAggregate = true
		case it.Scalar != nil || len(it.Project) > 0 || it.WrapText || it.WrapInnerHTML || it.WrapRawInner || it.WrapDirectText || it.FlattenText:
			hasProjected = true
		case aliases[it.Tag]:
			hasProjected = true
		default:
			hasTagOnly = true
		}
	}

	if hasAggregate && len(items) > 1 {
		v.emit(diag.Error, diag.CodeAggregateMustStandAlone, "an aggregate SELECT item must stand alone", "remove the other SELECT items or split the query", v.q.Span)
	}
	if hasTagOnly && hasProjected {
		v.emit(diag.Error, diag.CodeMixedProjection, "cannot mix tag-only and projected SELECT items", "choose either a tag-only SELECT or a fully projected one", v.q.Span)
	}
	if len(v.q.ExcludeFields) > 0 && !hasStar {
		v.emit(diag.Error, diag.CodeExcludeNeedsStar, "EXCLUDE requires SELECT *", "change the SELECT to * before adding EXCLUDE", v.q.Span)
	}
	if v.q.ToList {
		projectedCount := 0
		for _, it := range items {
			if it.Scalar != nil {
				projectedCount++
			}
		}
		if projectedCount != 1 || len(items) != 1 {
			v.emit(diag.Error, diag.CodeToListNeedsOneColumn, "TO LIST() requires exactly one projected column", "select exactly one scalar expression", v.q.Span)
		}
	}
	if v.q.ToTable {
		if hasStar || hasProjected || hasAggregate || len(items) != 1 || items[0].Tag != "table" {
			v.emit(diag.Error, diag.CodeToTableNeedsTagOnly, "TO TABLE() requires a tag-only SELECT targeting table", "write SELECT table FROM ... TO TABLE()", v.q.Span)
		}
	}
}

// validateScopedTextDump enforces that TEXT()/INNER_HTML()/RAW_INNER_HTML()
// require a WHERE clause with at least one non-self-tag predicate.
func (v *validator) validateScopedTextDump() {
	needsScope := false
	for _, it := range v.q.SelectItems {
		if it.WrapText || it.WrapInnerHTML || it.WrapRawInner {
			needsScope = true
		}
	}
	if !needsScope {
		return
	}
	if !hasNonSelfTagPredicate(v.q.Where) {
		v.emit(diag.Error, diag.CodeUnscopedTextDump, "TEXT()/INNER_HTML()/RAW_INNER_HTML() require a WHERE clause scoping to specific nodes", "add a WHERE predicate comparing tag, an attribute, or another non-self field", v.q.Span)
	}
}

func hasNonSelfTagPredicate(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.CompareExpr:
		if n.Left.Operand != nil {
			return true
		}
		return false
	case *ast.Binary:
		return hasNonSelfTagPredicate(n.Left) || hasNonSelfTagPredicate(n.Right)
	case *ast.Exists:
		return true
	}
	return false
}

func (v *validator) validateOrderBy() {
	isSummarize := false
	for _, it := range v.q.SelectItems {
		if it.Aggregate == ast.AggSummarize {
			isSummarize = true
		}
	}
	allowed := orderByFieldsNodePath
	if isSummarize {
		allowed = orderBySummarizeFields
	}
	for _, k := range v.q.OrderBy {
		field := k.Field
		if idx := strings.IndexByte(field, '.'); idx >= 0 {
			field = field[idx+1:]
		}
		if !allowed[strings.ToLower(field)] {
			v.emit(diag.Error, diag.CodeBadOrderByField, "ORDER BY field "+strconv.Quote(k.Field)+" is not allowed here", "use one of node_id, tag, text, parent_id, sibling_pos, max_depth, doc_order", v.q.Span)
		}
	}
}

// validateAttributesMapUsage enforces that the whole `attributes` map may
// only be used with IS [NOT] NULL.
func (v *validator) validateAttributesMapUsage(e ast.Expr) {
	switch n := e.(type) {
	case *ast.CompareExpr:
		if n.Left.Operand != nil && n.Left.Operand.FieldKind == ast.FieldAttributesMap {
			if n.Op != ast.OpIsNull && n.Op != ast.OpIsNotNull {
				v.emit(diag.Error, diag.CodeAttributesMapCompare, "the attributes map only supports IS [NOT] NULL", "compare a specific attribute instead, e.g. attributes.id = '...'", n.Span)
			}
		}
	case *ast.Binary:
		v.validateAttributesMapUsage(n.Left)
		v.validateAttributesMapUsage(n.Right)
	case *ast.Exists:
		v.validateAttributesMapUsage(n.Where)
	}
}

func (v *validator) validateExportSink() {
	if v.q.ExportSinkKind == ast.SinkNone {
		return
	}
	if v.q.ToTable && (v.q.ExportSinkKind == ast.SinkJson || v.q.ExportSinkKind == ast.SinkNdjson) {
		v.emit(diag.Error, diag.CodeExportSinkIncompatible, "JSON/NDJSON export is not permitted for TO TABLE results", "export TO TABLE results as CSV or PARQUET instead", v.q.Span)
	}
}

func (v *validator) validateLimit() {
	if v.q.Limit == nil {
		return
	}
	if *v.q.Limit < 0 || *v.q.Limit > maxLimit {
		v.emit(diag.Error, diag.CodeLimitOutOfRange, "LIMIT must be between 0 and "+strconv.Itoa(maxLimit), "", v.q.Span)
	}
}
