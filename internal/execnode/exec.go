package execnode

import (
	"context"
	"sort"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
	"github.com/darhnoel/markql-sub000/internal/result"
)

// NodeExecutor is the default Executor for single-source node-path
// queries: select every node in document order (optionally scoped by a
// select item's tag), apply WHERE per candidate, project, aggregate,
// order, and limit.
type NodeExecutor struct{}

func NewNodeExecutor() *NodeExecutor { return &NodeExecutor{} }

func (e *NodeExecutor) Execute(ctx context.Context, doc *htmldoc.HtmlDocument, q *ast.Query) (*result.QueryResult, error) {
	candidates := candidateNodes(doc, q)

	filtered := candidates
	if q.Where != nil {
		filtered = filtered[:0]
		for _, id := range candidates {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			rc := newRowContext(doc, id)
			ok, err := evalcore.EvalExpr(rc, q.Where)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, id)
			}
		}
	}

	if agg, ok := aggregateOp(q); ok {
		res, err := agg.Reduce(doc, filtered)
		if err != nil {
			return nil, err
		}
		applyOrderLimit(res, q)
		if q.ToTable {
			res.ApplyTableOptions(q.TableOptions)
		}
		return res, nil
	}

	columns, rows, err := project(doc, filtered, q)
	if err != nil {
		return nil, err
	}
	res := result.NewResult(columns, rows, q.TableOptions)
	applyOrderLimit(res, q)
	if q.ToTable {
		res.ApplyTableOptions(q.TableOptions)
	}
	return res, nil
}

// candidateNodes collects the node-path row set (spec §4.5): every
// node in the document, or every node matching the lone select item's
// tag when the query has exactly one tag-scoped item and no star.
func candidateNodes(doc *htmldoc.HtmlDocument, q *ast.Query) []htmldoc.NodeID {
	tag := soleScopeTag(q)
	ids := make([]htmldoc.NodeID, 0, doc.NodeCount())
	for i := 0; i < doc.NodeCount(); i++ {
		id := htmldoc.NodeID(i)
		n, err := doc.Node(id)
		if err != nil || n.IsText {
			continue
		}
		if tag != "" && n.Tag != tag {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func soleScopeTag(q *ast.Query) string {
	if len(q.SelectItems) != 1 {
		return ""
	}
	it := q.SelectItems[0]
	if it.Star || it.Tag == "" || it.Tag == "*" || (it.Aggregate != ast.AggNone && it.Aggregate != ast.AggCount) {
		return ""
	}
	return it.Tag
}

func aggregateOp(q *ast.Query) (AggregateOp, bool) {
	for _, it := range q.SelectItems {
		switch it.Aggregate {
		case ast.AggCount:
			return CountOp{}, true
		case ast.AggSummarize:
			return SummarizeOp{}, true
		case ast.AggTfidf:
			return TfidfOp{Params: it.Tfidf}, true
		}
	}
	return nil, false
}

// project renders one row per candidate node for every non-aggregate
// SELECT item: a bare tag/star item emits the node's default column
// set (spec §4.8's implicit columns), a scalar item emits its
// evaluated value or wrapped text/HTML form, and PROJECT(...) emits
// its bound sub-columns.
func project(doc *htmldoc.HtmlDocument, ids []htmldoc.NodeID, q *ast.Query) ([]string, []result.Row, error) {
	var columns []string
	seen := map[string]bool{}
	addCol := func(name string) {
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}

	for _, it := range q.SelectItems {
		for _, name := range itemColumns(it) {
			addCol(name)
		}
	}

	rows := make([]result.Row, 0, len(ids))
	for _, id := range ids {
		row := result.Row{}
		rc := newRowContext(doc, id)
		for _, it := range q.SelectItems {
			if err := projectItem(doc, rc, id, it, row); err != nil {
				return nil, nil, err
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

func itemColumns(it ast.SelectItem) []string {
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
	if name, ok := wrapperColumnName(it); ok {
		return []string{name}
	}
	if it.Star || it.Tag != "" {
		if it.Field != "" {
			return []string{it.Field}
		}
		return defaultNodeColumns()
	}
	return []string{"value"}
}

func defaultNodeColumns() []string {
	return []string{"tag", "text", "node_id", "parent_id", "sibling_pos", "max_depth", "doc_order"}
}

// wrapperColumnName reports the default (unaliased) column name for a
// TEXT()/INNER_HTML()/RAW_INNER_HTML()/DIRECT_TEXT() SELECT item (spec
// §4.8): these wrapper forms always carry a tag operand, so they must
// be told apart from a bare tag-scoped item before it.Tag is checked.
func wrapperColumnName(it ast.SelectItem) (string, bool) {
	switch {
	case it.WrapInnerHTML:
		return "inner_html", true
	case it.WrapRawInner:
		return "raw_inner_html", true
	case it.WrapDirectText:
		return "direct_text", true
	case it.WrapText:
		return "text", true
	default:
		return "", false
	}
}

func projectItem(doc *htmldoc.HtmlDocument, rc evalcore.RowContext, id htmldoc.NodeID, it ast.SelectItem, row result.Row) error {
	switch {
	case len(it.Project) > 0:
		for _, b := range it.Project {
			v, err := evalcore.EvalScalar(rc, &b.Expr)
			if err != nil {
				return err
			}
			row[b.Alias] = v
		}
		return nil

	case it.WrapInnerHTML || it.WrapRawInner || it.WrapDirectText || it.WrapText:
		v, err := evalScalarWithWrap(doc, rc, id, it)
		if err != nil {
			return err
		}
		name := it.Alias
		if name == "" {
			name, _ = wrapperColumnName(it)
		}
		row[name] = v
		return nil

	case it.Star || it.Tag != "":
		if it.Field != "" {
			v, err := nodeFieldByName(doc, id, it.Field)
			if err != nil {
				return err
			}
			row[it.Field] = v
			return nil
		}
		return fillDefaultColumns(doc, id, row)

	default:
		v, err := evalScalarWithWrap(doc, rc, id, it)
		if err != nil {
			return err
		}
		name := it.Alias
		if name == "" {
			name = "value"
		}
		row[name] = v
		return nil
	}
}

func fillDefaultColumns(doc *htmldoc.HtmlDocument, id htmldoc.NodeID, row result.Row) error {
	n, err := doc.Node(id)
	if err != nil {
		return err
	}
	row["tag"] = evalcore.StringVal(n.Tag)
	text, err := htmldoc.FlattenText(doc, id, -1, " ")
	if err != nil {
		return err
	}
	row["text"] = evalcore.StringVal(text)
	row["node_id"] = evalcore.NumberVal(float64(n.ID))
	if n.HasParent {
		row["parent_id"] = evalcore.NumberVal(float64(n.ParentID))
	} else {
		row["parent_id"] = evalcore.Null()
	}
	row["sibling_pos"] = evalcore.NumberVal(float64(n.SiblingPos))
	row["max_depth"] = evalcore.NumberVal(float64(n.MaxDepth))
	row["doc_order"] = evalcore.NumberVal(float64(n.DocOrder))
	return nil
}

func nodeFieldByName(doc *htmldoc.HtmlDocument, id htmldoc.NodeID, field string) (evalcore.Value, error) {
	switch field {
	case "tag":
		return evalcore.NodeFieldValue(doc, id, &ast.Operand{FieldKind: ast.FieldTag})
	case "text":
		return evalcore.NodeFieldValue(doc, id, &ast.Operand{FieldKind: ast.FieldText})
	case "node_id":
		return evalcore.NodeFieldValue(doc, id, &ast.Operand{FieldKind: ast.FieldNodeID})
	case "parent_id":
		return evalcore.NodeFieldValue(doc, id, &ast.Operand{FieldKind: ast.FieldParentID})
	case "sibling_pos":
		return evalcore.NodeFieldValue(doc, id, &ast.Operand{FieldKind: ast.FieldSiblingPos})
	case "max_depth":
		return evalcore.NodeFieldValue(doc, id, &ast.Operand{FieldKind: ast.FieldMaxDepth})
	case "doc_order":
		return evalcore.NodeFieldValue(doc, id, &ast.Operand{FieldKind: ast.FieldDocOrder})
	default:
		return evalcore.NodeFieldValue(doc, id, &ast.Operand{FieldKind: ast.FieldAttribute, Attribute: field})
	}
}

// evalScalarWithWrap evaluates a scalar SELECT item and applies its
// text/HTML wrapper flags (spec §4.8): these are sugar over the
// TEXT()/INNER_HTML()/RAW_INNER_HTML()/DIRECT_TEXT() functions for
// items not already written as a function call.
func evalScalarWithWrap(doc *htmldoc.HtmlDocument, rc evalcore.RowContext, id htmldoc.NodeID, it ast.SelectItem) (evalcore.Value, error) {
	v := evalcore.Null()
	if it.Scalar != nil {
		var err error
		v, err = evalcore.EvalScalar(rc, it.Scalar)
		if err != nil {
			return evalcore.Null(), err
		}
	}
	switch {
	case it.WrapDirectText:
		s, err := htmldoc.DirectText(doc, id)
		if err != nil {
			return evalcore.Null(), err
		}
		v = evalcore.StringVal(s)
	case it.WrapRawInner:
		s, err := htmldoc.InnerHTML(doc, id, innerHTMLDepth(it))
		if err != nil {
			return evalcore.Null(), err
		}
		v = evalcore.StringVal(s)
	case it.WrapInnerHTML:
		s, err := htmldoc.MinifiedInnerHTML(doc, id, innerHTMLDepth(it))
		if err != nil {
			return evalcore.Null(), err
		}
		v = evalcore.StringVal(s)
	case it.WrapText:
		depth := -1
		if it.FlattenText {
			depth = it.FlattenDepth
		}
		s, err := htmldoc.FlattenText(doc, id, depth, " ")
		if err != nil {
			return evalcore.Null(), err
		}
		v = evalcore.StringVal(s)
	}
	if it.Trim && v.Kind == evalcore.KindString {
		v = evalcore.StringVal(strings.TrimSpace(v.Str))
	}
	return v, nil
}

// innerHTMLDepth resolves a SELECT item's INNER_HTML()/RAW_INNER_HTML()
// depth operand (spec §4.8): an explicit literal wins, MAX_DEPTH lifts
// the cap entirely, and an omitted operand defaults to depth 1 rather
// than unlimited (spec §9).
func innerHTMLDepth(it ast.SelectItem) int {
	switch it.InnerHTMLDepthKind {
	case ast.InnerHTMLDepthLiteral:
		return it.InnerHTMLDepthN
	case ast.InnerHTMLDepthMax:
		return htmldoc.UnlimitedDepth
	default:
		return htmldoc.DefaultInnerHTMLDepth
	}
}

func applyOrderLimit(res *result.QueryResult, q *ast.Query) {
	if len(q.OrderBy) > 0 {
		sort.SliceStable(res.Rows, func(i, j int) bool {
			for _, k := range q.OrderBy {
				a, b := res.Rows[i][k.Field], res.Rows[j][k.Field]
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
	}
	if q.LimitSet && q.Limit != nil {
		lim := *q.Limit
		if lim < len(res.Rows) {
			res.Truncated = res.Truncated || lim < len(res.Rows)
			res.Rows = res.Rows[:lim]
		}
	}
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
