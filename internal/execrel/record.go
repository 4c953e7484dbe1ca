// Package execrel implements the relation-oriented executor (spec
// §4.6-4.7): the path taken whenever a query has WITH, any JOIN, a CTE
// reference, a derived subquery, or an ORDER BY qualified by an alias.
// Where execnode walks a single document's nodes directly, execrel
// binds one HtmlDocument (or one previously-materialized result set)
// per FROM/JOIN alias and builds a joined RelationRow per combination.
package execrel

import (
	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
	"github.com/darhnoel/markql-sub000/internal/result"
)

// RelationRecord is one alias's binding within a single joined row:
// either a concrete node in a concrete document (axis navigation and
// every field are available), or a previously-projected row from a
// CTE/derived subquery (only named columns are available, no axis
// walking). A record with both Doc == nil and Row == nil represents a
// LEFT JOIN's unmatched padding — every field resolves to NULL.
type RelationRecord struct {
	Doc  *htmldoc.HtmlDocument
	Node htmldoc.NodeID
	Row  result.Row
}

func (r RelationRecord) nodeBacked() bool { return r.Doc != nil }

// RelationRow maps alias -> binding (spec §4.6's "alias → record").
type RelationRow map[string]RelationRecord

func (r RelationRow) clone() RelationRow {
	out := make(RelationRow, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

var relationFieldNames = []string{"tag", "text", "node_id", "parent_id", "sibling_pos", "max_depth", "doc_order"}

// defaultFields renders a record's canonical field set as a result.Row,
// used both for "bare alias" SELECT items and for row-backed aliases
// where evalcore has no node to consult.
func defaultFields(rec RelationRecord) (result.Row, error) {
	if !rec.nodeBacked() {
		if rec.Row == nil {
			out := result.Row{}
			for _, f := range relationFieldNames {
				out[f] = evalcore.Null()
			}
			return out, nil
		}
		return rec.Row, nil
	}
	n, err := rec.Doc.Node(rec.Node)
	if err != nil {
		return nil, err
	}
	text, err := htmldoc.FlattenText(rec.Doc, rec.Node, -1, " ")
	if err != nil {
		return nil, err
	}
	out := result.Row{
		"tag":         evalcore.StringVal(n.Tag),
		"text":        evalcore.StringVal(text),
		"node_id":     evalcore.NumberVal(float64(n.ID)),
		"sibling_pos": evalcore.NumberVal(float64(n.SiblingPos)),
		"max_depth":   evalcore.NumberVal(float64(n.MaxDepth)),
		"doc_order":   evalcore.NumberVal(float64(n.DocOrder)),
	}
	if n.HasParent {
		out["parent_id"] = evalcore.NumberVal(float64(n.ParentID))
	} else {
		out["parent_id"] = evalcore.Null()
	}
	return out, nil
}

// fieldValue resolves a single named field (a canonical field name or
// an attribute name) off rec.
func fieldValue(rec RelationRecord, name string) (evalcore.Value, error) {
	if !rec.nodeBacked() {
		if rec.Row == nil {
			return evalcore.Null(), nil
		}
		if v, ok := rec.Row[name]; ok {
			return v, nil
		}
		return evalcore.Null(), nil
	}
	switch name {
	case "tag":
		return evalcore.NodeFieldValue(rec.Doc, rec.Node, &ast.Operand{FieldKind: ast.FieldTag})
	case "text":
		return evalcore.NodeFieldValue(rec.Doc, rec.Node, &ast.Operand{FieldKind: ast.FieldText})
	case "node_id":
		return evalcore.NodeFieldValue(rec.Doc, rec.Node, &ast.Operand{FieldKind: ast.FieldNodeID})
	case "parent_id":
		return evalcore.NodeFieldValue(rec.Doc, rec.Node, &ast.Operand{FieldKind: ast.FieldParentID})
	case "sibling_pos":
		return evalcore.NodeFieldValue(rec.Doc, rec.Node, &ast.Operand{FieldKind: ast.FieldSiblingPos})
	case "max_depth":
		return evalcore.NodeFieldValue(rec.Doc, rec.Node, &ast.Operand{FieldKind: ast.FieldMaxDepth})
	case "doc_order":
		return evalcore.NodeFieldValue(rec.Doc, rec.Node, &ast.Operand{FieldKind: ast.FieldDocOrder})
	default:
		return evalcore.NodeFieldValue(rec.Doc, rec.Node, &ast.Operand{FieldKind: ast.FieldAttribute, Attribute: name})
	}
}
