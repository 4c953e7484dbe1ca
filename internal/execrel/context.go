package execrel

import (
	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
)

// rowContext implements evalcore.RowContext over a joined RelationRow.
// An Operand's Qualifier picks the alias; within that alias, Axis
// navigates the alias's own document tree (a node-backed alias only —
// row-backed CTE/derived aliases only resolve AxisSelf).
//
// EXISTS and bare axis predicates with no qualifier (ast.Exists has
// none) resolve against primary, the left-most alias in the FROM/JOIN
// chain — this module's decision for an axis concept the relation-path
// spec section leaves otherwise unstated.
type rowContext struct {
	row     RelationRow
	primary string
}

func newRowContext(row RelationRow, primary string) *rowContext {
	return &rowContext{row: row, primary: primary}
}

func (r *rowContext) Doc() *htmldoc.HtmlDocument {
	return r.row[r.primary].Doc
}

func (r *rowContext) WithNode(id htmldoc.NodeID) evalcore.RowContext {
	next := r.row.clone()
	rec := next[r.primary]
	rec.Node = id
	next[r.primary] = rec
	return newRowContext(next, r.primary)
}

func (r *rowContext) alias(qualifier string) (string, error) {
	if qualifier != "" {
		if _, ok := r.row[qualifier]; !ok {
			return "", ExecError{Code: "QUALIFIER_NOT_BOUND", Message: "alias " + qualifier + " is not bound in this row"}
		}
		return qualifier, nil
	}
	if _, ok := r.row[r.primary]; ok {
		return r.primary, nil
	}
	return "", ExecError{Code: "QUALIFIER_NOT_BOUND", Message: "no implicit alias bound in this row"}
}

func (r *rowContext) ValueOf(op *ast.Operand) (evalcore.Value, error) {
	a, err := r.alias(op.Qualifier)
	if err != nil {
		return evalcore.Null(), err
	}
	rec := r.row[a]

	if !rec.nodeBacked() {
		return fieldValue(rec, canonicalFieldName(op))
	}

	target, err := resolveAxisNode(rec.Doc, rec.Node, op.Axis)
	if err != nil {
		return evalcore.Null(), err
	}
	return evalcore.NodeFieldValue(rec.Doc, target, op)
}

func canonicalFieldName(op *ast.Operand) string {
	switch op.FieldKind {
	case ast.FieldAttribute:
		return op.Attribute
	case ast.FieldTag:
		return "tag"
	case ast.FieldText:
		return "text"
	case ast.FieldNodeID:
		return "node_id"
	case ast.FieldParentID:
		return "parent_id"
	case ast.FieldSiblingPos:
		return "sibling_pos"
	case ast.FieldMaxDepth:
		return "max_depth"
	case ast.FieldDocOrder:
		return "doc_order"
	default:
		return ""
	}
}

func resolveAxisNode(doc *htmldoc.HtmlDocument, current htmldoc.NodeID, axis ast.Axis) (htmldoc.NodeID, error) {
	switch axis {
	case ast.AxisSelf:
		return current, nil
	case ast.AxisParent:
		n, err := doc.Node(current)
		if err != nil {
			return 0, err
		}
		if !n.HasParent {
			return 0, htmldoc.NodeDoesNotExist(current)
		}
		return n.ParentID, nil
	default:
		return current, nil
	}
}

func (r *rowContext) AxisNodes(axis ast.Axis) ([]htmldoc.NodeID, error) {
	rec := r.row[r.primary]
	if !rec.nodeBacked() {
		return nil, nil
	}
	switch axis {
	case ast.AxisSelf:
		return []htmldoc.NodeID{rec.Node}, nil
	case ast.AxisParent:
		n, err := rec.Doc.Node(rec.Node)
		if err != nil {
			return nil, err
		}
		if !n.HasParent {
			return nil, nil
		}
		return []htmldoc.NodeID{n.ParentID}, nil
	case ast.AxisChild:
		return rec.Doc.Children(rec.Node), nil
	case ast.AxisAncestor:
		return htmldoc.AncestorChain(rec.Doc, rec.Node)
	case ast.AxisDescendant:
		return htmldoc.DescendantSubtree(rec.Doc, rec.Node)
	default:
		return nil, nil
	}
}

func (r *rowContext) ScopedNodes(axis ast.Axis, tag string) ([]htmldoc.NodeID, error) {
	ids, err := r.AxisNodes(axis)
	if err != nil {
		return nil, err
	}
	if tag == "" || tag == "*" {
		return ids, nil
	}
	rec := r.row[r.primary]
	var out []htmldoc.NodeID
	for _, id := range ids {
		n, err := rec.Doc.Node(id)
		if err != nil {
			continue
		}
		if n.Tag == tag {
			out = append(out, id)
		}
	}
	return out, nil
}
