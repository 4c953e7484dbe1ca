package execnode

import (
	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
)

// rowContext implements evalcore.RowContext for a single node-path
// row: "current" is the one candidate node every ValueOf/AxisNodes
// call resolves against. There is no qualifier resolution to do here
// (node-path queries only ever have the implicit "doc" alias) —
// that's execrel's job.
type rowContext struct {
	doc     *htmldoc.HtmlDocument
	current htmldoc.NodeID
}

func newRowContext(doc *htmldoc.HtmlDocument, id htmldoc.NodeID) *rowContext {
	return &rowContext{doc: doc, current: id}
}

func (r *rowContext) Doc() *htmldoc.HtmlDocument { return r.doc }

func (r *rowContext) WithNode(id htmldoc.NodeID) evalcore.RowContext {
	return newRowContext(r.doc, id)
}

func (r *rowContext) ValueOf(op *ast.Operand) (evalcore.Value, error) {
	target, err := r.resolveAxis(op.Axis)
	if err != nil {
		return evalcore.Null(), err
	}
	return evalcore.NodeFieldValue(r.doc, target, op)
}

func (r *rowContext) resolveAxis(axis ast.Axis) (htmldoc.NodeID, error) {
	switch axis {
	case ast.AxisSelf:
		return r.current, nil
	case ast.AxisParent:
		n, err := r.doc.Node(r.current)
		if err != nil {
			return 0, err
		}
		if !n.HasParent {
			return 0, htmldoc.NodeDoesNotExist(r.current)
		}
		return n.ParentID, nil
	default:
		// Child/Ancestor/Descendant resolve to a node *set*, not a
		// single value; ValueOf is only reached for Self/Parent field
		// access. AxisNodes below handles the plural axes.
		return r.current, nil
	}
}

func (r *rowContext) AxisNodes(axis ast.Axis) ([]htmldoc.NodeID, error) {
	switch axis {
	case ast.AxisSelf:
		return []htmldoc.NodeID{r.current}, nil
	case ast.AxisParent:
		n, err := r.doc.Node(r.current)
		if err != nil {
			return nil, err
		}
		if !n.HasParent {
			return nil, nil
		}
		return []htmldoc.NodeID{n.ParentID}, nil
	case ast.AxisChild:
		return r.doc.Children(r.current), nil
	case ast.AxisAncestor:
		return htmldoc.AncestorChain(r.doc, r.current)
	case ast.AxisDescendant:
		return htmldoc.DescendantSubtree(r.doc, r.current)
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
	var out []htmldoc.NodeID
	for _, id := range ids {
		n, err := r.doc.Node(id)
		if err != nil {
			continue
		}
		if n.Tag == tag {
			out = append(out, id)
		}
	}
	return out, nil
}
