package evalcore

import (
	"fmt"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
)

// NodeFieldValue resolves op's FieldKind against a concrete node,
// independent of which executor owns the row. Both execnode's and
// execrel's RowContext implementations call this once they've worked
// out which node the operand's qualifier/axis refers to — the
// field-kind switch itself never differs between the two evaluators
// (spec §9's "one semantics" guarantee).
func NodeFieldValue(doc *htmldoc.HtmlDocument, id htmldoc.NodeID, op *ast.Operand) (Value, error) {
	n, err := doc.Node(id)
	if err != nil {
		return Null(), err
	}
	switch op.FieldKind {
	case ast.FieldTag:
		return StringVal(n.Tag), nil
	case ast.FieldText:
		t, err := htmldoc.FlattenText(doc, id, -1, " ")
		return StringVal(t), err
	case ast.FieldNodeID:
		return NumberVal(float64(id)), nil
	case ast.FieldParentID:
		if !n.HasParent {
			return Null(), nil
		}
		return NumberVal(float64(n.ParentID)), nil
	case ast.FieldSiblingPos:
		return NumberVal(float64(n.SiblingPos)), nil
	case ast.FieldMaxDepth:
		return NumberVal(float64(n.MaxDepth)), nil
	case ast.FieldDocOrder:
		return NumberVal(float64(n.DocOrder)), nil
	case ast.FieldAttribute:
		if v, ok := n.Attributes[op.Attribute]; ok {
			return StringVal(v), nil
		}
		return Null(), nil
	case ast.FieldAttributesMap:
		if len(n.Attributes) == 0 {
			return Null(), nil
		}
		return StringVal(""), nil // presence only; validator restricts this to IS [NOT] NULL
	default:
		return Null(), fmt.Errorf("unhandled field kind %v", op.FieldKind)
	}
}
