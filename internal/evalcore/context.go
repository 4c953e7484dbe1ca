package evalcore

import (
	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
)

// RowContext is the trait spec §9 calls for: a thin seam between the
// evaluator core (this package) and whichever executor is driving it.
// execnode's RowContext answers against a single current node; execrel's
// answers against a joined row of (alias -> node) bindings, resolving
// Operand.Qualifier to the right side of the join before delegating to
// the same node-level logic.
type RowContext interface {
	// ValueOf resolves an Operand (field access, possibly axis- and
	// qualifier-prefixed) against the current row to a Value.
	ValueOf(op *ast.Operand) (Value, error)

	// AxisNodes returns the NodeIDs reachable from the current row's
	// node via axis (spec §4.2's PARENT/CHILD/ANCESTOR/DESCENDANT/SELF).
	AxisNodes(axis ast.Axis) ([]htmldoc.NodeID, error)

	// ScopedNodes returns, for an EXISTS(axis::tag WHERE ...) predicate,
	// the candidate NodeIDs along axis matching tag (or every node along
	// axis if tag == "*"), for the caller to test with Where.
	ScopedNodes(axis ast.Axis, tag string) ([]htmldoc.NodeID, error)

	// WithNode returns a RowContext evaluating as though id were the
	// current row's node — used by EXISTS to test its inner WHERE
	// against each scoped candidate in turn.
	WithNode(id htmldoc.NodeID) RowContext

	// Doc exposes the underlying document for helpers (InnerHTML,
	// FlattenText, ...) that need direct node-table access.
	Doc() *htmldoc.HtmlDocument
}
