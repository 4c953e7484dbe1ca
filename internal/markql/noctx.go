package markql

import (
	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/evalcore"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
)

// noRowContext evaluates a scalar expression with no current row bound
// to it — the shape a top-level (non-LATERAL) PARSE/FRAGMENTS source
// argument needs, since no row exists until the source it names has
// been resolved. ValueOf errors with NO_ROW_CONTEXT if the expression
// references a field; the validator does not reject such an operand.
type noRowContext struct{}

func (noRowContext) ValueOf(op *ast.Operand) (evalcore.Value, error) {
	return evalcore.Null(), execError{"NO_ROW_CONTEXT: a top-level source argument cannot reference row fields"}
}

func (noRowContext) AxisNodes(axis ast.Axis) ([]htmldoc.NodeID, error) {
	return nil, execError{"NO_ROW_CONTEXT: no axis is available outside a row"}
}

func (noRowContext) ScopedNodes(axis ast.Axis, tag string) ([]htmldoc.NodeID, error) {
	return nil, execError{"NO_ROW_CONTEXT: no axis is available outside a row"}
}

func (c noRowContext) WithNode(id htmldoc.NodeID) evalcore.RowContext { return c }

func (noRowContext) Doc() *htmldoc.HtmlDocument { return nil }

type execError struct{ message string }

func (e execError) Error() string { return e.message }

func evalLiteralScalar(expr *ast.ScalarExpr) (string, error) {
	v, err := evalcore.EvalScalar(noRowContext{}, expr)
	if err != nil {
		return "", err
	}
	return v.AsString(), nil
}
