package evalcore

import (
	"fmt"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
	"github.com/samber/lo"
)

// EvalScalar evaluates a scalar expression (field access, literal,
// function call, or CASE) against row (spec §4.2).
func EvalScalar(ctx RowContext, s *ast.ScalarExpr) (Value, error) {
	switch {
	case s.Operand != nil:
		return ctx.ValueOf(s.Operand)
	case s.StringLiteral != nil:
		return StringVal(*s.StringLiteral), nil
	case s.NumberLiteral != nil:
		return NumberVal(float64(*s.NumberLiteral)), nil
	case s.NullLiteral:
		return Null(), nil
	case s.FunctionCall != nil:
		return evalFunction(ctx, s.FunctionCall)
	case s.Case != nil:
		return evalCase(ctx, s.Case)
	default:
		return Null(), fmt.Errorf("empty scalar expression")
	}
}

func evalCase(ctx RowContext, c *ast.CaseExpr) (Value, error) {
	for _, w := range c.Whens {
		ok, err := EvalExpr(ctx, w.Cond)
		if err != nil {
			return Null(), err
		}
		if ok {
			return EvalScalar(ctx, &w.Then)
		}
	}
	if c.Else != nil {
		return EvalScalar(ctx, c.Else)
	}
	return Null(), nil
}

func evalFunction(ctx RowContext, fn *ast.FunctionCall) (Value, error) {
	args := make([]Value, len(fn.Args))
	for i := range fn.Args {
		v, err := EvalScalar(ctx, &fn.Args[i])
		if err != nil {
			return Null(), err
		}
		args[i] = v
	}
	name := strings.ToUpper(fn.Name)
	switch name {
	case "CONCAT":
		parts := lo.Map(args, func(v Value, _ int) string { return v.AsString() })
		return StringVal(strings.Join(parts, "")), nil
	case "LOWER":
		return StringVal(foldASCII(arg0(args))), nil
	case "UPPER":
		return StringVal(strings.ToUpper(arg0(args))), nil
	case "TRIM":
		return StringVal(strings.TrimSpace(arg0(args))), nil
	case "LTRIM":
		return StringVal(strings.TrimLeft(arg0(args), " \t\n\r")), nil
	case "RTRIM":
		return StringVal(strings.TrimRight(arg0(args), " \t\n\r")), nil
	case "LENGTH", "CHAR_LENGTH":
		return NumberVal(float64(len([]rune(arg0(args))))), nil
	case "REPLACE":
		if len(args) < 3 {
			return Null(), fmt.Errorf("REPLACE needs 3 arguments")
		}
		return StringVal(strings.ReplaceAll(args[0].AsString(), args[1].AsString(), args[2].AsString())), nil
	case "SUBSTRING", "SUBSTR":
		return evalSubstring(args)
	case "POSITION", "LOCATE":
		if len(args) < 2 {
			return Null(), fmt.Errorf("POSITION needs 2 arguments")
		}
		idx := strings.Index(args[1].AsString(), args[0].AsString())
		return NumberVal(float64(idx + 1)), nil
	case "COALESCE":
		for _, a := range args {
			if !a.IsNull() {
				return a, nil
			}
		}
		return Null(), nil
	case "ATTR", "FIRST_ATTR", "LAST_ATTR", "TEXT", "DIRECT_TEXT", "INNER_HTML", "RAW_INNER_HTML", "FIRST_TEXT", "LAST_TEXT":
		// These are handled at the projection layer (execnode/execrel),
		// which has access to the candidate NodeID set the wrapper
		// operates over; as a bare scalar function they degrade to
		// operating on the current row's own node only.
		return evalNodeWrapper(ctx, name, args)
	default:
		return Null(), fmt.Errorf("unknown function %s", fn.Name)
	}
}

func arg0(args []Value) string {
	if len(args) == 0 {
		return ""
	}
	return args[0].AsString()
}

func evalSubstring(args []Value) (Value, error) {
	if len(args) < 2 {
		return Null(), fmt.Errorf("SUBSTRING needs at least 2 arguments")
	}
	s := []rune(args[0].AsString())
	start, err := args[1].AsNumber()
	if err != nil {
		return Null(), err
	}
	from := int(start) - 1
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		from = len(s)
	}
	end := len(s)
	if len(args) >= 3 {
		n, err := args[2].AsNumber()
		if err != nil {
			return Null(), err
		}
		end = from + int(n)
		if end > len(s) {
			end = len(s)
		}
	}
	if end < from {
		end = from
	}
	return StringVal(string(s[from:end])), nil
}

func evalNodeWrapper(ctx RowContext, name string, args []Value) (Value, error) {
	self, err := ctx.ValueOf(&ast.Operand{FieldKind: ast.FieldNodeID})
	if err != nil {
		return Null(), err
	}
	id, err := self.AsNumber()
	if err != nil {
		return Null(), err
	}
	nodeID := htmldoc.NodeID(int(id))
	switch name {
	case "TEXT":
		t, err := htmldoc.FlattenText(ctx.Doc(), nodeID, -1, " ")
		return StringVal(t), err
	case "DIRECT_TEXT":
		t, err := htmldoc.DirectText(ctx.Doc(), nodeID)
		return StringVal(t), err
	case "INNER_HTML":
		t, err := htmldoc.MinifiedInnerHTML(ctx.Doc(), nodeID, innerHTMLDepthArg(args))
		return StringVal(t), err
	case "RAW_INNER_HTML":
		t, err := htmldoc.InnerHTML(ctx.Doc(), nodeID, innerHTMLDepthArg(args))
		return StringVal(t), err
	case "ATTR", "FIRST_ATTR", "LAST_ATTR":
		if len(args) == 0 {
			return Null(), fmt.Errorf("%s needs an attribute name", name)
		}
		n, err := ctx.Doc().Node(nodeID)
		if err != nil {
			return Null(), err
		}
		if v, ok := n.Attributes[args[0].AsString()]; ok {
			return StringVal(v), nil
		}
		return Null(), nil
	default:
		return Null(), fmt.Errorf("%s has no scalar form outside a SELECT list", name)
	}
}

// innerHTMLDepthArg reads INNER_HTML()/RAW_INNER_HTML()'s optional
// second argument (spec §4.8): the first argument is the tag/self
// operand, already resolved to the current row's node above, so this
// only cares about args[1]. Writing MAX_DEPTH resolves (through the
// max_depth field operand) to the node's own deepest descendant depth,
// which already behaves as "no truncation" without any special case
// here. Omitting the argument entirely defaults to depth 1, not
// unlimited (spec §9).
func innerHTMLDepthArg(args []Value) int {
	if len(args) < 2 {
		return htmldoc.DefaultInnerHTMLDepth
	}
	d, err := args[1].AsNumber()
	if err != nil {
		return htmldoc.DefaultInnerHTMLDepth
	}
	return int(d)
}

// EvalExpr evaluates a boolean expression tree (WHERE/JOIN ON/EXISTS
// inner predicates).
func EvalExpr(ctx RowContext, e ast.Expr) (bool, error) {
	switch n := e.(type) {
	case nil:
		return true, nil
	case *ast.Binary:
		left, err := EvalExpr(ctx, n.Left)
		if err != nil {
			return false, err
		}
		if n.Kind == ast.BinAnd && !left {
			return false, nil
		}
		if n.Kind == ast.BinOr && left {
			return true, nil
		}
		return EvalExpr(ctx, n.Right)
	case *ast.Exists:
		return evalExists(ctx, n)
	case *ast.CompareExpr:
		return evalCompare(ctx, n)
	default:
		return false, fmt.Errorf("unhandled expression node %T", e)
	}
}

func evalExists(ctx RowContext, n *ast.Exists) (bool, error) {
	candidates, err := ctx.ScopedNodes(n.Axis, n.Tag)
	if err != nil {
		return false, err
	}
	for _, id := range candidates {
		inner := ctx.WithNode(id)
		ok, err := EvalExpr(inner, n.Where)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func evalCompare(ctx RowContext, n *ast.CompareExpr) (bool, error) {
	left, err := EvalScalar(ctx, &n.Left)
	if err != nil {
		return false, err
	}
	switch n.Op {
	case ast.OpIsNull:
		return left.IsNull(), nil
	case ast.OpIsNotNull:
		return !left.IsNull(), nil
	}
	if n.Op == ast.OpIn {
		for i := range n.Values {
			v, err := EvalScalar(ctx, &n.Values[i])
			if err != nil {
				return false, err
			}
			if left.Equal(v) {
				return true, nil
			}
		}
		return false, nil
	}

	if n.Right == nil {
		return false, fmt.Errorf("compare op %v requires a right operand", n.Op)
	}
	right, err := EvalScalar(ctx, n.Right)
	if err != nil {
		return false, err
	}

	switch n.Op {
	case ast.OpEq:
		return left.Equal(right), nil
	case ast.OpNotEq:
		return !left.Equal(right), nil
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		ln, err := left.AsNumber()
		if err != nil {
			return false, err
		}
		rn, err := right.AsNumber()
		if err != nil {
			return false, err
		}
		switch n.Op {
		case ast.OpLt:
			return ln < rn, nil
		case ast.OpLte:
			return ln <= rn, nil
		case ast.OpGt:
			return ln > rn, nil
		default:
			return ln >= rn, nil
		}
	case ast.OpRegex:
		return MatchRegex(left.AsString(), right.AsString())
	case ast.OpLike:
		return MatchLike(left.AsString(), right.AsString())
	case ast.OpContains:
		return tokenClassMatch(left.AsString(), right.AsString()), nil
	case ast.OpContainsAll, ast.OpContainsAny:
		return evalContainsSet(ctx, left, n)
	case ast.OpHasDirectText:
		return strings.TrimSpace(left.AsString()) != "", nil
	default:
		return false, fmt.Errorf("unhandled compare op %v", n.Op)
	}
}

func evalContainsSet(ctx RowContext, left Value, n *ast.CompareExpr) (bool, error) {
	needAll := n.Op == ast.OpContainsAll
	matched := 0
	for i := range n.Values {
		v, err := EvalScalar(ctx, &n.Values[i])
		if err != nil {
			return false, err
		}
		if tokenClassMatch(left.AsString(), v.AsString()) {
			matched++
			if !needAll {
				return true, nil
			}
		}
	}
	if needAll {
		return matched == len(n.Values), nil
	}
	return false, nil
}
