// Package evalcore is the predicate/scalar evaluator core shared by
// both executors (spec §9: "two evaluators, one semantics"). Neither
// execnode nor execrel re-implements WHERE/scalar evaluation; they
// each supply a RowContext and call EvalScalar/EvalExpr here.
package evalcore

import (
	"fmt"

	"github.com/spf13/cast"
)

// Kind tags a Value's underlying representation.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is the dynamically-typed scalar every expression evaluates
// to. MarkQL has no user-visible type system (spec §3's fields are
// all strings or small scalars), so one tagged union suffices for the
// whole evaluator.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

func Null() Value                { return Value{Kind: KindNull} }
func StringVal(s string) Value   { return Value{Kind: KindString, Str: s} }
func NumberVal(n float64) Value  { return Value{Kind: KindNumber, Num: n} }
func BoolVal(b bool) Value       { return Value{Kind: KindBool, Bool: b} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsString renders v for string-shaped comparisons (LIKE, CONTAINS,
// regex), coercing numbers/bools via spf13/cast the way the teacher's
// query layer coerces loosely-typed filter inputs.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return cast.ToString(v.Num)
	case KindBool:
		return cast.ToString(v.Bool)
	default:
		return ""
	}
}

// AsNumber coerces v to a float64 for ordered comparisons, using
// spf13/cast so that a numeric-looking attribute string ("42") still
// compares correctly against an integer literal.
func (v Value) AsNumber() (float64, error) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindString:
		n, err := cast.ToFloat64E(v.Str)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric: %w", v.Str, err)
		}
		return n, nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("null value has no numeric form")
	}
}

// Equal implements the loose equality Value Eq uses: same kind
// compares natively, mixed string/number compares via AsNumber when
// both sides parse numerically, else falls back to string form.
func (v Value) Equal(other Value) bool {
	if v.Kind == KindNull || other.Kind == KindNull {
		return v.Kind == KindNull && other.Kind == KindNull
	}
	if v.Kind == KindNumber || other.Kind == KindNumber {
		vn, err1 := v.AsNumber()
		on, err2 := other.AsNumber()
		if err1 == nil && err2 == nil {
			return vn == on
		}
	}
	return v.AsString() == other.AsString()
}
