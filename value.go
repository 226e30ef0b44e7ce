package parquetquery

import "fmt"

// Kind identifies which representation a Value's statistic was encoded in.
// Design note: the pack this engine was distilled from kept both numeric
// and stringified forms of every bound (sMin/sMax/sValue); we keep that
// idea explicit as a Kind tag instead, and treat comparing across kinds as
// an InvariantError rather than silently coercing.
type Kind int

const (
	// KindNull marks an absent/undefined value (no statistic available).
	KindNull Kind = iota
	KindInt64
	KindFloat64
	KindString
	KindBool
)

// Value is a generic, comparable predicate operand: either a row-group or
// page statistic, or a literal from a parsed predicate. It carries one of
// a small closed set of representations rather than an interface{}, so
// comparisons stay cheap and exhaustively checkable.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// IsNull reports whether v carries no value at all (KindNull), as opposed
// to a value that merely compares equal to some zero value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Kind returns the value's representation tag.
func (v Value) Kind() Kind { return v.kind }

func Int64(i int64) Value      { return Value{kind: KindInt64, i: i} }
func Float64(f float64) Value  { return Value{kind: KindFloat64, f: f} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }

func (v Value) Int64() int64     { return v.i }
func (v Value) Float64() float64 { return v.f }
func (v Value) String() string {
	switch v.kind {
	case KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindFloat64:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindString:
		return v.s
	default:
		return "<null>"
	}
}
func (v Value) Bool() bool { return v.b }

// Compare orders two values of the same Kind. It panics with an
// *InvariantError if the kinds differ, including when exactly one of the
// two is null; callers check IsNull first. ParsePhases does not convert
// predicate literals, so a literal whose Kind differs from the column's
// values makes Compare panic.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		panic(&InvariantError{Msg: fmt.Sprintf("cannot compare values of different kinds: %v vs %v", a.kind, b.kind)})
	}
	switch a.kind {
	case KindInt64:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return +1
		default:
			return 0
		}
	case KindFloat64:
		switch {
		case a.f < b.f:
			return -1
		case a.f > b.f:
			return +1
		default:
			return 0
		}
	case KindString:
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return +1
		default:
			return 0
		}
	case KindBool:
		switch {
		case !a.b && b.b:
			return -1
		case a.b && !b.b:
			return +1
		default:
			return 0
		}
	default:
		return 0
	}
}

// CompareNullsFirst mirrors the teacher's CompareNullsFirst combinator
// (compare.go): nulls sort before every other value, equal to each other.
func CompareNullsFirst(cmp func(Value, Value) int) func(Value, Value) int {
	return func(a, b Value) int {
		switch {
		case a.IsNull():
			if b.IsNull() {
				return 0
			}
			return -1
		case b.IsNull():
			return +1
		default:
			return cmp(a, b)
		}
	}
}

// CompareNullsLast mirrors the teacher's CompareNullsLast combinator.
func CompareNullsLast(cmp func(Value, Value) int) func(Value, Value) int {
	return func(a, b Value) int {
		switch {
		case a.IsNull():
			if b.IsNull() {
				return 0
			}
			return +1
		case b.IsNull():
			return -1
		default:
			return cmp(a, b)
		}
	}
}
