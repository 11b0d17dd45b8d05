package schema

import "time"

// Value is a runtime scalar value flowing between the binder and the
// driver: either a literal from FQL source or a value substituted from
// the caller's parameter map. Variables are the only way to supply Date,
// DateTime, or Binary values — the FQL grammar has no literal syntax for
// them (non-goal, spec.md §1).
type Value struct {
	Kind  Kind
	IsNil bool // NULL, independent of Kind
	I     int64
	F     float64
	S     string
	B     bool
	T     time.Time
	Bytes []byte
}

// Null is the distinguished NULL value. It is never confused with "no
// value supplied" — that case is the UnboundVariable error instead.
func Null() Value { return Value{IsNil: true} }

func Int64Value(v int64) Value     { return Value{Kind: Int64, I: v} }
func Float64Value(v float64) Value { return Value{Kind: Float64, F: v} }
func StringValue(v string) Value   { return Value{Kind: String, S: v} }
func BoolValue(v bool) Value       { return Value{Kind: Bool, B: v} }
func DateTimeValue(v time.Time) Value {
	return Value{Kind: DateTime, T: v}
}
func BinaryValue(v []byte) Value { return Value{Kind: Binary, Bytes: v} }
