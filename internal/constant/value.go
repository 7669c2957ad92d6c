// Package constant models compile-time constant values that appear in
// annotation attributes and prints them back as canonical literal syntax.
package constant

import (
	"fmt"
	"math"
)

// Kind identifies the type of a constant Value.
type Kind int

const (
	Invalid Kind = iota
	String
	Char
	Bool
	Byte
	Short
	Int
	Long
	Float
	Double
	// Enum is a fully qualified reference to an enum constant, e.g.
	// "java.lang.annotation.RetentionPolicy.SOURCE".
	Enum
	// Class is a fully qualified class literal, e.g. "java.lang.String".
	Class
)

var kindNames = [...]string{
	Invalid: "invalid",
	String:  "string",
	Char:    "char",
	Bool:    "boolean",
	Byte:    "byte",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Enum:    "enum",
	Class:   "class",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsIntegral reports whether k is byte, short, int, long or char.
func (k Kind) IsIntegral() bool {
	switch k {
	case Byte, Short, Int, Long, Char:
		return true
	}
	return false
}

// IsNumeric reports whether k takes part in arithmetic promotion.
func (k Kind) IsNumeric() bool {
	return k.IsIntegral() || k == Float || k == Double
}

// Value is an immutable typed constant. The zero Value is Invalid.
type Value struct {
	kind Kind
	str  string // String, Enum, Class
	i    int64  // integral kinds, Char, Bool (0/1)
	f    float64
}

func MakeString(s string) Value { return Value{kind: String, str: s} }
func MakeChar(r rune) Value     { return Value{kind: Char, i: int64(uint16(r))} }
func MakeByte(v int8) Value     { return Value{kind: Byte, i: int64(v)} }
func MakeShort(v int16) Value   { return Value{kind: Short, i: int64(v)} }
func MakeInt(v int32) Value     { return Value{kind: Int, i: int64(v)} }
func MakeLong(v int64) Value    { return Value{kind: Long, i: v} }

// MakeFloat stores v rounded to single precision.
func MakeFloat(v float32) Value  { return Value{kind: Float, f: float64(v)} }
func MakeDouble(v float64) Value { return Value{kind: Double, f: v} }

func MakeBool(b bool) Value {
	v := Value{kind: Bool}
	if b {
		v.i = 1
	}
	return v
}

// MakeEnum returns a reference to the enum constant with the given fully
// qualified name.
func MakeEnum(qualifiedName string) Value { return Value{kind: Enum, str: qualifiedName} }

// MakeClass returns a class literal for the given fully qualified class name.
func MakeClass(qualifiedName string) Value { return Value{kind: Class, str: qualifiedName} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a constant.
func (v Value) IsValid() bool { return v.kind != Invalid }

// StringVal returns the payload of String, Enum and Class values.
func (v Value) StringVal() string { return v.str }

// BoolVal returns the payload of a Bool value.
func (v Value) BoolVal() bool { return v.i != 0 }

// Int64 returns the value of an integral kind widened to int64. Floating
// kinds are truncated toward zero.
func (v Value) Int64() int64 {
	switch v.kind {
	case Float, Double:
		return int64(v.f)
	}
	return v.i
}

// Float64 returns the value of a numeric kind widened to float64.
func (v Value) Float64() float64 {
	switch v.kind {
	case Float, Double:
		return v.f
	}
	return float64(v.i)
}

// Interface returns the Go representation of v: string, rune, bool, int8,
// int16, int32, int64, float32 or float64. Enum and Class values return
// their qualified name. Invalid returns nil.
func (v Value) Interface() any {
	switch v.kind {
	case String, Enum, Class:
		return v.str
	case Char:
		return rune(v.i)
	case Bool:
		return v.i != 0
	case Byte:
		return int8(v.i)
	case Short:
		return int16(v.i)
	case Int:
		return int32(v.i)
	case Long:
		return v.i
	case Float:
		return float32(v.f)
	case Double:
		return v.f
	}
	return nil
}

// Equal reports whether v and w have the same kind and payload. NaN values
// of the same kind compare equal so that re-parsed output matches.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case Float, Double:
		if math.IsNaN(v.f) && math.IsNaN(w.f) {
			return true
		}
		return v.f == w.f
	}
	return v.str == w.str && v.i == w.i
}

// String returns the canonical literal form of v. See Format.
func (v Value) String() string { return Format(v) }

// FromGo converts a Go value into a constant. It returns false for types
// that have no constant representation.
func FromGo(x any) (Value, bool) {
	switch x := x.(type) {
	case string:
		return MakeString(x), true
	case bool:
		return MakeBool(x), true
	case rune:
		return MakeInt(x), true
	case int8:
		return MakeByte(x), true
	case int16:
		return MakeShort(x), true
	case int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return MakeInt(int32(x)), true
		}
		return MakeLong(int64(x)), true
	case int64:
		return MakeLong(x), true
	case float32:
		return MakeFloat(x), true
	case float64:
		return MakeDouble(x), true
	case Value:
		return x, x.IsValid()
	}
	return Value{}, false
}
