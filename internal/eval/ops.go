package eval

import (
	"math"
	"strconv"
	"strings"

	"github.com/jward/canon/internal/constant"
)

// Binary applies a binary operator with the language's promotion rules.
func Binary(op string, l, r constant.Value) (constant.Value, bool) {
	lk, rk := l.Kind(), r.Kind()

	if op == "+" && (lk == constant.String || rk == constant.String) {
		ls, ok1 := stringOf(l)
		rs, ok2 := stringOf(r)
		if !ok1 || !ok2 {
			return constant.Value{}, false
		}
		return constant.MakeString(ls + rs), true
	}

	if lk == constant.Bool && rk == constant.Bool {
		a, b := l.BoolVal(), r.BoolVal()
		switch op {
		case "&&", "&":
			return constant.MakeBool(a && b), true
		case "||", "|":
			return constant.MakeBool(a || b), true
		case "^", "!=":
			return constant.MakeBool(a != b), true
		case "==":
			return constant.MakeBool(a == b), true
		}
		return constant.Value{}, false
	}

	if !lk.IsNumeric() || !rk.IsNumeric() {
		return constant.Value{}, false
	}

	switch op {
	case "<<", ">>", ">>>":
		return shift(op, l, r)
	}

	kind := promote(lk, rk)
	switch kind {
	case constant.Float, constant.Double:
		return floating(op, kind, l.Float64(), r.Float64())
	default:
		return integral(op, kind, l.Int64(), r.Int64())
	}
}

func floating(op string, kind constant.Kind, a, b float64) (constant.Value, bool) {
	var res float64
	switch op {
	case "+":
		res = a + b
	case "-":
		res = a - b
	case "*":
		res = a * b
	case "/":
		res = a / b
	case "%":
		res = math.Mod(a, b)
	case "==":
		return constant.MakeBool(a == b), true
	case "!=":
		return constant.MakeBool(a != b), true
	case "<":
		return constant.MakeBool(a < b), true
	case "<=":
		return constant.MakeBool(a <= b), true
	case ">":
		return constant.MakeBool(a > b), true
	case ">=":
		return constant.MakeBool(a >= b), true
	default:
		return constant.Value{}, false
	}
	return makeFloating(kind, res), true
}

func integral(op string, kind constant.Kind, a, b int64) (constant.Value, bool) {
	if kind == constant.Int {
		a, b = int64(int32(a)), int64(int32(b))
	}
	var res int64
	switch op {
	case "+":
		res = a + b
	case "-":
		res = a - b
	case "*":
		res = a * b
	case "/":
		if b == 0 {
			return constant.Value{}, false
		}
		if b == -1 {
			res = -a
		} else {
			res = a / b
		}
	case "%":
		if b == 0 {
			return constant.Value{}, false
		}
		if b == -1 {
			res = 0
		} else {
			res = a % b
		}
	case "&":
		res = a & b
	case "|":
		res = a | b
	case "^":
		res = a ^ b
	case "==":
		return constant.MakeBool(a == b), true
	case "!=":
		return constant.MakeBool(a != b), true
	case "<":
		return constant.MakeBool(a < b), true
	case "<=":
		return constant.MakeBool(a <= b), true
	case ">":
		return constant.MakeBool(a > b), true
	case ">=":
		return constant.MakeBool(a >= b), true
	default:
		return constant.Value{}, false
	}
	return makeIntegral(kind, res), true
}

// shift applies a shift operator. The result takes the promoted type of
// the left operand alone and the distance is masked to its width.
func shift(op string, l, r constant.Value) (constant.Value, bool) {
	if !l.Kind().IsIntegral() || !r.Kind().IsIntegral() {
		return constant.Value{}, false
	}
	n := uint(r.Int64())
	if l.Kind() == constant.Long {
		a := l.Int64()
		n &= 63
		switch op {
		case "<<":
			return constant.MakeLong(a << n), true
		case ">>":
			return constant.MakeLong(a >> n), true
		default:
			return constant.MakeLong(int64(uint64(a) >> n)), true
		}
	}
	a := int32(l.Int64())
	n &= 31
	switch op {
	case "<<":
		return constant.MakeInt(a << n), true
	case ">>":
		return constant.MakeInt(a >> n), true
	default:
		return constant.MakeInt(int32(uint32(a) >> n)), true
	}
}

// Unary applies a prefix operator.
func Unary(op string, v constant.Value) (constant.Value, bool) {
	k := v.Kind()
	switch op {
	case "!":
		if k != constant.Bool {
			return constant.Value{}, false
		}
		return constant.MakeBool(!v.BoolVal()), true
	case "+", "-", "~":
		if !k.IsNumeric() {
			return constant.Value{}, false
		}
	default:
		return constant.Value{}, false
	}

	kind := promote(k, constant.Int)
	switch kind {
	case constant.Float, constant.Double:
		if op == "~" {
			return constant.Value{}, false
		}
		f := v.Float64()
		if op == "-" {
			f = -f
		}
		return makeFloating(kind, f), true
	}
	i := v.Int64()
	switch op {
	case "-":
		i = -i
	case "~":
		i = ^i
	}
	return makeIntegral(kind, i), true
}

// Cast converts v to the named primitive type or String.
func Cast(typ string, v constant.Value) (constant.Value, bool) {
	typ = strings.TrimSpace(typ)
	target := primitiveKind(typ)
	if target == constant.Invalid {
		return constant.Value{}, false
	}
	if target == constant.String || target == constant.Bool {
		if v.Kind() != target {
			return constant.Value{}, false
		}
		return v, true
	}
	if !v.Kind().IsNumeric() {
		return constant.Value{}, false
	}
	return narrow(v, target), true
}

// Convert applies assignment conversion of v to a field of kind target.
// Integral constants narrow to byte, short and char when they fit, as the
// language allows for constant expressions.
func Convert(v constant.Value, target constant.Kind) (constant.Value, bool) {
	k := v.Kind()
	if k == target {
		return v, true
	}
	switch target {
	case constant.String, constant.Bool:
		return constant.Value{}, false
	case constant.Byte, constant.Short, constant.Char:
		if k != constant.Int && k != constant.Short && k != constant.Byte && k != constant.Char {
			return constant.Value{}, false
		}
		n := narrow(v, target)
		if n.Int64() != v.Int64() {
			return constant.Value{}, false
		}
		return n, true
	}
	if !k.IsNumeric() || !widens(k, target) {
		return constant.Value{}, false
	}
	return narrow(v, target), true
}

// widens reports whether from converts to the numeric kind to without a
// cast.
func widens(from, to constant.Kind) bool {
	rank := func(k constant.Kind) int {
		switch k {
		case constant.Byte:
			return 1
		case constant.Short, constant.Char:
			return 2
		case constant.Int:
			return 3
		case constant.Long:
			return 4
		case constant.Float:
			return 5
		case constant.Double:
			return 6
		}
		return 0
	}
	return rank(from) <= rank(to)
}

// narrow performs a primitive conversion of a numeric value.
func narrow(v constant.Value, target constant.Kind) constant.Value {
	floatingSrc := v.Kind() == constant.Float || v.Kind() == constant.Double
	switch target {
	case constant.Float, constant.Double:
		return makeFloating(target, v.Float64())
	}
	var i int64
	if floatingSrc {
		i = floatToInt(v.Float64(), target)
	} else {
		i = v.Int64()
	}
	return makeIntegral(target, i)
}

// floatToInt converts with saturation, NaN becoming zero. Narrower targets
// first convert to int.
func floatToInt(f float64, target constant.Kind) int64 {
	if math.IsNaN(f) {
		return 0
	}
	if target == constant.Long {
		if f >= math.MaxInt64 {
			return math.MaxInt64
		}
		if f <= math.MinInt64 {
			return math.MinInt64
		}
		return int64(f)
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f <= math.MinInt32 {
		return math.MinInt32
	}
	return int64(f)
}

// promote returns the binary numeric promotion of a and b.
func promote(a, b constant.Kind) constant.Kind {
	switch {
	case a == constant.Double || b == constant.Double:
		return constant.Double
	case a == constant.Float || b == constant.Float:
		return constant.Float
	case a == constant.Long || b == constant.Long:
		return constant.Long
	}
	return constant.Int
}

func makeIntegral(kind constant.Kind, i int64) constant.Value {
	switch kind {
	case constant.Byte:
		return constant.MakeByte(int8(i))
	case constant.Short:
		return constant.MakeShort(int16(i))
	case constant.Char:
		return constant.MakeChar(rune(uint16(i)))
	case constant.Long:
		return constant.MakeLong(i)
	}
	return constant.MakeInt(int32(i))
}

func makeFloating(kind constant.Kind, f float64) constant.Value {
	if kind == constant.Float {
		return constant.MakeFloat(float32(f))
	}
	return constant.MakeDouble(f)
}

// stringOf converts v the way string concatenation does.
func stringOf(v constant.Value) (string, bool) {
	switch v.Kind() {
	case constant.String:
		return v.StringVal(), true
	case constant.Char:
		return string(rune(v.Int64())), true
	case constant.Bool:
		return strconv.FormatBool(v.BoolVal()), true
	case constant.Byte, constant.Short, constant.Int, constant.Long:
		return strconv.FormatInt(v.Int64(), 10), true
	case constant.Float:
		return floatString(v.Float64(), 32), true
	case constant.Double:
		return floatString(v.Float64(), 64), true
	}
	return "", false
}

// floatString formats f as the platform's Float/Double toString does:
// plain decimal for magnitudes in [1e-3, 1e7), otherwise computerized
// scientific notation such as 1.0E10.
func floatString(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(f)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, bits)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(f, 'E', -1, bits)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	exp = strings.TrimPrefix(exp, "+")
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(strings.TrimPrefix(exp, "-"), "0")
	if exp == "" {
		exp = "0"
	}
	if neg {
		exp = "-" + exp
	}
	return mant + "E" + exp
}
