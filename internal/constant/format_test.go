package constant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"string", MakeString("hello"), `"hello"`},
		{"string escapes", MakeString("a\"b\\c\n\t"), `"a\"b\\c\n\t"`},
		{"string control", MakeString("\x01"), `"\u0001"`},
		{"string unicode kept", MakeString("héllo"), `"héllo"`},
		{"empty string", MakeString(""), `""`},
		{"char", MakeChar('x'), `'x'`},
		{"char quote", MakeChar('\''), `'\''`},
		{"char double quote unescaped", MakeChar('"'), `'"'`},
		{"char lone surrogate", MakeChar(0xd800), `'\ud800'`},
		{"true", MakeBool(true), "true"},
		{"false", MakeBool(false), "false"},
		{"int", MakeInt(42), "42"},
		{"negative int", MakeInt(-7), "-7"},
		{"int min", MakeInt(math.MinInt32), "-2147483648"},
		{"long", MakeLong(42), "42L"},
		{"long max", MakeLong(math.MaxInt64), "9223372036854775807L"},
		{"short", MakeShort(3), "(short)3"},
		{"byte", MakeByte(-1), "(byte)-1"},
		{"double whole", MakeDouble(1), "1.0"},
		{"double fraction", MakeDouble(0.1), "0.1"},
		{"double exponent", MakeDouble(1e300), "1e+300"},
		{"double nan", MakeDouble(math.NaN()), "0.0/0.0"},
		{"double +inf", MakeDouble(math.Inf(1)), "1.0/0.0"},
		{"double -inf", MakeDouble(math.Inf(-1)), "-1.0/0.0"},
		{"float", MakeFloat(1.5), "1.5f"},
		{"float whole", MakeFloat(3), "3.0f"},
		{"float shortest", MakeFloat(0.1), "0.1f"},
		{"float nan", MakeFloat(float32(math.NaN())), "0.0f/0.0"},
		{"enum", MakeEnum("java.lang.annotation.RetentionPolicy.SOURCE"), "java.lang.annotation.RetentionPolicy.SOURCE"},
		{"class", MakeClass("java.lang.String"), "java.lang.String.class"},
		{"invalid", Value{}, "null"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Format(tt.v))
		})
	}
}

// Formatted literals must parse back to the same value.
func TestFormat_RoundTrip(t *testing.T) {
	t.Parallel()

	values := []Value{
		MakeInt(0), MakeInt(math.MaxInt32), MakeLong(1 << 40),
		MakeDouble(0.30000000000000004), MakeDouble(123456789.125),
		MakeFloat(3.4028235e38), MakeFloat(1e-45),
		MakeString("tab\there \"quoted\" \\ back"), MakeChar('\n'),
		MakeChar(0xd800), MakeChar(0xdfff),
	}
	for _, v := range values {
		text := Format(v)
		var got Value
		var err error
		switch v.Kind() {
		case Int, Long:
			got, err = ParseInteger(text)
		case Float, Double:
			got, err = ParseFloating(text)
		case String:
			got, err = ParseString(text)
		case Char:
			got, err = ParseChar(text)
		}
		require.NoError(t, err, "parse %s", text)
		assert.True(t, v.Equal(got), "round trip of %s gave %s", text, Format(got))
	}
}

func TestValue_Interface(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "s", MakeString("s").Interface())
	assert.Equal(t, int32(5), MakeInt(5).Interface())
	assert.Equal(t, int64(5), MakeLong(5).Interface())
	assert.Equal(t, true, MakeBool(true).Interface())
	assert.Equal(t, 'c', MakeChar('c').Interface())
	assert.Equal(t, float32(2.5), MakeFloat(2.5).Interface())
	assert.Nil(t, Value{}.Interface())
}

func TestFromGo(t *testing.T) {
	t.Parallel()

	v, ok := FromGo(7)
	require.True(t, ok)
	assert.Equal(t, Int, v.Kind())

	v, ok = FromGo(int(1) << 40)
	require.True(t, ok)
	assert.Equal(t, Long, v.Kind())

	_, ok = FromGo([]int{1})
	assert.False(t, ok)
}
