package constant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInteger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want Value
	}{
		{"0", MakeInt(0)},
		{"42", MakeInt(42)},
		{"1_000_000", MakeInt(1000000)},
		{"0x1F", MakeInt(31)},
		{"0xFFFFFFFF", MakeInt(-1)},
		{"017", MakeInt(15)},
		{"0b101", MakeInt(5)},
		{"10L", MakeLong(10)},
		{"0x7fffffffffffffffL", MakeLong(9223372036854775807)},
		{"2147483648", MakeInt(-2147483648)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			got, err := ParseInteger(tt.text)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", Format(got))
		})
	}

	_, err := ParseInteger("2147483649")
	assert.Error(t, err)
	_, err = ParseInteger("0x1FFFFFFFF")
	assert.Error(t, err)
	_, err = ParseInteger("abc")
	assert.Error(t, err)
}

func TestParseFloating(t *testing.T) {
	t.Parallel()

	got, err := ParseFloating("1.5f")
	require.NoError(t, err)
	assert.Equal(t, Float, got.Kind())
	assert.Equal(t, 1.5, got.Float64())

	got, err = ParseFloating("2.0")
	require.NoError(t, err)
	assert.Equal(t, Double, got.Kind())

	got, err = ParseFloating("3d")
	require.NoError(t, err)
	assert.Equal(t, Double, got.Kind())
	assert.Equal(t, 3.0, got.Float64())

	got, err = ParseFloating("1e10")
	require.NoError(t, err)
	assert.Equal(t, 1e10, got.Float64())

	_, err = ParseFloating("1.2.3")
	assert.Error(t, err)
}

func TestParseString(t *testing.T) {
	t.Parallel()

	got, err := ParseString(`"a\tb\"cA"`)
	require.NoError(t, err)
	assert.Equal(t, "a\tb\"cA", got.StringVal())

	got, err = ParseString(`"😀"`)
	require.NoError(t, err)
	assert.Equal(t, "😀", got.StringVal())

	got, err = ParseString(`"\101"`)
	require.NoError(t, err)
	assert.Equal(t, "A", got.StringVal())

	got, err = ParseString("\"\"\"\nline\"\"\"")
	require.NoError(t, err)
	assert.Equal(t, "line", got.StringVal())

	_, err = ParseString(`"\q"`)
	assert.Error(t, err)
	_, err = ParseString(`abc`)
	assert.Error(t, err)
}

func TestParseChar(t *testing.T) {
	t.Parallel()

	got, err := ParseChar(`'a'`)
	require.NoError(t, err)
	assert.Equal(t, 'a', got.Interface())

	got, err = ParseChar(`'\n'`)
	require.NoError(t, err)
	assert.Equal(t, '\n', got.Interface())

	_, err = ParseChar(`'ab'`)
	assert.Error(t, err)
}
