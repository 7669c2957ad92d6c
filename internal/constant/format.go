package constant

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format renders v as literal source text that re-parses to the same value.
// It never fails; the Invalid value renders as "null".
func Format(v Value) string {
	switch v.kind {
	case String:
		return Quote(v.str)
	case Char:
		return QuoteChar(rune(v.i))
	case Bool:
		return strconv.FormatBool(v.i != 0)
	case Byte:
		return "(byte)" + strconv.FormatInt(v.i, 10)
	case Short:
		return "(short)" + strconv.FormatInt(v.i, 10)
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Long:
		return strconv.FormatInt(v.i, 10) + "L"
	case Float:
		return formatFloating(v.f, 32) + "f"
	case Double:
		return formatFloating(v.f, 64)
	case Enum:
		return v.str
	case Class:
		return v.str + ".class"
	}
	return "null"
}

// formatFloating writes the shortest decimal that round-trips at the given
// precision. Non-finite values are written as the division that produces them.
func formatFloating(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "0.0" + floatSep(bits) + "0.0"
	case math.IsInf(f, 1):
		return "1.0" + floatSep(bits) + "0.0"
	case math.IsInf(f, -1):
		return "-1.0" + floatSep(bits) + "0.0"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// floatSep returns the divisor separator; float divisions need the suffix on
// the numerator so the expression stays in single precision.
func floatSep(bits int) string {
	if bits == 32 {
		return "f/"
	}
	return "/"
}

// Quote returns s as a double-quoted string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		writeEscaped(&b, r, '"')
	}
	b.WriteByte('"')
	return b.String()
}

// QuoteChar returns r as a single-quoted character literal.
func QuoteChar(r rune) string {
	var b strings.Builder
	b.WriteByte('\'')
	writeEscaped(&b, r, '\'')
	b.WriteByte('\'')
	return b.String()
}

func writeEscaped(b *strings.Builder, r rune, quote rune) {
	switch r {
	case '\b':
		b.WriteString(`\b`)
	case '\t':
		b.WriteString(`\t`)
	case '\n':
		b.WriteString(`\n`)
	case '\f':
		b.WriteString(`\f`)
	case '\r':
		b.WriteString(`\r`)
	case '\\':
		b.WriteString(`\\`)
	case quote:
		b.WriteByte('\\')
		b.WriteRune(r)
	default:
		switch {
		case r < 0x20 || (r >= 0x7f && r <= 0x9f), r >= 0xd800 && r <= 0xdfff:
			fmt.Fprintf(b, `\u%04x`, r)
		case r > 0xffff:
			// Supplementary characters are written as a surrogate pair.
			r -= 0x10000
			fmt.Fprintf(b, `\u%04x\u%04x`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
		default:
			b.WriteRune(r)
		}
	}
}
