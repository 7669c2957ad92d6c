package constant

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ParseInteger parses an integer literal in decimal, hex (0x), octal (0)
// or binary (0b) form, with optional underscores and an optional l/L suffix.
// Unsuffixed literals are int; hex, octal and binary int literals may use the
// full 32-bit unsigned range, as the language allows.
func ParseInteger(text string) (Value, error) {
	s := strings.ReplaceAll(text, "_", "")
	long := false
	if strings.HasSuffix(s, "l") || strings.HasSuffix(s, "L") {
		long = true
		s = s[:len(s)-1]
	}

	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}

	bits := 32
	if long {
		bits = 64
	}
	u, err := strconv.ParseUint(s, base, bits)
	if err != nil {
		return Value{}, fmt.Errorf("constant: integer literal %q: %w", text, err)
	}
	if base == 10 {
		// Decimal literals may only reach the magnitude of the minimum value
		// when negated; the caller applies the sign.
		limit := uint64(math.MaxInt32) + 1
		if long {
			limit = uint64(math.MaxInt64) + 1
		}
		if u > limit {
			return Value{}, fmt.Errorf("constant: integer literal %q out of range", text)
		}
	}
	if long {
		return MakeLong(int64(u)), nil
	}
	return MakeInt(int32(uint32(u))), nil
}

// ParseFloating parses a floating point literal with an optional f/F/d/D
// suffix. Unsuffixed literals are double.
func ParseFloating(text string) (Value, error) {
	s := strings.ReplaceAll(text, "_", "")
	single := false
	switch {
	case strings.HasSuffix(s, "f") || strings.HasSuffix(s, "F"):
		if !isHexFloat(s) || strings.ContainsAny(s, "pP") {
			single = true
			s = s[:len(s)-1]
		}
	case strings.HasSuffix(s, "d") || strings.HasSuffix(s, "D"):
		if !isHexFloat(s) || strings.ContainsAny(s, "pP") {
			s = s[:len(s)-1]
		}
	}
	bits := 64
	if single {
		bits = 32
	}
	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return Value{}, fmt.Errorf("constant: floating literal %q: %w", text, err)
	}
	if single {
		return MakeFloat(float32(f)), nil
	}
	return MakeDouble(f), nil
}

func isHexFloat(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

// ParseString parses a double-quoted string literal, including text blocks
// delimited by triple quotes.
func ParseString(text string) (Value, error) {
	if strings.HasPrefix(text, `"""`) && strings.HasSuffix(text, `"""`) && len(text) >= 6 {
		body := strings.TrimPrefix(text[3:len(text)-3], "\n")
		s, err := unescape(body)
		if err != nil {
			return Value{}, fmt.Errorf("constant: text block: %w", err)
		}
		return MakeString(s), nil
	}
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return Value{}, fmt.Errorf("constant: string literal %q is not quoted", text)
	}
	s, err := unescape(text[1 : len(text)-1])
	if err != nil {
		return Value{}, fmt.Errorf("constant: string literal %q: %w", text, err)
	}
	return MakeString(s), nil
}

// ParseChar parses a single-quoted character literal.
func ParseChar(text string) (Value, error) {
	if len(text) < 3 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return Value{}, fmt.Errorf("constant: char literal %q is not quoted", text)
	}
	units, err := unescapeUnits(text[1 : len(text)-1])
	if err != nil {
		return Value{}, fmt.Errorf("constant: char literal %q: %w", text, err)
	}
	if len(units) != 1 {
		return Value{}, fmt.Errorf("constant: char literal %q must hold one character", text)
	}
	return MakeChar(rune(units[0])), nil
}

// unescape decodes escape sequences, joining surrogate pairs written as two
// unicode escapes.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	units, err := unescapeUnits(s)
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// unescapeUnits decodes escape sequences into UTF-16 code units. Unpaired
// surrogates are kept as written.
func unescapeUnits(s string) ([]uint16, error) {
	var units []uint16
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r != '\\' {
			units = append(units, utf16.Encode([]rune{r})...)
			continue
		}
		i++
		if i >= len(rs) {
			return nil, fmt.Errorf("trailing backslash")
		}
		switch rs[i] {
		case 'b':
			units = append(units, '\b')
		case 't':
			units = append(units, '\t')
		case 'n':
			units = append(units, '\n')
		case 'f':
			units = append(units, '\f')
		case 'r':
			units = append(units, '\r')
		case 's':
			units = append(units, ' ')
		case '"', '\'', '\\':
			units = append(units, uint16(rs[i]))
		case 'u':
			for i < len(rs) && rs[i] == 'u' {
				i++
			}
			if i+4 > len(rs) {
				return nil, fmt.Errorf("short unicode escape")
			}
			n, err := strconv.ParseUint(string(rs[i:i+4]), 16, 16)
			if err != nil {
				return nil, fmt.Errorf("unicode escape: %w", err)
			}
			units = append(units, uint16(n))
			i += 3
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(rs) && j < i+3 && rs[j] >= '0' && rs[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(string(rs[i:j]), 8, 16)
			if n > 0377 {
				j--
				n, _ = strconv.ParseUint(string(rs[i:j]), 8, 16)
			}
			units = append(units, uint16(n))
			i = j - 1
		default:
			return nil, fmt.Errorf("unknown escape \\%c", rs[i])
		}
	}
	return units, nil
}
