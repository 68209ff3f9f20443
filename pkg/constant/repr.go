package constant

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

func (noneValue) Repr() string     { return "None" }
func (ellipsisValue) Repr() string { return "Ellipsis" }

func (b Bool) Repr() string {
	if b {
		return "True"
	}
	return "False"
}

func (i Int) Repr() string  { return strconv.FormatInt(int64(i), 10) }
func (l Long) Repr() string { return l.Big().String() + "L" }

func (f Float) Repr() string { return formatFloat(float64(f), true) }

func (c Complex) Repr() string {
	re, im := real(c), imag(c)
	if re == 0 && !math.Signbit(re) {
		return formatFloat(im, false) + "j"
	}
	sign := "+"
	if math.Signbit(im) && !math.IsNaN(im) {
		sign = ""
	}
	return "(" + formatFloat(re, false) + sign + formatFloat(im, false) + "j)"
}

func (s Str) Repr() string     { return quote(string(s), false) }
func (u Unicode) Repr() string { return "u" + quote(string(u), true) }

func (t Tuple) Repr() string {
	if len(t) == 1 {
		return "(" + t[0].Repr() + ",)"
	}
	return "(" + joinReprs(t) + ")"
}

func (l List) Repr() string { return "[" + joinReprs(l) + "]" }

func (d Dict) Repr() string {
	items := make([]string, len(d))
	for i, it := range d {
		items[i] = it.Key.Repr() + ": " + it.Value.Repr()
	}
	sort.Strings(items)
	return "{" + strings.Join(items, ", ") + "}"
}

func (s Set) Repr() string       { return "set([" + sortedReprs(s) + "])" }
func (s FrozenSet) Repr() string { return "frozenset([" + sortedReprs(s) + "])" }

func joinReprs(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Repr()
	}
	return strings.Join(parts, ", ")
}

// sortedReprs makes unordered collections print the same regardless of the
// order their elements were listed in.
func sortedReprs(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Repr()
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// formatFloat renders the shortest round-tripping form. Positional notation
// is used for decimal exponents in [-4, 16), scientific otherwise.
func formatFloat(f float64, forceDot bool) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if forceDot && !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func quote(s string, unicode bool) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var sb strings.Builder
	sb.WriteByte(q)
	if unicode {
		for _, r := range s {
			writeEscaped(&sb, r, q)
		}
	} else {
		for i := 0; i < len(s); i++ {
			writeEscaped(&sb, rune(s[i]), q)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}

func writeEscaped(sb *strings.Builder, r rune, q byte) {
	switch {
	case r == '\\' || r == rune(q):
		sb.WriteByte('\\')
		sb.WriteRune(r)
	case r == '\n':
		sb.WriteString(`\n`)
	case r == '\r':
		sb.WriteString(`\r`)
	case r == '\t':
		sb.WriteString(`\t`)
	case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0x100):
		sb.WriteString(`\x`)
		sb.WriteString(hex2(int(r)))
	case r >= 0x100 && r < 0x10000:
		sb.WriteString(`\u`)
		sb.WriteString(hex2(int(r>>8)) + hex2(int(r&0xff)))
	case r >= 0x10000:
		sb.WriteString(`\U`)
		sb.WriteString(hex2(int(r>>24)) + hex2(int(r>>16&0xff)) + hex2(int(r>>8&0xff)) + hex2(int(r&0xff)))
	default:
		sb.WriteRune(r)
	}
}

func hex2(b int) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4&0xf], digits[b&0xf]})
}
