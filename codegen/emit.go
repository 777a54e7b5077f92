package codegen

import (
	"strings"
	"unicode"
)

// slug converts a test name into a safe file name fragment.
func slug(name, sep string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSep = false
		case !lastSep:
			b.WriteString(sep)
			lastSep = true
		}
	}
	return strings.TrimSuffix(b.String(), sep)
}

// quoteSingle renders s as a single-quoted JavaScript string literal.
func quoteSingle(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// quoteDouble renders s as a double-quoted Python string literal.
func quoteDouble(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// scrollTarget parses a scroll step value of the form "x,y".
func scrollTarget(value string) (int, int) {
	var x, y int
	parts := strings.SplitN(value, ",", 2)
	if len(parts) == 2 {
		x = atoi(strings.TrimSpace(parts[0]))
		y = atoi(strings.TrimSpace(parts[1]))
	}
	return x, y
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
