package toon

import "strings"

// ============================================================
// Field Quoting Dialect
// ============================================================
//
// Character values travel in a CSV-like dialect:
//
//	needs quoting:   contains ',' or '"' or LF or CR, or is empty
//	escape order:    \ → \\  then  " → \"  then  LF → \n  then CR → \r
//
// The escape order matters: backslashes are doubled first so the
// sequences inserted by the later passes are never re-escaped.
// Unescaping is a single left-to-right scan, which resolves \\ before
// looking at what follows it — the inverse of the encode order — so a
// value that legitimately contained the two characters '\' 'n' comes
// back intact.

// EscapeField renders a character value as one field token. Values
// with no special characters are emitted unquoted with trailing
// whitespace trimmed; everything else is quote-wrapped and escaped.
// The empty string is quoted ("") so it stays distinguishable from a
// missing numeric value, which is an empty unquoted field.
func EscapeField(s string) string {
	if !needsQuoting(s) {
		return strings.TrimRight(s, " \t")
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsAny(s, ",\"\n\r")
}

// UnescapeField inverts EscapeField. A token whose first and last
// characters are both '"' has exactly one quote layer stripped and
// its escape sequences resolved; any other token passes through
// unchanged, since escaping only ever happens inside quotes.
func UnescapeField(token string) (string, error) {
	if len(token) < 2 || token[0] != '"' || token[len(token)-1] != '"' {
		if strings.HasPrefix(token, `"`) {
			return "", decodeErrf(ErrUnescape, 0, "field %q has no closing quote", token)
		}
		return token, nil
	}
	return unescape(token[1 : len(token)-1])
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", decodeErrf(ErrUnescape, 0, "dangling backslash at end of field")
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", decodeErrf(ErrUnescape, 0, "unknown escape sequence \\%c", s[i])
		}
	}
	return b.String(), nil
}
