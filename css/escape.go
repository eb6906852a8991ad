package css

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// escapeIdent escapes name so it could be used as CSS identifier (or hash
// token after "#"), i.e. "blk::foo" becomes "blk\:\:foo".
func escapeIdent(name string) string {
	var sb strings.Builder
	sb.Grow(len(name) + 8)
	for i, r := range name {
		switch {
		case r == 0:
			sb.WriteString("�")
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, "\\%x ", r)
		case i == 0 && r >= '0' && r <= '9':
			fmt.Fprintf(&sb, "\\%x ", r)
		case i == 1 && r >= '0' && r <= '9' && name[0] == '-':
			fmt.Fprintf(&sb, "\\%x ", r)
		case i == 0 && r == '-' && len(name) == 1:
			sb.WriteString(`\-`)
		case r >= 0x80, r == '-', r == '_',
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// unescapeIdent resolves CSS escape sequences in identifier or string
// content.
func unescapeIdent(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(s) {
			sb.WriteString("�")
			break
		}
		// hex escape: up to 6 hex digits, optionally followed by a single white space
		j := i
		for j < len(s) && j-i < 6 && isHex(s[j]) {
			j++
		}
		if j > i {
			v, _ := strconv.ParseUint(s[i:j], 16, 32)
			r := rune(v)
			if r == 0 || r > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
				r = utf8.RuneError
			}
			sb.WriteRune(r)
			if j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
				j++
			}
			i = j
			continue
		}
		if s[i] == '\n' {
			// escaped new line is a line continuation inside strings
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		sb.WriteRune(r)
		i += size
	}
	return sb.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// escapeString escapes s for use inside CSS string quoted with q.
func escapeString(s string, q byte) string {
	if !strings.ContainsAny(s, "\\\n\r\f"+string(q)) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for _, r := range s {
		switch {
		case r == '\\', r == rune(q):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n', r == '\r', r == '\f':
			fmt.Fprintf(&sb, "\\%x ", r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// urlValue extracts target of URL token: url(x), url("x") or url('x').
// Quote character used (or 0) is returned as well.
func urlValue(data string) (string, byte) {
	open := strings.IndexByte(data, '(')
	if open < 0 {
		return "", 0
	}
	inner := strings.TrimSuffix(data[open+1:], ")")
	inner = strings.Trim(inner, " \t\n\r\f")
	if n := len(inner); n >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[n-1] == inner[0] {
		return unescapeIdent(inner[1 : n-1]), inner[0]
	}
	return unescapeIdent(inner), 0
}

// urlToken formats URL token keeping original quoting when possible.
func urlToken(value string, q byte) string {
	if q == 0 {
		if !strings.ContainsAny(value, " \t\n\r\f\"'()\\") {
			return "url(" + value + ")"
		}
		q = '"'
	}
	return "url(" + string(q) + escapeString(value, q) + string(q) + ")"
}
