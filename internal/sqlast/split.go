package sqlast

import "strings"

// SplitStatements breaks a script into individual statement texts on
// semicolons, ignoring semicolons inside string literals, quoted
// identifiers, dollar-quoted bodies, and comments. A UTF-8 BOM is dropped
// and line endings are normalized first. Trailing semicolons are not
// included in the returned texts; blank statements are skipped.
func SplitStatements(src string) []string {
	src = strings.TrimPrefix(src, "\uFEFF")
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")

	var stmts []string
	start := 0
	i := 0
	n := len(src)

	flush := func(end int) {
		text := strings.TrimSpace(src[start:end])
		if text != "" {
			stmts = append(stmts, text)
		}
	}

	for i < n {
		switch c := src[i]; {
		case c == '\'':
			i++
			for i < n {
				if src[i] == '\'' {
					if i+1 < n && src[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case c == '"':
			i++
			for i < n && src[i] != '"' {
				i++
			}
			if i < n {
				i++
			}
		case c == '$' && i+1 < n && src[i+1] == '$':
			end := strings.Index(src[i+2:], "$$")
			if end < 0 {
				i = n
			} else {
				i += 2 + end + 2
			}
		case c == '-' && i+1 < n && src[i+1] == '-':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = n
			} else {
				i += 2 + end + 2
			}
		case c == ';':
			flush(i)
			i++
			start = i
		default:
			i++
		}
	}
	flush(n)

	return stmts
}

// StripComments removes line and block comments, preserving string literal
// contents. Used when matching statements against skip patterns so comment
// text cannot trigger a skip.
func StripComments(src string) string {
	var b strings.Builder
	i := 0
	n := len(src)

	for i < n {
		switch c := src[i]; {
		case c == '\'':
			j := i + 1
			for j < n {
				if src[j] == '\'' {
					if j+1 < n && src[j+1] == '\'' {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			b.WriteString(src[i:j])
			i = j
		case c == '-' && i+1 < n && src[i+1] == '-':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				i = n
			} else {
				i += 2 + end + 2
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
