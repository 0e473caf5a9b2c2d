package sqlast

import (
	"strings"
	"unicode"
)

// TokenKind classifies a lexed token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenQuotedIdent
	TokenNumber
	TokenString
	TokenPunct
)

// Token is one lexical unit of a SQL statement. Text preserves the token
// exactly as written, including quotes; Upper is the case-folded form used
// for keyword matching (empty for strings and punctuation).
type Token struct {
	Kind  TokenKind
	Text  string
	Upper string
	Pos   int
	End   int
}

// lex tokenizes a single SQL statement. Comments are discarded. Lexing never
// fails: unrecognized bytes become single-character punctuation tokens, and
// an unterminated string or quoted identifier is taken through end of input.
func lex(src string) []Token {
	var toks []Token
	i := 0
	n := len(src)

	for i < n {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '-' && i+1 < n && src[i+1] == '-':
			for i < n && src[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && src[i+1] == '*':
			i += 2
			for i+1 < n && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			if i+1 < n {
				i += 2
			} else {
				i = n
			}

		case c == '\'':
			start := i
			i++
			for i < n {
				if src[i] == '\'' {
					// doubled quote is an escaped quote
					if i+1 < n && src[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			toks = append(toks, Token{Kind: TokenString, Text: src[start:i], Pos: start, End: i})

		case c == '"':
			start := i
			i++
			for i < n && src[i] != '"' {
				i++
			}
			if i < n {
				i++
			}
			text := src[start:i]
			toks = append(toks, Token{Kind: TokenQuotedIdent, Text: text, Upper: strings.ToUpper(text), Pos: start, End: i})

		case c >= '0' && c <= '9':
			start := i
			for i < n && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			toks = append(toks, Token{Kind: TokenNumber, Text: src[start:i], Upper: src[start:i], Pos: start, End: i})

		case isIdentStart(rune(c)):
			start := i
			for i < n && isIdentPart(rune(src[i])) {
				i++
			}
			text := src[start:i]
			toks = append(toks, Token{Kind: TokenIdent, Text: text, Upper: strings.ToUpper(text), Pos: start, End: i})

		default:
			toks = append(toks, Token{Kind: TokenPunct, Text: string(c), Upper: string(c), Pos: i, End: i + 1})
			i++
		}
	}

	toks = append(toks, Token{Kind: TokenEOF, Pos: n, End: n})
	return toks
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || r == '#' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// StringLiteral renders text as a SQL single-quoted string, escaping
// embedded quotes by doubling them.
func StringLiteral(text string) string {
	return "'" + strings.ReplaceAll(text, "'", "''") + "'"
}

// unquoteString strips the surrounding quotes of a lexed string token and
// collapses doubled quotes.
func unquoteString(raw string) string {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		raw = raw[1 : len(raw)-1]
	}
	return strings.ReplaceAll(raw, "''", "'")
}
