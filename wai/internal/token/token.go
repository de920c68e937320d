package token

import (
	"fmt"
	"strings"
	"unicode"
)

type Type int

const (
	Ident Type = iota
	Explicit
	Doc
	InnerDoc
	LParen
	RParen
	LBrace
	RBrace
	LAngle
	RAngle
	Comma
	Colon
	Semicolon
	Equals
	Star
	Arrow
)

func (t Type) String() string {
	switch t {
	case Ident:
		return "identifier"
	case Explicit:
		return "%identifier"
	case Doc:
		return "doc comment"
	case InnerDoc:
		return "inner doc comment"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LAngle:
		return "'<'"
	case RAngle:
		return "'>'"
	case Comma:
		return "','"
	case Colon:
		return "':'"
	case Semicolon:
		return "';'"
	case Equals:
		return "'='"
	case Star:
		return "'*'"
	case Arrow:
		return "'->'"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
}

// IsName reports whether the token can name a declaration.
func (t Token) IsName() bool {
	return t.Type == Ident || t.Type == Explicit
}

var punct = map[rune]Type{
	'(': LParen,
	')': RParen,
	'{': LBrace,
	'}': RBrace,
	'<': LAngle,
	'>': RAngle,
	',': Comma,
	':': Colon,
	';': Semicolon,
	'=': Equals,
	'*': Star,
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	line := 1
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		// Line, doc and inner doc comments
		if r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			start := i
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			text := string(runes[start:i])
			switch {
			case strings.HasPrefix(text, "////"):
			case strings.HasPrefix(text, "///"):
				tokens = append(tokens, Token{docText(text[3:]), Doc, line})
			case strings.HasPrefix(text, "//!"):
				tokens = append(tokens, Token{docText(text[3:]), InnerDoc, line})
			}
			line++
			continue
		}

		// Block comments nest
		if r == '/' && i+1 < len(runes) && runes[i+1] == '*' {
			startLine := line
			depth := 1
			i += 2
			for i < len(runes) && depth > 0 {
				switch {
				case runes[i] == '/' && i+1 < len(runes) && runes[i+1] == '*':
					depth++
					i++
				case runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/':
					depth--
					i++
				case runes[i] == '\n':
					line++
				}
				i++
			}
			if depth > 0 {
				return nil, fmt.Errorf("line %d: unterminated block comment", startLine)
			}
			i--
			continue
		}

		if r == '-' && i+1 < len(runes) && runes[i+1] == '>' {
			tokens = append(tokens, Token{"->", Arrow, line})
			i++
			continue
		}

		if typ, ok := punct[r]; ok {
			tokens = append(tokens, Token{string(r), typ, line})
			continue
		}

		// %-escaped identifier, may shadow a keyword
		if r == '%' {
			start := i + 1
			i++
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			if i == start {
				return nil, fmt.Errorf("line %d: expected identifier after '%%'", line)
			}
			tokens = append(tokens, Token{string(runes[start:i]), Explicit, line})
			i--
			continue
		}

		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			tokens = append(tokens, Token{string(runes[start:i]), Ident, line})
			i--
			continue
		}

		return nil, fmt.Errorf("line %d: unexpected character %q", line, r)
	}

	return tokens, nil
}

func docText(s string) string {
	return strings.TrimPrefix(s, " ")
}
