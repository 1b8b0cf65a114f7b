package condition

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota // 42, 0.8, -3.14
	tokString                  // "hello"
	tokIdent                   // identifier or keyword (and, or, not, true, false)
	tokOp                      // ==, !=, >, <, >=, <=
	tokDot                     // .
	tokLParen                  // (
	tokRParen                  // )
)

type token struct {
	kind  tokenKind
	value string
	pos   int
}

// lex tokenizes an expression, rejecting unknown characters and
// unterminated strings immediately.
func lex(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	i := 0

	for i < len(runes) {
		ch := runes[i]

		if unicode.IsSpace(ch) {
			i++
			continue
		}

		switch ch {
		case '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
			continue
		case ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
			continue
		case '.':
			tokens = append(tokens, token{tokDot, ".", i})
			i++
			continue
		case '"':
			s, n, err := readString(runes, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tokString, s, i})
			i = n
			continue
		}

		if i+1 < len(runes) {
			two := string(runes[i : i+2])
			switch two {
			case "==", "!=", ">=", "<=":
				tokens = append(tokens, token{tokOp, two, i})
				i += 2
				continue
			}
		}

		if ch == '>' || ch == '<' {
			tokens = append(tokens, token{tokOp, string(ch), i})
			i++
			continue
		}

		if isDigit(ch) || (ch == '-' && i+1 < len(runes) && isDigit(runes[i+1]) && numberMayFollow(tokens)) {
			num, n := readNumber(runes, i)
			tokens = append(tokens, token{tokNumber, num, i})
			i = n
			continue
		}

		if isIdentStart(ch) {
			ident, n := readIdent(runes, i)
			tokens = append(tokens, token{tokIdent, ident, i})
			i = n
			continue
		}

		return nil, &SyntaxError{Pos: i, Msg: "unexpected character " + string(ch)}
	}

	return tokens, nil
}

func readString(runes []rune, start int) (string, int, error) {
	i := start + 1 // skip opening quote
	var sb strings.Builder
	for i < len(runes) {
		if runes[i] == '\\' && i+1 < len(runes) {
			sb.WriteRune(runes[i+1])
			i += 2
			continue
		}
		if runes[i] == '"' {
			return sb.String(), i + 1, nil
		}
		sb.WriteRune(runes[i])
		i++
	}
	return "", 0, &SyntaxError{Pos: start, Msg: "unterminated string"}
}

func readNumber(runes []rune, start int) (string, int) {
	i := start
	if i < len(runes) && runes[i] == '-' {
		i++
	}
	for i < len(runes) && isDigit(runes[i]) {
		i++
	}
	if i < len(runes) && runes[i] == '.' && i+1 < len(runes) && isDigit(runes[i+1]) {
		i++
		for i < len(runes) && isDigit(runes[i]) {
			i++
		}
	}
	return string(runes[start:i]), i
}

func readIdent(runes []rune, start int) (string, int) {
	i := start
	for i < len(runes) && isIdentPart(runes[i]) {
		i++
	}
	return string(runes[start:i]), i
}

func isDigit(ch rune) bool      { return ch >= '0' && ch <= '9' }
func isIdentStart(ch rune) bool { return unicode.IsLetter(ch) || ch == '_' }
func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// numberMayFollow reports whether a '-' should be read as a negative
// number prefix. This is the case at the start of the expression or after
// an operator or opening parenthesis.
func numberMayFollow(preceding []token) bool {
	if len(preceding) == 0 {
		return true
	}
	last := preceding[len(preceding)-1]
	return last.kind == tokOp || last.kind == tokLParen
}
