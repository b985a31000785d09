package expr

import (
	"strings"

	"go.trai.ch/zerr"

	"github.com/planoci/plano/internal/core/domain"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenNumber
	tokenTrue
	tokenFalse
	tokenEq     // ==
	tokenNotEq  // !=
	tokenNot    // ! or not
	tokenAnd    // && or and
	tokenOr     // || or or
	tokenLParen // (
	tokenRParen // )
	tokenDot    // .
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lex splits an expression into tokens. Keywords (and, or, not, true, false)
// are lowercase; identifiers may contain letters, digits, underscores.
func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case c == '.':
			tokens = append(tokens, token{tokenDot, ".", i})
			i++

		case c == '=':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{tokenEq, "==", i})
				i += 2
			} else {
				return nil, syntaxErr(input, i, "expected '=='")
			}
		case c == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{tokenNotEq, "!=", i})
				i += 2
			} else {
				tokens = append(tokens, token{tokenNot, "!", i})
				i++
			}
		case c == '&':
			if i+1 < len(input) && input[i+1] == '&' {
				tokens = append(tokens, token{tokenAnd, "&&", i})
				i += 2
			} else {
				return nil, syntaxErr(input, i, "expected '&&'")
			}
		case c == '|':
			if i+1 < len(input) && input[i+1] == '|' {
				tokens = append(tokens, token{tokenOr, "||", i})
				i += 2
			} else {
				return nil, syntaxErr(input, i, "expected '||'")
			}

		case c == '\'':
			text, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tokenString, text, i})
			i = next

		case c >= '0' && c <= '9':
			start := i
			for i < len(input) && (input[i] >= '0' && input[i] <= '9' || input[i] == '.') {
				i++
			}
			tokens = append(tokens, token{tokenNumber, input[start:i], start})

		case isIdentStart(c):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			word := input[start:i]
			switch word {
			case "and":
				tokens = append(tokens, token{tokenAnd, word, start})
			case "or":
				tokens = append(tokens, token{tokenOr, word, start})
			case "not":
				tokens = append(tokens, token{tokenNot, word, start})
			case "true":
				tokens = append(tokens, token{tokenTrue, word, start})
			case "false":
				tokens = append(tokens, token{tokenFalse, word, start})
			default:
				tokens = append(tokens, token{tokenIdent, word, start})
			}

		default:
			return nil, syntaxErr(input, i, "unexpected character "+string(c))
		}
	}
	tokens = append(tokens, token{tokenEOF, "", len(input)})
	return tokens, nil
}

// lexString scans a single-quoted string starting at input[start]. A doubled
// quote (”) inside the string denotes a literal quote.
func lexString(input string, start int) (string, int, error) {
	var b strings.Builder
	i := start + 1
	for i < len(input) {
		if input[i] == '\'' {
			if i+1 < len(input) && input[i+1] == '\'' {
				b.WriteByte('\'')
				i += 2
				continue
			}
			return b.String(), i + 1, nil
		}
		b.WriteByte(input[i])
		i++
	}
	return "", 0, syntaxErr(input, start, "unterminated string literal")
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func syntaxErr(input string, pos int, reason string) error {
	err := zerr.With(domain.ErrExpressionSyntax, "expression", input)
	err = zerr.With(err, "offset", pos)
	return zerr.With(err, "reason", reason)
}
