package expr

import (
	"github.com/zclconf/go-cty/cty"
)

// parser is a recursive-descent parser over the token stream. Operator
// precedence is NOT > AND > OR, all left-associative; equality binds tighter
// than NOT and does not chain.
type parser struct {
	input  string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr() (node, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.peek().kind == tokenNot {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notNode{operand: operand}, nil
	}
	return p.parseEquality()
}

func (p *parser) parseEquality() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch p.peek().kind {
	case tokenEq, tokenNotEq:
		op := p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &equalityNode{left: left, right: right, negate: op.kind == tokenNotEq}, nil
	default:
		return left, nil
	}
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	switch t.kind {
	case tokenLParen:
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenRParen {
			return nil, syntaxErr(p.input, p.peek().pos, "expected ')'")
		}
		p.next()
		return inner, nil

	case tokenString:
		p.next()
		return &literalNode{value: cty.StringVal(t.text)}, nil

	case tokenNumber:
		p.next()
		v, err := cty.ParseNumberVal(t.text)
		if err != nil {
			return nil, syntaxErr(p.input, t.pos, "invalid number "+t.text)
		}
		return &literalNode{value: v}, nil

	case tokenTrue:
		p.next()
		return &literalNode{value: cty.True}, nil

	case tokenFalse:
		p.next()
		return &literalNode{value: cty.False}, nil

	case tokenIdent:
		return p.parseIdent()

	default:
		return nil, syntaxErr(p.input, t.pos, "unexpected token "+t.text)
	}
}

// parseIdent parses either a dotted variable reference or the isDefined(...)
// builtin.
func (p *parser) parseIdent() (node, error) {
	t := p.next()

	if t.text == "isDefined" && p.peek().kind == tokenLParen {
		p.next()
		arg, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenRParen {
			return nil, syntaxErr(p.input, p.peek().pos, "expected ')'")
		}
		p.next()
		return &isDefinedNode{variable: arg}, nil
	}

	return p.parseVariableTail(t)
}

func (p *parser) parseVariable() (*variableNode, error) {
	t := p.next()
	if t.kind != tokenIdent {
		return nil, syntaxErr(p.input, t.pos, "expected variable name")
	}
	return p.parseVariableTail(t)
}

func (p *parser) parseVariableTail(head token) (*variableNode, error) {
	segments := []string{head.text}
	for p.peek().kind == tokenDot {
		p.next()
		seg := p.next()
		if seg.kind != tokenIdent {
			return nil, syntaxErr(p.input, seg.pos, "expected identifier after '.'")
		}
		segments = append(segments, seg.text)
	}
	return &variableNode{segments: segments}, nil
}
