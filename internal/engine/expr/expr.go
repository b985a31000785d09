// Package expr implements the expression language used inside ${{ }} slots of
// pipeline documents: literals, dotted context-variable lookups, parameters,
// equality, and short-circuiting boolean operators with NOT > AND > OR
// precedence, all left-associative.
package expr

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/zerr"

	"github.com/planoci/plano/internal/core/domain"
)

const (
	slotOpen  = "${{"
	slotClose = "}}"
)

// Expression is a parsed, reusable expression tree. Evaluation is pure: the
// same env always yields the same result.
type Expression struct {
	source string
	root   node
}

// Parse compiles an expression.
func Parse(input string) (*Expression, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, syntaxErr(input, p.peek().pos, "unexpected trailing input")
	}
	return &Expression{source: input, root: root}, nil
}

// Source returns the original expression text.
func (e *Expression) Source() string {
	return e.source
}

// Eval evaluates the expression to a value.
func (e *Expression) Eval(env Env) (cty.Value, error) {
	v, err := e.root.eval(env)
	if err != nil {
		return cty.NilVal, zerr.With(err, "expression", e.source)
	}
	return v, nil
}

// EvalBool evaluates a guard expression. A non-boolean result is a hard
// failure, never a silent skip.
func (e *Expression) EvalBool(env Env) (bool, error) {
	v, err := e.Eval(env)
	if err != nil {
		return false, err
	}
	if v.Type() != cty.Bool {
		err := zerr.With(domain.ErrInvalidCondition, "got", v.Type().FriendlyName())
		return false, zerr.With(err, "expression", e.source)
	}
	return v.True(), nil
}

// EvalString evaluates the expression text directly against an env. Helper for
// one-shot condition checks.
func EvalString(input string, env Env) (bool, error) {
	e, err := Parse(input)
	if err != nil {
		return false, err
	}
	return e.EvalBool(env)
}

// HasSlot reports whether a string contains a ${{ }} expression slot.
func HasSlot(s string) bool {
	return strings.Contains(s, slotOpen)
}

// ExpandString resolves the ${{ }} slots of a string. When the entire string
// is a single slot, the typed value is returned as-is, so a parameter slot can
// carry a boolean or an object into its destination. Otherwise each slot is
// evaluated, stringified, and spliced back into the surrounding text.
func ExpandString(s string, env Env) (cty.Value, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, slotOpen) && strings.HasSuffix(trimmed, slotClose) {
		inner := trimmed[len(slotOpen) : len(trimmed)-len(slotClose)]
		// A single slot spanning the whole string keeps its type.
		if !strings.Contains(inner, slotOpen) {
			e, err := Parse(strings.TrimSpace(inner))
			if err != nil {
				return cty.NilVal, err
			}
			return e.Eval(env)
		}
	}

	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, slotOpen)
		if start < 0 {
			b.WriteString(rest)
			return cty.StringVal(b.String()), nil
		}
		end := strings.Index(rest[start:], slotClose)
		if end < 0 {
			return cty.NilVal, zerr.With(domain.ErrExpressionSyntax, "input", s)
		}
		end += start

		b.WriteString(rest[:start])
		inner := strings.TrimSpace(rest[start+len(slotOpen) : end])
		e, err := Parse(inner)
		if err != nil {
			return cty.NilVal, err
		}
		v, err := e.Eval(env)
		if err != nil {
			return cty.NilVal, err
		}
		text, err := domain.ValueToString(v)
		if err != nil {
			return cty.NilVal, zerr.With(err, "expression", inner)
		}
		b.WriteString(text)
		rest = rest[end+len(slotClose):]
	}
}
