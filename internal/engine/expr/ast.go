package expr

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"go.trai.ch/zerr"

	"github.com/planoci/plano/internal/core/domain"
)

// Env carries the immutable state an expression is evaluated against: the
// resolved parameters of the current scope and the run's context snapshot.
// Evaluation is pure; nothing in the env is mutated.
type Env struct {
	Parameters domain.EffectiveParameters
	Context    domain.ContextSnapshot
}

// node is one vertex of the expression tree.
type node interface {
	eval(env Env) (cty.Value, error)
}

type literalNode struct {
	value cty.Value
}

func (n *literalNode) eval(Env) (cty.Value, error) {
	return n.value, nil
}

// variableNode is a dotted lookup. The "parameters" head resolves against the
// scope's effective parameters; everything else resolves against the context
// snapshot under its full dotted name.
type variableNode struct {
	segments []string
}

func (n *variableNode) name() string {
	return strings.Join(n.segments, ".")
}

func (n *variableNode) eval(env Env) (cty.Value, error) {
	if n.segments[0] == "parameters" && len(n.segments) > 1 {
		name := strings.Join(n.segments[1:], ".")
		v, ok := env.Parameters.Lookup(name)
		if !ok {
			return cty.NilVal, zerr.With(domain.ErrUnknownParameter, "parameter", name)
		}
		return v, nil
	}

	v, ok := env.Context.Lookup(n.name())
	if !ok {
		return cty.NilVal, zerr.With(domain.ErrUndefinedVariable, "variable", n.name())
	}
	return v, nil
}

// defined reports whether the variable resolves without evaluating it.
func (n *variableNode) defined(env Env) bool {
	if n.segments[0] == "parameters" && len(n.segments) > 1 {
		_, ok := env.Parameters.Lookup(strings.Join(n.segments[1:], "."))
		return ok
	}
	return env.Context.Has(n.name())
}

type equalityNode struct {
	left, right node
	negate      bool
}

func (n *equalityNode) eval(env Env) (cty.Value, error) {
	lv, err := n.left.eval(env)
	if err != nil {
		return cty.NilVal, err
	}
	rv, err := n.right.eval(env)
	if err != nil {
		return cty.NilVal, err
	}
	eq := valuesEqual(lv, rv)
	if n.negate {
		eq = !eq
	}
	return cty.BoolVal(eq), nil
}

// valuesEqual compares two values, unifying types first so 3.9 written as a
// number compares equal to '3.9' written as a string when convertible.
func valuesEqual(a, b cty.Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() == b.IsNull()
	}
	if a.Type().Equals(b.Type()) {
		return a.RawEquals(b)
	}
	if conv, err := convert.Convert(b, a.Type()); err == nil {
		return a.RawEquals(conv)
	}
	if conv, err := convert.Convert(a, b.Type()); err == nil {
		return conv.RawEquals(b)
	}
	return false
}

type notNode struct {
	operand node
}

func (n *notNode) eval(env Env) (cty.Value, error) {
	v, err := evalBoolOperand(n.operand, env)
	if err != nil {
		return cty.NilVal, err
	}
	return cty.BoolVal(!v), nil
}

// andNode evaluates left-to-right and short-circuits: once the left operand is
// false the right operand is not evaluated, so lookup failures inside it are
// suppressed. That allows guards like isDefined(x) && x == 'y'.
type andNode struct {
	left, right node
}

func (n *andNode) eval(env Env) (cty.Value, error) {
	lv, err := evalBoolOperand(n.left, env)
	if err != nil {
		return cty.NilVal, err
	}
	if !lv {
		return cty.False, nil
	}
	rv, err := evalBoolOperand(n.right, env)
	if err != nil {
		return cty.NilVal, err
	}
	return cty.BoolVal(rv), nil
}

// orNode short-circuits symmetrically to andNode.
type orNode struct {
	left, right node
}

func (n *orNode) eval(env Env) (cty.Value, error) {
	lv, err := evalBoolOperand(n.left, env)
	if err != nil {
		return cty.NilVal, err
	}
	if lv {
		return cty.True, nil
	}
	rv, err := evalBoolOperand(n.right, env)
	if err != nil {
		return cty.NilVal, err
	}
	return cty.BoolVal(rv), nil
}

// isDefinedNode is the isDefined(variable) builtin. It never fails: an absent
// variable is exactly what it exists to detect.
type isDefinedNode struct {
	variable *variableNode
}

func (n *isDefinedNode) eval(env Env) (cty.Value, error) {
	return cty.BoolVal(n.variable.defined(env)), nil
}

func evalBoolOperand(n node, env Env) (bool, error) {
	v, err := n.eval(env)
	if err != nil {
		return false, err
	}
	if v.Type() != cty.Bool {
		return false, zerr.With(domain.ErrInvalidCondition, "got", v.Type().FriendlyName())
	}
	return v.True(), nil
}
