package domain

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"go.trai.ch/zerr"
)

// ParameterType is the declared type of a pipeline parameter.
type ParameterType string

const (
	// TypeString declares a string parameter.
	TypeString ParameterType = "string"
	// TypeBoolean declares a boolean parameter.
	TypeBoolean ParameterType = "boolean"
	// TypeNumber declares a numeric parameter.
	TypeNumber ParameterType = "number"
	// TypeObject declares a nested mapping parameter, merged recursively.
	TypeObject ParameterType = "object"
	// TypeList declares a sequence parameter.
	TypeList ParameterType = "list"
)

// ParseParameterType validates a declared type name.
func ParseParameterType(s string) (ParameterType, error) {
	switch t := ParameterType(s); t {
	case TypeString, TypeBoolean, TypeNumber, TypeObject, TypeList:
		return t, nil
	default:
		return "", zerr.With(ErrInvalidParameterType, "type", s)
	}
}

// ParameterDeclaration describes one declared parameter of a pipeline or
// template: a unique name, its type, and an optional type-matching default.
// Declarations are parsed once and read-only thereafter.
type ParameterDeclaration struct {
	Name    string
	Type    ParameterType
	Default cty.Value // NilVal when no default is declared
}

// HasDefault reports whether the declaration carries a default value.
func (d ParameterDeclaration) HasDefault() bool {
	return d.Default != cty.NilVal
}

// Accepts reports whether a value is compatible with the declared type.
// Scalars accept any value convertible to the declared primitive type;
// objects accept mappings and lists accept sequences.
func (d ParameterDeclaration) Accepts(v cty.Value) bool {
	if v.IsNull() {
		return true
	}
	switch d.Type {
	case TypeString:
		return convertible(v, cty.String)
	case TypeBoolean:
		return convertible(v, cty.Bool)
	case TypeNumber:
		return convertible(v, cty.Number)
	case TypeObject:
		return v.Type().IsObjectType() || v.Type().IsMapType()
	case TypeList:
		return v.Type().IsTupleType() || v.Type().IsListType()
	default:
		return false
	}
}

// Normalize converts a compatible value to the canonical representation of the
// declared type, so "true" declared as boolean resolves to a real boolean.
func (d ParameterDeclaration) Normalize(v cty.Value) (cty.Value, error) {
	if v.IsNull() {
		return v, nil
	}
	switch d.Type {
	case TypeString:
		return convert.Convert(v, cty.String)
	case TypeBoolean:
		return convert.Convert(v, cty.Bool)
	case TypeNumber:
		return convert.Convert(v, cty.Number)
	default:
		return v, nil
	}
}

func convertible(v cty.Value, t cty.Type) bool {
	_, err := convert.Convert(v, t)
	return err == nil
}

// EffectiveParameters is the resolved parameter set of one template scope:
// every declared parameter mapped to exactly one value.
type EffectiveParameters struct {
	values map[string]cty.Value
}

// NewEffectiveParameters wraps a resolved name to value mapping.
func NewEffectiveParameters(values map[string]cty.Value) EffectiveParameters {
	return EffectiveParameters{values: values}
}

// Lookup returns the resolved value for a declared parameter.
func (p EffectiveParameters) Lookup(name string) (cty.Value, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Len returns the number of resolved parameters.
func (p EffectiveParameters) Len() int {
	return len(p.values)
}
