// Package params resolves declared pipeline parameters against caller
// overrides, producing the single effective value set of a template scope.
package params

import (
	"dario.cat/mergo"
	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/planoci/plano/internal/core/domain"
)

// ParseDeclarations reads a `parameters:` sequence node into declarations.
// Each entry carries a unique name, a type, and an optional default. A missing
// type is inferred from the default value, falling back to string.
func ParseDeclarations(node *yaml.Node) ([]domain.ParameterDeclaration, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, zerr.With(domain.ErrParse, "reason", "parameters must be a sequence")
	}

	decls := make([]domain.ParameterDeclaration, 0, len(node.Content))
	seen := make(map[string]bool, len(node.Content))

	for _, entry := range node.Content {
		decl, err := parseDeclaration(entry)
		if err != nil {
			return nil, err
		}
		if seen[decl.Name] {
			return nil, zerr.With(domain.ErrDuplicateParameter, "parameter", decl.Name)
		}
		seen[decl.Name] = true
		decls = append(decls, decl)
	}
	return decls, nil
}

func parseDeclaration(entry *yaml.Node) (domain.ParameterDeclaration, error) {
	var decl domain.ParameterDeclaration
	if entry.Kind != yaml.MappingNode {
		return decl, zerr.With(domain.ErrParse, "reason", "parameter declaration must be a mapping")
	}

	var typeName string
	var defaultNode *yaml.Node

	for i := 0; i+1 < len(entry.Content); i += 2 {
		key, value := entry.Content[i].Value, entry.Content[i+1]
		switch key {
		case "name":
			decl.Name = value.Value
		case "type":
			typeName = value.Value
		case "default":
			defaultNode = value
		}
	}

	if decl.Name == "" {
		return decl, zerr.With(domain.ErrMissingParameterName, "line", entry.Line)
	}

	if defaultNode != nil {
		v, err := domain.NodeToValue(defaultNode)
		if err != nil {
			return decl, zerr.With(err, "parameter", decl.Name)
		}
		decl.Default = v
	}

	if typeName == "" {
		decl.Type = inferType(decl.Default)
	} else {
		t, err := domain.ParseParameterType(typeName)
		if err != nil {
			return decl, zerr.With(err, "parameter", decl.Name)
		}
		decl.Type = t
	}

	if decl.HasDefault() && !decl.Accepts(decl.Default) {
		err := zerr.With(domain.ErrTypeMismatch, "parameter", decl.Name)
		return decl, zerr.With(err, "declared_type", string(decl.Type))
	}

	return decl, nil
}

// inferType maps an untyped declaration to the type of its default value.
func inferType(v cty.Value) domain.ParameterType {
	if v == cty.NilVal || v.IsNull() {
		return domain.TypeString
	}
	t := v.Type()
	switch {
	case t == cty.Bool:
		return domain.TypeBoolean
	case t == cty.Number:
		return domain.TypeNumber
	case t.IsObjectType() || t.IsMapType():
		return domain.TypeObject
	case t.IsTupleType() || t.IsListType():
		return domain.TypeList
	default:
		return domain.TypeString
	}
}

// Resolve merges declarations with caller overrides: the override wins when
// present and type-compatible, else the default applies. Every override key
// must match a declaration; unknown keys are rejected rather than ignored so
// caller typos fail loudly. Object parameters merge recursively and the merge
// is idempotent.
func Resolve(
	decls []domain.ParameterDeclaration,
	overrides map[string]cty.Value,
) (domain.EffectiveParameters, error) {
	declared := make(map[string]domain.ParameterDeclaration, len(decls))
	for _, d := range decls {
		declared[d.Name] = d
	}
	for name := range overrides {
		if _, ok := declared[name]; !ok {
			return domain.EffectiveParameters{}, zerr.With(domain.ErrUnknownParameter, "parameter", name)
		}
	}

	values := make(map[string]cty.Value, len(decls))
	for _, decl := range decls {
		v, err := resolveOne(decl, overrides)
		if err != nil {
			return domain.EffectiveParameters{}, err
		}
		values[decl.Name] = v
	}
	return domain.NewEffectiveParameters(values), nil
}

func resolveOne(decl domain.ParameterDeclaration, overrides map[string]cty.Value) (cty.Value, error) {
	override, supplied := overrides[decl.Name]

	if !supplied {
		if !decl.HasDefault() {
			return cty.NilVal, zerr.With(domain.ErrMissingParameterValue, "parameter", decl.Name)
		}
		return decl.Default, nil
	}

	if !decl.Accepts(override) {
		err := zerr.With(domain.ErrTypeMismatch, "parameter", decl.Name)
		err = zerr.With(err, "declared_type", string(decl.Type))
		return cty.NilVal, zerr.With(err, "got", override.Type().FriendlyName())
	}

	if decl.Type == domain.TypeObject && decl.HasDefault() {
		return mergeObjects(decl.Default, override)
	}

	return decl.Normalize(override)
}

// mergeObjects recursively merges an object override over the declared
// default: override fields replace default fields of the same key, fields
// absent from the override keep their defaults. Merging a result with itself
// yields the same result.
func mergeObjects(defaults, override cty.Value) (cty.Value, error) {
	base, ok := domain.ValueToNative(defaults).(map[string]any)
	if !ok {
		return cty.NilVal, zerr.With(domain.ErrTypeMismatch, "reason", "default is not an object")
	}
	over, ok := domain.ValueToNative(override).(map[string]any)
	if !ok {
		return cty.NilVal, zerr.With(domain.ErrTypeMismatch, "reason", "override is not an object")
	}

	if err := mergo.Merge(&base, over, mergo.WithOverride); err != nil {
		return cty.NilVal, zerr.Wrap(err, "failed to merge object parameter")
	}

	merged, err := domain.NativeToValue(base)
	if err != nil {
		return cty.NilVal, zerr.Wrap(err, "failed to remap merged object")
	}
	return merged, nil
}
