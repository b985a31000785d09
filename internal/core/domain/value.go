package domain

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// YAML scalar tags as emitted by gopkg.in/yaml.v3.
const (
	tagStr   = "!!str"
	tagBool  = "!!bool"
	tagInt   = "!!int"
	tagFloat = "!!float"
	tagNull  = "!!null"
)

// NodeToValue converts a parsed YAML node into a cty value.
// Mappings become objects, sequences become tuples, scalars map to
// string/bool/number based on their resolved tag.
func NodeToValue(n *yaml.Node) (cty.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return NodeToValue(n.Content[0])

	case yaml.ScalarNode:
		return scalarToValue(n)

	case yaml.MappingNode:
		if len(n.Content) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := NodeToValue(n.Content[i+1])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[n.Content[i].Value] = v
		}
		return cty.ObjectVal(attrs), nil

	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := NodeToValue(c)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, v)
		}
		return cty.TupleVal(elems), nil

	case yaml.AliasNode:
		return NodeToValue(n.Alias)

	default:
		return cty.NilVal, zerr.With(ErrParse, "kind", int(n.Kind))
	}
}

func scalarToValue(n *yaml.Node) (cty.Value, error) {
	switch n.Tag {
	case tagBool:
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return cty.NilVal, zerr.With(zerr.Wrap(err, ErrParse.Error()), "value", n.Value)
		}
		return cty.BoolVal(b), nil
	case tagInt:
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return cty.NilVal, zerr.With(zerr.Wrap(err, ErrParse.Error()), "value", n.Value)
		}
		return cty.NumberIntVal(i), nil
	case tagFloat:
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return cty.NilVal, zerr.With(zerr.Wrap(err, ErrParse.Error()), "value", n.Value)
		}
		return cty.NumberFloatVal(f), nil
	case tagNull:
		return cty.NullVal(cty.DynamicPseudoType), nil
	default:
		return cty.StringVal(n.Value), nil
	}
}

// ValueToNode converts a cty value back into a YAML node so resolved values can
// be substituted into documents. Object attributes are emitted in sorted key
// order for deterministic output.
func ValueToNode(v cty.Value) (*yaml.Node, error) {
	if v.IsNull() {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagNull, Value: "null"}, nil
	}

	t := v.Type()
	switch {
	case t == cty.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: v.AsString()}, nil

	case t == cty.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagBool, Value: strconv.FormatBool(v.True())}, nil

	case t == cty.Number:
		s := formatNumber(v)
		tag := tagInt
		if !numberIsInt(v) {
			tag = tagFloat
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s}, nil

	case t.IsObjectType() || t.IsMapType():
		m := v.AsValueMap()
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			child, err := ValueToNode(m[k])
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: k},
				child,
			)
		}
		return node, nil

	case t.IsTupleType() || t.IsListType():
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			child, err := ValueToNode(ev)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil

	default:
		return nil, zerr.With(ErrRenderFailed, "type", t.FriendlyName())
	}
}

// ValueToString renders a scalar value the way it appears when interpolated
// into a surrounding string.
func ValueToString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return strconv.FormatBool(v.True()), nil
	case cty.Number:
		return formatNumber(v), nil
	default:
		return "", zerr.With(ErrTypeMismatch, "type", v.Type().FriendlyName())
	}
}

// ValueToNative converts a cty value to plain Go values (string, bool, int64,
// float64, map[string]any, []any) for interoperability with merge tooling.
func ValueToNative(v cty.Value) any {
	if v.IsNull() {
		return nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return v.True()
	case t == cty.Number:
		if numberIsInt(v) {
			i, _ := v.AsBigFloat().Int64()
			return i
		}
		f, _ := v.AsBigFloat().Float64()
		return f
	case t.IsObjectType() || t.IsMapType():
		m := v.AsValueMap()
		out := make(map[string]any, len(m))
		for k, e := range m {
			out[k] = ValueToNative(e)
		}
		return out
	case t.IsTupleType() || t.IsListType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			out = append(out, ValueToNative(e))
		}
		return out
	default:
		return nil
	}
}

// NativeToValue converts plain Go values back into cty values. It accepts the
// shapes produced by ValueToNative and by yaml.Unmarshal into any.
func NativeToValue(raw any) (cty.Value, error) {
	switch x := raw.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for k, e := range x {
			v, err := NativeToValue(e)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = v
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(x))
		for _, e := range x {
			v, err := NativeToValue(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, v)
		}
		return cty.TupleVal(elems), nil
	default:
		return cty.NilVal, zerr.With(ErrTypeMismatch, "go_type", fmt.Sprintf("%T", raw))
	}
}

func formatNumber(v cty.Value) string {
	return v.AsBigFloat().Text('f', -1)
}

func numberIsInt(v cty.Value) bool {
	return v.AsBigFloat().IsInt()
}
