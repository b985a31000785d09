package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/planoci/plano/internal/core/domain"
)

func parseNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	return &doc
}

func TestNodeToValue(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want cty.Value
	}{
		{
			name: "string scalar",
			src:  "hello",
			want: cty.StringVal("hello"),
		},
		{
			name: "quoted numeric string",
			src:  `"3.9"`,
			want: cty.StringVal("3.9"),
		},
		{
			name: "bool scalar",
			src:  "true",
			want: cty.True,
		},
		{
			name: "int scalar",
			src:  "42",
			want: cty.NumberIntVal(42),
		},
		{
			name: "float scalar",
			src:  "2.5",
			want: cty.NumberFloatVal(2.5),
		},
		{
			name: "null scalar",
			src:  "null",
			want: cty.NullVal(cty.DynamicPseudoType),
		},
		{
			name: "mapping",
			src:  "a: 1\nb: two",
			want: cty.ObjectVal(map[string]cty.Value{
				"a": cty.NumberIntVal(1),
				"b": cty.StringVal("two"),
			}),
		},
		{
			name: "sequence",
			src:  "- x\n- y",
			want: cty.TupleVal([]cty.Value{cty.StringVal("x"), cty.StringVal("y")}),
		},
		{
			name: "nested",
			src:  "outer:\n  inner: [1, 2]",
			want: cty.ObjectVal(map[string]cty.Value{
				"outer": cty.ObjectVal(map[string]cty.Value{
					"inner": cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}),
				}),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.NodeToValue(parseNode(t, tt.src))
			require.NoError(t, err)
			assert.True(t, tt.want.RawEquals(got), "want %#v, got %#v", tt.want, got)
		})
	}
}

func TestValueToNode_RoundTrip(t *testing.T) {
	values := []cty.Value{
		cty.StringVal("plain"),
		cty.True,
		cty.NumberIntVal(7),
		cty.NumberFloatVal(1.25),
		cty.ObjectVal(map[string]cty.Value{
			"b": cty.NumberIntVal(2),
			"a": cty.StringVal("one"),
		}),
		cty.TupleVal([]cty.Value{cty.StringVal("x"), cty.NumberIntVal(3)}),
	}

	for _, v := range values {
		node, err := domain.ValueToNode(v)
		require.NoError(t, err)
		back, err := domain.NodeToValue(node)
		require.NoError(t, err)
		assert.True(t, v.RawEquals(back), "value %#v did not survive the round trip", v)
	}
}

func TestValueToNode_SortedObjectKeys(t *testing.T) {
	node, err := domain.ValueToNode(cty.ObjectVal(map[string]cty.Value{
		"zeta":  cty.StringVal("1"),
		"alpha": cty.StringVal("2"),
		"mid":   cty.StringVal("3"),
	}))
	require.NoError(t, err)

	require.Len(t, node.Content, 6)
	assert.Equal(t, "alpha", node.Content[0].Value)
	assert.Equal(t, "mid", node.Content[2].Value)
	assert.Equal(t, "zeta", node.Content[4].Value)
}

func TestValueToString(t *testing.T) {
	tests := []struct {
		name string
		v    cty.Value
		want string
	}{
		{name: "string", v: cty.StringVal("text"), want: "text"},
		{name: "bool", v: cty.True, want: "true"},
		{name: "integer without exponent", v: cty.NumberIntVal(30), want: "30"},
		{name: "float keeps precision", v: cty.NumberFloatVal(3.9), want: "3.9"},
		{name: "null is empty", v: cty.NullVal(cty.String), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ValueToString(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := domain.ValueToString(cty.EmptyObjectVal)
	require.ErrorIs(t, err, domain.ErrTypeMismatch)
}

func TestNativeRoundTrip(t *testing.T) {
	v := cty.ObjectVal(map[string]cty.Value{
		"name":    cty.StringVal("svc"),
		"count":   cty.NumberIntVal(3),
		"ratio":   cty.NumberFloatVal(0.5),
		"enabled": cty.True,
		"tags":    cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
	})

	native := domain.ValueToNative(v)
	back, err := domain.NativeToValue(native)
	require.NoError(t, err)
	assert.True(t, v.RawEquals(back))
}
