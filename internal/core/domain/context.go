package domain

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// ContextSnapshot is an immutable set of ambient build facts (trigger reason,
// branch, project) available to condition expressions. It is constructed once
// per resolution run and never mutated afterwards.
type ContextSnapshot struct {
	values map[string]cty.Value
}

// NewContextSnapshot copies the given facts into an immutable snapshot.
func NewContextSnapshot(values map[string]cty.Value) ContextSnapshot {
	copied := make(map[string]cty.Value, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return ContextSnapshot{values: copied}
}

// NewStringContextSnapshot builds a snapshot from plain string facts, the form
// supplied on the command line.
func NewStringContextSnapshot(values map[string]string) ContextSnapshot {
	copied := make(map[string]cty.Value, len(values))
	for k, v := range values {
		copied[k] = cty.StringVal(v)
	}
	return ContextSnapshot{values: copied}
}

// Lookup returns the value of a context variable.
func (c ContextSnapshot) Lookup(name string) (cty.Value, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Has reports whether a context variable is defined.
func (c ContextSnapshot) Has(name string) bool {
	_, ok := c.values[name]
	return ok
}

// Keys returns the defined variable names in sorted order.
func (c ContextSnapshot) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
