package domain

// MatrixCase is one concrete combination of axis values, either declared
// explicitly by name or produced by a cross-product of axis value lists.
type MatrixCase struct {
	// Name identifies the case and becomes the job name suffix.
	Name string

	// Values maps axis names to the value substituted into $(Axis) slots.
	Values map[string]string
}

// MatrixStrategy is a normalized matrix declaration: an ordered list of cases
// that all declare the same axis set. Case order is user-observable and
// deterministic: document order for the named-case form, axis declaration
// order with the last axis varying fastest for the cross-product form.
type MatrixStrategy struct {
	// AxisNames lists the axes every case declares, in declaration order.
	AxisNames []string

	// Cases holds the concrete combinations in expansion order.
	Cases []MatrixCase
}

// HasAxis reports whether the strategy declares the given axis.
func (s MatrixStrategy) HasAxis(name string) bool {
	for _, a := range s.AxisNames {
		if a == name {
			return true
		}
	}
	return false
}
