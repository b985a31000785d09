package domain

import "gopkg.in/yaml.v3"

// TemplateReference is a call site that pulls in another template document:
// the path of the referenced document plus the parameter values supplied for
// its declarations. Every supplied key must match a declaration in the
// referenced template. References are parsed once and read-only thereafter.
type TemplateReference struct {
	// Path is the template path as written at the call site, resolved
	// relative to the referencing document.
	Path string

	// Parameters maps declared parameter names to the value nodes supplied
	// at the call site. Values may still contain ${{ }} expressions that are
	// evaluated in the referencing scope before resolution.
	Parameters map[string]*yaml.Node

	// SourceDoc is the path of the document containing the reference.
	SourceDoc string

	// Line and Column locate the reference in its source document.
	Line   int
	Column int
}
