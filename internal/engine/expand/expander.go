// Package expand inlines template references into a single flattened document.
// Expansion is depth-first and preserves the document order of sibling nodes;
// sibling references with no data dependency are fetched concurrently.
package expand

import (
	"context"

	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/planoci/plano/internal/core/domain"
	"github.com/planoci/plano/internal/core/ports"
	"github.com/planoci/plano/internal/engine/expr"
	"github.com/planoci/plano/internal/engine/params"
)

// DefaultMaxDepth bounds template nesting. Cycle detection catches loops; the
// depth guard catches pathological non-cyclic nesting.
const DefaultMaxDepth = 32

// Keys that hold the spliceable body of a template document.
var bodyKeys = []string{"stages", "jobs", "steps"}

// Expander inlines template references fetched through a document store.
type Expander struct {
	store    ports.DocumentStore
	maxDepth int
}

// Option configures an Expander.
type Option func(*Expander)

// WithMaxDepth overrides the template nesting limit.
func WithMaxDepth(n int) Option {
	return func(e *Expander) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// New creates an Expander reading templates from the given store.
func New(store ports.DocumentStore, opts ...Option) *Expander {
	e := &Expander{store: store, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// scope carries the per-branch expansion state. The visited set is copied on
// descent rather than shared: the same template may legitimately appear twice
// in sibling branches, only a path from a document to itself is a cycle.
type scope struct {
	doc     string
	env     expr.Env
	depth   int
	visited map[string]bool
}

func (s scope) descend(doc string, env expr.Env) scope {
	visited := make(map[string]bool, len(s.visited)+1)
	for k := range s.visited {
		visited[k] = true
	}
	visited[s.doc] = true
	return scope{doc: doc, env: env, depth: s.depth + 1, visited: visited}
}

// Expand resolves every template reference and ${{ }} slot of the document
// body, returning a flattened copy. The input node is not mutated.
func (e *Expander) Expand(ctx context.Context, docPath string, body *yaml.Node, env expr.Env) (*yaml.Node, error) {
	s := scope{doc: docPath, env: env, visited: map[string]bool{}}
	out, err := e.walk(ctx, body, s)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Expander) walk(ctx context.Context, n *yaml.Node, s scope) (*yaml.Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return n, nil
		}
		inner, err := e.walk(ctx, n.Content[0], s)
		if err != nil {
			return nil, err
		}
		return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{inner}}, nil

	case yaml.ScalarNode:
		return e.walkScalar(n, s)

	case yaml.MappingNode:
		return e.walkMapping(ctx, n, s)

	case yaml.SequenceNode:
		return e.walkSequence(ctx, n, s)

	case yaml.AliasNode:
		return e.walk(ctx, n.Alias, s)

	default:
		return nil, zerr.With(domain.ErrParse, "document", s.doc)
	}
}

func (e *Expander) walkScalar(n *yaml.Node, s scope) (*yaml.Node, error) {
	if n.Tag != "!!str" || !expr.HasSlot(n.Value) {
		copied := *n
		return &copied, nil
	}
	v, err := expr.ExpandString(n.Value, s.env)
	if err != nil {
		return nil, e.locate(err, s.doc, n)
	}
	out, err := domain.ValueToNode(v)
	if err != nil {
		return nil, e.locate(err, s.doc, n)
	}
	return out, nil
}

func (e *Expander) walkMapping(ctx context.Context, n *yaml.Node, s scope) (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: n.Tag}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := *n.Content[i]
		value, err := e.walk(ctx, n.Content[i+1], s)
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, &key, value)
	}
	return out, nil
}

// walkSequence expands sequence items in document order. Template references
// among the items expand to zero or more nodes that are spliced in place;
// each reference is an independent subtree, so sibling references are
// expanded concurrently and stitched back in declaration order.
func (e *Expander) walkSequence(ctx context.Context, n *yaml.Node, s scope) (*yaml.Node, error) {
	results := make([][]*yaml.Node, len(n.Content))

	g, gctx := errgroup.WithContext(ctx)
	for i, child := range n.Content {
		ref, isRef, err := e.parseReference(child, s)
		if err != nil {
			return nil, err
		}
		if isRef {
			g.Go(func() error {
				nodes, err := e.expandReference(gctx, ref, s)
				if err != nil {
					return err
				}
				results[i] = nodes
				return nil
			})
			continue
		}

		expanded, err := e.walk(ctx, child, s)
		if err != nil {
			return nil, err
		}
		results[i] = []*yaml.Node{expanded}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &yaml.Node{Kind: yaml.SequenceNode, Tag: n.Tag}
	for _, nodes := range results {
		out.Content = append(out.Content, nodes...)
	}
	return out, nil
}

// parseReference recognizes a sequence item of the form
//
//   - template: path/to/template.yml
//     parameters:
//     key: value
//
// and captures it as a TemplateReference.
func (e *Expander) parseReference(n *yaml.Node, s scope) (domain.TemplateReference, bool, error) {
	ref := domain.TemplateReference{SourceDoc: s.doc, Line: n.Line, Column: n.Column}
	if n.Kind != yaml.MappingNode {
		return ref, false, nil
	}

	var pathNode, paramsNode *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		switch n.Content[i].Value {
		case "template":
			pathNode = n.Content[i+1]
		case "parameters":
			paramsNode = n.Content[i+1]
		}
	}
	if pathNode == nil {
		return ref, false, nil
	}

	// The path itself may carry an expression slot, resolved in the
	// referencing scope.
	path := pathNode.Value
	if expr.HasSlot(path) {
		v, err := expr.ExpandString(path, s.env)
		if err != nil {
			return ref, false, e.locate(err, s.doc, pathNode)
		}
		text, err := domain.ValueToString(v)
		if err != nil {
			return ref, false, e.locate(err, s.doc, pathNode)
		}
		path = text
	}
	if path == "" {
		return ref, false, e.locate(domain.ErrInvalidTemplateReference, s.doc, pathNode)
	}
	ref.Path = path

	if paramsNode != nil {
		if paramsNode.Kind != yaml.MappingNode {
			return ref, false, e.locate(domain.ErrInvalidTemplateReference, s.doc, paramsNode)
		}
		ref.Parameters = make(map[string]*yaml.Node, len(paramsNode.Content)/2)
		for i := 0; i+1 < len(paramsNode.Content); i += 2 {
			ref.Parameters[paramsNode.Content[i].Value] = paramsNode.Content[i+1]
		}
	}

	return ref, true, nil
}

// expandReference fetches a referenced template, resolves its parameters with
// the values supplied at the call site, and expands its body in the new scope.
func (e *Expander) expandReference(ctx context.Context, ref domain.TemplateReference, s scope) ([]*yaml.Node, error) {
	storePath := e.store.Resolve(ref.SourceDoc, ref.Path)

	if storePath == s.doc || s.visited[storePath] {
		err := zerr.With(domain.ErrCyclicTemplate, "template", storePath)
		return nil, zerr.With(err, "referenced_from", ref.SourceDoc)
	}
	if s.depth+1 > e.maxDepth {
		err := zerr.With(domain.ErrMaxDepthExceeded, "max_depth", e.maxDepth)
		return nil, zerr.With(err, "template", storePath)
	}

	raw, err := e.store.Get(ctx, storePath)
	if err != nil {
		err = zerr.Wrap(err, domain.ErrTemplateFetch.Error())
		return nil, zerr.With(err, "template", storePath)
	}

	var doc yaml.Node
	if unmarshalErr := yaml.Unmarshal(raw, &doc); unmarshalErr != nil {
		err := zerr.Wrap(unmarshalErr, domain.ErrParse.Error())
		return nil, zerr.With(err, "template", storePath)
	}
	body := documentBody(&doc)
	if body == nil || body.Kind != yaml.MappingNode {
		return nil, zerr.With(domain.ErrInvalidPipeline, "template", storePath)
	}

	// Resolve the supplied call-site values in the referencing scope, then
	// the template's declarations against them.
	supplied, err := e.resolveSuppliedParameters(ctx, ref, s)
	if err != nil {
		return nil, err
	}

	declNode, bodySeq, err := splitTemplate(body, storePath)
	if err != nil {
		return nil, err
	}
	decls, err := params.ParseDeclarations(declNode)
	if err != nil {
		return nil, zerr.With(err, "template", storePath)
	}
	effective, err := params.Resolve(decls, supplied)
	if err != nil {
		return nil, zerr.With(err, "template", storePath)
	}

	inner := s.descend(storePath, expr.Env{
		Parameters: effective,
		Context:    s.env.Context,
	})

	expanded, err := e.walkSequence(ctx, bodySeq, inner)
	if err != nil {
		return nil, err
	}
	return expanded.Content, nil
}

// resolveSuppliedParameters evaluates the call-site parameter value nodes in
// the referencing scope and converts them to values.
func (e *Expander) resolveSuppliedParameters(
	ctx context.Context,
	ref domain.TemplateReference,
	s scope,
) (map[string]cty.Value, error) {
	if len(ref.Parameters) == 0 {
		return nil, nil
	}
	supplied := make(map[string]cty.Value, len(ref.Parameters))
	for name, valueNode := range ref.Parameters {
		resolved, err := e.walk(ctx, valueNode, s)
		if err != nil {
			return nil, err
		}
		v, err := domain.NodeToValue(resolved)
		if err != nil {
			return nil, zerr.With(err, "parameter", name)
		}
		supplied[name] = v
	}
	return supplied, nil
}

// splitTemplate separates a template document into its parameter declarations
// and its spliceable body: the single stages/jobs/steps sequence it defines.
func splitTemplate(body *yaml.Node, storePath string) (*yaml.Node, *yaml.Node, error) {
	var declNode, bodySeq *yaml.Node
	for i := 0; i+1 < len(body.Content); i += 2 {
		key, value := body.Content[i].Value, body.Content[i+1]
		if key == "parameters" {
			declNode = value
			continue
		}
		for _, bk := range bodyKeys {
			if key == bk {
				if bodySeq != nil {
					return nil, nil, zerr.With(domain.ErrInvalidTemplateReference, "template", storePath)
				}
				bodySeq = value
			}
		}
	}
	if bodySeq == nil || bodySeq.Kind != yaml.SequenceNode {
		err := zerr.With(domain.ErrInvalidTemplateReference, "template", storePath)
		return nil, nil, zerr.With(err, "reason", "template must define one stages, jobs, or steps sequence")
	}
	return declNode, bodySeq, nil
}

func documentBody(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

func (e *Expander) locate(err error, doc string, n *yaml.Node) error {
	err = zerr.With(err, "document", doc)
	err = zerr.With(err, "line", n.Line)
	return zerr.With(err, "column", n.Column)
}
