// Package resolve drives a full resolution run: load, parameter resolution,
// template expansion, condition evaluation, and matrix expansion, in that
// order. A run either reaches Finalized and yields an immutable plan, or
// fails on the first error with no partial output.
package resolve

import (
	"context"

	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/planoci/plano/internal/core/domain"
	"github.com/planoci/plano/internal/core/ports"
	"github.com/planoci/plano/internal/engine/expand"
	"github.com/planoci/plano/internal/engine/expr"
	"github.com/planoci/plano/internal/engine/matrix"
	"github.com/planoci/plano/internal/engine/params"
)

// Options configures one resolution run.
type Options struct {
	// Parameters are caller-supplied root parameter overrides.
	Parameters map[string]cty.Value

	// Context is the immutable snapshot of ambient build facts.
	Context domain.ContextSnapshot

	// MaxDepth bounds template nesting; zero means the default.
	MaxDepth int
}

// Result is the outcome of a successful run.
type Result struct {
	// Plan is the flattened, parameter-free execution plan.
	Plan domain.Plan

	// Phase is the terminal phase, always Finalized on success.
	Phase domain.Phase
}

// Resolver turns a parameterized, templated, conditional pipeline document
// into a flat plan.
type Resolver struct {
	store  ports.DocumentStore
	logger ports.Logger
}

// New creates a Resolver reading documents from the given store.
func New(store ports.DocumentStore, logger ports.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve runs the full phase sequence for the document at rootPath.
func (r *Resolver) Resolve(ctx context.Context, rootPath string, opts Options) (*Result, error) {
	body, err := r.load(ctx, rootPath)
	if err != nil {
		return nil, atPhase(err, domain.PhaseLoaded)
	}

	env, err := r.resolveParameters(body, opts)
	if err != nil {
		return nil, atPhase(err, domain.PhaseParametersResolved)
	}

	expander := expand.New(r.store, expand.WithMaxDepth(opts.MaxDepth))
	flattened, err := expander.Expand(ctx, rootPath, stripKey(body, "parameters"), env)
	if err != nil {
		return nil, atPhase(err, domain.PhaseTemplatesExpanded)
	}

	pruned, err := r.evaluateConditions(flattened, env)
	if err != nil {
		return nil, atPhase(err, domain.PhaseConditionsEvaluated)
	}

	jobs, err := r.expandJobs(pruned, rootPath)
	if err != nil {
		return nil, atPhase(err, domain.PhaseMatrixExpanded)
	}
	if len(jobs) == 0 {
		r.logger.Warn("resolution produced no jobs, every branch was pruned")
	}

	plan := domain.Plan{Jobs: jobs}
	return &Result{Plan: plan, Phase: domain.PhaseFinalized}, nil
}

func (r *Resolver) load(ctx context.Context, rootPath string) (*yaml.Node, error) {
	raw, err := r.store.Get(ctx, rootPath)
	if err != nil {
		return nil, zerr.With(err, "document", rootPath)
	}

	var doc yaml.Node
	if unmarshalErr := yaml.Unmarshal(raw, &doc); unmarshalErr != nil {
		err := zerr.Wrap(unmarshalErr, domain.ErrParse.Error())
		return nil, zerr.With(err, "document", rootPath)
	}

	body := documentBody(&doc)
	if body == nil || body.Kind != yaml.MappingNode {
		err := zerr.With(domain.ErrInvalidPipeline, "document", rootPath)
		return nil, zerr.With(err, "reason", "root document must be a mapping")
	}
	return body, nil
}

// resolveParameters computes the root scope's effective parameters and builds
// the evaluation env shared by the remaining phases.
func (r *Resolver) resolveParameters(body *yaml.Node, opts Options) (expr.Env, error) {
	decls, err := params.ParseDeclarations(mappingValue(body, "parameters"))
	if err != nil {
		return expr.Env{}, err
	}
	effective, err := params.Resolve(decls, opts.Parameters)
	if err != nil {
		return expr.Env{}, err
	}
	return expr.Env{Parameters: effective, Context: opts.Context}, nil
}

// evaluateConditions prunes sequence items whose `condition` guard is false
// and strips the guard key from retained items. A failed guard evaluation
// aborts the run: silently skipping pipeline stages is a correctness hazard.
func (r *Resolver) evaluateConditions(n *yaml.Node, env expr.Env) (*yaml.Node, error) {
	switch n.Kind {
	case yaml.MappingNode:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: n.Tag}
		for i := 0; i+1 < len(n.Content); i += 2 {
			value, err := r.evaluateConditions(n.Content[i+1], env)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, n.Content[i], value)
		}
		return out, nil

	case yaml.SequenceNode:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: n.Tag}
		for _, child := range n.Content {
			keep, item, err := r.evaluateItemCondition(child, env)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
			expanded, err := r.evaluateConditions(item, env)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, expanded)
		}
		return out, nil

	default:
		return n, nil
	}
}

func (r *Resolver) evaluateItemCondition(n *yaml.Node, env expr.Env) (bool, *yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return true, n, nil
	}
	cond := mappingValue(n, "condition")
	if cond == nil {
		return true, n, nil
	}
	if cond.Kind != yaml.ScalarNode {
		err := zerr.With(domain.ErrInvalidCondition, "line", cond.Line)
		return false, nil, zerr.With(err, "reason", "condition must be a scalar expression")
	}

	keep, err := expr.EvalString(cond.Value, env)
	if err != nil {
		err = zerr.With(err, "line", cond.Line)
		return false, nil, err
	}
	if !keep {
		return false, nil, nil
	}
	return true, stripKey(n, "condition"), nil
}

// expandJobs walks the pruned document's stages and jobs, expanding matrix
// strategies into concrete job instances.
func (r *Resolver) expandJobs(body *yaml.Node, rootPath string) ([]domain.ResolvedJob, error) {
	var jobs []domain.ResolvedJob

	appendJobs := func(seq *yaml.Node, namePrefix string) error {
		if seq == nil {
			return nil
		}
		for _, jobNode := range seq.Content {
			expanded, err := r.expandJob(jobNode, namePrefix)
			if err != nil {
				return err
			}
			jobs = append(jobs, expanded...)
		}
		return nil
	}

	stages := mappingValue(body, "stages")
	direct := mappingValue(body, "jobs")
	switch {
	case stages != nil:
		for _, stageNode := range stages.Content {
			stageName := scalarValue(stageNode, "stage")
			if stageName == "" {
				err := zerr.With(domain.ErrInvalidPipeline, "document", rootPath)
				return nil, zerr.With(err, "reason", "stage is missing a name")
			}
			if err := appendJobs(mappingValue(stageNode, "jobs"), stageName+"/"); err != nil {
				return nil, err
			}
		}
	case direct != nil:
		if err := appendJobs(direct, ""); err != nil {
			return nil, err
		}
	default:
		err := zerr.With(domain.ErrInvalidPipeline, "document", rootPath)
		return nil, zerr.With(err, "reason", "pipeline must define stages or jobs")
	}

	return jobs, nil
}

// expandJob decodes one job mapping and applies its matrix strategy, if any.
func (r *Resolver) expandJob(jobNode *yaml.Node, namePrefix string) ([]domain.ResolvedJob, error) {
	if jobNode.Kind != yaml.MappingNode {
		return nil, zerr.With(domain.ErrInvalidPipeline, "reason", "job must be a mapping")
	}

	name := scalarValue(jobNode, "job")
	if name == "" {
		err := zerr.With(domain.ErrInvalidPipeline, "line", jobNode.Line)
		return nil, zerr.With(err, "reason", "job is missing a name")
	}

	base := domain.ResolvedJob{Name: namePrefix + name}

	var err error
	if base.Env, err = decodeEnv(mappingValue(jobNode, "env")); err != nil {
		return nil, zerr.With(err, "job", base.Name)
	}
	if base.Steps, err = decodeSteps(mappingValue(jobNode, "steps")); err != nil {
		return nil, zerr.With(err, "job", base.Name)
	}

	strategy, hasMatrix, err := matrix.ParseStrategy(mappingValue(jobNode, "strategy"))
	if err != nil {
		return nil, zerr.With(err, "job", base.Name)
	}
	if !hasMatrix {
		return []domain.ResolvedJob{base}, nil
	}

	return matrix.Generate(base, strategy)
}

func decodeSteps(seq *yaml.Node) ([]domain.ResolvedStep, error) {
	if seq == nil {
		return nil, nil
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, zerr.With(domain.ErrInvalidPipeline, "reason", "steps must be a sequence")
	}

	steps := make([]domain.ResolvedStep, 0, len(seq.Content))
	for _, stepNode := range seq.Content {
		if stepNode.Kind != yaml.MappingNode {
			return nil, zerr.With(domain.ErrInvalidPipeline, "reason", "step must be a mapping")
		}
		step := domain.ResolvedStep{
			Script:      scalarValue(stepNode, "script"),
			DisplayName: scalarValue(stepNode, "displayName"),
		}
		if step.Script == "" {
			err := zerr.With(domain.ErrInvalidPipeline, "line", stepNode.Line)
			return nil, zerr.With(err, "reason", "step is missing a script")
		}
		env, err := decodeEnv(mappingValue(stepNode, "env"))
		if err != nil {
			return nil, err
		}
		step.Env = env
		steps = append(steps, step)
	}
	return steps, nil
}

func decodeEnv(node *yaml.Node) (map[string]string, error) {
	if node == nil {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, zerr.With(domain.ErrInvalidPipeline, "reason", "env must be a mapping")
	}
	env := make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			err := zerr.With(domain.ErrInvalidPipeline, "env_key", key.Value)
			return nil, zerr.With(err, "reason", "env values must be scalars")
		}
		env[key.Value] = value.Value
	}
	return env, nil
}

// mappingValue returns the value node of a mapping key, or nil.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// scalarValue returns the scalar value of a mapping key, or "".
func scalarValue(n *yaml.Node, key string) string {
	v := mappingValue(n, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}

// stripKey returns a shallow copy of a mapping with one key removed.
func stripKey(n *yaml.Node, key string) *yaml.Node {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: n.Tag}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			continue
		}
		out.Content = append(out.Content, n.Content[i], n.Content[i+1])
	}
	return out
}

func documentBody(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

func atPhase(err error, phase domain.Phase) error {
	return zerr.With(err, "phase", string(phase))
}
