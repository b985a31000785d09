package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/planoci/plano/internal/adapters/docstore"
	"github.com/planoci/plano/internal/adapters/watcher"
	"github.com/planoci/plano/internal/core/domain"
	"github.com/planoci/plano/internal/core/ports"
	"github.com/planoci/plano/internal/engine/resolve"
)

// debounceWindow is how long the watch loop waits after the last file system
// event before re-rendering.
const debounceWindow = 200 * time.Millisecond

// App represents the main application logic.
type App struct {
	store    ports.DocumentStore
	logger   ports.Logger
	renderer ports.PlanRenderer
	watcher  ports.Watcher
}

// New creates a new App instance.
func New(
	store ports.DocumentStore,
	log ports.Logger,
	renderer ports.PlanRenderer,
	watch ports.Watcher,
) *App {
	return &App{
		store:    store,
		logger:   log,
		renderer: renderer,
		watcher:  watch,
	}
}

// RenderOptions configuration for the Render method.
type RenderOptions struct {
	// Parameters are key=value parameter overrides for the root document.
	Parameters []string
	// Context are key=value ambient facts available to condition expressions.
	Context []string
	// MaxDepth bounds template nesting; zero means the default.
	MaxDepth int
	// Output receives the rendered plan.
	Output io.Writer
	// Watch re-renders whenever a document touched by the render changes.
	Watch bool
}

// ValidateOptions configuration for the Validate method.
type ValidateOptions struct {
	Parameters []string
	Context    []string
	MaxDepth   int
}

// Render resolves the pipeline at path and writes the flattened plan.
func (a *App) Render(ctx context.Context, path string, opts RenderOptions) error {
	if path == "" {
		return domain.ErrNoPipelineSpecified
	}

	resolveOpts, err := buildResolveOptions(opts.Parameters, opts.Context, opts.MaxDepth)
	if err != nil {
		return err
	}

	if !opts.Watch {
		_, err := a.renderOnce(ctx, a.store, path, resolveOpts, opts.Output)
		return err
	}
	return a.watchLoop(ctx, path, resolveOpts, opts.Output)
}

// Validate resolves the pipeline at path without writing a plan.
func (a *App) Validate(ctx context.Context, path string, opts ValidateOptions) error {
	if path == "" {
		return domain.ErrNoPipelineSpecified
	}

	resolveOpts, err := buildResolveOptions(opts.Parameters, opts.Context, opts.MaxDepth)
	if err != nil {
		return err
	}

	resolver := resolve.New(a.store, a.logger)
	result, err := resolver.Resolve(ctx, path, resolveOpts)
	if err != nil {
		return err
	}

	a.logger.Info(fmt.Sprintf(
		"%s is valid: %d jobs, fingerprint %s",
		path, len(result.Plan.Jobs), result.Plan.Fingerprint(),
	))
	return nil
}

// renderOnce runs a single resolution and writes the plan. It returns the
// plan fingerprint so the watch loop can skip unchanged re-renders.
func (a *App) renderOnce(
	ctx context.Context,
	store ports.DocumentStore,
	path string,
	opts resolve.Options,
	out io.Writer,
) (string, error) {
	resolver := resolve.New(store, a.logger)
	result, err := resolver.Resolve(ctx, path, opts)
	if err != nil {
		return "", err
	}

	if err := a.renderer.Render(out, result.Plan); err != nil {
		return "", zerr.Wrap(err, domain.ErrRenderFailed.Error())
	}
	return result.Plan.Fingerprint(), nil
}

// watchLoop renders once, then re-renders whenever one of the documents the
// render touched changes on disk. Failed re-renders are logged and the loop
// keeps going, so a half-saved file does not kill the session.
func (a *App) watchLoop(ctx context.Context, path string, opts resolve.Options, out io.Writer) error {
	tracking := docstore.NewTrackingStore(a.store)

	lastFingerprint := ""
	render := func() {
		tracking.Reset()
		fingerprint, err := a.renderOnce(ctx, tracking, path, opts, out)
		if err != nil {
			a.logger.Error(err)
			return
		}
		if fingerprint == lastFingerprint {
			a.logger.Info("plan unchanged")
			return
		}
		lastFingerprint = fingerprint
	}
	render()

	if err := a.watcher.Watch(tracking.Accessed()); err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	if err := a.watcher.Start(ctx); err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	changed := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(debounceWindow, func(paths []string) {
		select {
		case changed <- paths:
		default:
		}
	})
	go func() {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
	}()

	a.logger.Info(fmt.Sprintf("watching %d documents, press ctrl-c to stop", len(tracking.Accessed())))

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changed:
			a.logger.Info("change detected: " + strings.Join(paths, ", "))
			render()
			// A re-render may pull in templates the previous one did not.
			if err := a.watcher.Watch(tracking.Accessed()); err != nil {
				return zerr.Wrap(err, domain.ErrWatchFailed.Error())
			}
		}
	}
}

// buildResolveOptions converts CLI-form overrides into resolver options.
func buildResolveOptions(parameters, contextFacts []string, maxDepth int) (resolve.Options, error) {
	overrides, err := parseParameterOverrides(parameters)
	if err != nil {
		return resolve.Options{}, err
	}

	facts, err := parseKeyValues(contextFacts)
	if err != nil {
		return resolve.Options{}, err
	}

	return resolve.Options{
		Parameters: overrides,
		Context:    domain.NewStringContextSnapshot(facts),
		MaxDepth:   maxDepth,
	}, nil
}

// parseParameterOverrides parses key=value pairs, interpreting each value as
// a YAML scalar so `-p count=3` arrives as a number and `-p debug=true` as a
// boolean.
func parseParameterOverrides(pairs []string) (map[string]cty.Value, error) {
	raw, err := parseKeyValues(pairs)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	overrides := make(map[string]cty.Value, len(raw))
	for key, value := range raw {
		parsed, err := parseOverrideValue(value)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidOverride.Error()), "key", key)
		}
		overrides[key] = parsed
	}
	return overrides, nil
}

func parseOverrideValue(raw string) (cty.Value, error) {
	if raw == "" {
		return cty.StringVal(""), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		return cty.NilVal, err
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		return domain.NodeToValue(node.Content[0])
	}
	return domain.NodeToValue(&node)
}

func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, zerr.With(domain.ErrInvalidOverride, "argument", pair)
		}
		values[key] = value
	}
	return values, nil
}
