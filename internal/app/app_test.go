package app_test

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/planoci/plano/internal/adapters/docstore"
	"github.com/planoci/plano/internal/adapters/render"
	"github.com/planoci/plano/internal/app"
	"github.com/planoci/plano/internal/core/domain"
	"github.com/planoci/plano/internal/core/ports"
	"github.com/planoci/plano/internal/core/ports/mocks"
)

const pipelineDoc = `
parameters:
  - name: serviceDirectory
    type: string
    default: not-specified
jobs:
  - job: build
    steps:
      - script: make build DIR=${{ parameters.serviceDirectory }}
`

type appTestMocks struct {
	logger   *mocks.MockLogger
	renderer *mocks.MockPlanRenderer
	watcher  *mocks.MockWatcher
}

func newTestApp(t *testing.T, docs map[string]string) (*app.App, appTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := appTestMocks{
		logger:   mocks.NewMockLogger(ctrl),
		renderer: mocks.NewMockPlanRenderer(ctrl),
		watcher:  mocks.NewMockWatcher(ctrl),
	}
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	m.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	m.logger.EXPECT().Error(gomock.Any()).AnyTimes()

	a := app.New(docstore.NewMemoryStore(docs), m.logger, m.renderer, m.watcher)
	return a, m
}

// newRenderingApp builds an app with the real YAML renderer so output can be
// inspected.
func newRenderingApp(t *testing.T, docs map[string]string) *app.App {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	watch := mocks.NewMockWatcher(ctrl)
	return app.New(docstore.NewMemoryStore(docs), log, render.NewRenderer(), watch)
}

func TestApp_Render(t *testing.T) {
	a := newRenderingApp(t, map[string]string{"pipeline.yml": pipelineDoc})

	var out bytes.Buffer
	err := a.Render(t.Context(), "pipeline.yml", app.RenderOptions{
		Parameters: []string{"serviceDirectory=eventhub"},
		Output:     &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "job: build\n")
	assert.Contains(t, out.String(), "make build DIR=eventhub")
	assert.Contains(t, out.String(), "fingerprint:")
}

func TestApp_Render_NoPipeline(t *testing.T) {
	a := newRenderingApp(t, nil)
	err := a.Render(t.Context(), "", app.RenderOptions{})
	require.ErrorIs(t, err, domain.ErrNoPipelineSpecified)
}

func TestApp_Render_InvalidOverride(t *testing.T) {
	a := newRenderingApp(t, map[string]string{"pipeline.yml": pipelineDoc})

	tests := []struct {
		name  string
		pairs []string
	}{
		{name: "no equals sign", pairs: []string{"serviceDirectory"}},
		{name: "empty key", pairs: []string{"=value"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Render(t.Context(), "pipeline.yml", app.RenderOptions{
				Parameters: tt.pairs,
			})
			require.ErrorIs(t, err, domain.ErrInvalidOverride)
		})
	}
}

func TestApp_Render_TypedOverrides(t *testing.T) {
	doc := `
parameters:
  - name: retries
    type: number
    default: 1
  - name: verbose
    type: boolean
    default: false
jobs:
  - job: build
    steps:
      - script: run --retries ${{ parameters.retries }} --verbose ${{ parameters.verbose }}
`
	a := newRenderingApp(t, map[string]string{"pipeline.yml": doc})

	var out bytes.Buffer
	err := a.Render(t.Context(), "pipeline.yml", app.RenderOptions{
		Parameters: []string{"retries=3", "verbose=true"},
		Output:     &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "run --retries 3 --verbose true")
}

func TestApp_Render_ContextFacts(t *testing.T) {
	doc := `
jobs:
  - job: gated
    condition: Build.Reason != 'PullRequest'
    steps:
      - script: echo gated
`
	a := newRenderingApp(t, map[string]string{"pipeline.yml": doc})

	var out bytes.Buffer
	err := a.Render(t.Context(), "pipeline.yml", app.RenderOptions{
		Context: []string{"Build.Reason=PullRequest"},
		Output:  &out,
	})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "gated")
}

func TestApp_Render_RendererFailure(t *testing.T) {
	a, m := newTestApp(t, map[string]string{"pipeline.yml": pipelineDoc})
	m.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(errors.New("broken pipe"))

	var out bytes.Buffer
	err := a.Render(t.Context(), "pipeline.yml", app.RenderOptions{Output: &out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrRenderFailed.Error())
}

func TestApp_Render_WatchStopsOnContextCancel(t *testing.T) {
	a, m := newTestApp(t, map[string]string{"pipeline.yml": pipelineDoc})

	// The initial render still runs before the loop notices cancellation.
	m.renderer.EXPECT().Render(gomock.Any(), gomock.Any()).Return(nil)
	m.watcher.EXPECT().Watch(gomock.Any()).Return(nil)
	m.watcher.EXPECT().Start(gomock.Any()).Return(nil)
	m.watcher.EXPECT().Stop().Return(nil)
	m.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(func(ports.WatchEvent) bool) {})).AnyTimes()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var out bytes.Buffer
	err := a.Render(ctx, "pipeline.yml", app.RenderOptions{Output: &out, Watch: true})
	require.NoError(t, err)
}

func TestApp_Validate(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).Times(1)
	watch := mocks.NewMockWatcher(ctrl)
	a := app.New(docstore.NewMemoryStore(map[string]string{"pipeline.yml": pipelineDoc}), log, render.NewRenderer(), watch)

	require.NoError(t, a.Validate(t.Context(), "pipeline.yml", app.ValidateOptions{}))
}

func TestApp_Validate_Failure(t *testing.T) {
	a := newRenderingApp(t, map[string]string{"pipeline.yml": "trigger: none"})
	err := a.Validate(t.Context(), "pipeline.yml", app.ValidateOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidPipeline)
}
