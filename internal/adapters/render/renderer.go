// Package render writes resolved plans as canonical YAML.
package render

import (
	"io"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/planoci/plano/internal/core/domain"
	"github.com/planoci/plano/internal/core/ports"
)

var _ ports.PlanRenderer = (*Renderer)(nil)

const yamlIndent = 2

// Renderer implements ports.PlanRenderer using YAML output. Jobs and steps
// keep their plan order; env keys are emitted sorted, so equal plans always
// render to identical bytes.
type Renderer struct{}

// NewRenderer creates a new YAML plan renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

type planDoc struct {
	Fingerprint string   `yaml:"fingerprint"`
	Jobs        []jobDoc `yaml:"jobs"`
}

type jobDoc struct {
	Job   string            `yaml:"job"`
	Env   map[string]string `yaml:"env,omitempty"`
	Steps []stepDoc         `yaml:"steps,omitempty"`
}

type stepDoc struct {
	DisplayName string            `yaml:"displayName,omitempty"`
	Script      string            `yaml:"script"`
	Env         map[string]string `yaml:"env,omitempty"`
}

// Render writes the plan to w.
func (r *Renderer) Render(w io.Writer, plan domain.Plan) error {
	doc := planDoc{
		Fingerprint: plan.Fingerprint(),
		Jobs:        make([]jobDoc, 0, len(plan.Jobs)),
	}
	for _, job := range plan.Jobs {
		jd := jobDoc{Job: job.Name, Env: job.Env}
		for _, step := range job.Steps {
			jd.Steps = append(jd.Steps, stepDoc(step))
		}
		doc.Jobs = append(doc.Jobs, jd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(doc); err != nil {
		return zerr.Wrap(err, domain.ErrRenderFailed.Error())
	}
	return enc.Close()
}
