// Package matrix expands a job's strategy declaration into concrete job
// instances, one per case, with $(Axis) slots substituted per case.
package matrix

import (
	"regexp"
	"sort"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/planoci/plano/internal/core/domain"
)

// axisSlotPattern matches $(AxisName) substitution slots in job bodies.
var axisSlotPattern = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_]*)\)`)

// ParseStrategy reads a job's `strategy` mapping into a normalized strategy.
// Two forms are supported:
//
//	strategy:
//	  matrix:          # named-case form, case order = document order
//	    linux_py39:
//	      OS: linux
//	      Py: "3.9"
//
//	strategy:
//	  axes:            # cross-product form, last axis varies fastest
//	    OS: [linux, windows]
//	    Py: ["3.9", "3.10"]
//
// The boolean result reports whether a matrix declaration was present at all.
func ParseStrategy(strategy *yaml.Node) (domain.MatrixStrategy, bool, error) {
	var zero domain.MatrixStrategy
	if strategy == nil {
		return zero, false, nil
	}
	if strategy.Kind != yaml.MappingNode {
		return zero, false, zerr.With(domain.ErrInvalidMatrix, "reason", "strategy must be a mapping")
	}

	for i := 0; i+1 < len(strategy.Content); i += 2 {
		key, value := strategy.Content[i].Value, strategy.Content[i+1]
		switch key {
		case "matrix":
			s, err := parseNamedCases(value)
			return s, err == nil, err
		case "axes":
			s, err := parseAxes(value)
			return s, err == nil, err
		}
	}
	return zero, false, nil
}

// parseNamedCases reads the explicit case-name form. Every case must declare
// the same axis set.
func parseNamedCases(node *yaml.Node) (domain.MatrixStrategy, error) {
	var s domain.MatrixStrategy
	if node.Kind != yaml.MappingNode || len(node.Content) == 0 {
		return s, zerr.With(domain.ErrInvalidMatrix, "reason", "matrix must be a non-empty mapping")
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		caseName, caseNode := node.Content[i].Value, node.Content[i+1]
		if caseNode.Kind != yaml.MappingNode || len(caseNode.Content) == 0 {
			err := zerr.With(domain.ErrInvalidMatrix, "case", caseName)
			return s, zerr.With(err, "reason", "case must be a non-empty mapping of axis values")
		}

		c := domain.MatrixCase{Name: caseName, Values: make(map[string]string, len(caseNode.Content)/2)}
		var axes []string
		for j := 0; j+1 < len(caseNode.Content); j += 2 {
			axis, value := caseNode.Content[j].Value, caseNode.Content[j+1]
			if value.Kind != yaml.ScalarNode {
				err := zerr.With(domain.ErrInvalidMatrix, "case", caseName)
				return s, zerr.With(err, "axis", axis)
			}
			c.Values[axis] = value.Value
			axes = append(axes, axis)
		}

		if s.AxisNames == nil {
			s.AxisNames = axes
		} else if !sameAxisSet(s.AxisNames, axes) {
			err := zerr.With(domain.ErrInvalidMatrix, "case", caseName)
			return s, zerr.With(err, "reason", "all cases must declare the same axis names")
		}
		s.Cases = append(s.Cases, c)
	}
	return s, nil
}

// parseAxes reads the cross-product form. Cases are generated in axis
// declaration order with the last axis varying fastest, which makes the
// resulting job order deterministic and reproducible.
func parseAxes(node *yaml.Node) (domain.MatrixStrategy, error) {
	var s domain.MatrixStrategy
	if node.Kind != yaml.MappingNode || len(node.Content) == 0 {
		return s, zerr.With(domain.ErrInvalidMatrix, "reason", "axes must be a non-empty mapping")
	}

	values := make([][]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		axis, list := node.Content[i].Value, node.Content[i+1]
		if list.Kind != yaml.SequenceNode || len(list.Content) == 0 {
			err := zerr.With(domain.ErrInvalidMatrix, "axis", axis)
			return s, zerr.With(err, "reason", "axis must be a non-empty sequence of values")
		}
		axisValues := make([]string, 0, len(list.Content))
		for _, v := range list.Content {
			if v.Kind != yaml.ScalarNode {
				return s, zerr.With(domain.ErrInvalidMatrix, "axis", axis)
			}
			axisValues = append(axisValues, v.Value)
		}
		s.AxisNames = append(s.AxisNames, axis)
		values = append(values, axisValues)
	}

	s.Cases = crossProduct(s.AxisNames, values)
	return s, nil
}

func crossProduct(axes []string, values [][]string) []domain.MatrixCase {
	total := 1
	for _, vs := range values {
		total *= len(vs)
	}

	cases := make([]domain.MatrixCase, 0, total)
	indices := make([]int, len(axes))
	for {
		c := domain.MatrixCase{Values: make(map[string]string, len(axes))}
		parts := make([]string, len(axes))
		for i, axis := range axes {
			v := values[i][indices[i]]
			c.Values[axis] = v
			parts[i] = v
		}
		c.Name = strings.Join(parts, "_")
		cases = append(cases, c)

		// Advance odometer-style, last axis fastest.
		i := len(indices) - 1
		for i >= 0 {
			indices[i]++
			if indices[i] < len(values[i]) {
				break
			}
			indices[i] = 0
			i--
		}
		if i < 0 {
			return cases
		}
	}
}

func sameAxisSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Generate produces one job per case of the strategy, substituting axis
// values into every $(Axis) slot of the job body. Axes never referenced by
// the body are permitted; a slot naming an axis the strategy does not declare
// fails.
func Generate(base domain.ResolvedJob, s domain.MatrixStrategy) ([]domain.ResolvedJob, error) {
	if err := checkReferencedAxes(base, s); err != nil {
		return nil, err
	}

	jobs := make([]domain.ResolvedJob, 0, len(s.Cases))
	for _, c := range s.Cases {
		jobs = append(jobs, instantiate(base, c))
	}
	return jobs, nil
}

func instantiate(base domain.ResolvedJob, c domain.MatrixCase) domain.ResolvedJob {
	sub := func(in string) string {
		return axisSlotPattern.ReplaceAllStringFunc(in, func(m string) string {
			axis := axisSlotPattern.FindStringSubmatch(m)[1]
			if v, ok := c.Values[axis]; ok {
				return v
			}
			return m
		})
	}

	job := domain.ResolvedJob{
		Name: base.Name + "/" + c.Name,
		Env:  substituteEnv(base.Env, sub),
	}
	for _, step := range base.Steps {
		job.Steps = append(job.Steps, domain.ResolvedStep{
			DisplayName: sub(step.DisplayName),
			Script:      sub(step.Script),
			Env:         substituteEnv(step.Env, sub),
		})
	}
	return job
}

func substituteEnv(env map[string]string, sub func(string) string) map[string]string {
	if env == nil {
		return nil
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = sub(v)
	}
	return out
}

// checkReferencedAxes collects every $(Axis) slot of the job body and fails
// when a referenced axis has no value in any case of the strategy.
func checkReferencedAxes(base domain.ResolvedJob, s domain.MatrixStrategy) error {
	referenced := map[string]bool{}
	collect := func(in string) {
		for _, m := range axisSlotPattern.FindAllStringSubmatch(in, -1) {
			referenced[m[1]] = true
		}
	}

	for _, v := range base.Env {
		collect(v)
	}
	for _, step := range base.Steps {
		collect(step.DisplayName)
		collect(step.Script)
		for _, v := range step.Env {
			collect(v)
		}
	}

	missing := make([]string, 0)
	for axis := range referenced {
		if !s.HasAxis(axis) {
			missing = append(missing, axis)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		err := zerr.With(domain.ErrMissingAxisValue, "job", base.Name)
		return zerr.With(err, "axes", strings.Join(missing, ", "))
	}
	return nil
}
