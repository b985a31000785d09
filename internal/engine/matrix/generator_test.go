package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/planoci/plano/internal/core/domain"
	"github.com/planoci/plano/internal/engine/matrix"
)

func parseStrategy(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	require.NotEmpty(t, doc.Content)
	return doc.Content[0]
}

func TestParseStrategy_NamedCases(t *testing.T) {
	node := parseStrategy(t, `
matrix:
  linux_py39:
    OS: linux
    Py: "3.9"
  windows_py310:
    OS: windows
    Py: "3.10"
`)

	s, ok, err := matrix.ParseStrategy(node)
	require.NoError(t, err)
	require.True(t, ok)

	// Case order follows document order.
	require.Len(t, s.Cases, 2)
	assert.Equal(t, "linux_py39", s.Cases[0].Name)
	assert.Equal(t, "windows_py310", s.Cases[1].Name)
	assert.Equal(t, map[string]string{"OS": "linux", "Py": "3.9"}, s.Cases[0].Values)
}

func TestParseStrategy_Axes(t *testing.T) {
	node := parseStrategy(t, `
axes:
  OS: [linux, windows]
  Py: ["3.9", "3.10"]
`)

	s, ok, err := matrix.ParseStrategy(node)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"OS", "Py"}, s.AxisNames)

	// Cross product in declaration order, last axis fastest.
	require.Len(t, s.Cases, 4)
	assert.Equal(t, "linux_3.9", s.Cases[0].Name)
	assert.Equal(t, "linux_3.10", s.Cases[1].Name)
	assert.Equal(t, "windows_3.9", s.Cases[2].Name)
	assert.Equal(t, "windows_3.10", s.Cases[3].Name)
}

func TestParseStrategy_Absent(t *testing.T) {
	_, ok, err := matrix.ParseStrategy(nil)
	require.NoError(t, err)
	assert.False(t, ok)

	// A strategy mapping without a matrix declaration is not an error.
	_, ok, err = matrix.ParseStrategy(parseStrategy(t, "parallel: 4"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseStrategy_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "empty matrix",
			src:  "matrix: {}",
		},
		{
			name: "case not a mapping",
			src:  "matrix:\n  broken: just-a-string",
		},
		{
			name: "inconsistent axis sets",
			src: `
matrix:
  a:
    OS: linux
  b:
    Py: "3.9"
`,
		},
		{
			name: "empty axes",
			src:  "axes: {}",
		},
		{
			name: "axis not a sequence",
			src:  "axes:\n  OS: linux",
		},
		{
			name: "empty axis values",
			src:  "axes:\n  OS: []",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := matrix.ParseStrategy(parseStrategy(t, tt.src))
			require.ErrorIs(t, err, domain.ErrInvalidMatrix)
		})
	}
}

func TestGenerate(t *testing.T) {
	base := domain.ResolvedJob{
		Name: "test",
		Env:  map[string]string{"TARGET_OS": "$(OS)"},
		Steps: []domain.ResolvedStep{
			{Script: "pytest --python $(Py)", DisplayName: "tests on $(OS)"},
		},
	}
	s := domain.MatrixStrategy{
		AxisNames: []string{"OS", "Py"},
		Cases: []domain.MatrixCase{
			{Name: "linux_py39", Values: map[string]string{"OS": "linux", "Py": "3.9"}},
			{Name: "windows_py310", Values: map[string]string{"OS": "windows", "Py": "3.10"}},
		},
	}

	jobs, err := matrix.Generate(base, s)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "test/linux_py39", jobs[0].Name)
	assert.Equal(t, "linux", jobs[0].Env["TARGET_OS"])
	assert.Equal(t, "pytest --python 3.9", jobs[0].Steps[0].Script)
	assert.Equal(t, "tests on linux", jobs[0].Steps[0].DisplayName)

	assert.Equal(t, "test/windows_py310", jobs[1].Name)
	assert.Equal(t, "pytest --python 3.10", jobs[1].Steps[0].Script)

	// The base job is untouched.
	assert.Equal(t, "pytest --python $(Py)", base.Steps[0].Script)
}

func TestGenerate_UndeclaredAxisFails(t *testing.T) {
	base := domain.ResolvedJob{
		Name:  "test",
		Steps: []domain.ResolvedStep{{Script: "run $(Arch)"}},
	}
	s := domain.MatrixStrategy{
		AxisNames: []string{"OS"},
		Cases: []domain.MatrixCase{
			{Name: "linux", Values: map[string]string{"OS": "linux"}},
		},
	}

	_, err := matrix.Generate(base, s)
	require.ErrorIs(t, err, domain.ErrMissingAxisValue)
}

func TestGenerate_UnreferencedAxisAllowed(t *testing.T) {
	// The strategy declares an axis the body never mentions.
	base := domain.ResolvedJob{
		Name:  "test",
		Steps: []domain.ResolvedStep{{Script: "echo hello"}},
	}
	s := domain.MatrixStrategy{
		AxisNames: []string{"OS"},
		Cases: []domain.MatrixCase{
			{Name: "linux", Values: map[string]string{"OS": "linux"}},
			{Name: "windows", Values: map[string]string{"OS": "windows"}},
		},
	}

	jobs, err := matrix.Generate(base, s)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "test/linux", jobs[0].Name)
	assert.Equal(t, "test/windows", jobs[1].Name)
}
