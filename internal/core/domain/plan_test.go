package domain_test

import (
	"testing"

	"github.com/planoci/plano/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func samplePlan() domain.Plan {
	return domain.Plan{
		Jobs: []domain.ResolvedJob{
			{
				Name: "build",
				Env:  map[string]string{"A": "1", "B": "2"},
				Steps: []domain.ResolvedStep{
					{Script: "make build", DisplayName: "Build"},
				},
			},
		},
	}
}

func TestPlan_Fingerprint(t *testing.T) {
	t.Run("stable across calls", func(t *testing.T) {
		p := samplePlan()
		first := p.Fingerprint()
		assert.Len(t, first, 16)
		for range 5 {
			assert.Equal(t, first, p.Fingerprint())
		}
	})

	t.Run("independent of env insertion order", func(t *testing.T) {
		a := samplePlan()
		b := samplePlan()
		b.Jobs[0].Env = map[string]string{"B": "2", "A": "1"}
		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("sensitive to content", func(t *testing.T) {
		a := samplePlan()
		b := samplePlan()
		b.Jobs[0].Steps[0].Script = "make test"
		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("sensitive to job order", func(t *testing.T) {
		a := domain.Plan{Jobs: []domain.ResolvedJob{{Name: "x"}, {Name: "y"}}}
		b := domain.Plan{Jobs: []domain.ResolvedJob{{Name: "y"}, {Name: "x"}}}
		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("field boundaries do not collide", func(t *testing.T) {
		a := domain.Plan{Jobs: []domain.ResolvedJob{{Name: "ab"}}}
		b := domain.Plan{Jobs: []domain.ResolvedJob{{Name: "a"}, {Name: "b"}}}
		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})
}
