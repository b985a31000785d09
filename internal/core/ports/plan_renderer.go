package ports

import (
	"io"

	"github.com/planoci/plano/internal/core/domain"
)

// PlanRenderer writes a resolved plan in its external output format.
//
//go:generate mockgen -source=plan_renderer.go -destination=mocks/mock_plan_renderer.go -package=mocks
type PlanRenderer interface {
	// Render writes the plan to w. Output is canonical: rendering the same
	// plan twice produces identical bytes.
	Render(w io.Writer, plan domain.Plan) error
}
