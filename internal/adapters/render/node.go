package render

import (
	"context"

	"github.com/grindlemire/graft"

	"github.com/planoci/plano/internal/core/ports"
)

// NodeID is the unique identifier for the plan renderer Graft node.
const NodeID graft.ID = "adapter.render"

func init() {
	graft.Register(graft.Node[ports.PlanRenderer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.PlanRenderer, error) {
			return NewRenderer(), nil
		},
	})
}
