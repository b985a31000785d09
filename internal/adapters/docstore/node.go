package docstore

import (
	"context"
	"os"

	"github.com/grindlemire/graft"

	"github.com/planoci/plano/internal/core/ports"
)

// NodeID is the unique identifier for the document store Graft node.
const NodeID graft.ID = "adapter.docstore"

func init() {
	graft.Register(graft.Node[ports.DocumentStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DocumentStore, error) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			return NewFilesystemStore(cwd), nil
		},
	})
}
