package solver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/core/ports"
)

// NodeID is the unique identifier for the solver set Graft node.
const NodeID graft.ID = "adapter.solvers"

func init() {
	graft.Register(graft.Node[[]ports.Solver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) ([]ports.Solver, error) {
			return All(), nil
		},
	})
}
