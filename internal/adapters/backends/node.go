package backends

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/remote"
	"go.trai.ch/strata/internal/core/ports"
)

// NodeID is the unique identifier for the backends Graft node.
const NodeID graft.ID = "adapter.backends"

func init() {
	graft.Register(graft.Node[ports.Backends]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{remote.NodeID},
		Run: func(ctx context.Context) (ports.Backends, error) {
			client, err := graft.Dep[*remote.Client](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(client), nil
		},
	})
}
