package remote

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the remote client Graft node.
const NodeID graft.ID = "adapter.remote"

func init() {
	graft.Register(graft.Node[*Client]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Client, error) {
			return NewClient(), nil
		},
	})
}
