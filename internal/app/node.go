package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/backends" //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/lockfile" //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/prefix"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/solver"   //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components holds what the command line needs from the graph.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			lockfile.NodeID,
			solver.NodeID,
			backends.NodeID,
			prefix.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ManifestLoader](ctx)
	if err != nil {
		return nil, err
	}

	locks, err := graft.Dep[ports.LockStore](ctx)
	if err != nil {
		return nil, err
	}

	solvers, err := graft.Dep[[]ports.Solver](ctx)
	if err != nil {
		return nil, err
	}

	factory, err := graft.Dep[ports.Backends](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[*prefix.Store](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, locks, solvers, factory, store, store, log), nil
}
