package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

// SolveTask is one ecosystem of one cell handed to a solver.
type SolveTask struct {
	Cell  domain.CellKey
	Specs []domain.DependencySpec
	Index *domain.Index
	// Locked are the records of the previous lock document for this cell, used as preferences.
	Locked []domain.ResolvedRecord
	// Virtual are the system capabilities of the cell's platform.
	Virtual []domain.VirtualPackage
	// Context holds the records already solved for earlier ecosystems of the cell.
	Context []domain.ResolvedRecord
}

// Solver resolves the specs of one ecosystem into a graph.
// Failures are reported as *domain.SolveFailure.
//
//go:generate mockgen -source=solver.go -destination=mocks/mock_solver.go -package=mocks
type Solver interface {
	// Ecosystem returns the ecosystem the solver handles.
	Ecosystem() domain.Ecosystem
	// Solve returns one graph satisfying every spec of the task.
	Solve(ctx context.Context, task SolveTask) (domain.ResolvedGraph, error)
}

// CandidateSolver is a solver able to report several equally valid graphs.
type CandidateSolver interface {
	Solver
	// SolveCandidates returns every graph the solver considers optimal.
	SolveCandidates(ctx context.Context, task SolveTask) ([]domain.ResolvedGraph, error)
}
