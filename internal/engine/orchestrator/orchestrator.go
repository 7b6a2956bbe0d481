// Package orchestrator solves the cells of a workspace on a bounded worker pool.
package orchestrator

import (
	"context"
	"errors"
	"runtime"
	"slices"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Request selects the cells to solve and how.
type Request struct {
	// Cells limits the solve to the given keys. Nil solves every cell of the workspace.
	Cells []domain.CellKey
	// Previous is the last lock document. Its records are passed to the solvers as preferences.
	Previous *domain.LockDocument
	// Concurrency bounds the number of cells solved at once. Zero means runtime.NumCPU().
	Concurrency int
	// IndexAttempts bounds the retries of a failing index fetch.
	IndexAttempts int
}

// Outcome holds the per-cell results of a solve, both sorted by cell key.
type Outcome struct {
	Solved   []domain.LockedCell
	Failures []domain.CellFailure
}

// Err aggregates the cell failures, or returns nil when every cell was solved.
func (o *Outcome) Err() error {
	if len(o.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(o.Failures)+1)
	errs = append(errs, domain.ErrSolveFailed)
	for _, f := range o.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Orchestrator dispatches cells to the solver adapters.
type Orchestrator struct {
	index   ports.IndexProvider
	tracer  ports.Tracer
	solvers map[domain.Ecosystem]ports.Solver
}

// New creates an Orchestrator. Each solver handles the ecosystem it reports.
func New(index ports.IndexProvider, tracer ports.Tracer, solvers []ports.Solver) *Orchestrator {
	bySystem := make(map[domain.Ecosystem]ports.Solver, len(solvers))
	for _, s := range solvers {
		bySystem[s.Ecosystem()] = s
	}
	return &Orchestrator{
		index:   index,
		tracer:  tracer,
		solvers: bySystem,
	}
}

type cellResult struct {
	locked domain.LockedCell
	err    error
}

// Solve solves the requested cells. A failing cell never stops its siblings.
// When ctx is cancelled, Solve returns the context error and no outcome.
func (o *Orchestrator) Solve(ctx context.Context, ws *domain.Workspace, req Request) (*Outcome, error) {
	cells, err := selectCells(ws, req.Cells)
	if err != nil {
		return nil, err
	}

	plan := make([]string, len(cells))
	for i, c := range cells {
		plan[i] = spanName(c.Key)
	}
	o.tracer.EmitPlan(ctx, plan)

	limit := req.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	results := make([]cellResult, len(cells))
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i := range cells {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = cellResult{err: ctx.Err()}
				return nil
			}
			locked, err := o.solveCell(ctx, cells[i], req)
			results[i] = cellResult{locked: locked, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{}
	for i, r := range results {
		if r.err != nil {
			out.Failures = append(out.Failures, domain.CellFailure{Key: cells[i].Key, Err: r.err})
			continue
		}
		out.Solved = append(out.Solved, r.locked)
	}
	return out, nil
}

func spanName(key domain.CellKey) string {
	return "solve " + key.String()
}

func selectCells(ws *domain.Workspace, keys []domain.CellKey) ([]*domain.Cell, error) {
	if keys == nil {
		out := make([]*domain.Cell, len(ws.Cells))
		for i := range ws.Cells {
			out[i] = &ws.Cells[i]
		}
		return out, nil
	}
	sorted := slices.Clone(keys)
	slices.SortFunc(sorted, domain.CompareCellKeys)
	sorted = slices.Compact(sorted)

	out := make([]*domain.Cell, 0, len(sorted))
	for _, k := range sorted {
		c, ok := ws.Cell(k)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnknownEnvironment, ""), "cell", k.String())
		}
		out = append(out, c)
	}
	return out, nil
}

// solveCell runs the solvers of a cell in ecosystem order, handing each the records solved so far.
func (o *Orchestrator) solveCell(ctx context.Context, cell *domain.Cell, req Request) (domain.LockedCell, error) {
	ctx, span := o.tracer.Start(ctx, spanName(cell.Key),
		ports.WithAttribute("strata.environment", cell.Key.Environment),
		ports.WithAttribute("strata.platform", cell.Key.Platform.String()),
	)
	defer span.End()

	var locked []domain.ResolvedRecord
	if prev, ok := req.Previous.Cell(cell.Key); ok {
		locked = prev.Records
	}

	var records []domain.ResolvedRecord
	for _, eco := range cell.Ecosystems() {
		graph, err := o.solveEcosystem(ctx, cell, eco, locked, records, req.IndexAttempts)
		if err != nil {
			span.RecordError(err)
			return domain.LockedCell{}, err
		}
		span.SetAttribute("strata."+eco.String()+".packages", len(graph.Records))
		records = append(records, graph.Records...)
	}

	graph := domain.ResolvedGraph{Records: records}.Canonical()
	if err := graph.Validate(); err != nil {
		err = zerr.With(err, "cell", cell.Key.String())
		span.RecordError(err)
		return domain.LockedCell{}, err
	}

	return domain.LockedCell{
		Key:         cell.Key,
		Fingerprint: cell.Fingerprint,
		Records:     graph.Records,
	}, nil
}

func (o *Orchestrator) solveEcosystem(
	ctx context.Context,
	cell *domain.Cell,
	eco domain.Ecosystem,
	locked []domain.ResolvedRecord,
	solved []domain.ResolvedRecord,
	attempts int,
) (domain.ResolvedGraph, error) {
	solver, ok := o.solvers[eco]
	if !ok {
		return domain.ResolvedGraph{}, &domain.SolveFailure{
			Cell: cell.Key, Ecosystem: eco, Diagnostic: "no solver registered",
		}
	}

	idx, err := o.index.Fetch(ctx, domain.IndexRequest{
		Ecosystem: eco,
		Platform:  cell.Key.Platform,
		Sources:   cell.Sources(eco),
		Attempts:  attempts,
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.ResolvedGraph{}, ctx.Err()
		}
		return domain.ResolvedGraph{}, &domain.SolveFailure{
			Cell: cell.Key, Ecosystem: eco, Diagnostic: err.Error(), Cause: err,
		}
	}

	task := ports.SolveTask{
		Cell:    cell.Key,
		Specs:   cell.SpecsFor(eco),
		Index:   idx,
		Locked:  locked,
		Virtual: cell.Virtual,
		Context: slices.Clone(solved),
	}

	candidates, ok := solver.(ports.CandidateSolver)
	if !ok {
		return solver.Solve(ctx, task)
	}
	graphs, err := candidates.SolveCandidates(ctx, task)
	if err != nil {
		return domain.ResolvedGraph{}, err
	}
	if len(graphs) == 0 {
		return domain.ResolvedGraph{}, &domain.SolveFailure{
			Cell: cell.Key, Ecosystem: eco, Cause: domain.ErrNoSolverCandidates,
		}
	}
	return pickCandidate(graphs), nil
}

// pickCandidate canonicalizes every graph and returns the smallest by (ecosystem, name, version).
func pickCandidate(graphs []domain.ResolvedGraph) domain.ResolvedGraph {
	best := graphs[0].Canonical()
	for _, g := range graphs[1:] {
		c := g.Canonical()
		if domain.CompareGraphs(c, best) < 0 {
			best = c
		}
	}
	return best
}
