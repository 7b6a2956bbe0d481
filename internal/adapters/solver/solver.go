// Package solver implements the conda and pypi solver adapters on top of a backtracking search.
package solver

import (
	"context"
	"errors"
	"maps"
	"slices"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/core/version"
)

// Option configures a solver.
type Option func(*options)

type options struct {
	maxSteps int
}

// WithMaxSteps bounds the number of search states a solve may explore.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		o.maxSteps = n
	}
}

func newOptions(opts []Option) options {
	o := options{maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ForEcosystem returns the solver of ecosystem e.
func ForEcosystem(e domain.Ecosystem, opts ...Option) ports.Solver {
	if e == domain.EcosystemPyPI {
		return NewPyPI(opts...)
	}
	return NewConda(opts...)
}

// All returns one solver per ecosystem in solve order.
func All(opts ...Option) []ports.Solver {
	out := make([]ports.Solver, 0, len(domain.Ecosystems()))
	for _, e := range domain.Ecosystems() {
		out = append(out, ForEcosystem(e, opts...))
	}
	return out
}

// Conda solves binary packages. Virtual packages of the cell are treated as installed.
type Conda struct {
	opts options
}

// NewConda creates a conda solver.
func NewConda(opts ...Option) *Conda {
	return &Conda{opts: newOptions(opts)}
}

// Ecosystem returns domain.EcosystemConda.
func (s *Conda) Ecosystem() domain.Ecosystem {
	return domain.EcosystemConda
}

// Solve resolves the conda specs of task.
func (s *Conda) Solve(ctx context.Context, task ports.SolveTask) (domain.ResolvedGraph, error) {
	provided := make(map[string]candidate, len(task.Virtual))
	for _, v := range task.Virtual {
		provided[v.Name] = candidate{
			entry:        domain.IndexEntry{Name: v.Name, Version: v.Version},
			provided:     true,
			providedName: v.Name,
		}
	}
	p := &problem{
		scheme:   version.Conda,
		index:    task.Index,
		provided: provided,
		locked:   lockedByName(task.Locked, domain.EcosystemConda),
		parseDep: parseCondaDep,
		maxSteps: s.opts.maxSteps,
	}
	return solve(ctx, p, task, domain.EcosystemConda)
}

// PyPI solves wheels against the conda graph of the same cell.
// Names provided by the conda graph are never re-resolved.
type PyPI struct {
	opts options
}

// NewPyPI creates a pypi solver.
func NewPyPI(opts ...Option) *PyPI {
	return &PyPI{opts: newOptions(opts)}
}

// Ecosystem returns domain.EcosystemPyPI.
func (s *PyPI) Ecosystem() domain.Ecosystem {
	return domain.EcosystemPyPI
}

// Solve resolves the pypi specs of task.
func (s *PyPI) Solve(ctx context.Context, task ports.SolveTask) (domain.ResolvedGraph, error) {
	provided := make(map[string]candidate, len(task.Context))
	python := ""
	for _, r := range task.Context {
		name := domain.NormalizeName(domain.EcosystemPyPI, r.Name.String())
		provided[name] = candidate{
			entry:        domain.IndexEntry{Name: name, Version: r.Version.String()},
			provided:     true,
			providedName: r.Name.String(),
		}
		if r.Name.String() == "python" {
			python = r.Version.String()
		}
	}
	if python == "" {
		return domain.ResolvedGraph{}, &domain.SolveFailure{
			Cell:       task.Cell,
			Ecosystem:  domain.EcosystemPyPI,
			Diagnostic: domain.ErrPythonRequired.Error(),
			Cause:      domain.ErrPythonRequired,
		}
	}

	p := &problem{
		scheme:            version.PyPI,
		index:             task.Index,
		provided:          provided,
		locked:            lockedByName(task.Locked, domain.EcosystemPyPI),
		parseDep:          parsePyPIDep,
		env:               newMarkerEnv(task.Cell.Platform, python),
		accept:            requiresPython(python),
		excludePrerelease: true,
		maxSteps:          s.opts.maxSteps,
	}
	return solve(ctx, p, task, domain.EcosystemPyPI)
}

// requiresPython accepts entries whose requires-python admits the interpreter version.
func requiresPython(python string) func(domain.IndexEntry) bool {
	return func(e domain.IndexEntry) bool {
		if e.RequiresPython == "" {
			return true
		}
		c, err := version.PyPI.Parse(e.RequiresPython)
		if err != nil {
			return false
		}
		return c.Matches(python)
	}
}

func lockedByName(records []domain.ResolvedRecord, eco domain.Ecosystem) map[string]domain.ResolvedRecord {
	out := make(map[string]domain.ResolvedRecord, len(records))
	for _, r := range records {
		if r.Ecosystem == eco {
			out[r.Name.String()] = r
		}
	}
	return out
}

func solve(ctx context.Context, p *problem, task ports.SolveTask, eco domain.Ecosystem) (domain.ResolvedGraph, error) {
	roots := make([]requirement, 0, len(task.Specs))
	for _, spec := range task.Specs {
		if spec.Ecosystem != eco {
			continue
		}
		r, err := rootRequirement(spec)
		if err != nil {
			return domain.ResolvedGraph{}, &domain.SolveFailure{
				Cell: task.Cell, Ecosystem: eco, Diagnostic: err.Error(), Cause: err,
			}
		}
		roots = append(roots, r)
	}

	s := &search{p: p}
	st, ok, err := s.run(ctx, roots)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.ResolvedGraph{}, err
		}
		return domain.ResolvedGraph{}, &domain.SolveFailure{
			Cell: task.Cell, Ecosystem: eco, Diagnostic: err.Error(), Cause: err,
		}
	}
	if !ok {
		return domain.ResolvedGraph{}, s.failure(task.Cell, eco)
	}
	return p.graph(st, eco), nil
}

// graph converts an assignment into records, dropping provided packages.
func (p *problem) graph(st state, eco domain.Ecosystem) domain.ResolvedGraph {
	var g domain.ResolvedGraph
	for _, name := range slices.Sorted(maps.Keys(st.assigned)) {
		c := st.assigned[name]
		if c.provided {
			continue
		}
		extras := st.extras[name]
		deps := make([]string, 0, len(c.entry.Depends))
		for _, dep := range c.entry.Depends {
			r, ok, err := p.parseDep(dep, "", p.env.withExtras(extras))
			if err != nil || !ok {
				continue
			}
			if pc, isProvided := p.provided[r.name]; isProvided {
				if domain.IsVirtual(pc.providedName) {
					continue
				}
				deps = append(deps, pc.providedName)
				continue
			}
			deps = append(deps, r.name)
		}
		slices.Sort(deps)
		g.Records = append(g.Records, domain.ResolvedRecord{
			Ecosystem:      eco,
			Name:           domain.NewInternedString(name),
			Version:        domain.NewInternedString(c.entry.Version),
			Build:          c.entry.Build,
			Checksum:       c.entry.Checksum(),
			Source:         c.entry.URL,
			Depends:        domain.NewInternedStrings(slices.Compact(deps)),
			RequiresPython: c.entry.RequiresPython,
			Extras:         slices.Clone(extras),
		})
	}
	return g
}
