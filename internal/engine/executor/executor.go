// Package executor applies installer operations to environment prefixes.
package executor

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Plan is the ordered list of operations for one environment prefix.
type Plan struct {
	Environment string
	Prefix      string
	Operations  []domain.Operation
}

// Result reports how far a plan got.
type Result struct {
	Environment string
	Prefix      string
	// Applied is the number of operations that completed.
	Applied int
	// Failed is the operation that stopped the plan, if any.
	Failed *domain.Operation
	Err    error
}

// Partial reports whether the prefix was left with only part of its plan applied.
func (r Result) Partial() bool {
	return r.Err != nil && r.Applied > 0
}

// Executor runs plans against an installer.
type Executor struct {
	installer   ports.Installer
	fetcher     ports.ArtifactFetcher
	tracer      ports.Tracer
	concurrency int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Executor. concurrency bounds parallel artifact downloads per plan;
// zero means runtime.NumCPU().
func New(installer ports.Installer, fetcher ports.ArtifactFetcher, tracer ports.Tracer, concurrency int) *Executor {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Executor{
		installer:   installer,
		fetcher:     fetcher,
		tracer:      tracer,
		concurrency: concurrency,
		locks:       make(map[string]*sync.Mutex),
	}
}

// Apply runs every plan. Plans for different prefixes run in parallel and a failing plan
// never stops the others. The returned results follow the order of plans.
func (e *Executor) Apply(ctx context.Context, plans []Plan) ([]Result, error) {
	names := make([]string, len(plans))
	for i, p := range plans {
		names[i] = spanName(p.Environment)
	}
	e.tracer.EmitPlan(ctx, names)

	results := make([]Result, len(plans))
	g := new(errgroup.Group)
	for i := range plans {
		g.Go(func() error {
			results[i] = e.apply(ctx, plans[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if len(errs) > 0 {
		return results, errors.Join(append([]error{domain.ErrInstallFailed}, errs...)...)
	}
	return results, nil
}

func spanName(env string) string {
	return "install " + env
}

func (e *Executor) prefixLock(prefix string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := filepath.Clean(prefix)
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	return l
}

func (e *Executor) apply(ctx context.Context, plan Plan) Result {
	ctx, span := e.tracer.Start(ctx, spanName(plan.Environment),
		ports.WithAttribute("strata.prefix", plan.Prefix),
		ports.WithAttribute("strata.operations", len(plan.Operations)),
	)
	defer span.End()

	res := Result{Environment: plan.Environment, Prefix: plan.Prefix}
	if len(plan.Operations) == 0 {
		return res
	}

	lock := e.prefixLock(plan.Prefix)
	lock.Lock()
	defer lock.Unlock()

	artifacts, err := e.prefetch(ctx, plan.Operations)
	if err != nil {
		res.Err = zerr.With(zerr.Wrap(err, "failed to prepare "+plan.Environment), "environment", plan.Environment)
		span.RecordError(res.Err)
		return res
	}

	for i := range plan.Operations {
		op := plan.Operations[i]
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		if err := e.run(ctx, plan.Prefix, op, artifacts[i]); err != nil {
			res.Failed = &op
			res.Err = errors.Join(domain.ErrInstallerOperation,
				zerr.With(zerr.With(zerr.With(zerr.Wrap(err, op.String()),
					"environment", plan.Environment), "applied", res.Applied), "total", len(plan.Operations)))
			span.RecordError(res.Err)
			return res
		}
		res.Applied++
		_, _ = span.Write([]byte(op.String() + "\n"))
	}
	return res
}

// prefetch downloads the artifacts of every install operation, indexed like ops.
func (e *Executor) prefetch(ctx context.Context, ops []domain.Operation) ([]string, error) {
	artifacts := make([]string, len(ops))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, op := range ops {
		if op.Kind != domain.OpInstall {
			continue
		}
		g.Go(func() error {
			path, err := e.fetcher.Fetch(ctx, op.Record)
			if err != nil {
				return zerr.With(err, "package", op.Identity.String())
			}
			artifacts[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (e *Executor) run(ctx context.Context, prefix string, op domain.Operation, artifact string) error {
	switch op.Kind {
	case domain.OpInstall:
		return e.installer.Install(ctx, prefix, op, artifact)
	case domain.OpRemove:
		return e.installer.Remove(ctx, prefix, op)
	case domain.OpRelink:
		return e.installer.Relink(ctx, prefix, op)
	default:
		return zerr.With(zerr.New("unknown operation"), "kind", op.Kind.String())
	}
}
