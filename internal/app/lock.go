package app

import (
	"context"
	"fmt"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/lockbuilder"
	"go.trai.ch/strata/internal/engine/orchestrator"
	"go.trai.ch/strata/internal/engine/staleness"
	"go.trai.ch/zerr"
)

// LockOptions configuration for the Lock method.
type LockOptions struct {
	// Check reports a stale lock document as an error instead of solving.
	Check       bool
	Concurrency int
	OutputMode  string
}

// Lock brings the lock document of the workspace up to date. Only stale cells are solved.
func (a *App) Lock(ctx context.Context, opts LockOptions) error {
	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}

	prev, loadErr := a.locks.Load(ws.Root)
	if loadErr != nil {
		a.logger.Warn("ignoring unreadable lock document: " + loadErr.Error())
	}
	report := staleness.Detect(ws, prev, loadErr)

	if opts.Check {
		if report.State != staleness.Fresh {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrLockNotFresh, ""),
				"state", report.State.String()), "stale", len(report.Stale))
		}
		a.logger.Info("lock document is up to date")
		return nil
	}

	if report.State == staleness.Fresh {
		a.logger.Info("lock document is up to date")
		return nil
	}

	return a.session(ctx, opts.OutputMode, func(ctx context.Context, tracer ports.Tracer) error {
		_, outcome, err := a.relock(ctx, tracer, ws, prev, report, concurrency(opts.Concurrency, ws))
		if err != nil {
			return err
		}
		return outcome.Err()
	})
}

// relock solves the stale cells of report and persists the merged document.
// The document is saved even when some cells fail; those keep their previous records
// and are listed in the returned outcome. The error is reserved for failures that
// prevent saving. Nothing is saved when ctx is cancelled.
func (a *App) relock(
	ctx context.Context,
	tracer ports.Tracer,
	ws *domain.Workspace,
	prev *domain.LockDocument,
	report staleness.Report,
	workers int,
) (*domain.LockDocument, *orchestrator.Outcome, error) {
	ctx, span := tracer.Start(ctx, "lock",
		ports.WithAttribute("strata.state", report.State.String()),
		ports.WithAttribute("strata.stale", len(report.Stale)),
	)
	defer span.End()

	if report.Reason != "" {
		_, _ = fmt.Fprintf(span, "%s\n", report.Reason)
	}

	outcome := &orchestrator.Outcome{}
	if len(report.Stale) > 0 {
		orch := orchestrator.New(a.backends.IndexProvider(ws.Settings.CacheDir), tracer, a.solvers)
		var err error
		outcome, err = orch.Solve(ctx, ws, orchestrator.Request{
			Cells:         report.Stale,
			Previous:      prev,
			Concurrency:   workers,
			IndexAttempts: ws.Settings.IndexRetries,
		})
		if err != nil {
			span.RecordError(err)
			return nil, nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	carried := report.Carried
	for _, f := range outcome.Failures {
		if locked, ok := prev.Cell(f.Key); ok {
			carried = append(carried, *locked)
		}
	}

	doc := lockbuilder.Build(ws, outcome.Solved, carried)
	if err := a.locks.Save(ws.Root, doc); err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	_, _ = fmt.Fprintf(span, "solved %d of %d stale cells, carried %d, dropped %d\n",
		len(outcome.Solved), len(report.Stale), len(report.Carried), len(report.Dropped))

	if err := outcome.Err(); err != nil {
		span.RecordError(err)
	}
	return doc, outcome, nil
}

