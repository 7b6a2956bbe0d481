package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sahilm/fuzzy"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/differ"
	"go.trai.ch/strata/internal/engine/executor"
	"go.trai.ch/strata/internal/engine/orchestrator"
	"go.trai.ch/strata/internal/engine/staleness"
	"go.trai.ch/strata/internal/ui/style"
	"go.trai.ch/zerr"
)

// InstallOptions configuration for the Install method.
type InstallOptions struct {
	// Frozen installs from the existing lock document without solving.
	Frozen bool
	// DryRun prints the operations instead of applying them.
	DryRun bool
	// Platform overrides the platform of the running host.
	Platform    string
	Concurrency int
	OutputMode  string
}

// Install brings the prefixes of the named environments in line with the lock document.
// No names means every environment of the workspace. A stale lock document is updated first
// unless opts.Frozen is set.
func (a *App) Install(ctx context.Context, envNames []string, opts InstallOptions) error {
	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}

	platform, err := installPlatform(opts.Platform)
	if err != nil {
		return err
	}

	envs, err := selectEnvironments(ws, envNames, platform)
	if err != nil {
		return err
	}

	prev, loadErr := a.locks.Load(ws.Root)
	if opts.Frozen {
		if loadErr != nil {
			return loadErr
		}
		if prev == nil {
			return zerr.With(zerr.Wrap(domain.ErrLockMissing, ""), "path", domain.LockPath(ws.Root))
		}
	}

	workers := concurrency(opts.Concurrency, ws)
	return a.session(ctx, opts.OutputMode, func(ctx context.Context, tracer ports.Tracer) error {
		doc := prev
		var solveErr error
		if !opts.Frozen {
			if loadErr != nil {
				a.logger.Warn("ignoring unreadable lock document: " + loadErr.Error())
			}
			report := staleness.Detect(ws, prev, loadErr)
			if report.State != staleness.Fresh {
				var outcome *orchestrator.Outcome
				if doc, outcome, err = a.relock(ctx, tracer, ws, prev, report, workers); err != nil {
					return err
				}
				envs, solveErr = a.dropFailedCells(envs, platform, outcome.Failures)
			}
		}

		plans, err := a.plan(ws, doc, envs, platform)
		if err != nil {
			return errors.Join(solveErr, err)
		}

		if opts.DryRun {
			a.printPlans(plans)
			return solveErr
		}

		ex := executor.New(a.installer, a.backends.ArtifactFetcher(ws.Settings.CacheDir), tracer, workers)
		results, err := ex.Apply(ctx, plans)
		for _, r := range results {
			switch {
			case r.Err == nil:
				a.logger.Info(fmt.Sprintf("%s: %d operation(s) applied", r.Environment, r.Applied))
			case r.Partial():
				a.logger.Warn(fmt.Sprintf("%s: partially applied, %d operation(s) before %s failed",
					r.Environment, r.Applied, r.Failed.String()))
			}
		}
		return errors.Join(solveErr, err)
	})
}

// dropFailedCells removes the environments whose cell on platform failed to solve and
// returns them as a solve error. Failures of other cells are only reported.
func (a *App) dropFailedCells(envs []string, platform domain.Platform, failures []domain.CellFailure) ([]string, error) {
	if len(failures) == 0 {
		return envs, nil
	}
	var errs []error
	kept := slices.Clone(envs)
	for _, f := range failures {
		if f.Key.Platform == platform && slices.Contains(envs, f.Key.Environment) {
			kept = slices.DeleteFunc(kept, func(env string) bool { return env == f.Key.Environment })
			errs = append(errs, f)
			continue
		}
		a.logger.Warn(fmt.Sprintf("%s: not solved, the lock document keeps its previous records", f.Key.String()))
	}
	if len(errs) == 0 {
		return kept, nil
	}
	return kept, errors.Join(append([]error{domain.ErrSolveFailed}, errs...)...)
}

func installPlatform(flag string) (domain.Platform, error) {
	if flag != "" {
		return domain.ParsePlatform(flag)
	}
	return domain.CurrentPlatform()
}

// selectEnvironments returns the named environments, or every environment supporting platform.
func selectEnvironments(ws *domain.Workspace, names []string, platform domain.Platform) ([]string, error) {
	if len(names) == 0 {
		var out []string
		for _, env := range ws.Environments {
			if slices.Contains(env.Platforms, platform) {
				out = append(out, env.Name)
			}
		}
		return out, nil
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		env, ok := ws.Environment(name)
		if !ok {
			err := zerr.With(zerr.Wrap(domain.ErrUnknownEnvironment, ""), "environment", name)
			if guess := suggestEnvironment(ws, name); guess != "" {
				err = zerr.With(err, "suggestion", guess)
			}
			return nil, err
		}
		if !slices.Contains(env.Platforms, platform) {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrUnknownEnvironment, "platform not supported"),
				"environment", name), "platform", string(platform))
		}
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// suggestEnvironment returns the declared environment closest to name, or "".
func suggestEnvironment(ws *domain.Workspace, name string) string {
	names := make([]string, len(ws.Environments))
	for i, env := range ws.Environments {
		names[i] = env.Name
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

// plan diffs each environment prefix against its locked cell.
func (a *App) plan(ws *domain.Workspace, doc *domain.LockDocument, envs []string, platform domain.Platform) ([]executor.Plan, error) {
	plans := make([]executor.Plan, 0, len(envs))
	for _, env := range envs {
		key := domain.CellKey{Environment: env, Platform: platform}
		locked, ok := doc.Cell(key)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrCellNotLocked, ""), "cell", key.String())
		}

		path := domain.PrefixPath(ws.Root, env)
		installed, err := a.prefixes.ReadPrefix(path)
		if err != nil {
			return nil, err
		}
		plans = append(plans, executor.Plan{
			Environment: env,
			Prefix:      path,
			Operations:  differ.Diff(locked.Records, installed),
		})
	}
	return plans, nil
}

func (a *App) printPlans(plans []executor.Plan) {
	for _, p := range plans {
		if len(p.Operations) == 0 {
			_, _ = fmt.Fprintf(a.stdout, "%s: up to date\n", p.Environment)
			continue
		}
		_, _ = fmt.Fprintf(a.stdout, "%s:\n", p.Environment)
		for _, op := range p.Operations {
			_, _ = fmt.Fprintf(a.stdout, "  %s %s\n", glyph(op.Kind), op.String())
		}
	}
}

func glyph(kind domain.OperationKind) string {
	switch kind {
	case domain.OpInstall:
		return style.Plus
	case domain.OpRemove:
		return style.Minus
	default:
		return style.Tilde
	}
}
