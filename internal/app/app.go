// Package app implements the application layer for strata.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/strata/internal/adapters/detector"
	"go.trai.ch/strata/internal/adapters/linear"
	"go.trai.ch/strata/internal/adapters/telemetry"
	"go.trai.ch/strata/internal/adapters/tui"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// RendererFactory builds the renderer of one command run.
type RendererFactory func(mode detector.OutputMode, stdout, stderr io.Writer) ports.Renderer

// App represents the main application logic.
type App struct {
	loader    ports.ManifestLoader
	locks     ports.LockStore
	solvers   []ports.Solver
	backends  ports.Backends
	installer ports.Installer
	prefixes  ports.PrefixReader
	logger    ports.Logger

	workDir     string
	stdout      io.Writer
	stderr      io.Writer
	newRenderer RendererFactory
	teaOptions  []tea.ProgramOption
}

// New creates a new App instance.
func New(
	loader ports.ManifestLoader,
	locks ports.LockStore,
	solvers []ports.Solver,
	backends ports.Backends,
	installer ports.Installer,
	prefixes ports.PrefixReader,
	log ports.Logger,
) *App {
	a := &App{
		loader:    loader,
		locks:     locks,
		solvers:   solvers,
		backends:  backends,
		installer: installer,
		prefixes:  prefixes,
		logger:    log,
		workDir:   ".",
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	a.newRenderer = a.defaultRenderer
	return a
}

// defaultRenderer draws the interactive progress view in tui mode and prints lines otherwise.
func (a *App) defaultRenderer(mode detector.OutputMode, stdout, stderr io.Writer) ports.Renderer {
	if mode == detector.ModeTUI {
		return tui.New(stderr, a.teaOptions...)
	}
	return linear.ForMode(mode, stdout, stderr)
}

// WithOutput redirects command output and progress.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithWorkDir sets the directory the manifest is searched from.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// WithTeaOptions adds bubbletea program options used by the tui renderer.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithRendererFactory replaces the renderer built for each run.
func (a *App) WithRendererFactory(f RendererFactory) *App {
	a.newRenderer = f
	return a
}

// loadWorkspace loads the manifest and expands it into its cell matrix.
func (a *App) loadWorkspace() (*domain.Workspace, error) {
	m, err := a.loader.Load(a.workDir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load manifest")
	}
	ws, err := domain.BuildWorkspace(m)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// concurrency resolves the worker count from a flag, then the manifest settings.
func concurrency(flag int, ws *domain.Workspace) int {
	switch {
	case flag > 0:
		return flag
	case ws.Settings.Concurrency > 0:
		return ws.Settings.Concurrency
	default:
		return runtime.NumCPU()
	}
}

// session runs work while a renderer displays its spans.
func (a *App) session(ctx context.Context, outputMode string, work func(context.Context, ports.Tracer) error) error {
	mode := detector.ResolveMode(detector.DetectEnvironment(), outputMode)
	renderer := a.newRenderer(mode, a.stdout, a.stderr)

	tp := telemetry.NewProvider(renderer)
	tracer := telemetry.NewOTelTracer(tp).WithRenderer(renderer)
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()
		return work(ctx, tracer)
	})

	return g.Wait()
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Cache bool
	Envs  bool
}

// Clean removes installed prefixes and cached indexes and artifacts.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	m, err := a.loader.Load(a.workDir)
	if err != nil {
		return zerr.Wrap(err, "failed to load manifest")
	}

	var errs error
	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove "+name), "path", path))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if options.Envs {
		remove(domain.EnvsPath(m.Root), "environments")
	}
	if options.Cache {
		remove(domain.IndexCachePath(m.Settings.CacheDir), "index cache")
		remove(domain.ArtifactCachePath(m.Settings.CacheDir), "artifact cache")
	}

	if errs != nil {
		return errors.Join(domain.ErrCleanFailed, errs)
	}
	return nil
}
