// Package app implements the application layer for lathe.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.trai.ch/lathe/internal/adapters/detector"
	"go.trai.ch/lathe/internal/adapters/fs"      //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/engine/session"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	resolver     ports.Resolver
	scanner      ports.ReferenceScanner
	telemetry    ports.Telemetry
	walker       *fs.Walker
	hasher       *fs.Hasher
	watcher      ports.Watcher

	stdout   io.Writer
	dir      string
	debounce time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	resolver ports.Resolver,
	scanner ports.ReferenceScanner,
	telemetry ports.Telemetry,
	walker *fs.Walker,
	hasher *fs.Hasher,
	w ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		resolver:     resolver,
		scanner:      scanner,
		telemetry:    telemetry,
		walker:       walker,
		hasher:       hasher,
		watcher:      w,
		stdout:       os.Stdout,
		debounce:     watcher.DefaultDebounceWindow,
	}
}

// WithOutput sets where inspect prints types.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithDir sets the directory lathe.yaml is searched from. It defaults to the working directory.
func (a *App) WithDir(dir string) *App {
	a.dir = dir
	return a
}

// WithDebounce sets the quiet period watch waits for before rebuilding.
func (a *App) WithDebounce(d time.Duration) *App {
	a.debounce = d
	return a
}

// BuildOptions configuration for the Build and Watch methods.
type BuildOptions struct {
	NoCache bool
	// OutputMode is one of auto, pretty, linear or json.
	OutputMode string
}

// Build runs one build cycle and reports its diagnostics. It fails with
// domain.ErrBuildHasErrors when any diagnostic is an error.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	a.configureOutput(opts.OutputMode)

	ws, err := a.open()
	if err != nil {
		return err
	}
	defer a.close(ws)

	_, err = a.cycle(ctx, ws, opts.NoCache)
	return err
}

// cycle runs one build and logs its diagnostics and a summary line.
func (a *App) cycle(ctx context.Context, ws *workspace, noCache bool) (*session.Result, error) {
	started := time.Now()
	res, err := ws.session.Build(ctx, session.Options{NoCache: noCache})
	if err != nil {
		return nil, zerr.Wrap(err, "build failed")
	}

	errCount := 0
	for _, d := range res.Diagnostics {
		a.logger.Report(d)
		if d.Severity == domain.SeverityError {
			errCount++
		}
	}
	a.logger.Info(fmt.Sprintf(
		"generation %d: %d resolved (%d from cache), %d invalidated, %d pruned, %d passes in %s",
		res.Generation.Number, len(res.Resolved), res.Reused, len(res.Invalidated), len(res.Pruned),
		res.Passes, time.Since(started).Round(time.Millisecond),
	))

	if errCount > 0 {
		return res, zerr.With(zerr.Wrap(domain.ErrBuildHasErrors, ""), "errors", errCount)
	}
	return res, nil
}

// Watch builds once, then rebuilds after every quiet period following a source
// change until ctx is done. Failed cycles are reported and do not stop watching.
func (a *App) Watch(ctx context.Context, opts BuildOptions) error {
	a.configureOutput(opts.OutputMode)

	ws, err := a.open()
	if err != nil {
		return err
	}
	defer a.close(ws)

	a.rebuild(ctx, ws, opts.NoCache)

	if err := a.watcher.Start(ctx, ws.project.SourcePath); err != nil {
		return zerr.Wrap(err, domain.ErrWatcherFailed.Error())
	}
	defer func() { _ = a.watcher.Stop() }()

	// A pending trigger already covers later changes: every cycle rescans the source path.
	trigger := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(a.debounce, func(paths []string) {
		select {
		case trigger <- paths:
		default:
		}
	})
	defer debouncer.Stop()

	go func() {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
	}()

	a.logger.Info("watching for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-trigger:
			a.logger.Info(fmt.Sprintf("%d paths changed", len(paths)))
			a.rebuild(ctx, ws, opts.NoCache)
		}
	}
}

func (a *App) rebuild(ctx context.Context, ws *workspace, noCache bool) {
	_, err := a.cycle(ctx, ws, noCache)
	switch {
	case err == nil, errors.Is(err, domain.ErrBuildHasErrors):
	case ctx.Err() != nil:
	default:
		a.logger.Error(err)
	}
}

// outputConfigurable is implemented by loggers that support output modes.
type outputConfigurable interface {
	SetJSON(enable bool)
	SetLinear(enable bool)
}

func (a *App) configureOutput(flag string) {
	l, ok := a.logger.(outputConfigurable)
	if !ok {
		return
	}
	mode := detector.ResolveMode(detector.DetectEnvironment(), flag)
	l.SetJSON(mode == detector.ModeJSON)
	l.SetLinear(mode == detector.ModeLinear)
}

// Clean removes the artifact cache and the build state of the project.
func (a *App) Clean(_ context.Context) error {
	project, err := a.load()
	if err != nil {
		return err
	}

	var errs error
	remove := func(name string, fn func() error) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := fn(); err != nil {
			errs = errors.Join(errs, err)
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove("artifact cache", func() error {
		return clearCache(project, a.logger)
	})
	remove("build state", func() error {
		return removeState(project.StatePath)
	})
	return errs
}

func (a *App) load() (*domain.Project, error) {
	dir := a.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		dir = wd
	}
	project, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}
