package app

import (
	"errors"
	iofs "io/fs"
	"os"

	"go.trai.ch/lathe/internal/adapters/cache"  //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/fs"     //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/rebind" //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/state"  //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/build"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/engine/session"
	"go.trai.ch/zerr"
)

// stateStore is a ports.StateStore holding resources.
type stateStore interface {
	ports.StateStore
	Close() error
}

// workspace holds the project-bound adapters of one command.
type workspace struct {
	project     *domain.Project
	fingerprint string
	cache       *cache.Cache
	store       stateStore
	session     *session.Session
}

// open loads the project and builds a session over it.
func (a *App) open() (*workspace, error) {
	project, err := a.load()
	if err != nil {
		return nil, err
	}

	fingerprint, err := a.hasher.Fingerprint(build.Version, project.Classpath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to fingerprint the classpath")
	}

	oracle, err := rebind.New(project.Rebind)
	if err != nil {
		return nil, err
	}

	ws := &workspace{project: project, fingerprint: fingerprint}
	if project.Persist {
		ws.cache = cache.New(project.CacheDir, a.logger)
		store, err := state.Open(project.StatePath)
		if err != nil {
			a.logger.Warn("continuing without build state: " + err.Error())
			ws.store = state.NewMemory()
		} else {
			ws.store = store
		}
	} else {
		ws.cache = cache.NewMemory(a.logger)
		ws.store = state.NewMemory()
	}

	ws.session = session.New(
		session.Config{
			Fingerprint: fingerprint,
			Foundation:  project.Foundation,
			MaxPasses:   project.MaxPasses,
			Entries:     project.Entries,
		},
		fs.NewIndex(project, a.walker),
		a.resolver,
		a.scanner,
		oracle,
		ws.cache,
		ws.store,
		a.logger,
		a.telemetry,
	)
	return ws, nil
}

func (a *App) close(ws *workspace) {
	if err := ws.store.Close(); err != nil {
		a.logger.Warn("could not close build state: " + err.Error())
	}
	if err := a.telemetry.Close(); err != nil {
		a.logger.Warn("could not close telemetry: " + err.Error())
	}
}

func clearCache(project *domain.Project, logger ports.Logger) error {
	return cache.New(project.CacheDir, logger).Clear()
}

// removeState deletes the state database together with its write-ahead log.
func removeState(path string) error {
	var errs error
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove build state"), "path", p))
		}
	}
	return errs
}
