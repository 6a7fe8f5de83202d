// Package registry tracks the live set of translation units and what changed between builds.
package registry

import (
	"iter"
	"maps"
	"slices"
	"time"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

// ExistsFunc reports whether the source behind a provider is still present.
type ExistsFunc func(p *domain.UnitProvider) bool

// Registry holds the providers added to the build, their last-known modification
// times and the locations that changed since the last completed build.
// It is not safe for concurrent use; one build cycle owns it at a time.
type Registry struct {
	logger  ports.Logger
	exists  ExistsFunc
	added   map[string]*domain.UnitProvider
	times   map[string]time.Time
	changed map[string]struct{}
	removed map[string]struct{}
	built   bool
}

// New creates an empty Registry. exists may be nil when providers never disappear.
func New(logger ports.Logger, exists ExistsFunc) *Registry {
	return &Registry{
		logger:  logger,
		exists:  exists,
		added:   make(map[string]*domain.UnitProvider),
		times:   make(map[string]time.Time),
		changed: make(map[string]struct{}),
		removed: make(map[string]struct{}),
	}
}

// Add records p. It is a no-op when a non-transient provider for the same location
// was already seen with a modification time at least as new. Otherwise the previous
// provider is retired, the location is marked changed and p replaces it.
// Add reports whether the location was marked changed.
func (r *Registry) Add(p *domain.UnitProvider) bool {
	if last, ok := r.times[p.Location]; ok && !p.Transient && !last.Before(p.LastModified) {
		if _, live := r.added[p.Location]; live {
			return false
		}
	}

	delete(r.added, p.Location)
	delete(r.removed, p.Location)
	r.changed[p.Location] = struct{}{}
	r.times[p.Location] = p.LastModified
	r.added[p.Location] = p
	return true
}

// Remove retires the provider at location. Its location counts as changed so that
// units depending on it are invalidated.
func (r *Registry) Remove(location string) {
	if _, ok := r.added[location]; !ok {
		return
	}
	delete(r.added, location)
	delete(r.times, location)
	delete(r.changed, location)
	r.removed[location] = struct{}{}
}

// Sync makes the registry mirror providers: new or newer providers are added and
// providers no longer present are removed.
func (r *Registry) Sync(providers []*domain.UnitProvider) {
	seen := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		seen[p.Location] = struct{}{}
		r.Add(p)
	}
	for loc, p := range r.added {
		if _, ok := seen[loc]; !ok && !p.Transient {
			r.Remove(loc)
		}
	}
}

// ChangedSet returns the sorted locations that must be treated as changed this cycle:
// every newly or more recently added provider plus, after the first build, every
// volatile provider. Providers whose source has disappeared are dropped and logged.
func (r *Registry) ChangedSet() []string {
	if r.exists != nil {
		for _, loc := range slices.Sorted(maps.Keys(r.added)) {
			p := r.added[loc]
			if p.Transient || r.exists(p) {
				continue
			}
			r.logger.Info("dropping unit " + loc + ": source no longer exists")
			r.Remove(loc)
		}
	}

	if r.built {
		for loc, p := range r.added {
			if p.Volatile {
				r.changed[loc] = struct{}{}
			}
		}
	}

	return slices.Sorted(maps.Keys(r.changed))
}

// Removed returns the sorted locations retired since the last completed build.
func (r *Registry) Removed() []string {
	return slices.Sorted(maps.Keys(r.removed))
}

// Provider returns the live provider at location.
func (r *Registry) Provider(location string) (*domain.UnitProvider, bool) {
	p, ok := r.added[location]
	return p, ok
}

// Providers yields the live providers in location order.
func (r *Registry) Providers() iter.Seq[*domain.UnitProvider] {
	return func(yield func(*domain.UnitProvider) bool) {
		for _, loc := range slices.Sorted(maps.Keys(r.added)) {
			if !yield(r.added[loc]) {
				return
			}
		}
	}
}

// Len returns the number of live providers.
func (r *Registry) Len() int {
	return len(r.added)
}

// FirstBuild reports whether no build has completed yet.
func (r *Registry) FirstBuild() bool {
	return !r.built
}

// MarkBuilt ends a successful cycle: the changed and removed sets are cleared.
// A failed cycle must not call it, so the next cycle sees the same changes again.
func (r *Registry) MarkBuilt() {
	r.built = true
	clear(r.changed)
	clear(r.removed)
}
