// Package session orchestrates build cycles: change detection, cascading
// invalidation, discovery to a fixpoint and publication of a new stable generation.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/engine/depgraph"
	"go.trai.ch/lathe/internal/engine/discovery"
	"go.trai.ch/lathe/internal/engine/registry"
	"go.trai.ch/lathe/internal/engine/typemodel"
)

// Generation is an immutable, stabilized result of a build cycle.
// Later cycles build on a copy and never edit it.
type Generation struct {
	Number int
	Model  *typemodel.Model
	Graph  *depgraph.Graph
	Units  map[string]*domain.ResolvedUnit

	// Rebinds maps each requested type to the accepted answers of every call site.
	Rebinds map[string][]string
	// Accepted holds the accepted answers by call-site unit.
	Accepted map[string]map[string][]string
}

// Config holds the per-project settings of a Session.
type Config struct {
	// Fingerprint identifies the environment (classpath and tool version).
	Fingerprint string
	Foundation  string
	MaxPasses   int
	// Entries are the qualified names of the initial working set; empty means every unit.
	Entries []string
}

// Options configures a single Build call.
type Options struct {
	// NoCache ignores cached unit artifacts for this cycle. Fresh results are still stored.
	NoCache bool
}

// Result describes a completed build cycle.
type Result struct {
	Generation  *Generation
	Diagnostics []domain.Diagnostic
	// Resolved lists the units added to the generation by this cycle.
	Resolved []string
	// Invalidated lists the units evicted from the previous generation.
	Invalidated []string
	// Pruned lists the units removed because of unrecoverable diagnostics.
	Pruned []string
	// Reused counts resolved units served from the artifact cache.
	Reused int
	Passes int
}

// HasErrors reports whether any diagnostic is an error.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == domain.SeverityError {
			return true
		}
	}
	return false
}

// Session owns the state carried between build cycles of one project.
// Build must not be called concurrently.
type Session struct {
	cfg       Config
	index     ports.SourceIndex
	resolver  ports.Resolver
	scanner   ports.ReferenceScanner
	oracle    ports.RebindOracle
	cache     ports.ArtifactCache
	store     ports.StateStore
	logger    ports.Logger
	telemetry ports.Telemetry

	registry *registry.Registry
	memory   map[string]struct{}
	stable   *Generation
	// retry holds units whose types were left incomplete by the last generation.
	retry []string
	// pruned holds units removed for errors. They are not in the stable generation and
	// have no edges, so they are resolved again whenever anything changes.
	pruned map[string]struct{}
	// revisit is set when the current cycle resolves retry and pruned units again.
	revisit bool
}

// New creates a Session. store may be nil, in which case nothing survives the process.
func New(
	cfg Config,
	index ports.SourceIndex,
	resolver ports.Resolver,
	scanner ports.ReferenceScanner,
	oracle ports.RebindOracle,
	cache ports.ArtifactCache,
	store ports.StateStore,
	logger ports.Logger,
	telemetry ports.Telemetry,
) *Session {
	if cfg.Foundation == "" {
		cfg.Foundation = domain.DefaultFoundation
	}
	s := &Session{
		cfg:       cfg,
		index:     index,
		resolver:  resolver,
		scanner:   scanner,
		oracle:    oracle,
		cache:     cache,
		store:     store,
		logger:    logger,
		telemetry: telemetry,
		memory:    make(map[string]struct{}),
		pruned:    make(map[string]struct{}),
	}
	s.registry = registry.New(logger, s.exists)
	return s
}

// exists reports whether the source of p is still present. Registered units have
// no source on the path and live until the session ends.
func (s *Session) exists(p *domain.UnitProvider) bool {
	if _, inMemory := s.memory[p.Location]; inMemory {
		return true
	}
	return s.index.Exists(p)
}

// Register adds units that do not live on the source path, such as generated code.
// Their artifacts are never written to disk.
func (s *Session) Register(providers ...*domain.UnitProvider) {
	for _, p := range providers {
		s.memory[p.Location] = struct{}{}
		s.registry.Add(p)
	}
}

// Stable returns the last stabilized generation, or nil before the first success.
func (s *Session) Stable() *Generation {
	return s.stable
}

// Build runs one cycle. On error the previous stable generation is left untouched
// and the same changes are seen again by the next call.
func (s *Session) Build(ctx context.Context, opts Options) (*Result, error) {
	if err := s.scan(ctx); err != nil {
		return nil, err
	}

	firstBuild := s.registry.FirstBuild()
	if firstBuild && s.store != nil {
		s.sweepStale(ctx)
	}

	w, invalidated, seeds := s.invalidate(ctx, firstBuild)

	resolver := &cachingResolver{
		inner:  s.resolver,
		cache:  s.cache,
		env:    s.cfg.Fingerprint,
		read:   !opts.NoCache,
		memory: s.memory,
	}
	loop := discovery.New(resolver, s.scanner, s.oracle, s.logger, discovery.Options{
		Foundation: s.cfg.Foundation,
		MaxPasses:  s.cfg.MaxPasses,
	})

	resolveCtx, vertex := s.telemetry.Record(ctx, "resolve", ports.WithInputs("invalidate"))
	out, err := loop.Run(resolveCtx, w, seeds)
	vertex.Complete(err)
	if err != nil {
		return nil, err
	}
	if len(out.Resolved) > 0 && resolver.hits == len(out.Resolved) {
		vertex.Cached()
	}

	gen := &Generation{
		Number:   1,
		Model:    w.Model,
		Graph:    w.Graph,
		Units:    w.Units,
		Accepted: out.Accepted,
	}
	if s.stable != nil {
		gen.Number = s.stable.Number + 1
		gen.Accepted = carryRebinds(s.stable.Accepted, invalidated, w.Units, out.Accepted)
	}
	gen.Rebinds = mergeRebinds(gen.Accepted)

	s.publish(ctx, gen, out, resolver.served)

	result := &Result{
		Generation:  gen,
		Diagnostics: out.Diagnostics,
		Invalidated: invalidated,
		Pruned:      out.Pruned,
		Reused:      resolver.hits,
		Passes:      out.Passes,
	}
	for _, u := range out.Resolved {
		result.Resolved = append(result.Resolved, u.Location)
	}
	return result, nil
}

// scan syncs the registry with the source path.
func (s *Session) scan(ctx context.Context) error {
	ctx, vertex := s.telemetry.Record(ctx, "scan")
	providers, err := s.index.Scan(ctx)
	vertex.Complete(err)
	if err != nil {
		return err
	}
	for p := range s.registry.Providers() {
		if _, inMemory := s.memory[p.Location]; inMemory {
			providers = append(providers, p)
		}
	}
	s.registry.Sync(providers)
	return nil
}

// invalidate copies the stable generation, evicts the invalidation closure of the
// changed units from the copy and the artifact cache, and returns the seeds to resolve.
func (s *Session) invalidate(ctx context.Context, firstBuild bool) (*discovery.Working, []string, []*domain.UnitProvider) {
	_, vertex := s.telemetry.Record(ctx, "invalidate", ports.WithInputs("scan"))
	defer vertex.Complete(nil)

	w := &discovery.Working{
		Model:  typemodel.NewModel(),
		Graph:  depgraph.New(),
		Units:  make(map[string]*domain.ResolvedUnit),
		Lookup: s.lookup,
	}
	changed := s.registry.ChangedSet()

	if s.stable == nil {
		return w, nil, s.initialSeeds(firstBuild)
	}

	w.Model = s.stable.Model.Clone()
	w.Graph = s.stable.Graph.Clone()
	w.Units = maps.Clone(s.stable.Units)

	changed = append(changed, s.registry.Removed()...)
	// Units that were incomplete or pruned can only recover once something changes.
	s.revisit = len(changed) > 0
	if s.revisit {
		changed = append(changed, s.retry...)
		changed = append(changed, slices.Sorted(maps.Keys(s.pruned))...)
	}
	closure := w.Graph.Closure(changed)

	var seeds []*domain.UnitProvider
	for _, loc := range closure {
		_, wasBuilt := s.stable.Units[loc]
		for _, t := range w.Model.RemoveUnit(loc) {
			s.cache.Remove(TypeKey(t.BinaryName))
		}
		delete(w.Units, loc)
		// Dependents still have entries under a matching stamp.
		s.cache.Remove(UnitKey(loc))

		p, live := s.registry.Provider(loc)
		if !live {
			w.Graph.Drop(loc)
			continue
		}
		w.Graph.Forget(loc)
		_, wasPruned := s.pruned[loc]
		if wasBuilt || wasPruned || len(s.cfg.Entries) == 0 || slices.Contains(s.retry, loc) {
			seeds = append(seeds, p)
		}
	}

	if len(closure) > 0 {
		vertex.Log(domain.LogLevelInfo, fmt.Sprintf("invalidated %d units", len(closure)))
	}
	return w, closure, seeds
}

// initialSeeds returns the units a first generation starts from.
func (s *Session) initialSeeds(firstBuild bool) []*domain.UnitProvider {
	if len(s.cfg.Entries) == 0 {
		return slices.Collect(s.registry.Providers())
	}
	var seeds []*domain.UnitProvider
	for _, entry := range s.cfg.Entries {
		p, ok := s.lookup(entry)
		if !ok {
			if firstBuild {
				s.logger.Warn(fmt.Sprintf("entry %s not found on the source path", entry))
			}
			continue
		}
		seeds = append(seeds, p)
	}
	return seeds
}

// lookup finds the unit declaring a top-level type, registering units discovered on
// demand so that later cycles track their changes.
func (s *Session) lookup(qualifiedName string) (*domain.UnitProvider, bool) {
	p, ok := s.index.Lookup(qualifiedName)
	if !ok {
		return nil, false
	}
	if known, ok := s.registry.Provider(p.Location); ok {
		return known, true
	}
	s.registry.Add(p)
	return p, true
}

// carryRebinds returns the accepted rebind answers of the previous generation for the
// call sites that were neither invalidated nor pruned, updated with the answers found
// by this cycle.
func carryRebinds(
	prev map[string]map[string][]string,
	invalidated []string,
	units map[string]*domain.ResolvedUnit,
	found map[string]map[string][]string,
) map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(prev)+len(found))
	for loc, answers := range prev {
		if _, live := units[loc]; live && !slices.Contains(invalidated, loc) {
			out[loc] = answers
		}
	}
	maps.Copy(out, found)
	return out
}

// mergeRebinds returns the accepted answers of every call site by requested type.
func mergeRebinds(accepted map[string]map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for _, loc := range slices.Sorted(maps.Keys(accepted)) {
		for requested, answers := range accepted[loc] {
			for _, a := range answers {
				if !slices.Contains(out[requested], a) {
					out[requested] = append(out[requested], a)
				}
			}
		}
	}
	return out
}

// publish stores type artifacts, persists the build state and makes gen stable.
// Summaries of units resolved by the front-end replace older ones; units served from
// the cache only fill in missing summaries.
func (s *Session) publish(ctx context.Context, gen *Generation, out *discovery.Outcome, served map[string]struct{}) {
	ctx, vertex := s.telemetry.Record(ctx, "persist", ports.WithInputs("resolve"))

	stamp := domain.Stamp{Env: s.cfg.Fingerprint}
	for _, u := range out.Resolved {
		if u.Transient() {
			continue
		}
		_, inMemory := s.memory[u.Location]
		_, fromCache := served[u.Location]
		for _, t := range gen.Model.TypesOf(u.Location) {
			payload, err := json.Marshal(Summarize(t))
			if err != nil {
				continue
			}
			if fromCache {
				s.cache.PutIfAbsent(TypeKey(t.BinaryName), payload, stamp, !inMemory)
				continue
			}
			s.cache.Put(TypeKey(t.BinaryName), payload, stamp, !inMemory)
		}
	}

	if s.revisit {
		clear(s.pruned)
	}
	for _, loc := range out.Pruned {
		s.pruned[loc] = struct{}{}
	}
	for loc := range s.pruned {
		if _, live := s.registry.Provider(loc); !live {
			delete(s.pruned, loc)
		}
	}

	s.retry = s.retry[:0]
	for _, loc := range gen.Model.Units() {
		for _, t := range gen.Model.TypesOf(loc) {
			if t.State == domain.StateIncomplete {
				s.retry = append(s.retry, loc)
				break
			}
		}
	}

	var err error
	if s.store != nil {
		err = s.store.Save(ctx, s.snapshot(gen))
		if err != nil {
			s.logger.Warn("could not save build state: " + err.Error())
		}
	}
	vertex.Complete(err)

	s.registry.MarkBuilt()
	s.stable = gen
}

// snapshot describes gen for the first build of the next process.
func (s *Session) snapshot(gen *Generation) *domain.BuildState {
	state := domain.NewBuildState(s.cfg.Fingerprint)
	for loc := range gen.Units {
		p, ok := s.registry.Provider(loc)
		if !ok {
			continue
		}
		if _, inMemory := s.memory[loc]; inMemory {
			continue
		}
		rec := domain.UnitRecord{
			Location:     loc,
			LastModified: p.LastModified.UnixNano(),
			Transient:    p.Transient,
		}
		for _, t := range gen.Model.TypesOf(loc) {
			rec.Types = append(rec.Types, t.BinaryName)
		}
		state.Units[loc] = rec
	}
	state.Edges = slices.Collect(gen.Graph.Edges())
	return state
}

// sweepStale evicts artifacts a previous process left for units that changed or
// vanished since, together with the artifacts of every unit that depended on them.
func (s *Session) sweepStale(ctx context.Context) {
	state, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("ignoring previous build state: " + err.Error())
		return
	}
	if state == nil || state.Fingerprint != s.cfg.Fingerprint {
		return
	}

	var stale []string
	for loc, rec := range state.Units {
		p, ok := s.registry.Provider(loc)
		if !ok || rec.Transient || p.LastModified.UnixNano() != rec.LastModified {
			stale = append(stale, loc)
		}
	}
	if len(stale) == 0 {
		return
	}

	g := depgraph.New()
	g.Load(state.Edges)
	closure := g.Closure(stale)
	for _, loc := range closure {
		s.cache.Remove(UnitKey(loc))
		for _, binaryName := range state.Units[loc].Types {
			s.cache.Remove(TypeKey(binaryName))
		}
	}
	s.logger.Info(fmt.Sprintf("evicted cached artifacts of %d stale units", len(closure)))
}
