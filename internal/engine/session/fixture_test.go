package session_test

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/core/ports/mocks"
	"go.trai.ch/lathe/internal/engine/session"
	"go.uber.org/mock/gomock"
)

const env = "env-1"

type entry struct {
	payload []byte
	stamp   domain.Stamp
	persist bool
}

// memCache is an in-memory ports.ArtifactCache that remembers the persist flag.
type memCache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]entry)}
}

func (c *memCache) Get(key string, want domain.Stamp) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.stamp.Equal(want) {
		delete(c.entries, key)
		return nil, false
	}
	return e.payload, true
}

func (c *memCache) Put(key string, payload []byte, stamp domain.Stamp, persist bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{payload, stamp, persist}
}

func (c *memCache) PutIfAbsent(key string, payload []byte, stamp domain.Stamp, persist bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return false
	}
	c.entries[key] = entry{payload, stamp, persist}
	return true
}

func (c *memCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

func (c *memCache) Persistent() bool { return true }

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// tree is a fake source path: qualified name to declaration and modification time.
type tree struct {
	mu    sync.Mutex
	decls map[string]*domain.TypeDecl
	times map[string]int64
	// hidden declarations can be resolved but are not on the source path.
	hidden map[string]bool
	// errors are reported by the front-end until the declaration is put again.
	errors map[string]string
	sites  map[string][]domain.RebindSite
}

func newTree() *tree {
	return &tree{
		decls:  make(map[string]*domain.TypeDecl),
		times:  make(map[string]int64),
		hidden: make(map[string]bool),
		errors: make(map[string]string),
		sites:  make(map[string][]domain.RebindSite),
	}
}

func location(qname string) string {
	return strings.ReplaceAll(qname, ".", "/") + ".java"
}

// put adds or edits a class extending super with fields of the given types.
func (tr *tree) put(qname string, mod int64, super string, fieldTypes ...string) *domain.TypeDecl {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	pkg, simple := domain.SplitQualified(qname)
	d := &domain.TypeDecl{
		Kind:          domain.DeclClass,
		Name:          simple,
		QualifiedName: qname,
		BinaryName:    qname,
		Package:       pkg,
		Modifiers:     domain.ModPublic,
	}
	if super != "" {
		d.Superclass = domain.NamedRef(super)
	}
	for i, ft := range fieldTypes {
		d.Fields = append(d.Fields, domain.FieldDecl{Name: "f" + string(rune('a'+i)), Type: domain.NamedRef(ft)})
	}
	tr.decls[qname] = d
	tr.times[qname] = mod
	delete(tr.errors, qname)
	return d
}

// broken makes the front-end report msg as an error in the unit of qname.
func (tr *tree) broken(qname, msg string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.errors[qname] = msg
}

// rebinds adds a rebind site for each requested type to the unit of qname.
func (tr *tree) rebinds(qname string, requested ...string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for i, r := range requested {
		tr.sites[qname] = append(tr.sites[qname], domain.RebindSite{
			Requested: r,
			Enclosing: qname,
			Pos:       domain.Position{Line: i + 1, Column: 1},
		})
	}
}

// generated adds a declaration that is not on the source path and returns its provider.
func (tr *tree) generated(qname string, super string) *domain.UnitProvider {
	tr.put(qname, 1, super)
	p, _ := tr.provider(qname)
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.hidden[qname] = true
	return p
}

func (tr *tree) remove(qname string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	delete(tr.decls, qname)
	delete(tr.times, qname)
}

func (tr *tree) provider(qname string) (*domain.UnitProvider, bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	mod, ok := tr.times[qname]
	if !ok || tr.hidden[qname] {
		return nil, false
	}
	pkg, _ := domain.SplitQualified(qname)
	return domain.NewSourceUnit(location(qname), pkg, qname, time.Unix(mod, 0), ""), true
}

func (tr *tree) providers() []*domain.UnitProvider {
	tr.mu.Lock()
	names := slices.Sorted(maps.Keys(tr.times))
	names = slices.DeleteFunc(names, func(n string) bool { return tr.hidden[n] })
	tr.mu.Unlock()
	out := make([]*domain.UnitProvider, 0, len(names))
	for _, n := range names {
		p, _ := tr.provider(n)
		out = append(out, p)
	}
	return out
}

// resolve plays the front-end: each provider yields a unit with its declaration.
func (tr *tree) resolve(_ context.Context, units []*domain.UnitProvider, _ ports.LookupFunc) ([]*domain.ResolvedUnit, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]*domain.ResolvedUnit, 0, len(units))
	for _, p := range units {
		d := *tr.decls[p.TypeName]
		u := &domain.ResolvedUnit{
			Provider:    p,
			Location:    p.Location,
			Package:     p.Package,
			Types:       []*domain.TypeDecl{&d},
			RebindSites: slices.Clone(tr.sites[p.TypeName]),
		}
		if msg, ok := tr.errors[p.TypeName]; ok {
			u.Diagnostics = []domain.Diagnostic{domain.Errorf(p.Location, domain.Position{Line: 1, Column: 1}, "%s", msg)}
		}
		out = append(out, u)
	}
	return out, nil
}

type fixture struct {
	tree     *tree
	index    *mocks.MockSourceIndex
	resolver *mocks.MockResolver
	logger   *mocks.MockLogger
	oracle   *mocks.MockRebindOracle
	cache    *memCache
	store    *mocks.MockStateStore
	session  *session.Session
}

type fixtureOption func(*fixture, *session.Config)

func withStore(store *mocks.MockStateStore) fixtureOption {
	return func(f *fixture, _ *session.Config) { f.store = store }
}

func withEntries(entries ...string) fixtureOption {
	return func(_ *fixture, cfg *session.Config) { cfg.Entries = entries }
}

func withCache(c *memCache) fixtureOption {
	return func(f *fixture, _ *session.Config) { f.cache = c }
}

func newFixture(t *testing.T, tr *tree, opts ...fixtureOption) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		tree:     tr,
		index:    mocks.NewMockSourceIndex(ctrl),
		resolver: mocks.NewMockResolver(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		oracle:   mocks.NewMockRebindOracle(ctrl),
		cache:    newMemCache(),
	}
	cfg := session.Config{Fingerprint: env}
	for _, opt := range opts {
		opt(f, &cfg)
	}

	f.index.EXPECT().Scan(gomock.Any()).DoAndReturn(func(context.Context) ([]*domain.UnitProvider, error) {
		return tr.providers(), nil
	}).AnyTimes()
	f.index.EXPECT().Lookup(gomock.Any()).DoAndReturn(tr.provider).AnyTimes()
	f.index.EXPECT().Exists(gomock.Any()).DoAndReturn(func(p *domain.UnitProvider) bool {
		_, ok := tr.provider(p.TypeName)
		return ok
	}).AnyTimes()
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	scanner := mocks.NewMockReferenceScanner(ctrl)

	var store ports.StateStore
	if f.store != nil {
		store = f.store
	}
	f.session = session.New(cfg, f.index, f.resolver, scanner, f.oracle, f.cache, store, f.logger, quietTelemetry(ctrl))
	return f
}

// expectResolve lets the front-end resolve any batch, any number of times.
func (f *fixture) expectResolve() *gomock.Call {
	return f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(f.tree.resolve)
}

func quietTelemetry(ctrl *gomock.Controller) ports.Telemetry {
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Complete(gomock.Any()).AnyTimes()
	vertex.EXPECT().Cached().AnyTimes()
	vertex.EXPECT().Log(gomock.Any(), gomock.Any()).AnyTimes()

	telemetry := mocks.NewMockTelemetry(ctrl)
	telemetry.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.VertexOption) (context.Context, ports.Vertex) {
			return ports.ContextWithVertex(ctx, vertex), vertex
		}).AnyTimes()
	return telemetry
}

// batch captures the locations of every front-end call.
type batch struct {
	mu    sync.Mutex
	calls [][]string
}

func (b *batch) record(units []*domain.UnitProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var locs []string
	for _, p := range units {
		locs = append(locs, p.Location)
	}
	slices.Sort(locs)
	b.calls = append(b.calls, locs)
}

func (b *batch) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.calls {
		out = append(out, c...)
	}
	slices.Sort(out)
	return out
}

func (f *fixture) recordResolve(b *batch) *gomock.Call {
	return f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, units []*domain.UnitProvider, lookup ports.LookupFunc) ([]*domain.ResolvedUnit, error) {
			b.record(units)
			return f.tree.resolve(ctx, units, lookup)
		})
}
