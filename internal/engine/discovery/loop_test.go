package discovery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/core/ports/mocks"
	"go.trai.ch/lathe/internal/engine/depgraph"
	"go.trai.ch/lathe/internal/engine/discovery"
	"go.trai.ch/lathe/internal/engine/typemodel"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	resolver *mocks.MockResolver
	scanner  *mocks.MockReferenceScanner
	oracle   *mocks.MockRebindOracle
	logger   *mocks.MockLogger
	loop     *discovery.Loop
}

func newFixture(t *testing.T, opts discovery.Options) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		resolver: mocks.NewMockResolver(ctrl),
		scanner:  mocks.NewMockReferenceScanner(ctrl),
		oracle:   mocks.NewMockRebindOracle(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
	}
	f.loop = discovery.New(f.resolver, f.scanner, f.oracle, f.logger, opts)
	return f
}

func (f *fixture) expectResolve(locs []string, units ...*domain.ResolvedUnit) *gomock.Call {
	return f.resolver.EXPECT().
		Resolve(gomock.Any(), locations(locs...), gomock.Any()).
		Return(units, nil)
}

func TestLoop_ForeignReferenceIsDiscovered(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	foo, bar := provider("a.Foo"), provider("a.Bar")
	w := working(t, foo, bar)

	fooUnit := unitOf(class("a.Foo"))
	fooUnit.Snippets = []domain.Snippet{{Owner: "a.Foo#run", Body: "@a.Bar::go()();"}}
	barUnit := unitOf(class("a.Bar"))

	gomock.InOrder(
		f.expectResolve([]string{"a/Foo.java"}, fooUnit),
		f.expectResolve([]string{"a/Bar.java"}, barUnit),
	)
	f.scanner.EXPECT().ExtractReferences(fooUnit).Return([]domain.ForeignRef{{Class: "a.Bar", Member: "go"}})

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{foo})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Passes)
	_, ok := w.Model.Lookup("a.Bar")
	assert.True(t, ok)
	assert.Len(t, out.Resolved, 2)
	assert.Empty(t, out.Diagnostics)
	assert.Contains(t, w.Units, "a/Bar.java")
}

func TestLoop_ForeignNestedNameFallsBackToOuterClass(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	foo, outer := provider("a.Foo"), provider("a.Outer")
	w := working(t, foo, outer)

	fooUnit := unitOf(class("a.Foo"))
	fooUnit.Snippets = []domain.Snippet{{Owner: "a.Foo#run"}}
	outerDecl := class("a.Outer")
	inner := class("a.Outer.Inner")
	inner.Name, inner.BinaryName, inner.Enclosing = "Inner", "a.Outer$Inner", "a.Outer"
	outerDecl.Nested = []*domain.TypeDecl{inner}

	gomock.InOrder(
		f.expectResolve([]string{"a/Foo.java"}, fooUnit),
		f.expectResolve([]string{"a/Outer.java"}, unitOf(outerDecl)),
	)
	f.scanner.EXPECT().ExtractReferences(fooUnit).Return([]domain.ForeignRef{
		{Class: "a.Outer.Inner"},
		{Class: "a.Outer$Inner"},
		{Class: "b.Nowhere", Pos: domain.Position{Line: 4, Column: 2}},
	})

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{foo})
	require.NoError(t, err)

	_, ok := w.Model.LookupBinary("a.Outer$Inner")
	assert.True(t, ok)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, domain.SeverityWarning, out.Diagnostics[0].Severity)
	assert.Equal(t, "Referenced class 'b.Nowhere' could not be found", out.Diagnostics[0].Message)
	assert.Equal(t, 4, out.Diagnostics[0].Pos.Line)
}

func TestLoop_RebindCandidatesAreValidated(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	app, iface, bad, good := provider("a.App"), provider("a.Iface"), provider("a.Bad"), provider("a.Good")
	w := working(t, app, iface, bad, good)

	appUnit := unitOf(class("a.App"))
	site := domain.RebindSite{Requested: "a.Iface", Enclosing: "a.App", Pos: domain.Position{Line: 7, Column: 12}}
	appUnit.RebindSites = []domain.RebindSite{site}
	ifaceDecl := class("a.Iface")
	ifaceDecl.Kind = domain.DeclInterface
	badDecl := class("a.Bad")
	badDecl.Modifiers |= domain.ModAbstract
	badDecl.Interfaces = []*domain.TypeRef{domain.NamedRef("a.Iface")}
	goodDecl := class("a.Good")
	goodDecl.Interfaces = []*domain.TypeRef{domain.NamedRef("a.Iface")}
	goodDecl.Methods = []domain.MethodDecl{{Name: "<init>", Constructor: true}}

	gomock.InOrder(
		f.expectResolve([]string{"a/App.java", "a/Iface.java"}, appUnit, unitOf(ifaceDecl)),
		f.expectResolve([]string{"a/Bad.java", "a/Good.java"}, unitOf(badDecl), unitOf(goodDecl)),
	)
	f.oracle.EXPECT().AllCandidates(gomock.Any(), "a.Iface").Return([]string{"a.Bad", "a.Good"}, nil)

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{app, iface})
	require.NoError(t, err)

	require.Len(t, out.Diagnostics, 1)
	d := out.Diagnostics[0]
	assert.Equal(t, domain.SeverityError, d.Severity)
	assert.Equal(t, "Rebind result 'a.Bad' cannot be abstract", d.Message)
	assert.Equal(t, "a/App.java", d.Location)
	assert.Equal(t, site.Pos, d.Pos)

	assert.Equal(t, map[string][]string{"a.Iface": {"a.Good"}}, out.Rebinds)
	assert.Equal(t, map[string]map[string][]string{"a/App.java": {"a.Iface": {"a.Good"}}}, out.Accepted)
	_, ok := w.Model.Lookup("a.Good")
	assert.True(t, ok)
	assert.Empty(t, out.Pruned, "a rejected rebind answer does not taint the call site")

	// Editing any answer, rejected or not, must reach the call site.
	deps := w.Graph.Dependees("a/App.java")
	assert.Contains(t, deps, "a/Good.java")
	assert.Contains(t, deps, "a/Bad.java")
}

func TestLoop_IncompleteRebindCandidateIsRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	app := provider("a.App")
	w := working(t, app)

	appUnit := unitOf(class("a.App"))
	appUnit.RebindSites = []domain.RebindSite{{Requested: "a.Api"}}
	partial := class("a.Partial")
	partial.Superclass = domain.NamedRef("a.Gone")

	f.expectResolve([]string{"a/App.java"}, appUnit, unitOf(partial))
	f.oracle.EXPECT().AllCandidates(gomock.Any(), "a.Api").Return([]string{"a.Partial"}, nil)
	f.logger.EXPECT().Warn("Unexpectedly unable to fully resolve type a.Partial")

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{app})
	require.NoError(t, err)

	var messages []string
	for _, d := range out.Diagnostics {
		messages = append(messages, d.Message)
	}
	assert.Contains(t, messages, "Rebind result 'a.Partial' could not be fully resolved")
	assert.Empty(t, out.Rebinds)
	assert.Empty(t, out.Accepted)
}

func TestLoop_RebindProblems(t *testing.T) {
	t.Parallel()

	nested := class("a.Holder")
	inner := class("a.Holder.Inner")
	inner.Name, inner.BinaryName, inner.Enclosing = "Inner", "a.Holder$Inner", "a.Holder"
	nested.Nested = []*domain.TypeDecl{inner}

	local := class("a.Local")
	local.Local = true

	noDefault := class("a.NoDefault")
	noDefault.Methods = []domain.MethodDecl{{
		Name:        "<init>",
		Constructor: true,
		Params:      []domain.ParamDecl{{Name: "x", Type: domain.PrimitiveRef("int")}},
	}}

	api := class("a.Api")
	api.Kind = domain.DeclInterface

	tests := []struct {
		name      string
		candidate string
		units     []*domain.ResolvedUnit
		message   string
	}{
		{"interface", "a.Api", []*domain.ResolvedUnit{unitOf(api)}, "Rebind result 'a.Api' must be a class"},
		{"inner class", "a.Holder.Inner", []*domain.ResolvedUnit{unitOf(nested)}, "Rebind result 'a.Holder.Inner' cannot be a non-static nested class"},
		{"local class", "a.Local", []*domain.ResolvedUnit{unitOf(local)}, "Rebind result 'a.Local' cannot be a local class"},
		{"no default constructor", "a.NoDefault", []*domain.ResolvedUnit{unitOf(noDefault)}, "Rebind result 'a.NoDefault' has no default (zero argument) constructors"},
		{"unknown", "a.Missing", nil, "Rebind result 'a.Missing' could not be found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, discovery.Options{})
			app := provider("a.App")
			w := working(t, app)

			appUnit := unitOf(class("a.App"))
			appUnit.RebindSites = []domain.RebindSite{{Requested: "a.Api"}}
			units := append([]*domain.ResolvedUnit{appUnit}, tt.units...)

			f.expectResolve([]string{"a/App.java"}, units...)
			f.oracle.EXPECT().AllCandidates(gomock.Any(), "a.Api").Return([]string{tt.candidate}, nil)

			out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{app})
			require.NoError(t, err)
			require.Len(t, out.Diagnostics, 1)
			assert.Equal(t, tt.message, out.Diagnostics[0].Message)
			assert.Empty(t, out.Rebinds)
		})
	}
}

func TestLoop_OracleFailureIsReportedAtSite(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	app := provider("a.App")
	w := working(t, app)

	appUnit := unitOf(class("a.App"))
	appUnit.RebindSites = []domain.RebindSite{{Requested: "a.Api", Pos: domain.Position{Line: 3, Column: 1}}}
	f.expectResolve([]string{"a/App.java"}, appUnit)
	f.oracle.EXPECT().AllCandidates(gomock.Any(), "a.Api").Return(nil, zerr.New("script exploded"))

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{app})
	require.NoError(t, err)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, "Rebind of 'a.Api' failed: script exploded", out.Diagnostics[0].Message)
	assert.Empty(t, out.Pruned)
}

func TestLoop_MissingReferenceIsRequestedAndRetried(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	foo, bar := provider("a.Foo"), provider("a.Bar")
	w := working(t, foo, bar)

	fooDecl := class("a.Foo")
	fooDecl.Fields = []domain.FieldDecl{{Name: "bar", Type: domain.ArrayRef(domain.NamedRef("a.Bar"), 1)}}

	gomock.InOrder(
		f.expectResolve([]string{"a/Foo.java"}, unitOf(fooDecl)),
		f.expectResolve([]string{"a/Bar.java"}, unitOf(class("a.Bar"))),
	)

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{foo})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Passes)

	typeFoo, _ := w.Model.Lookup("a.Foo")
	typeBar, _ := w.Model.Lookup("a.Bar")
	assert.Equal(t, domain.StateResolved, typeFoo.State)
	require.Len(t, typeFoo.Fields, 1)
	assert.Same(t, w.Model.ArrayOf(typeBar), typeFoo.Fields[0].Type)
	assert.Equal(t, []string{"a/Bar.java"}, w.Graph.Dependees("a/Foo.java"))
}

func TestLoop_CascadingRemoval(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	a, b, c, d := provider("a.A"), provider("a.B"), provider("a.C"), provider("a.D")
	w := working(t, a, b, c, d)

	aUnit := unitOf(class("a.A"))
	aUnit.Diagnostics = []domain.Diagnostic{domain.Errorf("a/A.java", domain.Position{Line: 1, Column: 1}, "syntax error")}
	bDecl := class("a.B")
	bDecl.Superclass = domain.NamedRef("a.A")
	cDecl := class("a.C")
	cDecl.Fields = []domain.FieldDecl{{Name: "b", Type: domain.NamedRef("a.B")}}

	f.expectResolve([]string{"a/A.java", "a/B.java", "a/C.java", "a/D.java"},
		aUnit, unitOf(bDecl), unitOf(cDecl), unitOf(class("a.D")))
	f.logger.EXPECT().Info("removing unit a/A.java: it has errors")
	f.logger.EXPECT().Info("removing unit a/B.java: it depends on a unit with errors")
	f.logger.EXPECT().Info("removing unit a/C.java: it depends on a unit with errors")

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{a, b, c, d})
	require.NoError(t, err)

	assert.Equal(t, []string{"a/A.java", "a/B.java", "a/C.java"}, out.Pruned)
	for _, name := range []string{"a.A", "a.B", "a.C"} {
		_, ok := w.Model.Lookup(name)
		assert.False(t, ok, name)
	}
	_, ok := w.Model.Lookup("a.D")
	assert.True(t, ok)
	assert.NotContains(t, w.Units, "a/B.java")
	require.Len(t, out.Resolved, 1)
	assert.Equal(t, "a/D.java", out.Resolved[0].Location)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, "syntax error", out.Diagnostics[0].Message)
}

func TestLoop_CascadeReachesPriorGeneration(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	a := provider("a.A")
	w := working(t, a)

	// a/Old.java was resolved by an earlier generation and referenced a.A.
	old := class("a.Old")
	ctrl := gomock.NewController(t)
	b := typemodel.NewBuilder(w.Model, mocks.NewMockLogger(ctrl), "")
	_, err := b.Add(context.Background(), []*domain.ResolvedUnit{unitOf(old)})
	require.NoError(t, err)
	w.Units["a/Old.java"] = unitOf(old)
	w.Graph.Add("a/Old.java", "a/A.java")

	aUnit := unitOf(class("a.A"))
	aUnit.Diagnostics = []domain.Diagnostic{domain.Errorf("a/A.java", domain.Position{}, "cannot read")}
	f.expectResolve([]string{"a/A.java"}, aUnit)
	f.logger.EXPECT().Info(gomock.Any()).Times(2)

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{a})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/A.java", "a/Old.java"}, out.Pruned)
	_, ok := w.Model.Lookup("a.Old")
	assert.False(t, ok)
}

func TestLoop_TerminatesOnReferenceCycles(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	a, b := provider("a.A"), provider("a.B")
	w := working(t, a, b)

	aUnit := unitOf(class("a.A"))
	aUnit.Snippets = []domain.Snippet{{Owner: "a.A#x"}}
	bUnit := unitOf(class("a.B"))
	bUnit.Snippets = []domain.Snippet{{Owner: "a.B#x"}}

	gomock.InOrder(
		f.expectResolve([]string{"a/A.java"}, aUnit),
		f.expectResolve([]string{"a/B.java"}, bUnit),
	)
	f.scanner.EXPECT().ExtractReferences(aUnit).Return([]domain.ForeignRef{{Class: "a.B"}})
	f.scanner.EXPECT().ExtractReferences(bUnit).Return([]domain.ForeignRef{{Class: "a.A"}})

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{a})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Passes)
}

func TestLoop_OnDemandUnitsAreKept(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	foo := provider("a.Foo")
	w := working(t, foo)

	fooDecl := class("a.Foo")
	fooDecl.Superclass = domain.NamedRef("a.Base")
	// The resolver pulled a/Base.java through lookup while resolving a/Foo.java.
	f.expectResolve([]string{"a/Foo.java"}, unitOf(fooDecl), unitOf(class("a.Base")))

	out, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{foo})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Passes)
	typeFoo, _ := w.Model.Lookup("a.Foo")
	require.NotNil(t, typeFoo.Superclass)
	assert.Equal(t, "a.Base", typeFoo.Superclass.Name)
}

func TestLoop_DivergenceIsCapped(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{MaxPasses: 2})
	w := working(t)
	w.Lookup = func(qname string) (*domain.UnitProvider, bool) {
		return provider(qname), true
	}

	// Every unit references a fresh one, so the working set never closes.
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, units []*domain.UnitProvider, _ ports.LookupFunc) ([]*domain.ResolvedUnit, error) {
			var out []*domain.ResolvedUnit
			for _, p := range units {
				d := class(p.TypeName)
				d.Superclass = domain.NamedRef(d.QualifiedName + "X")
				out = append(out, unitOf(d))
			}
			return out, nil
		}).Times(2)

	_, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{provider("a.N")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDiscoveryDiverged))
}

func TestLoop_FoundationMissingIsFatal(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	foo := provider("a.Foo")
	w := &discovery.Working{Model: typemodel.NewModel(), Graph: depgraph.New(), Units: map[string]*domain.ResolvedUnit{}}

	f.expectResolve([]string{"a/Foo.java"}, unitOf(class("a.Foo")))

	_, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{foo})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFoundationMissing))
}

func TestLoop_ResolverFailureIsFatal(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	foo := provider("a.Foo")
	w := working(t, foo)

	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, zerr.New("parser crashed"))

	_, err := f.loop.Run(context.Background(), w, []*domain.UnitProvider{foo})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrResolverFailed.Error())
}

func TestLoop_NoSeedsStillChecksFoundation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, discovery.Options{})
	w := working(t)

	out, err := f.loop.Run(context.Background(), w, nil)
	require.NoError(t, err)
	assert.Zero(t, out.Passes)
	assert.Empty(t, out.Resolved)
}
