// Package discovery runs the resolve/build cycle to a fixpoint, following the implicit
// requirements of foreign snippets and rebind requests, then prunes units tainted by
// unrecoverable diagnostics.
package discovery

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/engine/depgraph"
	"go.trai.ch/lathe/internal/engine/typemodel"
	"go.trai.ch/zerr"
)

// Working is the mutable state of one build cycle. Its model, graph and units belong
// to the generation being built and are discarded if the cycle fails.
type Working struct {
	Model *typemodel.Model
	Graph *depgraph.Graph
	// Units holds every resolved unit of the generation by location.
	Units map[string]*domain.ResolvedUnit
	// Lookup finds the provider declaring a top-level type.
	Lookup ports.LookupFunc
}

// Outcome summarizes a completed run.
type Outcome struct {
	// Resolved lists the units added to the working set that survived pruning, in
	// resolution order.
	Resolved []*domain.ResolvedUnit
	// Pruned lists the sorted locations removed by cascading removal.
	Pruned []string
	// Diagnostics of the resolved units, the builder and the discovery checks.
	Diagnostics []domain.Diagnostic
	// Rebinds maps each requested type to its accepted answers.
	Rebinds map[string][]string
	// Accepted holds the same answers by the location of the unit asking for them.
	Accepted map[string]map[string][]string
	Passes   int
}

// Options configures a Loop.
type Options struct {
	// Foundation is the type that must exist once the loop reaches its fixpoint.
	Foundation string
	// MaxPasses bounds the number of resolution passes.
	MaxPasses int
}

// Loop drives the resolver and the type model builder to a fixpoint.
type Loop struct {
	resolver ports.Resolver
	scanner  ports.ReferenceScanner
	oracle   ports.RebindOracle
	logger   ports.Logger
	opts     Options
}

// New creates a Loop.
func New(
	resolver ports.Resolver,
	scanner ports.ReferenceScanner,
	oracle ports.RebindOracle,
	logger ports.Logger,
	opts Options,
) *Loop {
	if opts.Foundation == "" {
		opts.Foundation = domain.DefaultFoundation
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = domain.DefaultMaxPasses
	}
	return &Loop{
		resolver: resolver,
		scanner:  scanner,
		oracle:   oracle,
		logger:   logger,
		opts:     opts,
	}
}

// run is the state of a single Run call.
type run struct {
	*Loop
	w       *Working
	builder *typemodel.Builder
	out     *Outcome
	// queued holds the locations requested or resolved during the run.
	queued map[string]struct{}
	// names holds the type names already looked up for the run.
	names  map[string]struct{}
	checks []rebindCheck
}

// Run resolves seeds and everything they transitively require into w. On error, w is
// left in an unspecified state and must be discarded.
func (l *Loop) Run(ctx context.Context, w *Working, seeds []*domain.UnitProvider) (*Outcome, error) {
	if w.Lookup == nil {
		w.Lookup = func(string) (*domain.UnitProvider, bool) { return nil, false }
	}
	r := &run{
		Loop:    l,
		w:       w,
		builder: typemodel.NewBuilder(w.Model, l.logger, l.opts.Foundation),
		out: &Outcome{
			Rebinds:  make(map[string][]string),
			Accepted: make(map[string]map[string][]string),
		},
		queued: make(map[string]struct{}),
		names:  make(map[string]struct{}),
	}

	batch := r.enqueue(seeds...)
	for len(batch) > 0 {
		if r.out.Passes == l.opts.MaxPasses {
			r.builder.Fail()
			return nil, zerr.With(
				zerr.Wrap(domain.ErrDiscoveryDiverged, "no fixpoint reached"), "passes", l.opts.MaxPasses)
		}
		r.out.Passes++

		var err error
		batch, err = r.pass(ctx, batch)
		if err != nil {
			r.builder.Fail()
			return nil, err
		}
	}

	diags, err := r.builder.Finish()
	if err != nil {
		return nil, err
	}
	r.out.Diagnostics = append(r.out.Diagnostics, diags...)

	w.Graph.Record(r.out.Resolved, w.Model.Owner)
	r.prune()
	r.validateRebinds()

	slices.SortStableFunc(r.out.Diagnostics, func(a, b domain.Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Location, b.Location),
			cmp.Compare(a.Pos.Line, b.Pos.Line),
			cmp.Compare(a.Pos.Column, b.Pos.Column),
		)
	})
	return r.out, nil
}

// pass resolves one batch, adds it to the model and returns the next batch.
func (r *run) pass(ctx context.Context, batch []*domain.UnitProvider) ([]*domain.UnitProvider, error) {
	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelDebug, fmt.Sprintf("pass %d: resolving %d units", r.out.Passes, len(batch)))
	}

	units, err := r.resolver.Resolve(ctx, batch, r.w.Lookup)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrResolverFailed.Error())
	}

	fresh := make([]*domain.ResolvedUnit, 0, len(units))
	for _, u := range units {
		if _, known := r.w.Units[u.Location]; known {
			continue
		}
		r.w.Units[u.Location] = u
		r.queued[u.Location] = struct{}{}
		fresh = append(fresh, u)
		r.out.Resolved = append(r.out.Resolved, u)
		r.out.Diagnostics = append(r.out.Diagnostics, u.Diagnostics...)
	}

	report, err := r.builder.Add(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if len(r.builder.Pending()) > 0 {
		// Types left incomplete by earlier passes may now find what they were missing.
		if report, err = r.builder.Retry(ctx); err != nil {
			return nil, err
		}
	}

	var next []*domain.UnitProvider
	for _, name := range report.Missing {
		next = append(next, r.requestType(name)...)
	}
	for _, u := range fresh {
		next = append(next, r.foreign(u)...)
		next = append(next, r.rebind(ctx, u)...)
	}
	return next, nil
}

// enqueue returns the providers not yet resolved or requested during the run.
func (r *run) enqueue(providers ...*domain.UnitProvider) []*domain.UnitProvider {
	var out []*domain.UnitProvider
	for _, p := range providers {
		if p == nil {
			continue
		}
		if _, known := r.w.Units[p.Location]; known {
			continue
		}
		if _, queued := r.queued[p.Location]; queued {
			continue
		}
		r.queued[p.Location] = struct{}{}
		out = append(out, p)
	}
	return out
}

// requestType asks for the unit declaring name, walking outwards through enclosing
// names until a declared type or a provider is found.
func (r *run) requestType(name string) []*domain.UnitProvider {
	if _, seen := r.names[name]; seen {
		return nil
	}
	r.names[name] = struct{}{}

	for n := name; n != ""; n, _ = domain.SplitQualified(n) {
		if _, ok := r.w.Model.Lookup(n); ok {
			return nil
		}
		if p, ok := r.w.Lookup(n); ok {
			return r.enqueue(p)
		}
	}
	return nil
}
