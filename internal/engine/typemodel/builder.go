package typemodel

import (
	"context"
	"maps"
	"slices"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

// State is the phase of a Builder within one build cycle.
type State uint8

const (
	StateIdle State = iota
	StateShallow
	StateDeep
	StateStable
	StateFailed
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateShallow:
		return "shallow"
	case StateDeep:
		return "deep"
	case StateStable:
		return "stable"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Report describes what one Add or Retry call did.
type Report struct {
	// Added lists the declared types created by the call, enclosing types first.
	Added []*domain.Type
	// Missing lists, sorted, the qualified names referenced but absent from the model.
	Missing []string
	// Incomplete lists the types with at least one abandoned member after the call.
	Incomplete []*domain.Type
}

type pending struct {
	decl     *domain.TypeDecl
	problems []domain.Diagnostic
}

// Builder populates a Model in two passes per batch of units. The shallow pass creates
// a stub for every declaration of the batch; only then does the deep pass resolve
// supertypes, members and bounds, so forward and mutual references always find a stub.
type Builder struct {
	model      *Model
	logger     ports.Logger
	foundation string
	state      State
	pending    map[*domain.Type]*pending
	missing    map[string]struct{}
}

// NewBuilder creates a Builder that adds to model. foundation names the type that
// must exist once the cycle is finished.
func NewBuilder(model *Model, logger ports.Logger, foundation string) *Builder {
	if foundation == "" {
		foundation = domain.DefaultFoundation
	}
	return &Builder{
		model:      model,
		logger:     logger,
		foundation: foundation,
		pending:    make(map[*domain.Type]*pending),
		missing:    make(map[string]struct{}),
	}
}

// Model returns the model being built.
func (b *Builder) Model() *Model {
	return b.model
}

// State returns the current phase.
func (b *Builder) State() State {
	return b.state
}

// Begin starts a new cycle, discarding the pending state of the previous one.
func (b *Builder) Begin() {
	b.state = StateIdle
	clear(b.pending)
	clear(b.missing)
}

// Add runs a shallow pass over every declaration of units followed by a deep pass
// over the stubs it created.
func (b *Builder) Add(ctx context.Context, units []*domain.ResolvedUnit) (Report, error) {
	if b.state != StateIdle && b.state != StateDeep {
		return Report{}, zerr.With(zerr.Wrap(domain.ErrInvalidBuilderState, "add"), "state", b.state.String())
	}

	b.state = StateShallow
	type stub struct {
		t    *domain.Type
		decl *domain.TypeDecl
	}
	var stubs []stub
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			b.state = StateFailed
			return Report{}, err
		}
		for d := range u.Decls() {
			if t := b.shallow(u.Location, d); t != nil {
				stubs = append(stubs, stub{t, d})
			}
		}
	}

	b.state = StateDeep
	clear(b.missing)
	report := Report{Added: make([]*domain.Type, 0, len(stubs))}
	for _, s := range stubs {
		if err := ctx.Err(); err != nil {
			b.state = StateFailed
			return Report{}, err
		}
		b.deep(s.t, s.decl)
		report.Added = append(report.Added, s.t)
	}
	for _, u := range units {
		if len(u.PackageAnnotations) > 0 {
			b.resolvePackage(u)
		}
	}

	return b.finishReport(report), nil
}

// Retry re-runs the deep pass for every incomplete type, typically after the units
// that declare its missing references have been added.
func (b *Builder) Retry(ctx context.Context) (Report, error) {
	if b.state != StateDeep {
		return Report{}, zerr.With(zerr.Wrap(domain.ErrInvalidBuilderState, "retry"), "state", b.state.String())
	}
	clear(b.missing)
	for _, t := range b.Pending() {
		if err := ctx.Err(); err != nil {
			b.state = StateFailed
			return Report{}, err
		}
		b.deep(t, b.pending[t].decl)
	}
	return b.finishReport(Report{}), nil
}

// Pending returns the incomplete types in qualified-name order.
func (b *Builder) Pending() []*domain.Type {
	types := slices.Collect(maps.Keys(b.pending))
	slices.SortFunc(types, func(a, c *domain.Type) int {
		if a.Name < c.Name {
			return -1
		}
		if a.Name > c.Name {
			return 1
		}
		return 0
	})
	return types
}

// Forget drops the pending state of types that were removed from the model.
func (b *Builder) Forget(types []*domain.Type) {
	for _, t := range types {
		delete(b.pending, t)
	}
}

// Finish ends the cycle. It fails with ErrFoundationMissing when the foundational type
// never arrived; otherwise the builder becomes stable and the problems of types that
// remain incomplete are returned as warnings.
func (b *Builder) Finish() ([]domain.Diagnostic, error) {
	if b.state != StateDeep && b.state != StateIdle {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidBuilderState, "finish"), "state", b.state.String())
	}
	if _, ok := b.model.Lookup(b.foundation); !ok {
		b.state = StateFailed
		return nil, zerr.With(zerr.Wrap(domain.ErrFoundationMissing, b.foundation), "type", b.foundation)
	}

	var diags []domain.Diagnostic
	for _, t := range b.Pending() {
		b.logger.Warn("Unexpectedly unable to fully resolve type " + t.Name)
		diags = append(diags, b.pending[t].problems...)
	}
	b.state = StateStable
	return diags, nil
}

// Fail moves the builder to the failed state.
func (b *Builder) Fail() {
	b.state = StateFailed
}

func (b *Builder) finishReport(r Report) Report {
	r.Missing = slices.Sorted(maps.Keys(b.missing))
	r.Incomplete = b.Pending()
	return r
}

// shallow creates the stub for d unless a type with the same name already exists.
func (b *Builder) shallow(loc string, d *domain.TypeDecl) *domain.Type {
	if _, exists := b.model.Lookup(d.QualifiedName); exists {
		return nil
	}

	t := &domain.Type{
		Kind:       domain.KindOf(d.Kind),
		Name:       d.QualifiedName,
		BinaryName: d.BinaryName,
		Package:    d.Package,
		Unit:       loc,
		Modifiers:  d.Modifiers,
		Local:      d.Local,
		State:      domain.StateShallow,
	}
	if d.Enclosing != "" {
		t.Enclosing, _ = b.model.Lookup(d.Enclosing)
	}
	t.Modifiers |= implicitTypeModifiers(t)

	b.model.declare(t)
	for _, tp := range d.TypeParams {
		t.TypeParams = append(t.TypeParams, b.model.declareTypeVar(t.Name, tp.Name, loc))
	}
	return t
}

func implicitTypeModifiers(t *domain.Type) domain.Modifiers {
	var mods domain.Modifiers
	if t.IsInterface() {
		mods |= domain.ModAbstract
	}
	if t.Enclosing != nil && !t.Local {
		if t.Enclosing.IsInterface() {
			mods |= domain.ModPublic | domain.ModStatic
		}
		if t.Kind != domain.KindClass {
			mods |= domain.ModStatic
		}
	}
	return mods
}
