package javaparse

import (
	"context"
	"runtime"
	"sync"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// Resolver implements ports.Resolver. It keeps the parsed outline of every unit
// it has seen so that units referenced from a batch are parsed once.
type Resolver struct {
	mu      sync.Mutex
	outline map[string]*file
}

var _ ports.Resolver = (*Resolver)(nil)

// NewResolver creates a resolver with an empty outline cache.
func NewResolver() *Resolver {
	return &Resolver{outline: make(map[string]*file)}
}

// Resolve parses units in parallel and binds them in input order. It returns one
// ResolvedUnit per input unit.
func (r *Resolver) Resolve(
	ctx context.Context,
	units []*domain.UnitProvider,
	lookup ports.LookupFunc,
) ([]*domain.ResolvedUnit, error) {
	files := make([]*file, len(units))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range units {
		g.Go(func() error {
			f, err := parse(groupCtx, p)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}

	b := newBinder(r, lookup)
	for _, f := range files {
		r.remember(f)
		b.register(f)
	}
	out := make([]*domain.ResolvedUnit, 0, len(files))
	for _, f := range files {
		out = append(out, b.bindUnit(f))
	}
	return out, nil
}

// parseOutline returns the outline of p, reusing the cached parse while the unit is unchanged.
func (r *Resolver) parseOutline(p *domain.UnitProvider) *file {
	r.mu.Lock()
	f, ok := r.outline[p.Location]
	r.mu.Unlock()
	if ok && (f.provider == p || (!p.Transient && f.provider.LastModified.Equal(p.LastModified))) {
		return f
	}

	f, err := parse(context.Background(), p)
	if err != nil {
		return nil
	}
	r.remember(f)
	return f
}

func (r *Resolver) remember(f *file) {
	if f.provider.Transient || f.root == nil {
		return
	}
	r.mu.Lock()
	r.outline[f.provider.Location] = f
	r.mu.Unlock()
}
