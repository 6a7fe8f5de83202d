package ports

import (
	"context"

	"go.trai.ch/lathe/internal/core/domain"
)

// LookupFunc finds the provider of the unit declaring a top-level type.
// The resolver calls it to discover source on demand while it resolves.
type LookupFunc func(qualifiedName string) (*domain.UnitProvider, bool)

// Resolver is the front-end that turns source units into resolved declaration trees.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type Resolver interface {
	// Resolve resolves units and returns one ResolvedUnit per input unit, in input
	// order. Units reached through lookup are only outlined. Problems with individual
	// units are reported as diagnostics on that unit; an error means the whole call failed.
	Resolve(ctx context.Context, units []*domain.UnitProvider, lookup LookupFunc) ([]*domain.ResolvedUnit, error)
}
