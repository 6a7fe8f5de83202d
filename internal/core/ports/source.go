package ports

import (
	"context"

	"go.trai.ch/lathe/internal/core/domain"
)

// SourceIndex discovers units on the source path.
//
//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks
type SourceIndex interface {
	// Scan walks the source path and returns every unit currently on it.
	Scan(ctx context.Context) ([]*domain.UnitProvider, error)
	// Lookup returns the unit declaring the top-level type qualifiedName.
	Lookup(qualifiedName string) (*domain.UnitProvider, bool)
	// Exists reports whether the source backing p is still present.
	Exists(p *domain.UnitProvider) bool
}
