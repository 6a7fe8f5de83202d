package ports

import (
	"context"

	"go.trai.ch/lathe/internal/core/domain"
)

// StateStore persists what a build needs to know about the previous process.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type StateStore interface {
	// Load returns the last saved state, or nil if none exists.
	Load(ctx context.Context) (*domain.BuildState, error)
	// Save replaces the stored state.
	Save(ctx context.Context, state *domain.BuildState) error
	// Close releases the store.
	Close() error
}
