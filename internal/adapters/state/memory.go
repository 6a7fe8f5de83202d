package state

import (
	"context"
	"maps"
	"slices"
	"sync"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

// Memory is a StateStore that lives as long as the process. It backs projects
// that do not persist, so a watch session still gets incremental rebuilds.
type Memory struct {
	mu    sync.RWMutex
	state *domain.BuildState
}

var _ ports.StateStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns a copy of the saved state, or nil.
func (m *Memory) Load(_ context.Context) (*domain.BuildState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.state), nil
}

// Save replaces the saved state with a copy of state.
func (m *Memory) Save(_ context.Context, state *domain.BuildState) error {
	m.mu.Lock()
	m.state = clone(state)
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

func clone(s *domain.BuildState) *domain.BuildState {
	if s == nil {
		return nil
	}
	out := &domain.BuildState{
		Fingerprint: s.Fingerprint,
		Units:       maps.Clone(s.Units),
		Edges:       slices.Clone(s.Edges),
	}
	for loc, rec := range out.Units {
		rec.Types = slices.Clone(rec.Types)
		out.Units[loc] = rec
	}
	return out
}
