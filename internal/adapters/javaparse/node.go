package javaparse

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lathe/internal/core/ports"
)

// NodeID is the graft node providing the front-end resolver.
const NodeID graft.ID = "adapter.javaparse"

func init() {
	graft.Register(graft.Node[ports.Resolver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Resolver, error) {
			return NewResolver(), nil
		},
	})
}
