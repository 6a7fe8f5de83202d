package jsni

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lathe/internal/core/ports"
)

// NodeID is the graft node providing the JSNI reference scanner.
const NodeID graft.ID = "adapter.jsni"

func init() {
	graft.Register(graft.Node[ports.ReferenceScanner]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ReferenceScanner, error) {
			return NewScanner(), nil
		},
	})
}
