package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lathe/internal/adapters/logger"
	"go.trai.ch/lathe/internal/core/ports"
)

// NodeID identifies the lathe.yaml loader node.
const NodeID graft.ID = "adapter.config"

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})
}
