package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lathe/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/javaparse"          //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/jsni"               //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/lathe/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			javaparse.NodeID,
			jsni.NodeID,
			progrock.NodeID,
			fs.WalkerNodeID,
			fs.HasherNodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewComponents(a, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := graft.Dep[ports.Resolver](ctx)
	if err != nil {
		return nil, err
	}
	scanner, err := graft.Dep[ports.ReferenceScanner](ctx)
	if err != nil {
		return nil, err
	}
	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}
	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[*fs.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	return New(loader, log, resolver, scanner, telemetry, walker, hasher, w), nil
}
