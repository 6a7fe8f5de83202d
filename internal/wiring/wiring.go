// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/lathe/internal/adapters/config"
	_ "go.trai.ch/lathe/internal/adapters/fs"
	_ "go.trai.ch/lathe/internal/adapters/javaparse"
	_ "go.trai.ch/lathe/internal/adapters/jsni"
	_ "go.trai.ch/lathe/internal/adapters/logger"
	_ "go.trai.ch/lathe/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/lathe/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/lathe/internal/app"
)
