package ports

import "go.trai.ch/lathe/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds lathe.yaml at or above cwd and returns the project it describes.
	Load(cwd string) (*domain.Project, error)
}
