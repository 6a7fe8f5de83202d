package ports

import "go.trai.ch/lathe/internal/core/domain"

// Logger defines the interface for logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)
	// Report emits a diagnostic at its own severity.
	Report(d domain.Diagnostic)
}
