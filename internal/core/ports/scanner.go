package ports

import "go.trai.ch/lathe/internal/core/domain"

// ReferenceScanner extracts Java references from the foreign snippets of a unit.
//
//go:generate mockgen -source=scanner.go -destination=mocks/mock_scanner.go -package=mocks
type ReferenceScanner interface {
	// ExtractReferences returns the distinct references of every snippet in unit.
	ExtractReferences(unit *domain.ResolvedUnit) []domain.ForeignRef
}
