package ports

import "context"

// RebindOracle answers factory requests with every type that could satisfy them.
//
//go:generate mockgen -source=oracle.go -destination=mocks/mock_oracle.go -package=mocks
type RebindOracle interface {
	// AllCandidates returns every possible answer for the requested type.
	AllCandidates(ctx context.Context, requested string) ([]string, error)
}
