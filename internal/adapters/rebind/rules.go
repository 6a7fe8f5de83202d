// Package rebind answers rebind requests from configured rules and an optional
// risor script.
package rebind

import (
	"context"
	"slices"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

// Rules is a static oracle. A type without a rule rebinds to itself.
type Rules struct {
	rules map[string][]string
}

var _ ports.RebindOracle = (*Rules)(nil)

// NewRules creates an oracle over rules.
func NewRules(rules map[string][]string) *Rules {
	return &Rules{rules: rules}
}

// AllCandidates returns the configured candidates of requested.
func (r *Rules) AllCandidates(_ context.Context, requested string) ([]string, error) {
	if c, ok := r.rules[requested]; ok {
		return slices.Clone(c), nil
	}
	return []string{requested}, nil
}

// New builds the oracle described by cfg: the rules, refined by the script when one is set.
func New(cfg domain.RebindConfig) (ports.RebindOracle, error) {
	var oracle ports.RebindOracle = NewRules(cfg.Rules)
	if cfg.Script == "" {
		return oracle, nil
	}
	return LoadScript(cfg.Script, oracle)
}
