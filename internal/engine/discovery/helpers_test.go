package discovery_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports/mocks"
	"go.trai.ch/lathe/internal/engine/depgraph"
	"go.trai.ch/lathe/internal/engine/discovery"
	"go.trai.ch/lathe/internal/engine/typemodel"
	"go.uber.org/mock/gomock"
)

func location(qname string) string {
	return strings.ReplaceAll(qname, ".", "/") + ".java"
}

func provider(qname string) *domain.UnitProvider {
	pkg, _ := domain.SplitQualified(qname)
	return domain.NewSourceUnit(location(qname), pkg, qname, time.Unix(1, 0), "")
}

func class(qname string) *domain.TypeDecl {
	pkg, simple := domain.SplitQualified(qname)
	return &domain.TypeDecl{
		Kind:          domain.DeclClass,
		Name:          simple,
		QualifiedName: qname,
		BinaryName:    qname,
		Package:       pkg,
		Modifiers:     domain.ModPublic,
	}
}

func unitOf(decls ...*domain.TypeDecl) *domain.ResolvedUnit {
	return &domain.ResolvedUnit{
		Location: location(decls[0].QualifiedName),
		Package:  decls[0].Package,
		Types:    decls,
	}
}

// working returns a working set whose model already holds java.lang.Object.
func working(t *testing.T, providers ...*domain.UnitProvider) *discovery.Working {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := typemodel.NewModel()
	b := typemodel.NewBuilder(m, mocks.NewMockLogger(ctrl), "")
	_, err := b.Add(context.Background(), []*domain.ResolvedUnit{unitOf(class("java.lang.Object"))})
	require.NoError(t, err)

	byName := make(map[string]*domain.UnitProvider, len(providers))
	for _, p := range providers {
		byName[p.TypeName] = p
	}
	return &discovery.Working{
		Model: m,
		Graph: depgraph.New(),
		Units: map[string]*domain.ResolvedUnit{},
		Lookup: func(qname string) (*domain.UnitProvider, bool) {
			p, ok := byName[qname]
			return p, ok
		},
	}
}

type locationsMatcher []string

// locations matches a provider slice by its unit locations, in any order.
func locations(locs ...string) gomock.Matcher {
	return locationsMatcher(locs)
}

func (m locationsMatcher) Matches(x any) bool {
	providers, ok := x.([]*domain.UnitProvider)
	if !ok || len(providers) != len(m) {
		return false
	}
	for _, p := range providers {
		if !slices.Contains(m, p.Location) {
			return false
		}
	}
	return true
}

func (m locationsMatcher) String() string {
	return fmt.Sprintf("providers at %v", []string(m))
}
