package typemodel_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/engine/typemodel"
)

// class declares a top-level class named qname extending super (java.lang.Object when empty).
func class(qname string, super string) *domain.TypeDecl {
	pkg, simple := domain.SplitQualified(qname)
	d := &domain.TypeDecl{
		Kind:          domain.DeclClass,
		Name:          simple,
		QualifiedName: qname,
		BinaryName:    qname,
		Package:       pkg,
		Modifiers:     domain.ModPublic,
	}
	if super != "" {
		d.Superclass = domain.NamedRef(super)
	}
	return d
}

func iface(qname string) *domain.TypeDecl {
	d := class(qname, "")
	d.Kind = domain.DeclInterface
	return d
}

// nest makes inner a member type of outer.
func nest(outer, inner *domain.TypeDecl) *domain.TypeDecl {
	inner.QualifiedName = outer.QualifiedName + "." + inner.Name
	inner.BinaryName = outer.BinaryName + "$" + inner.Name
	inner.Package = outer.Package
	inner.Enclosing = outer.QualifiedName
	outer.Nested = append(outer.Nested, inner)
	return inner
}

func resolved(types ...*domain.TypeDecl) *domain.ResolvedUnit {
	top := types[0]
	loc := strings.ReplaceAll(top.QualifiedName, ".", "/") + ".java"
	return &domain.ResolvedUnit{Location: loc, Package: top.Package, Types: types}
}

func object() *domain.ResolvedUnit {
	return resolved(class("java.lang.Object", ""))
}

func build(t *testing.T, b *typemodel.Builder, units ...*domain.ResolvedUnit) typemodel.Report {
	t.Helper()
	report, err := b.Add(context.Background(), units)
	require.NoError(t, err)
	return report
}
