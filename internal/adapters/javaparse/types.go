package javaparse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.trai.ch/lathe/internal/core/domain"
)

// bindType converts a type node into a bound reference. Names that cannot be
// bound are reported and come back marked Unresolved.
func (u *unitBinder) bindType(sc scope, n *sitter.Node) *domain.TypeRef {
	if n == nil {
		return nil
	}
	var ref *domain.TypeRef
	switch n.Type() {
	case "void_type", "integral_type", "floating_point_type", "boolean_type":
		ref = domain.PrimitiveRef(u.f.text(n))
	case "type_identifier":
		name := u.f.text(n)
		bd, ok := u.resolve(sc, name)
		switch {
		case !ok:
			ref = u.unresolved(n, name)
		case bd.isVar:
			ref = domain.TypeVarRef(bd.owner, bd.qname)
		default:
			ref = domain.NamedRef(bd.qname)
		}
	case "scoped_type_identifier":
		ref = u.bindName(sc, n, typeSegments(u.f, n))
	case "generic_type":
		ref = u.genericType(sc, n)
	case "wildcard":
		ref = u.wildcard(sc, n)
	case "array_type":
		ref = arrayOf(u.bindType(sc, n.ChildByFieldName("element")), dimensions(n.ChildByFieldName("dimensions")))
	case "annotated_type":
		for i := range int(n.NamedChildCount()) {
			if c := n.NamedChild(i); isTypeNode(c) {
				return u.bindType(sc, c)
			}
		}
		return nil
	default:
		return nil
	}
	if ref != nil && !ref.Pos.IsValid() {
		ref.Pos = pos(n)
	}
	return ref
}

// bindName binds a possibly dotted name that must denote a declared type.
func (u *unitBinder) bindName(sc scope, n *sitter.Node, segs []string) *domain.TypeRef {
	if len(segs) == 0 {
		return nil
	}
	var (
		q  string
		ok bool
	)
	if len(segs) == 1 {
		var bd binding
		bd, ok = u.resolve(sc, segs[0])
		ok = ok && !bd.isVar
		q = bd.qname
	} else {
		q, ok = u.resolveSegments(sc, segs)
	}
	if !ok {
		return u.unresolved(n, strings.Join(segs, "."))
	}
	ref := domain.NamedRef(q)
	ref.Pos = pos(n)
	return ref
}

func (u *unitBinder) unresolved(n *sitter.Node, name string) *domain.TypeRef {
	u.errorf(n, "%s cannot be resolved to a type", name)
	return &domain.TypeRef{Kind: domain.RefNamed, Name: name, Unresolved: true, Pos: pos(n)}
}

func (u *unitBinder) genericType(sc scope, n *sitter.Node) *domain.TypeRef {
	var (
		base *domain.TypeRef
		args []*domain.TypeRef
	)
	for i := range int(n.NamedChildCount()) {
		c := n.NamedChild(i)
		switch {
		case c.Type() == "type_arguments":
			for j := range int(c.NamedChildCount()) {
				if a := c.NamedChild(j); isTypeNode(a) {
					args = append(args, u.bindType(sc, a))
				}
			}
		case base == nil && isTypeNode(c):
			base = u.bindType(sc, c)
		}
	}
	if base == nil || base.Unresolved || base.Kind != domain.RefNamed {
		return base
	}
	// Diamond "<>" has no arguments and leaves the raw type.
	if len(args) == 0 {
		return base
	}
	g := domain.GenericRef(base.Name, args...)
	g.Pos = base.Pos
	return g
}

func (u *unitBinder) wildcard(sc scope, n *sitter.Node) *domain.TypeRef {
	kind := domain.BoundNone
	var bound *domain.TypeRef
	for i := range int(n.ChildCount()) {
		c := n.Child(i)
		switch {
		case c.Type() == "extends":
			kind = domain.BoundExtends
		case c.Type() == "super":
			kind = domain.BoundSuper
		case c.IsNamed() && isTypeNode(c):
			bound = u.bindType(sc, c)
		}
	}
	if bound == nil {
		kind = domain.BoundNone
	}
	return domain.WildcardRef(kind, bound)
}
