package javaparse

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

// implicitPackage is imported on demand by every unit.
const implicitPackage = "java.lang"

// scope is the context a type name is resolved in.
type scope struct {
	file *file
	// decl is the innermost enclosing type, nil at unit level.
	decl *decl
	// owner and vars describe the type variables of the enclosing method.
	owner string
	vars  []string
}

// binding is the outcome of resolving a name: a declared type or a type variable.
type binding struct {
	qname string
	owner string
	isVar bool
}

// binder resolves names for one Resolve call. It knows every type declared in
// the batch and loads outlines of other units on demand.
type binder struct {
	r      *Resolver
	lookup ports.LookupFunc
	// types indexes every known declaration by qualified name.
	types map[string]*decl
	// tops caches top-level existence checks.
	tops map[string]bool
}

func newBinder(r *Resolver, lookup ports.LookupFunc) *binder {
	return &binder{
		r:      r,
		lookup: lookup,
		types:  make(map[string]*decl),
		tops:   make(map[string]bool),
	}
}

// register indexes the declarations of f. The first declaration of a name wins.
func (b *binder) register(f *file) {
	var walk func([]*decl)
	walk = func(ds []*decl) {
		for _, d := range ds {
			if _, dup := b.types[d.qname]; !dup {
				b.types[d.qname] = d
			}
			walk(d.nested)
		}
	}
	walk(f.types)
	for _, d := range f.types {
		b.tops[d.qname] = true
	}
}

// exists reports whether name is a top-level type of a known unit or of a unit
// the lookup function can provide.
func (b *binder) exists(name string) bool {
	if ok, seen := b.tops[name]; seen {
		return ok
	}
	p, ok := b.lookup(name)
	ok = ok && p != nil
	b.tops[name] = ok
	if ok {
		if f := b.r.parseOutline(p); f != nil {
			b.register(f)
		}
	}
	return ok
}

// outline returns the declaration of qname, loading the declaring unit if needed.
func (b *binder) outline(qname string) *decl {
	if d, ok := b.types[qname]; ok {
		return d
	}
	for top := qname; top != ""; top, _ = domain.SplitQualified(top) {
		if b.exists(top) {
			break
		}
		if !strings.Contains(top, ".") {
			break
		}
	}
	return b.types[qname]
}

// resolve binds a simple name in sc.
func (b *binder) resolve(sc scope, name string) (binding, bool) {
	if slices.Contains(sc.vars, name) {
		return binding{qname: name, owner: sc.owner, isVar: true}, true
	}
	for d := sc.decl; d != nil; d = d.enclosing {
		if slices.Contains(d.typeParams, name) {
			return binding{qname: name, owner: d.qname, isVar: true}, true
		}
		if q, ok := b.memberType(d, name, map[*decl]bool{}); ok {
			return binding{qname: q}, true
		}
		if d.name == name {
			return binding{qname: d.qname}, true
		}
	}
	return b.resolveInUnit(sc.file, name)
}

// resolveInUnit binds a simple name against the unit's own types, its imports,
// its package and java.lang, in that order.
func (b *binder) resolveInUnit(f *file, name string) (binding, bool) {
	for _, d := range f.types {
		if d.name == name {
			return binding{qname: d.qname}, true
		}
	}
	if q, ok := f.imports.single[name]; ok {
		if q, ok := b.qualified(strings.Split(q, ".")); ok {
			return binding{qname: q}, true
		}
	}
	if q := qualify(f.pkg, name); b.exists(q) {
		return binding{qname: q}, true
	}
	for _, on := range f.imports.demand {
		if q := on + "." + name; b.exists(q) {
			return binding{qname: q}, true
		}
		if d := b.outline(on); d != nil {
			if q, ok := b.memberType(d, name, map[*decl]bool{}); ok {
				return binding{qname: q}, true
			}
		}
	}
	if q := implicitPackage + "." + name; b.exists(q) {
		return binding{qname: q}, true
	}
	return binding{}, false
}

// memberType finds a member type of d by simple name, including inherited ones.
func (b *binder) memberType(d *decl, name string, seen map[*decl]bool) (string, bool) {
	if seen[d] {
		return "", false
	}
	seen[d] = true
	if m, ok := d.members[name]; ok {
		return m.qname, true
	}

	supers := interfaces(d.node)
	if sc := superclass(d.node); sc != nil {
		supers = append([]*sitter.Node{sc}, supers...)
	}
	for _, s := range supers {
		q, ok := b.typeName(scope{file: d.file, decl: d.enclosing}, s)
		if !ok {
			continue
		}
		if sd := b.outline(q); sd != nil {
			if m, ok := b.memberType(sd, name, seen); ok {
				return m, true
			}
		}
	}
	return "", false
}

// typeName resolves the declared type a type node names, ignoring type
// arguments and array dimensions.
func (b *binder) typeName(sc scope, n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "type_identifier":
		bd, ok := b.resolve(sc, sc.file.text(n))
		return bd.qname, ok && !bd.isVar
	case "scoped_type_identifier":
		return b.resolveSegments(sc, typeSegments(sc.file, n))
	case "generic_type", "annotated_type", "array_type":
		for i := range int(n.NamedChildCount()) {
			if c := n.NamedChild(i); isTypeNode(c) {
				return b.typeName(sc, c)
			}
		}
	}
	return "", false
}

// resolveSegments binds a dotted name. The first segment is tried as a type in
// scope; otherwise the longest package prefix naming a top-level type wins.
func (b *binder) resolveSegments(sc scope, segs []string) (string, bool) {
	if len(segs) == 0 {
		return "", false
	}
	if bd, ok := b.resolve(sc, segs[0]); ok && !bd.isVar {
		return b.nested(bd.qname, segs[1:])
	}
	return b.qualified(segs)
}

// qualified binds a package-qualified name: the longest prefix naming a
// top-level type is followed by member types.
func (b *binder) qualified(segs []string) (string, bool) {
	for i := 1; i < len(segs); i++ {
		if top := strings.Join(segs[:i+1], "."); b.exists(top) {
			return b.nested(top, segs[i+1:])
		}
	}
	return "", false
}

// nested descends from a type into member types. Unknown outlines are trusted.
func (b *binder) nested(qname string, rest []string) (string, bool) {
	for _, seg := range rest {
		d := b.outline(qname)
		if d == nil {
			qname += "." + seg
			continue
		}
		m, ok := b.memberType(d, seg, map[*decl]bool{})
		if !ok {
			return "", false
		}
		qname = m
	}
	return qname, true
}

// typeSegments flattens a scoped type name, dropping annotations and type arguments.
func typeSegments(f *file, n *sitter.Node) []string {
	switch n.Type() {
	case "type_identifier", "identifier":
		return []string{f.text(n)}
	case "scoped_type_identifier", "scoped_identifier":
		var segs []string
		for i := range int(n.NamedChildCount()) {
			c := n.NamedChild(i)
			switch c.Type() {
			case "annotation", "marker_annotation":
			default:
				segs = append(segs, typeSegments(f, c)...)
			}
		}
		return segs
	case "generic_type":
		if n.NamedChildCount() > 0 {
			return typeSegments(f, n.NamedChild(0))
		}
	}
	return nil
}
