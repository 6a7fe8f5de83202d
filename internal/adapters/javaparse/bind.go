package javaparse

import (
	"maps"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.trai.ch/lathe/internal/core/domain"
)

// unitBinder turns one parsed file into a ResolvedUnit.
type unitBinder struct {
	*binder
	f    *file
	unit *domain.ResolvedUnit
	// reported dedupes unresolved-name diagnostics by position.
	reported map[domain.Position]bool
}

func (b *binder) bindUnit(f *file) *domain.ResolvedUnit {
	u := &unitBinder{
		binder: b,
		f:      f,
		unit: &domain.ResolvedUnit{
			Provider: f.provider,
			Location: f.provider.Location,
			Package:  f.provider.Package,
		},
		reported: make(map[domain.Position]bool),
	}
	u.unit.Diagnostics = append(u.unit.Diagnostics, f.problems...)
	if f.root == nil {
		return u.unit
	}

	u.checkImports()
	if f.pkgNode != nil && f.provider.IsPackageInfo() {
		u.unit.PackageAnnotations = u.annotations(scope{file: f}, f.pkgNode)
	}
	for _, d := range f.types {
		u.unit.Types = append(u.unit.Types, u.typeDecl(d))
	}
	return u.unit
}

func (u *unitBinder) errorf(n *sitter.Node, format string, args ...any) {
	p := pos(n)
	if u.reported[p] {
		return
	}
	u.reported[p] = true
	u.unit.Diagnostics = append(u.unit.Diagnostics, domain.Errorf(u.f.provider.Location, p, format, args...))
}

// checkImports reports single-type imports that name no known type. On-demand
// imports may name packages the index has not surfaced yet and are not checked.
func (u *unitBinder) checkImports() {
	for _, name := range slices.Sorted(maps.Keys(u.f.imports.single)) {
		q := u.f.imports.single[name]
		if _, ok := u.qualified(strings.Split(q, ".")); !ok {
			u.errorf(u.f.imports.nodes[q], "The import %s cannot be resolved", q)
			delete(u.f.imports.single, name)
		}
	}
}

func (u *unitBinder) typeDecl(d *decl) *domain.TypeDecl {
	n := d.node
	mods, anns := u.modifiers(scope{file: u.f, decl: d.enclosing}, n)
	td := &domain.TypeDecl{
		Kind:          d.kind,
		Name:          d.name,
		QualifiedName: d.qname,
		BinaryName:    d.bname,
		Package:       u.f.pkg,
		Modifiers:     mods,
		Local:         d.local,
		Annotations:   anns,
		Doc:           u.doc(n),
		Pos:           pos(n.ChildByFieldName("name")),
	}
	if d.enclosing != nil {
		td.Enclosing = d.enclosing.qname
	}

	sc := scope{file: u.f, decl: d}
	td.TypeParams = u.typeParams(sc, n.ChildByFieldName("type_parameters"))
	if d.kind == domain.DeclClass {
		if s := superclass(n); s != nil {
			td.Superclass = u.bindType(sc, s)
		}
	}
	for _, i := range interfaces(n) {
		td.Interfaces = append(td.Interfaces, u.bindType(sc, i))
	}

	if d.body != nil {
		u.members(d, td, d.body)
	}
	for _, nd := range d.nested {
		td.Nested = append(td.Nested, u.typeDecl(nd))
	}
	return td
}

func (u *unitBinder) members(d *decl, td *domain.TypeDecl, body *sitter.Node) {
	sc := scope{file: u.f, decl: d}
	for i := range int(body.NamedChildCount()) {
		c := body.NamedChild(i)
		switch c.Type() {
		case "field_declaration", "constant_declaration":
			td.Fields = append(td.Fields, u.fields(sc, c)...)
			u.sites(sc, c)
		case "method_declaration", "constructor_declaration", "annotation_type_element_declaration":
			td.Methods = append(td.Methods, u.method(d, c, len(td.Methods)))
		case "enum_constant":
			td.Fields = append(td.Fields, domain.FieldDecl{
				Name:         u.f.text(c.ChildByFieldName("name")),
				Type:         domain.NamedRef(d.qname),
				EnumConstant: true,
				Doc:          u.doc(c),
				Pos:          pos(c.ChildByFieldName("name")),
			})
			if args := c.ChildByFieldName("arguments"); args != nil {
				u.sites(sc, args)
			}
		case "enum_body_declarations":
			u.members(d, td, c)
		case "static_initializer", "block":
			u.sites(sc, c)
		}
	}
}

func (u *unitBinder) fields(sc scope, n *sitter.Node) []domain.FieldDecl {
	mods, anns := u.modifiers(sc, n)
	typ := u.bindType(sc, n.ChildByFieldName("type"))
	doc := u.doc(n)

	var out []domain.FieldDecl
	for _, v := range namedChildren(n, "variable_declarator") {
		t := typ
		if dims := dimensions(v.ChildByFieldName("dimensions")); dims > 0 {
			t = arrayOf(t, dims)
		}
		out = append(out, domain.FieldDecl{
			Name:        u.f.text(v.ChildByFieldName("name")),
			Type:        t,
			Modifiers:   mods,
			Annotations: anns,
			Doc:         doc,
			Pos:         pos(v),
		})
	}
	return out
}

// method binds the index-th method of d.
func (u *unitBinder) method(d *decl, n *sitter.Node, index int) domain.MethodDecl {
	outer := scope{file: u.f, decl: d}
	mods, anns := u.modifiers(outer, n)
	md := domain.MethodDecl{
		Name:        u.f.text(n.ChildByFieldName("name")),
		Constructor: n.Type() == "constructor_declaration",
		Modifiers:   mods,
		Annotations: anns,
		Doc:         u.doc(n),
		Pos:         pos(n.ChildByFieldName("name")),
	}

	sc := outer
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		sc.owner = domain.MethodOwnerKey(d.qname, md.Name, index)
		for _, p := range namedChildren(tp, "type_parameter") {
			sc.vars = append(sc.vars, typeParamName(u.f, p))
		}
		md.TypeParams = u.typeParams(sc, tp)
	}

	if t := n.ChildByFieldName("type"); t != nil {
		md.Return = u.bindType(sc, t)
		if dims := dimensions(n.ChildByFieldName("dimensions")); dims > 0 {
			md.Return = arrayOf(md.Return, dims)
		}
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		md.Params = u.params(sc, params)
	}
	if th := childOfType(n, "throws"); th != nil {
		for i := range int(th.NamedChildCount()) {
			if c := th.NamedChild(i); isTypeNode(c) {
				md.Throws = append(md.Throws, u.bindType(sc, c))
			}
		}
	}
	if v := n.ChildByFieldName("value"); v != nil {
		md.Default = u.f.text(v)
	}

	if body := n.ChildByFieldName("body"); body != nil {
		u.sites(sc, body)
	} else if mods.Has(domain.ModNative) {
		u.snippet(d.qname+"#"+md.Name, n)
	}
	return md
}

func (u *unitBinder) params(sc scope, n *sitter.Node) []domain.ParamDecl {
	var out []domain.ParamDecl
	for i := range int(n.NamedChildCount()) {
		c := n.NamedChild(i)
		switch c.Type() {
		case "formal_parameter":
			t := u.bindType(sc, c.ChildByFieldName("type"))
			if dims := dimensions(c.ChildByFieldName("dimensions")); dims > 0 {
				t = arrayOf(t, dims)
			}
			out = append(out, domain.ParamDecl{Name: u.f.text(c.ChildByFieldName("name")), Type: t})
		case "spread_parameter":
			var t *domain.TypeRef
			name := ""
			for j := range int(c.NamedChildCount()) {
				g := c.NamedChild(j)
				switch {
				case isTypeNode(g) && t == nil:
					t = u.bindType(sc, g)
				case g.Type() == "variable_declarator":
					name = u.f.text(g.ChildByFieldName("name"))
				}
			}
			out = append(out, domain.ParamDecl{Name: name, Type: arrayOf(t, 1), Varargs: true})
		}
	}
	return out
}

func (u *unitBinder) typeParams(sc scope, n *sitter.Node) []domain.TypeParamDecl {
	if n == nil {
		return nil
	}
	var out []domain.TypeParamDecl
	for _, p := range namedChildren(n, "type_parameter") {
		tp := domain.TypeParamDecl{Name: typeParamName(u.f, p)}
		if bound := childOfType(p, "type_bound"); bound != nil {
			for i := range int(bound.NamedChildCount()) {
				if c := bound.NamedChild(i); isTypeNode(c) {
					tp.Bounds = append(tp.Bounds, u.bindType(sc, c))
				}
			}
		}
		out = append(out, tp)
	}
	return out
}

// modifiers reads the modifier keywords and annotations of a declaration.
func (u *unitBinder) modifiers(sc scope, n *sitter.Node) (domain.Modifiers, []domain.AnnotationRef) {
	m := childOfType(n, "modifiers")
	if m == nil {
		return 0, nil
	}
	var mods domain.Modifiers
	for i := range int(m.ChildCount()) {
		c := m.Child(i)
		if !c.IsNamed() {
			mods |= domain.ParseModifier(c.Type())
		}
	}
	return mods, u.annotations(sc, m)
}

func (u *unitBinder) annotations(sc scope, n *sitter.Node) []domain.AnnotationRef {
	var out []domain.AnnotationRef
	for i := range int(n.NamedChildCount()) {
		c := n.NamedChild(i)
		if c.Type() != "annotation" && c.Type() != "marker_annotation" {
			continue
		}
		name := c.ChildByFieldName("name")
		ref := domain.AnnotationRef{Type: u.bindName(sc, name, typeSegments(u.f, name)), Pos: pos(c)}
		if args := c.ChildByFieldName("arguments"); args != nil {
			ref.Values = make(map[string]string)
			for j := range int(args.NamedChildCount()) {
				a := args.NamedChild(j)
				if a.Type() == "element_value_pair" {
					ref.Values[u.f.text(a.ChildByFieldName("key"))] = u.f.text(a.ChildByFieldName("value"))
				} else {
					ref.Values["value"] = u.f.text(a)
				}
			}
		}
		out = append(out, ref)
	}
	return out
}

func (u *unitBinder) doc(n *sitter.Node) string {
	prev := n.PrevSibling()
	if prev == nil || (prev.Type() != "block_comment" && prev.Type() != "comment") {
		return ""
	}
	if text := u.f.text(prev); strings.HasPrefix(text, "/**") {
		return text
	}
	return ""
}

func dimensions(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	dims := 0
	for i := range int(n.ChildCount()) {
		if n.Child(i).Type() == "[" {
			dims++
		}
	}
	return dims
}

func arrayOf(t *domain.TypeRef, dims int) *domain.TypeRef {
	if t == nil || t.Unresolved {
		return t
	}
	if t.Kind == domain.RefArray {
		return &domain.TypeRef{Kind: domain.RefArray, Elem: t.Elem, Dims: t.Dims + dims, Pos: t.Pos}
	}
	a := domain.ArrayRef(t, dims)
	a.Pos = t.Pos
	return a
}
