package javaparse

import (
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"
	"go.trai.ch/lathe/internal/core/domain"
)

// decl is the outline of one type declaration: enough to resolve names against
// it without binding its members.
type decl struct {
	file       *file
	node       *sitter.Node
	body       *sitter.Node
	kind       domain.DeclKind
	name       string
	qname      string
	bname      string
	enclosing  *decl
	local      bool
	typeParams []string
	// members holds member types by simple name. nested keeps declaration order
	// and also holds local types.
	members map[string]*decl
	nested  []*decl
}

var declKinds = map[string]domain.DeclKind{
	"class_declaration":           domain.DeclClass,
	"interface_declaration":       domain.DeclInterface,
	"enum_declaration":            domain.DeclEnum,
	"annotation_type_declaration": domain.DeclAnnotation,
}

func isTypeDecl(n *sitter.Node) bool {
	_, ok := declKinds[n.Type()]
	return ok
}

// outline collects the type declarations of f.
func outline(f *file) {
	locals := 0
	for i := range int(f.root.NamedChildCount()) {
		n := f.root.NamedChild(i)
		if !isTypeDecl(n) {
			continue
		}
		if d := newDecl(f, n, nil, false, &locals); d != nil {
			f.types = append(f.types, d)
		}
	}
}

func newDecl(f *file, n *sitter.Node, enclosing *decl, local bool, locals *int) *decl {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	d := &decl{
		file:      f,
		node:      n,
		body:      n.ChildByFieldName("body"),
		kind:      declKinds[n.Type()],
		name:      f.text(nameNode),
		enclosing: enclosing,
		local:     local,
		members:   make(map[string]*decl),
	}
	switch {
	case enclosing == nil:
		d.qname = qualify(f.pkg, d.name)
		d.bname = d.qname
	case local:
		*locals++
		d.bname = enclosing.bname + "$" + strconv.Itoa(*locals) + d.name
		d.qname = d.bname
	default:
		d.qname = enclosing.qname + "." + d.name
		d.bname = enclosing.bname + "$" + d.name
	}

	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		for _, p := range namedChildren(tp, "type_parameter") {
			d.typeParams = append(d.typeParams, typeParamName(f, p))
		}
	}
	if d.body != nil {
		d.walkBody(d.body, locals)
	}
	return d
}

func (d *decl) walkBody(body *sitter.Node, locals *int) {
	for i := range int(body.NamedChildCount()) {
		c := body.NamedChild(i)
		switch {
		case isTypeDecl(c):
			if m := newDecl(d.file, c, d, false, locals); m != nil {
				if _, dup := d.members[m.name]; !dup {
					d.members[m.name] = m
				}
				d.nested = append(d.nested, m)
			}
		case c.Type() == "enum_body_declarations":
			d.walkBody(c, locals)
		default:
			d.findLocals(c, locals)
		}
	}
}

// findLocals collects local type declarations in the code below n. Anonymous
// class bodies are not descended into.
func (d *decl) findLocals(n *sitter.Node, locals *int) {
	for i := range int(n.NamedChildCount()) {
		c := n.NamedChild(i)
		switch {
		case isTypeDecl(c):
			if l := newDecl(d.file, c, d, true, locals); l != nil {
				d.nested = append(d.nested, l)
			}
		case c.Type() == "class_body":
		default:
			d.findLocals(c, locals)
		}
	}
}

// superclass returns the type node after "extends" of a class.
func superclass(n *sitter.Node) *sitter.Node {
	sc := n.ChildByFieldName("superclass")
	if sc == nil {
		return nil
	}
	for i := range int(sc.NamedChildCount()) {
		if c := sc.NamedChild(i); isTypeNode(c) {
			return c
		}
	}
	return nil
}

// interfaces returns the implemented interfaces of a class or enum, or the
// extended interfaces of an interface.
func interfaces(n *sitter.Node) []*sitter.Node {
	list := n.ChildByFieldName("interfaces")
	if list == nil {
		for i := range int(n.NamedChildCount()) {
			if c := n.NamedChild(i); c.Type() == "extends_interfaces" {
				list = c
			}
		}
	}
	if list == nil {
		return nil
	}
	var out []*sitter.Node
	for i := range int(list.NamedChildCount()) {
		c := list.NamedChild(i)
		if c.Type() != "type_list" {
			continue
		}
		for j := range int(c.NamedChildCount()) {
			if t := c.NamedChild(j); isTypeNode(t) {
				out = append(out, t)
			}
		}
	}
	return out
}

func typeParamName(f *file, p *sitter.Node) string {
	for i := range int(p.NamedChildCount()) {
		c := p.NamedChild(i)
		if c.Type() == "type_identifier" || c.Type() == "identifier" {
			return f.text(c)
		}
	}
	return ""
}

func namedChildren(n *sitter.Node, typ string) []*sitter.Node {
	var out []*sitter.Node
	for i := range int(n.NamedChildCount()) {
		if c := n.NamedChild(i); c.Type() == typ {
			out = append(out, c)
		}
	}
	return out
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := range int(n.NamedChildCount()) {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

var typeNodes = map[string]bool{
	"void_type":              true,
	"integral_type":          true,
	"floating_point_type":    true,
	"boolean_type":           true,
	"type_identifier":        true,
	"scoped_type_identifier": true,
	"generic_type":           true,
	"array_type":             true,
	"annotated_type":         true,
	"wildcard":               true,
}

func isTypeNode(n *sitter.Node) bool {
	return n != nil && typeNodes[n.Type()]
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
