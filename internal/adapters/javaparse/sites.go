package javaparse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"go.trai.ch/lathe/internal/core/domain"
)

const (
	jsniOpen  = "/*-{"
	jsniClose = "}-*/"
	// rebindClass is the simple name of the class whose create method requests a rebind.
	rebindClass  = "GWT"
	rebindMethod = "create"
)

// snippet records the JSNI body of the native method n, if it has one.
func (u *unitBinder) snippet(owner string, n *sitter.Node) {
	start := int(n.StartByte())
	text := u.f.text(n)
	if next := n.NextSibling(); !strings.Contains(text, jsniOpen) && next != nil && strings.HasPrefix(u.f.text(next), jsniOpen) {
		text = string(u.f.src[start:next.EndByte()])
	}
	open := strings.Index(text, jsniOpen)
	if open < 0 {
		return
	}
	body := text[open+len(jsniOpen):]
	end := strings.Index(body, jsniClose)
	if end < 0 {
		u.errorf(n, "Unterminated JSNI block in native method")
		return
	}
	u.unit.Snippets = append(u.unit.Snippets, domain.Snippet{
		Owner: owner,
		Body:  body[:end],
		Pos:   u.f.posAt(start + open + len(jsniOpen)),
	})
}

// sites records the rebind requests made by the code below n. Local type
// declarations are skipped; they record their own.
func (u *unitBinder) sites(sc scope, n *sitter.Node) {
	for i := range int(n.NamedChildCount()) {
		c := n.NamedChild(i)
		if isTypeDecl(c) {
			continue
		}
		if c.Type() == "method_invocation" {
			u.rebindSite(sc, c)
		}
		u.sites(sc, c)
	}
}

func (u *unitBinder) rebindSite(sc scope, call *sitter.Node) {
	if u.f.text(call.ChildByFieldName("name")) != rebindMethod {
		return
	}
	obj := u.f.name(call.ChildByFieldName("object"))
	if obj != rebindClass && !strings.HasSuffix(obj, "."+rebindClass) {
		return
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 || args.NamedChild(0).Type() != "class_literal" {
		return
	}
	lit := args.NamedChild(0)
	var ref *domain.TypeRef
	for i := range int(lit.NamedChildCount()) {
		if c := lit.NamedChild(i); isTypeNode(c) {
			ref = u.bindType(sc, c)
			break
		}
	}
	if ref == nil || ref.Unresolved || (ref.Kind != domain.RefNamed && ref.Kind != domain.RefParameterized) {
		return
	}
	u.unit.RebindSites = append(u.unit.RebindSites, domain.RebindSite{
		Requested: ref.Name,
		Enclosing: sc.decl.qname,
		Pos:       pos(call),
	})
}
