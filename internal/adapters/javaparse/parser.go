// Package javaparse is the front-end resolver. It parses Java units with
// tree-sitter and binds the type references of their declarations to
// qualified names.
package javaparse

import (
	"bytes"
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"go.trai.ch/lathe/internal/core/domain"
)

// maxSyntaxErrors bounds the syntax diagnostics reported per unit.
const maxSyntaxErrors = 10

// file is one parsed unit together with its declaration outline.
type file struct {
	provider *domain.UnitProvider
	src      []byte
	tree     *sitter.Tree
	root     *sitter.Node
	pkg      string
	pkgNode  *sitter.Node
	imports  imports
	types    []*decl
	problems []domain.Diagnostic
}

type imports struct {
	// single maps a simple name to the qualified name it imports.
	single map[string]string
	// demand lists packages and types imported with ".*", in source order.
	demand []string
	nodes  map[string]*sitter.Node
}

// parse reads and parses the source of p. A read failure is reported on the file;
// only cancellation fails the call.
func parse(ctx context.Context, p *domain.UnitProvider) (*file, error) {
	f := &file{provider: p, imports: imports{single: map[string]string{}, nodes: map[string]*sitter.Node{}}}
	src, err := p.Source()
	if err != nil {
		f.problems = append(f.problems, domain.Errorf(p.Location, domain.Position{}, "Unable to read source: %s", err))
		return f, nil
	}
	f.src = src

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	f.tree = tree
	f.root = tree.RootNode()

	f.syntaxErrors(f.root)
	f.header()
	outline(f)
	return f, nil
}

func (f *file) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.src)
}

// name returns the text of n without whitespace or comments, as used for dotted names.
func (f *file) name(n *sitter.Node) string {
	var b strings.Builder
	for _, r := range f.text(n) {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func pos(n *sitter.Node) domain.Position {
	if n == nil {
		return domain.Position{}
	}
	p := n.StartPoint()
	return domain.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

// posAt converts a byte offset into a position.
func (f *file) posAt(offset int) domain.Position {
	before := f.src[:offset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	col := offset - bytes.LastIndexByte(before, '\n')
	return domain.Position{Line: line, Column: col}
}

func (f *file) syntaxErrors(n *sitter.Node) {
	if !n.HasError() && !n.IsMissing() {
		return
	}
	if len(f.problems) >= maxSyntaxErrors {
		return
	}
	switch {
	case n.IsMissing():
		f.problems = append(f.problems, domain.Errorf(f.provider.Location, pos(n), "Syntax error, insert %q", n.Type()))
		return
	case n.Type() == "ERROR":
		f.problems = append(f.problems, domain.Errorf(f.provider.Location, pos(n), "Syntax error on token %q", firstLine(f.text(n))))
		return
	}
	for i := range int(n.ChildCount()) {
		f.syntaxErrors(n.Child(i))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// header reads the package and import declarations.
func (f *file) header() {
	for i := range int(f.root.NamedChildCount()) {
		n := f.root.NamedChild(i)
		switch n.Type() {
		case "package_declaration":
			f.pkgNode = n
			for j := range int(n.NamedChildCount()) {
				c := n.NamedChild(j)
				if c.Type() == "identifier" || c.Type() == "scoped_identifier" {
					f.pkg = f.name(c)
				}
			}
		case "import_declaration":
			f.importDecl(n)
		}
	}
	if f.pkgNode == nil && f.provider.Package != "" {
		f.problems = append(f.problems, domain.Errorf(f.provider.Location, domain.Position{Line: 1, Column: 1},
			"The declared package \"\" does not match the expected package %q", f.provider.Package))
	} else if f.pkgNode != nil && f.pkg != f.provider.Package {
		f.problems = append(f.problems, domain.Errorf(f.provider.Location, pos(f.pkgNode),
			"The declared package %q does not match the expected package %q", f.pkg, f.provider.Package))
	}
}

func (f *file) importDecl(n *sitter.Node) {
	static := false
	for i := range int(n.ChildCount()) {
		if n.Child(i).Type() == "static" {
			static = true
		}
	}
	text := strings.TrimSuffix(strings.TrimPrefix(f.name(n), "import"), ";")
	if static {
		// Static imports name members, except for on-demand imports of a type's member types.
		text = strings.TrimPrefix(text, "static")
		if !strings.HasSuffix(text, ".*") {
			return
		}
	}
	if pkg, ok := strings.CutSuffix(text, ".*"); ok {
		f.imports.demand = append(f.imports.demand, pkg)
		f.imports.nodes[text] = n
		return
	}
	_, simple := domain.SplitQualified(text)
	if _, dup := f.imports.single[simple]; !dup {
		f.imports.single[simple] = text
		f.imports.nodes[text] = n
	}
}
