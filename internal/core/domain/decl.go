package domain

import (
	"iter"
	"strconv"
)

// DeclKind is the kind of a declared type.
type DeclKind uint8

const (
	DeclClass DeclKind = iota
	DeclInterface
	DeclEnum
	DeclAnnotation
)

// RefKind is the shape of a type reference in resolved source.
type RefKind uint8

const (
	RefPrimitive RefKind = iota
	RefNamed
	RefArray
	RefParameterized
	RefWildcard
	RefTypeVar
)

// BoundKind is the bound of a wildcard.
type BoundKind uint8

const (
	BoundNone BoundKind = iota
	BoundExtends
	BoundSuper
)

// TypeRef is a type reference as bound by the front-end resolver.
type TypeRef struct {
	Kind RefKind `json:"kind"`
	// Name is the primitive keyword, the qualified name of a named or generic type,
	// or the name of a type variable.
	Name string `json:"name,omitempty"`
	// Owner identifies the declaration that introduced a type variable.
	Owner string `json:"owner,omitempty"`
	// Elem is the leaf of an array or the bound of a wildcard.
	Elem *TypeRef   `json:"elem,omitempty"`
	Dims int        `json:"dims,omitempty"`
	Args []*TypeRef `json:"args,omitempty"`
	// Bound is the wildcard bound kind.
	Bound BoundKind `json:"bound,omitempty"`
	// Unresolved is set when the front-end could not bind the name.
	Unresolved bool     `json:"unresolved,omitempty"`
	Pos        Position `json:"pos"`
}

// PrimitiveRef creates a reference to a primitive type or void.
func PrimitiveRef(name string) *TypeRef {
	return &TypeRef{Kind: RefPrimitive, Name: name}
}

// NamedRef creates a reference to a declared type by qualified name.
func NamedRef(name string) *TypeRef {
	return &TypeRef{Kind: RefNamed, Name: name}
}

// ArrayRef creates an array reference with dims dimensions over leaf.
func ArrayRef(leaf *TypeRef, dims int) *TypeRef {
	return &TypeRef{Kind: RefArray, Elem: leaf, Dims: dims}
}

// GenericRef creates a parameterized reference.
func GenericRef(name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: RefParameterized, Name: name, Args: args}
}

// WildcardRef creates a wildcard reference; bound is nil for "?".
func WildcardRef(kind BoundKind, bound *TypeRef) *TypeRef {
	return &TypeRef{Kind: RefWildcard, Bound: kind, Elem: bound}
}

// TypeVarRef creates a reference to the type variable name declared by owner.
func TypeVarRef(owner, name string) *TypeRef {
	return &TypeRef{Kind: RefTypeVar, Owner: owner, Name: name}
}

// Names yields the qualified names of every declared type the reference mentions.
func (r *TypeRef) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		r.names(yield)
	}
}

func (r *TypeRef) names(yield func(string) bool) bool {
	if r == nil || r.Unresolved {
		return true
	}
	switch r.Kind {
	case RefNamed:
		return yield(r.Name)
	case RefParameterized:
		if !yield(r.Name) {
			return false
		}
		for _, a := range r.Args {
			if !a.names(yield) {
				return false
			}
		}
	case RefArray, RefWildcard:
		return r.Elem.names(yield)
	case RefPrimitive, RefTypeVar:
	}
	return true
}

// AnnotationRef is an annotation use with its element values as source text.
type AnnotationRef struct {
	Type   *TypeRef          `json:"type"`
	Values map[string]string `json:"values,omitempty"`
	Pos    Position          `json:"pos"`
}

// TypeParamDecl is a declared type parameter.
type TypeParamDecl struct {
	Name   string     `json:"name"`
	Bounds []*TypeRef `json:"bounds,omitempty"`
}

// FieldDecl is a declared field or enum constant.
type FieldDecl struct {
	Name         string          `json:"name"`
	Type         *TypeRef        `json:"type"`
	Modifiers    Modifiers       `json:"mods,omitempty"`
	Annotations  []AnnotationRef `json:"annotations,omitempty"`
	EnumConstant bool            `json:"enumConstant,omitempty"`
	Doc          string          `json:"doc,omitempty"`
	Pos          Position        `json:"pos"`
}

// ParamDecl is a declared method parameter.
type ParamDecl struct {
	Name    string   `json:"name"`
	Type    *TypeRef `json:"type"`
	Varargs bool     `json:"varargs,omitempty"`
}

// MethodDecl is a declared method, constructor or annotation element.
type MethodDecl struct {
	Name        string          `json:"name"`
	Constructor bool            `json:"ctor,omitempty"`
	Modifiers   Modifiers       `json:"mods,omitempty"`
	TypeParams  []TypeParamDecl `json:"typeParams,omitempty"`
	Params      []ParamDecl     `json:"params,omitempty"`
	Return      *TypeRef        `json:"return,omitempty"`
	Throws      []*TypeRef      `json:"throws,omitempty"`
	Annotations []AnnotationRef `json:"annotations,omitempty"`
	// Default is the default value expression of an annotation element.
	Default string   `json:"default,omitempty"`
	Doc     string   `json:"doc,omitempty"`
	Pos     Position `json:"pos"`
}

// TypeDecl is a type declaration produced by the front-end resolver.
type TypeDecl struct {
	Kind DeclKind `json:"kind"`
	Name string   `json:"name"`
	// QualifiedName uses '.' between enclosing and nested names.
	QualifiedName string `json:"qname"`
	// BinaryName uses '$' between enclosing and nested names.
	BinaryName  string          `json:"bname"`
	Package     string          `json:"pkg"`
	Modifiers   Modifiers       `json:"mods,omitempty"`
	Local       bool            `json:"local,omitempty"`
	Enclosing   string          `json:"enclosing,omitempty"`
	TypeParams  []TypeParamDecl `json:"typeParams,omitempty"`
	Superclass  *TypeRef        `json:"super,omitempty"`
	Interfaces  []*TypeRef      `json:"interfaces,omitempty"`
	Fields      []FieldDecl     `json:"fields,omitempty"`
	Methods     []MethodDecl    `json:"methods,omitempty"`
	Annotations []AnnotationRef `json:"annotations,omitempty"`
	Nested      []*TypeDecl     `json:"nested,omitempty"`
	Doc         string          `json:"doc,omitempty"`
	Pos         Position        `json:"pos"`
}

// MethodOwner returns the owner key for type variables declared by the i-th method of d.
func (d *TypeDecl) MethodOwner(i int) string {
	return MethodOwnerKey(d.QualifiedName, d.Methods[i].Name, i)
}

// MethodOwnerKey builds the owner key of the i-th method, named name, of the type qname.
func MethodOwnerKey(qname, name string, i int) string {
	return qname + "#" + name + "/" + strconv.Itoa(i)
}

// Refs yields every type reference made by the declaration itself, excluding nested types.
func (d *TypeDecl) Refs() iter.Seq[*TypeRef] {
	return func(yield func(*TypeRef) bool) {
		emit := func(refs ...*TypeRef) bool {
			for _, r := range refs {
				if r != nil && !yield(r) {
					return false
				}
			}
			return true
		}
		emitAnnotations := func(anns []AnnotationRef) bool {
			for _, a := range anns {
				if !emit(a.Type) {
					return false
				}
			}
			return true
		}
		emitParams := func(params []TypeParamDecl) bool {
			for _, p := range params {
				if !emit(p.Bounds...) {
					return false
				}
			}
			return true
		}

		if !emit(d.Superclass) || !emit(d.Interfaces...) || !emitParams(d.TypeParams) || !emitAnnotations(d.Annotations) {
			return
		}
		for _, f := range d.Fields {
			if !emit(f.Type) || !emitAnnotations(f.Annotations) {
				return
			}
		}
		for _, m := range d.Methods {
			if !emit(m.Return) || !emit(m.Throws...) || !emitParams(m.TypeParams) || !emitAnnotations(m.Annotations) {
				return
			}
			for _, p := range m.Params {
				if !emit(p.Type) {
					return
				}
			}
		}
	}
}

// Docs yields the documentation comments attached to the declaration and its members.
func (d *TypeDecl) Docs() iter.Seq[string] {
	return func(yield func(string) bool) {
		if d.Doc != "" && !yield(d.Doc) {
			return
		}
		for _, f := range d.Fields {
			if f.Doc != "" && !yield(f.Doc) {
				return
			}
		}
		for _, m := range d.Methods {
			if m.Doc != "" && !yield(m.Doc) {
				return
			}
		}
	}
}

// Snippet is a block of foreign code embedded in a unit.
type Snippet struct {
	// Owner is the qualified name of the member declaring the snippet.
	Owner string   `json:"owner"`
	Body  string   `json:"body"`
	Pos   Position `json:"pos"`
}

// RebindSite is a call site asking for an implementation of a type.
type RebindSite struct {
	Requested string   `json:"requested"`
	Enclosing string   `json:"enclosing,omitempty"`
	Pos       Position `json:"pos"`
}

// ResolvedUnit is the front-end output for one unit at one point in time.
// It is superseded, never mutated, when the unit changes.
type ResolvedUnit struct {
	Provider           *UnitProvider   `json:"-"`
	Location           string          `json:"location"`
	Package            string          `json:"pkg"`
	Types              []*TypeDecl     `json:"types,omitempty"`
	PackageAnnotations []AnnotationRef `json:"packageAnnotations,omitempty"`
	Snippets           []Snippet       `json:"snippets,omitempty"`
	RebindSites        []RebindSite    `json:"rebindSites,omitempty"`
	Diagnostics        []Diagnostic    `json:"diagnostics,omitempty"`
}

// HasErrors reports whether the unit carries an unrecoverable diagnostic.
func (u *ResolvedUnit) HasErrors() bool {
	for _, d := range u.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Decls yields every type declaration of the unit, enclosing types before nested ones.
func (u *ResolvedUnit) Decls() iter.Seq[*TypeDecl] {
	return func(yield func(*TypeDecl) bool) {
		var walk func(decls []*TypeDecl) bool
		walk = func(decls []*TypeDecl) bool {
			for _, d := range decls {
				if !yield(d) || !walk(d.Nested) {
					return false
				}
			}
			return true
		}
		walk(u.Types)
	}
}

// Transient reports whether the unit came from a transient provider.
func (u *ResolvedUnit) Transient() bool {
	return u.Provider != nil && u.Provider.Transient
}

// ForeignRef is a reference to a Java member found inside a foreign code snippet.
type ForeignRef struct {
	// Class is the referenced class in binary form ("a.b.Outer$Inner").
	Class  string
	Member string
	Pos    Position
}
