package domain

import (
	"math"
	"strings"
)

// Kind tags the variant of a Type.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindClass
	KindInterface
	KindEnum
	KindAnnotation
	KindArray
	KindParameterized
	KindWildcard
	KindTypeVariable
)

var kindNames = [...]string{
	KindPrimitive:     "primitive",
	KindClass:         "class",
	KindInterface:     "interface",
	KindEnum:          "enum",
	KindAnnotation:    "annotation",
	KindArray:         "array",
	KindParameterized: "parameterized",
	KindWildcard:      "wildcard",
	KindTypeVariable:  "type variable",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Declared reports whether the kind is a source-declared type.
func (k Kind) Declared() bool {
	switch k {
	case KindClass, KindInterface, KindEnum, KindAnnotation:
		return true
	default:
		return false
	}
}

// KindOf maps a declaration kind to the corresponding type kind.
func KindOf(k DeclKind) Kind {
	switch k {
	case DeclInterface:
		return KindInterface
	case DeclEnum:
		return KindEnum
	case DeclAnnotation:
		return KindAnnotation
	default:
		return KindClass
	}
}

// ResolveState tracks how far a declared type has been built.
type ResolveState uint8

const (
	// StateShallow types carry identity, package, enclosing link and modifiers only.
	StateShallow ResolveState = iota
	// StateResolved types have every member resolved.
	StateResolved
	// StateIncomplete types had at least one member abandoned during resolution.
	StateIncomplete
)

// Type is a node of the semantic type model. Kind selects which fields are meaningful:
// declared kinds use the declaration fields, derived kinds use Component, Base/Args,
// Bound/BoundKind or Bounds/Owner. Types are created and mutated only by the model
// builder; consumers treat them as read-only.
type Type struct {
	ID   uint64
	Kind Kind
	// Name is the qualified name for declared types and the display name for derived ones.
	Name       string
	BinaryName string
	Package    string
	// Unit is the location of the declaring unit.
	Unit      string
	Modifiers Modifiers
	Enclosing *Type
	Local     bool
	State     ResolveState

	Superclass  *Type
	Interfaces  []*Type
	TypeParams  []*Type
	Fields      []*Field
	Methods     []*Method
	Annotations []*Annotation

	// Component is the element type of an array.
	Component *Type
	// Base and Args describe a parameterized type.
	Base *Type
	Args []*Type
	// Bound and BoundKind describe a wildcard.
	Bound     *Type
	BoundKind BoundKind
	// Bounds and Owner describe a type variable.
	Bounds []*Type
	Owner  string
}

// Field is a resolved field or enum constant.
type Field struct {
	Name         string
	Type         *Type
	Modifiers    Modifiers
	Annotations  []*Annotation
	EnumConstant bool
	Ordinal      int
}

// Param is a resolved method parameter.
type Param struct {
	Name    string
	Type    *Type
	Varargs bool
}

// Method is a resolved method, constructor or annotation element.
type Method struct {
	Name        string
	Constructor bool
	Modifiers   Modifiers
	TypeParams  []*Type
	Params      []*Param
	Return      *Type
	Throws      []*Type
	Annotations []*Annotation
	Default     string
}

// Annotation is a resolved annotation use.
type Annotation struct {
	Type   *Type
	Values map[string]string
}

// Package is the package descriptor of the model.
type Package struct {
	Name string
	// Unit is the location of the package descriptor unit.
	Unit        string
	Annotations []*Annotation
}

// IsInterface reports whether t is an interface or annotation type.
func (t *Type) IsInterface() bool {
	return t.Kind == KindInterface || t.Kind == KindAnnotation
}

// IsClass reports whether t is a class or enum.
func (t *Type) IsClass() bool {
	return t.Kind == KindClass || t.Kind == KindEnum
}

// IsAbstract reports whether t cannot be instantiated directly.
func (t *Type) IsAbstract() bool {
	return t.Modifiers.Has(ModAbstract) || t.IsInterface()
}

// IsMemberType reports whether t is declared inside another type and is not local.
func (t *Type) IsMemberType() bool {
	return t.Enclosing != nil && !t.Local
}

// IsStatic reports whether t is static or top-level.
func (t *Type) IsStatic() bool {
	return t.Enclosing == nil || t.Modifiers.Has(ModStatic)
}

// Constructors returns the declared constructors of t.
func (t *Type) Constructors() []*Method {
	var out []*Method
	for _, m := range t.Methods {
		if m.Constructor {
			out = append(out, m)
		}
	}
	return out
}

// HasDefaultConstructor reports whether t can be created with no arguments.
// A class without declared constructors gets an implicit one.
func (t *Type) HasDefaultConstructor() bool {
	ctors := t.Constructors()
	if len(ctors) == 0 {
		return true
	}
	for _, c := range ctors {
		if len(c.Params) == 0 {
			return true
		}
	}
	return false
}

// Leaf returns the innermost component of an array type, or t itself.
func (t *Type) Leaf() *Type {
	for t.Kind == KindArray {
		t = t.Component
	}
	return t
}

// String renders the type the way it would be written in source.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindArray:
		return t.Component.String() + "[]"
	case KindParameterized:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return t.Base.String() + "<" + strings.Join(args, ", ") + ">"
	case KindWildcard:
		switch t.BoundKind {
		case BoundExtends:
			return "? extends " + t.Bound.String()
		case BoundSuper:
			return "? super " + t.Bound.String()
		default:
			return "?"
		}
	default:
		return t.Name
	}
}

// Primitive IDs are taken from the top of the range so they never collide with model IDs.
var primitives = func() map[string]*Type {
	names := []string{"boolean", "byte", "char", "short", "int", "long", "float", "double", "void"}
	m := make(map[string]*Type, len(names))
	for i, n := range names {
		m[n] = &Type{ID: math.MaxUint64 - uint64(i), Kind: KindPrimitive, Name: n, BinaryName: n, State: StateResolved}
	}
	return m
}()

// Primitive returns the singleton Type of a primitive keyword or void.
func Primitive(name string) (*Type, bool) {
	t, ok := primitives[name]
	return t, ok
}
