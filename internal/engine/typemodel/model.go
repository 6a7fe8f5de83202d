// Package typemodel holds the canonical semantic type model and the two-pass
// builder that populates it from resolved units.
package typemodel

import (
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/lathe/internal/core/domain"
)

// Model is the identity-stable registry of types. For the lifetime of a model,
// looking up the same qualified name, or interning the same array, parameterized or
// wildcard form, always yields the same *domain.Type.
// It is not safe for concurrent mutation.
type Model struct {
	seq      *uint64
	declared map[string]*domain.Type
	binary   map[string]*domain.Type
	byUnit   map[string][]*domain.Type
	packages map[string]*domain.Package

	arrays        map[*domain.Type]*domain.Type
	parameterized map[string]*domain.Type
	wildcards     map[string]*domain.Type
	typeVars      map[string]*domain.Type
}

// NewModel creates an empty Model.
func NewModel() *Model {
	var seq uint64
	return &Model{
		seq:           &seq,
		declared:      make(map[string]*domain.Type),
		binary:        make(map[string]*domain.Type),
		byUnit:        make(map[string][]*domain.Type),
		packages:      make(map[string]*domain.Package),
		arrays:        make(map[*domain.Type]*domain.Type),
		parameterized: make(map[string]*domain.Type),
		wildcards:     make(map[string]*domain.Type),
		typeVars:      make(map[string]*domain.Type),
	}
}

// Clone returns a model sharing every existing Type with m but owning its own
// registries, so units can be removed and added without touching m.
// IDs keep increasing across clones.
func (m *Model) Clone() *Model {
	c := &Model{
		seq:           m.seq,
		declared:      maps.Clone(m.declared),
		binary:        maps.Clone(m.binary),
		byUnit:        make(map[string][]*domain.Type, len(m.byUnit)),
		packages:      maps.Clone(m.packages),
		arrays:        maps.Clone(m.arrays),
		parameterized: maps.Clone(m.parameterized),
		wildcards:     maps.Clone(m.wildcards),
		typeVars:      maps.Clone(m.typeVars),
	}
	for loc, types := range m.byUnit {
		c.byUnit[loc] = slices.Clone(types)
	}
	return c
}

func (m *Model) nextID() uint64 {
	*m.seq++
	return *m.seq
}

// Lookup returns the declared type with the given qualified name.
func (m *Model) Lookup(qualifiedName string) (*domain.Type, bool) {
	t, ok := m.declared[qualifiedName]
	return t, ok
}

// LookupBinary returns the declared type with the given binary name.
func (m *Model) LookupBinary(binaryName string) (*domain.Type, bool) {
	t, ok := m.binary[binaryName]
	return t, ok
}

// Package returns the package descriptor for name.
func (m *Model) Package(name string) (*domain.Package, bool) {
	p, ok := m.packages[name]
	return p, ok
}

// Owner returns the location of the unit declaring qualifiedName.
func (m *Model) Owner(qualifiedName string) (string, bool) {
	if t, ok := m.declared[qualifiedName]; ok {
		return t.Unit, true
	}
	return "", false
}

// Len returns the number of declared types.
func (m *Model) Len() int {
	return len(m.declared)
}

// Types yields every declared type in qualified-name order.
func (m *Model) Types() iter.Seq[*domain.Type] {
	return func(yield func(*domain.Type) bool) {
		for _, name := range slices.Sorted(maps.Keys(m.declared)) {
			if !yield(m.declared[name]) {
				return
			}
		}
	}
}

// TypesOf returns the declared types of the unit at loc, enclosing types first.
func (m *Model) TypesOf(loc string) []*domain.Type {
	return slices.Clone(m.byUnit[loc])
}

// Units returns the sorted locations of units with declared types.
func (m *Model) Units() []string {
	return slices.Sorted(maps.Keys(m.byUnit))
}

// declare registers a new declared type. The caller has checked the name is free.
func (m *Model) declare(t *domain.Type) {
	t.ID = m.nextID()
	m.declared[t.Name] = t
	m.binary[t.BinaryName] = t
	m.byUnit[t.Unit] = append(m.byUnit[t.Unit], t)
}

// setPackage replaces the descriptor of a package. Descriptors are never edited in
// place because clones share them.
func (m *Model) setPackage(p *domain.Package) {
	m.packages[p.Name] = p
}

// ArrayOf returns the canonical array type with the given component.
func (m *Model) ArrayOf(component *domain.Type) *domain.Type {
	if t, ok := m.arrays[component]; ok {
		return t
	}
	t := &domain.Type{
		ID:         m.nextID(),
		Kind:       domain.KindArray,
		Component:  component,
		Name:       component.String() + "[]",
		BinaryName: "[" + component.BinaryName,
		State:      domain.StateResolved,
	}
	m.arrays[component] = t
	return t
}

// ArrayType wraps leaf in dims array dimensions.
func (m *Model) ArrayType(leaf *domain.Type, dims int) *domain.Type {
	t := leaf
	for range dims {
		t = m.ArrayOf(t)
	}
	return t
}

// Parameterize returns the canonical parameterization of base with args.
func (m *Model) Parameterize(base *domain.Type, args []*domain.Type) *domain.Type {
	key := identityKey(base, args...)
	if t, ok := m.parameterized[key]; ok {
		return t
	}
	t := &domain.Type{
		ID:         m.nextID(),
		Kind:       domain.KindParameterized,
		Base:       base,
		Args:       slices.Clone(args),
		BinaryName: base.BinaryName,
		State:      domain.StateResolved,
	}
	t.Name = t.String()
	m.parameterized[key] = t
	return t
}

// Wildcard returns the canonical wildcard with the given bound. bound is nil for "?".
func (m *Model) Wildcard(kind domain.BoundKind, bound *domain.Type) *domain.Type {
	if bound == nil {
		kind = domain.BoundNone
	}
	key := strconv.Itoa(int(kind))
	if bound != nil {
		key += ":" + strconv.FormatUint(bound.ID, 10)
	}
	if t, ok := m.wildcards[key]; ok {
		return t
	}
	t := &domain.Type{
		ID:        m.nextID(),
		Kind:      domain.KindWildcard,
		Bound:     bound,
		BoundKind: kind,
		State:     domain.StateResolved,
	}
	t.Name = t.String()
	m.wildcards[key] = t
	return t
}

// TypeVar returns the type variable name declared by owner, if it has been declared.
func (m *Model) TypeVar(owner, name string) (*domain.Type, bool) {
	t, ok := m.typeVars[owner+"|"+name]
	return t, ok
}

// declareTypeVar returns the placeholder for a type parameter, creating it once.
func (m *Model) declareTypeVar(owner, name, unit string) *domain.Type {
	key := owner + "|" + name
	if t, ok := m.typeVars[key]; ok {
		return t
	}
	t := &domain.Type{
		ID:         m.nextID(),
		Kind:       domain.KindTypeVariable,
		Name:       name,
		BinaryName: name,
		Owner:      owner,
		Unit:       unit,
		State:      domain.StateResolved,
	}
	m.typeVars[key] = t
	return t
}

// RemoveUnit evicts every type declared by the unit at loc, the type variables they
// own and every interned form mentioning them. It returns the removed declared types.
func (m *Model) RemoveUnit(loc string) []*domain.Type {
	removed := m.byUnit[loc]
	delete(m.byUnit, loc)

	gone := make(map[*domain.Type]struct{}, len(removed))
	for _, t := range removed {
		gone[t] = struct{}{}
		delete(m.declared, t.Name)
		delete(m.binary, t.BinaryName)
	}
	for name, p := range m.packages {
		if p.Unit == loc {
			delete(m.packages, name)
		}
	}
	for key, tv := range m.typeVars {
		if tv.Unit == loc {
			gone[tv] = struct{}{}
			delete(m.typeVars, key)
		}
	}

	// Interned forms can nest (arrays of parameterized types of wildcards...),
	// so sweep until nothing else refers to a removed type.
	for {
		n := len(gone)
		for c, t := range m.arrays {
			if _, ok := gone[c]; ok {
				gone[t] = struct{}{}
				delete(m.arrays, c)
			}
		}
		for key, t := range m.parameterized {
			if mentions(gone, t.Base) || mentions(gone, t.Args...) {
				gone[t] = struct{}{}
				delete(m.parameterized, key)
			}
		}
		for key, t := range m.wildcards {
			if t.Bound != nil && mentions(gone, t.Bound) {
				gone[t] = struct{}{}
				delete(m.wildcards, key)
			}
		}
		if len(gone) == n {
			break
		}
	}

	return removed
}

func mentions(set map[*domain.Type]struct{}, types ...*domain.Type) bool {
	for _, t := range types {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func identityKey(base *domain.Type, args ...*domain.Type) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(base.ID, 10))
	for _, a := range args {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(a.ID, 10))
	}
	return b.String()
}
