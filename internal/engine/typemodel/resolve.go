package typemodel

import (
	"fmt"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/zerr"
)

// deep resolves everything about t that refers to other types. A failing header
// (type parameter bounds, superclass, interfaces) abandons the whole type; a failing
// member abandons only that member. Either way t is marked incomplete and kept
// pending so a later Retry can finish it.
func (b *Builder) deep(t *domain.Type, d *domain.TypeDecl) {
	t.Superclass = nil
	t.Interfaces = nil
	t.Fields = nil
	t.Methods = nil
	t.Annotations = nil

	var problems []domain.Diagnostic
	abandon := func(what string, pos domain.Position, err error) {
		problems = append(problems, domain.Diagnostic{
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("abandoning %s of %s: %s", what, t.Name, reason(err)),
			Location: t.Unit,
			Pos:      pos,
		})
	}

	if ok := b.header(t, d, abandon); ok {
		t.Annotations = b.annotations(d.Annotations, "annotation", abandon)
		b.fields(t, d, abandon)
		b.methods(t, d, abandon)
	}

	if len(problems) == 0 {
		t.State = domain.StateResolved
		delete(b.pending, t)
		return
	}
	t.State = domain.StateIncomplete
	b.pending[t] = &pending{decl: d, problems: problems}
}

type abandonFunc func(what string, pos domain.Position, err error)

func (b *Builder) header(t *domain.Type, d *domain.TypeDecl, abandon abandonFunc) bool {
	for i, tp := range d.TypeParams {
		bounds, err := b.resolveAll(tp.Bounds)
		if err != nil {
			abandon("supertypes", d.Pos, err)
			return false
		}
		t.TypeParams[i].Bounds = bounds
	}

	switch {
	case d.Superclass != nil:
		super, err := b.resolve(d.Superclass)
		if err != nil {
			abandon("supertypes", d.Pos, err)
			return false
		}
		t.Superclass = super
	case d.Kind == domain.DeclEnum:
		t.Superclass, _ = b.model.Lookup("java.lang.Enum")
	case d.Kind == domain.DeclClass && t.Name != b.foundation:
		t.Superclass, _ = b.model.Lookup(b.foundation)
	}

	ifaces, err := b.resolveAll(d.Interfaces)
	if err != nil {
		abandon("supertypes", d.Pos, err)
		return false
	}
	t.Interfaces = ifaces
	return true
}

func (b *Builder) fields(t *domain.Type, d *domain.TypeDecl, abandon abandonFunc) {
	ordinal := 0
	for _, fd := range d.Fields {
		f := &domain.Field{
			Name:         fd.Name,
			Modifiers:    fd.Modifiers,
			EnumConstant: fd.EnumConstant,
			Ordinal:      -1,
		}
		if fd.EnumConstant {
			f.Type = t
			f.Modifiers |= domain.ModPublic | domain.ModStatic | domain.ModFinal
			f.Ordinal = ordinal
			ordinal++
		} else {
			ft, err := b.resolve(fd.Type)
			if err != nil {
				abandon("field "+fd.Name, fd.Pos, err)
				continue
			}
			f.Type = ft
		}
		if t.IsInterface() {
			f.Modifiers |= domain.ModPublic | domain.ModStatic | domain.ModFinal
		}
		f.Annotations = b.annotations(fd.Annotations, "annotation on field "+fd.Name, abandon)
		t.Fields = append(t.Fields, f)
	}
}

func (b *Builder) methods(t *domain.Type, d *domain.TypeDecl, abandon abandonFunc) {
	for i := range d.Methods {
		md := &d.Methods[i]
		m, err := b.method(t, d, i, md)
		if err != nil {
			abandon("method "+md.Name, md.Pos, err)
			continue
		}
		m.Annotations = b.annotations(md.Annotations, "annotation on method "+md.Name, abandon)
		t.Methods = append(t.Methods, m)
	}
}

func (b *Builder) method(t *domain.Type, d *domain.TypeDecl, i int, md *domain.MethodDecl) (*domain.Method, error) {
	m := &domain.Method{
		Name:        md.Name,
		Constructor: md.Constructor,
		Modifiers:   md.Modifiers,
		Default:     md.Default,
	}

	owner := d.MethodOwner(i)
	for _, tp := range md.TypeParams {
		m.TypeParams = append(m.TypeParams, b.model.declareTypeVar(owner, tp.Name, t.Unit))
	}
	for j, tp := range md.TypeParams {
		bounds, err := b.resolveAll(tp.Bounds)
		if err != nil {
			return nil, err
		}
		m.TypeParams[j].Bounds = bounds
	}

	for _, pd := range md.Params {
		pt, err := b.resolve(pd.Type)
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, &domain.Param{Name: pd.Name, Type: pt, Varargs: pd.Varargs})
	}

	if !md.Constructor {
		ret := md.Return
		if ret == nil {
			ret = domain.PrimitiveRef("void")
		}
		rt, err := b.resolve(ret)
		if err != nil {
			return nil, err
		}
		m.Return = rt
	}

	throws, err := b.resolveAll(md.Throws)
	if err != nil {
		return nil, err
	}
	m.Throws = throws

	switch {
	case t.Kind == domain.KindAnnotation:
		m.Modifiers |= domain.ModPublic | domain.ModAbstract
	case t.IsInterface():
		if !m.Modifiers.Has(domain.ModPrivate) {
			m.Modifiers |= domain.ModPublic
		}
		if !m.Modifiers.Has(domain.ModStatic) && !m.Modifiers.Has(domain.ModDefault) &&
			!m.Modifiers.Has(domain.ModPrivate) {
			m.Modifiers |= domain.ModAbstract
		}
	}
	return m, nil
}

// annotations resolves refs, dropping (and reporting) those whose type is unknown.
func (b *Builder) annotations(refs []domain.AnnotationRef, what string, abandon abandonFunc) []*domain.Annotation {
	var out []*domain.Annotation
	for _, ref := range refs {
		at, err := b.resolve(ref.Type)
		if err != nil {
			abandon(what, ref.Pos, err)
			continue
		}
		out = append(out, &domain.Annotation{Type: at, Values: ref.Values})
	}
	return out
}

// resolvePackage replaces the descriptor of the unit's package with one carrying the
// resolved package-level annotations.
func (b *Builder) resolvePackage(u *domain.ResolvedUnit) {
	var anns []*domain.Annotation
	for _, ref := range u.PackageAnnotations {
		at, err := b.resolve(ref.Type)
		if err != nil {
			b.logger.Warn(fmt.Sprintf("ignoring annotation on package %s: %s", u.Package, reason(err)))
			continue
		}
		anns = append(anns, &domain.Annotation{Type: at, Values: ref.Values})
	}
	b.model.setPackage(&domain.Package{Name: u.Package, Unit: u.Location, Annotations: anns})
}

func (b *Builder) resolveAll(refs []*domain.TypeRef) ([]*domain.Type, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]*domain.Type, 0, len(refs))
	for _, ref := range refs {
		t, err := b.resolve(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// resolve maps a syntactic reference onto a model type. Primitives map to their
// singletons, declared names to their stubs, and composite references to interned
// instances. Declared names that are absent are recorded as missing.
func (b *Builder) resolve(ref *domain.TypeRef) (*domain.Type, error) {
	if ref == nil {
		return nil, zerr.With(domain.ErrUnresolvedReference, "name", "<nil>")
	}
	if ref.Unresolved {
		return nil, zerr.With(domain.ErrUnresolvedReference, "name", ref.Name)
	}

	switch ref.Kind {
	case domain.RefPrimitive:
		if p, ok := domain.Primitive(ref.Name); ok {
			return p, nil
		}
		return nil, zerr.With(domain.ErrUnresolvedReference, "name", ref.Name)

	case domain.RefNamed:
		return b.lookup(ref.Name)

	case domain.RefArray:
		leaf, err := b.resolve(ref.Elem)
		if err != nil {
			return nil, err
		}
		return b.model.ArrayType(leaf, max(ref.Dims, 1)), nil

	case domain.RefParameterized:
		base, err := b.lookup(ref.Name)
		if err != nil {
			return nil, err
		}
		args, err := b.resolveAll(ref.Args)
		if err != nil {
			return nil, err
		}
		return b.model.Parameterize(base, args), nil

	case domain.RefWildcard:
		if ref.Bound == domain.BoundNone || ref.Elem == nil {
			return b.model.Wildcard(domain.BoundNone, nil), nil
		}
		bound, err := b.resolve(ref.Elem)
		if err != nil {
			return nil, err
		}
		return b.model.Wildcard(ref.Bound, bound), nil

	case domain.RefTypeVar:
		if tv, ok := b.model.TypeVar(ref.Owner, ref.Name); ok {
			return tv, nil
		}
		return nil, zerr.With(domain.ErrUnresolvedReference, "name", ref.Owner+"."+ref.Name)
	}

	return nil, zerr.With(domain.ErrUnresolvedReference, "name", ref.Name)
}

func (b *Builder) lookup(name string) (*domain.Type, error) {
	if t, ok := b.model.Lookup(name); ok {
		return t, nil
	}
	b.missing[name] = struct{}{}
	return nil, zerr.With(domain.ErrTypeNotFound, "name", name)
}

// reason renders err for a diagnostic, appending the offending name when present.
func reason(err error) string {
	zErr, ok := err.(*zerr.Error)
	if !ok {
		return err.Error()
	}
	if name, ok := zErr.Metadata()["name"]; ok {
		return fmt.Sprintf("%s: %v", zErr.Message(), name)
	}
	return zErr.Message()
}
