package session

import (
	"context"
	"encoding/json"
	"strings"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

const (
	unitKeyPrefix = "unit:"
	typeKeyPrefix = "type:"
)

// UnitKey is the artifact cache key of a unit's resolved form.
func UnitKey(location string) string {
	return unitKeyPrefix + location
}

// TypeKey is the artifact cache key of a declared type's summary.
func TypeKey(binaryName string) string {
	return typeKeyPrefix + binaryName
}

// TypeSummary is the cached, self-contained description of a declared type.
type TypeSummary struct {
	Name        string          `json:"name"`
	BinaryName  string          `json:"binaryName"`
	Kind        string          `json:"kind"`
	Unit        string          `json:"unit"`
	Modifiers   string          `json:"modifiers,omitempty"`
	Enclosing   string          `json:"enclosing,omitempty"`
	TypeParams  []string        `json:"typeParams,omitempty"`
	Superclass  string          `json:"superclass,omitempty"`
	Interfaces  []string        `json:"interfaces,omitempty"`
	Annotations []string        `json:"annotations,omitempty"`
	Fields      []MemberSummary `json:"fields,omitempty"`
	Methods     []MemberSummary `json:"methods,omitempty"`
	Incomplete  bool            `json:"incomplete,omitempty"`
}

// MemberSummary describes a field or method of a TypeSummary.
type MemberSummary struct {
	Name      string `json:"name"`
	Modifiers string `json:"modifiers,omitempty"`
	// Type is the field type or the method signature.
	Type string `json:"type"`
}

// Summarize describes t with names only, so the summary outlives the model.
func Summarize(t *domain.Type) TypeSummary {
	s := TypeSummary{
		Name:        t.Name,
		BinaryName:  t.BinaryName,
		Kind:        t.Kind.String(),
		Unit:        t.Unit,
		Modifiers:   t.Modifiers.String(),
		Superclass:  nameOf(t.Superclass),
		Interfaces:  namesOf(t.Interfaces),
		TypeParams:  namesOf(t.TypeParams),
		Annotations: annotationNames(t.Annotations),
		Incomplete:  t.State == domain.StateIncomplete,
	}
	if t.Enclosing != nil {
		s.Enclosing = t.Enclosing.Name
	}
	for _, f := range t.Fields {
		s.Fields = append(s.Fields, MemberSummary{Name: f.Name, Modifiers: f.Modifiers.String(), Type: f.Type.String()})
	}
	for _, m := range t.Methods {
		s.Methods = append(s.Methods, MemberSummary{Name: m.Name, Modifiers: m.Modifiers.String(), Type: signature(m)})
	}
	return s
}

func signature(m *domain.Method) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.String())
		if p.Varargs {
			b.WriteString("...")
		}
	}
	b.WriteByte(')')
	if m.Return != nil {
		b.WriteString(" " + m.Return.String())
	}
	return b.String()
}

func nameOf(t *domain.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func namesOf(types []*domain.Type) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

func annotationNames(anns []*domain.Annotation) []string {
	if len(anns) == 0 {
		return nil
	}
	out := make([]string, len(anns))
	for i, a := range anns {
		out[i] = "@" + a.Type.Name
	}
	return out
}

// cachingResolver serves resolved units from the artifact cache and hands only the
// misses to the front-end.
type cachingResolver struct {
	inner  ports.Resolver
	cache  ports.ArtifactCache
	env    string
	read   bool
	memory map[string]struct{}
	hits   int
	// served holds the locations of the units loaded from the cache.
	served map[string]struct{}
}

// Resolve implements ports.Resolver.
func (c *cachingResolver) Resolve(
	ctx context.Context,
	units []*domain.UnitProvider,
	lookup ports.LookupFunc,
) ([]*domain.ResolvedUnit, error) {
	out := make([]*domain.ResolvedUnit, 0, len(units))
	var misses []*domain.UnitProvider
	for _, p := range units {
		if u, ok := c.load(p); ok {
			c.hits++
			if c.served == nil {
				c.served = make(map[string]struct{})
			}
			c.served[p.Location] = struct{}{}
			out = append(out, u)
			continue
		}
		misses = append(misses, p)
	}
	if len(misses) == 0 {
		return out, nil
	}

	resolved, err := c.inner.Resolve(ctx, misses, lookup)
	if err != nil {
		return nil, err
	}
	for _, u := range resolved {
		c.store(u)
	}
	return append(out, resolved...), nil
}

func (c *cachingResolver) load(p *domain.UnitProvider) (*domain.ResolvedUnit, bool) {
	if !c.read || p.Transient {
		return nil, false
	}
	payload, ok := c.cache.Get(UnitKey(p.Location), p.Stamp(c.env))
	if !ok {
		return nil, false
	}
	var u domain.ResolvedUnit
	if err := json.Unmarshal(payload, &u); err != nil || u.Location != p.Location {
		c.cache.Remove(UnitKey(p.Location))
		return nil, false
	}
	u.Provider = p
	return &u, true
}

func (c *cachingResolver) store(u *domain.ResolvedUnit) {
	p := u.Provider
	if p == nil || p.Transient {
		return
	}
	payload, err := json.Marshal(u)
	if err != nil {
		return
	}
	c.cache.Put(UnitKey(u.Location), payload, p.Stamp(c.env), c.persist(p))
}

// persist reports whether artifacts of p may be written to disk. Units registered
// directly with the session have no stable on-disk identity.
func (c *cachingResolver) persist(p *domain.UnitProvider) bool {
	_, inMemory := c.memory[p.Location]
	return !inMemory
}
