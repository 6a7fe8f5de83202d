// Package depgraph records which units reference types declared in which other units
// and computes the transitive closures used for cascading invalidation and removal.
package depgraph

import (
	"iter"
	"maps"
	"slices"

	"go.trai.ch/lathe/internal/core/domain"
)

// OwnerFunc maps a qualified type name to the location of the unit declaring it.
type OwnerFunc func(qualifiedName string) (string, bool)

// Graph is a set of dependency edges between unit locations.
// An edge from A to B means A's resolution referenced a type declared in B.
type Graph struct {
	// dependers maps a referenced unit to the units referencing it.
	dependers map[string]map[string]struct{}
	// dependees maps a referrer to the units it references.
	dependees map[string]map[string]struct{}
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		dependers: make(map[string]map[string]struct{}),
		dependees: make(map[string]map[string]struct{}),
	}
}

// Record replaces the outgoing edges of every unit in units with the edges found by
// walking its type references and doc-comment type hints.
func (g *Graph) Record(units []*domain.ResolvedUnit, owner OwnerFunc) {
	for _, u := range units {
		g.Forget(u.Location)
		for name := range References(u) {
			if to, ok := owner(name); ok {
				g.Add(u.Location, to)
			}
		}
	}
}

// Add records an edge from one unit to another. Self edges are ignored.
func (g *Graph) Add(from, to string) {
	if from == to {
		return
	}
	link(g.dependees, from, to)
	link(g.dependers, to, from)
}

// Forget removes every outgoing edge of loc.
func (g *Graph) Forget(loc string) {
	for to := range g.dependees[loc] {
		unlink(g.dependers, to, loc)
	}
	delete(g.dependees, loc)
}

// Drop removes loc and every edge touching it.
func (g *Graph) Drop(loc string) {
	g.Forget(loc)
	for from := range g.dependers[loc] {
		unlink(g.dependees, from, loc)
	}
	delete(g.dependers, loc)
}

// Dependers returns the sorted units referencing loc.
func (g *Graph) Dependers(loc string) []string {
	return slices.Sorted(maps.Keys(g.dependers[loc]))
}

// Dependees returns the sorted units loc references.
func (g *Graph) Dependees(loc string) []string {
	return slices.Sorted(maps.Keys(g.dependees[loc]))
}

// Closure returns the seeds plus every unit that transitively references one of them,
// sorted. The frontier is always expanded in sorted order so the traversal is
// reproducible.
func (g *Graph) Closure(seeds []string) []string {
	result := make(map[string]struct{}, len(seeds))
	frontier := slices.Clone(seeds)
	slices.Sort(frontier)
	frontier = slices.Compact(frontier)

	for len(frontier) > 0 {
		next := make([]string, 0)
		for _, loc := range frontier {
			if _, seen := result[loc]; seen {
				continue
			}
			result[loc] = struct{}{}
			for _, from := range g.Dependers(loc) {
				if _, seen := result[from]; !seen {
					next = append(next, from)
				}
			}
		}
		slices.Sort(next)
		frontier = slices.Compact(next)
	}

	return slices.Sorted(maps.Keys(result))
}

// Edges yields every edge ordered by referrer, then referenced unit.
func (g *Graph) Edges() iter.Seq[domain.Edge] {
	return func(yield func(domain.Edge) bool) {
		for _, from := range slices.Sorted(maps.Keys(g.dependees)) {
			for _, to := range g.Dependees(from) {
				if !yield(domain.Edge{From: from, To: to}) {
					return
				}
			}
		}
	}
}

// Load adds every edge in edges.
func (g *Graph) Load(edges []domain.Edge) {
	for _, e := range edges {
		g.Add(e.From, e.To)
	}
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	n := 0
	for _, tos := range g.dependees {
		n += len(tos)
	}
	return n
}

// Clone returns an independent copy of g.
func (g *Graph) Clone() *Graph {
	c := New()
	for from, tos := range g.dependees {
		for to := range tos {
			c.Add(from, to)
		}
	}
	return c
}

// References yields the distinct qualified type names a unit mentions: its declarations'
// type references, package annotations and, best-effort, type hints in doc comments.
func References(u *domain.ResolvedUnit) iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]struct{})
		emit := func(name string) bool {
			if _, ok := seen[name]; ok {
				return true
			}
			seen[name] = struct{}{}
			return yield(name)
		}

		for _, a := range u.PackageAnnotations {
			for name := range a.Type.Names() {
				if !emit(name) {
					return
				}
			}
		}
		for d := range u.Decls() {
			for ref := range d.Refs() {
				for name := range ref.Names() {
					if !emit(name) {
						return
					}
				}
			}
			for doc := range d.Docs() {
				for _, name := range TypeHints(doc) {
					if !emit(name) {
						return
					}
				}
			}
		}
	}
}

func link(m map[string]map[string]struct{}, k, v string) {
	set, ok := m[k]
	if !ok {
		set = make(map[string]struct{})
		m[k] = set
	}
	set[v] = struct{}{}
}

func unlink(m map[string]map[string]struct{}, k, v string) {
	if set, ok := m[k]; ok {
		delete(set, v)
		if len(set) == 0 {
			delete(m, k)
		}
	}
}
