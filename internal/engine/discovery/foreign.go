package discovery

import (
	"strings"

	"go.trai.ch/lathe/internal/core/domain"
)

// foreign requests the units declaring the classes referenced from u's snippets.
// References that name no known or discoverable class are reported as warnings.
func (r *run) foreign(u *domain.ResolvedUnit) []*domain.UnitProvider {
	if len(u.Snippets) == 0 {
		return nil
	}

	var next []*domain.UnitProvider
	for _, ref := range r.scanner.ExtractReferences(u) {
		found := false
		for _, candidate := range nestedCandidates(ref.Class) {
			outer := domain.OuterName(candidate)
			if _, ok := r.w.Model.Lookup(outer); ok {
				found = true
				break
			}
			if p, ok := r.w.Lookup(outer); ok {
				next = append(next, r.enqueue(p)...)
				found = true
				break
			}
		}
		if !found {
			r.out.Diagnostics = append(r.out.Diagnostics,
				domain.Warnf(u.Location, ref.Pos, "Referenced class '%s' could not be found", ref.Class))
		}
	}
	return next
}

// nestedCandidates returns name followed by the forms obtained by turning its last
// remaining '.' into '$', one at a time: a.b.C.D, a.b.C$D, a.b$C$D, a$b$C$D.
// Snippets may spell nested classes with either separator.
func nestedCandidates(name string) []string {
	out := []string{name}
	for {
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return out
		}
		name = name[:i] + "$" + name[i+1:]
		out = append(out, name)
	}
}
