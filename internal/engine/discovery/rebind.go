package discovery

import (
	"context"
	"fmt"
	"slices"

	"go.trai.ch/lathe/internal/core/domain"
)

type rebindCheck struct {
	unit      string
	site      domain.RebindSite
	candidate string
}

// rebind asks the oracle for every answer to the rebind sites of u, requesting the
// units of answers that are not yet in the model. Answers are validated once the
// loop reaches its fixpoint.
func (r *run) rebind(ctx context.Context, u *domain.ResolvedUnit) []*domain.UnitProvider {
	var next []*domain.UnitProvider
	for _, site := range u.RebindSites {
		candidates, err := r.oracle.AllCandidates(ctx, site.Requested)
		if err != nil {
			r.out.Diagnostics = append(r.out.Diagnostics,
				domain.Errorf(u.Location, site.Pos, "Rebind of '%s' failed: %s", site.Requested, reason(err)))
			continue
		}
		for _, c := range candidates {
			check := rebindCheck{unit: u.Location, site: site, candidate: c}
			if slices.Contains(r.checks, check) {
				continue
			}
			r.checks = append(r.checks, check)
			if _, ok := r.w.Model.Lookup(c); !ok {
				next = append(next, r.requestType(c)...)
			}
		}
	}
	return next
}

// validateRebinds checks every answer collected during the run. A rejected answer is
// reported as an error at its call site and skipped; it does not taint the unit.
// The call site depends on the unit of every answer it was given, so that editing
// an answer validates it again.
func (r *run) validateRebinds() {
	for _, c := range r.checks {
		if _, live := r.w.Units[c.unit]; !live {
			continue
		}
		t, found := r.w.Model.Lookup(c.candidate)
		if found {
			r.w.Graph.Add(c.unit, t.Unit)
		}
		if problem := rebindProblem(t, found); problem != "" {
			r.out.Diagnostics = append(r.out.Diagnostics, domain.Diagnostic{
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("Rebind result '%s' %s", c.candidate, problem),
				Location: c.unit,
				Pos:      c.site.Pos,
			})
			continue
		}
		accepted := r.out.Rebinds[c.site.Requested]
		if !slices.Contains(accepted, c.candidate) {
			r.out.Rebinds[c.site.Requested] = append(accepted, c.candidate)
		}
		byUnit, ok := r.out.Accepted[c.unit]
		if !ok {
			byUnit = make(map[string][]string)
			r.out.Accepted[c.unit] = byUnit
		}
		if !slices.Contains(byUnit[c.site.Requested], c.candidate) {
			byUnit[c.site.Requested] = append(byUnit[c.site.Requested], c.candidate)
		}
	}
}

// rebindProblem returns why t cannot be instantiated as a rebind answer, or "".
func rebindProblem(t *domain.Type, found bool) string {
	switch {
	case !found:
		return "could not be found"
	case !t.IsClass():
		return "must be a class"
	case t.IsAbstract():
		return "cannot be abstract"
	case t.IsMemberType() && !t.IsStatic():
		return "cannot be a non-static nested class"
	case t.Local:
		return "cannot be a local class"
	case t.State == domain.StateIncomplete:
		return "could not be fully resolved"
	case !t.HasDefaultConstructor():
		return "has no default (zero argument) constructors"
	}
	return ""
}
