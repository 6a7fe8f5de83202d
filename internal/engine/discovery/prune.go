package discovery

import (
	"fmt"
	"slices"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/zerr"
)

// prune removes every unit carrying an unrecoverable diagnostic together with every
// unit that transitively referenced one of its types.
func (r *run) prune() {
	var tainted []string
	for loc, u := range r.w.Units {
		if u.HasErrors() {
			tainted = append(tainted, loc)
		}
	}
	if len(tainted) == 0 {
		return
	}

	for _, loc := range r.w.Graph.Closure(tainted) {
		_, inWorkingSet := r.w.Units[loc]
		removed := r.w.Model.RemoveUnit(loc)
		if !inWorkingSet && len(removed) == 0 {
			continue
		}
		r.builder.Forget(removed)
		delete(r.w.Units, loc)
		r.w.Graph.Drop(loc)
		r.out.Pruned = append(r.out.Pruned, loc)

		if slices.Contains(tainted, loc) {
			r.logger.Info(fmt.Sprintf("removing unit %s: it has errors", loc))
		} else {
			r.logger.Info(fmt.Sprintf("removing unit %s: it depends on a unit with errors", loc))
		}
	}

	r.out.Resolved = slices.DeleteFunc(r.out.Resolved, func(u *domain.ResolvedUnit) bool {
		_, pruned := slices.BinarySearch(r.out.Pruned, u.Location)
		return pruned
	})
}

// reason renders err for a diagnostic message.
func reason(err error) string {
	if zErr, ok := err.(*zerr.Error); ok {
		return zErr.Message()
	}
	return err.Error()
}
