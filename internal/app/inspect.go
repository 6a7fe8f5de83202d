package app

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/engine/session"
	"go.trai.ch/zerr"
)

const (
	// minSimilarity is the least similarity a name needs to be suggested.
	minSimilarity  = 0.6
	maxSuggestions = 3
)

// InspectOptions configuration for the Inspect method.
type InspectOptions struct {
	// Raw dumps the type summary structure instead of the formatted view.
	Raw bool
	// Cached reads the summary from the artifact cache without building.
	Cached  bool
	NoCache bool
	// OutputMode is one of auto, pretty, linear or json.
	OutputMode string
}

// Inspect prints the type with the given qualified name.
func (a *App) Inspect(ctx context.Context, name string, opts InspectOptions) error {
	a.configureOutput(opts.OutputMode)

	ws, err := a.open()
	if err != nil {
		return err
	}
	defer a.close(ws)

	var summary session.TypeSummary
	if opts.Cached {
		summary, err = a.cachedSummary(ws, name)
	} else {
		summary, err = a.builtSummary(ctx, ws, name, opts.NoCache)
	}
	if err != nil {
		return err
	}

	if opts.Raw {
		spew.Fdump(a.stdout, summary)
		return nil
	}
	return printSummary(a.stdout, &summary)
}

func (a *App) builtSummary(ctx context.Context, ws *workspace, name string, noCache bool) (session.TypeSummary, error) {
	res, err := ws.session.Build(ctx, session.Options{NoCache: noCache})
	if err != nil {
		return session.TypeSummary{}, zerr.Wrap(err, "build failed")
	}
	for _, d := range res.Diagnostics {
		if d.Severity == domain.SeverityError {
			a.logger.Report(d)
		}
	}

	model := res.Generation.Model
	if t, ok := model.Lookup(name); ok {
		return session.Summarize(t), nil
	}
	if t, ok := model.LookupBinary(name); ok {
		return session.Summarize(t), nil
	}

	var known []string
	for t := range model.Types() {
		known = append(known, t.Name)
	}
	if suggestions := suggest(name, known); len(suggestions) > 0 {
		a.logger.Info("did you mean " + strings.Join(suggestions, ", ") + "?")
	}
	return session.TypeSummary{}, zerr.With(zerr.Wrap(domain.ErrTypeNotFound, ""), "type", name)
}

// cachedSummary reads a type summary stored by an earlier build. A qualified
// name is tried as a binary name first, then with nested separators from the right.
func (a *App) cachedSummary(ws *workspace, name string) (session.TypeSummary, error) {
	stamp := domain.Stamp{Env: ws.fingerprint}
	for _, binary := range binaryCandidates(name) {
		payload, ok := ws.cache.Get(session.TypeKey(binary), stamp)
		if !ok {
			continue
		}
		var s session.TypeSummary
		if err := json.Unmarshal(payload, &s); err != nil {
			return session.TypeSummary{}, zerr.With(zerr.Wrap(domain.ErrCacheEntryCorrupt, err.Error()), "type", binary)
		}
		return s, nil
	}
	return session.TypeSummary{}, zerr.With(zerr.Wrap(domain.ErrTypeNotFound, "not in the artifact cache"), "type", name)
}

// binaryCandidates lists a.b.C.D, a.b.C$D, a.b$C$D, ...
func binaryCandidates(name string) []string {
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

// suggest returns the known names closest to name by Levenshtein similarity.
func suggest(name string, known []string) []string {
	type scored struct {
		name  string
		score float64
	}
	var hits []scored
	for _, k := range known {
		if s := similarity(name, k); s >= minSimilarity {
			hits = append(hits, scored{k, s})
		}
	}
	slices.SortFunc(hits, func(x, y scored) int {
		return cmp.Or(cmp.Compare(y.score, x.score), cmp.Compare(x.name, y.name))
	})

	var out []string
	for _, h := range hits[:min(len(hits), maxSuggestions)] {
		out = append(out, h.name)
	}
	return out
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	dmp := diffmatchpatch.New()
	distance := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
	return 1.0 - float64(distance)/float64(max(len(a), len(b)))
}

func printSummary(w io.Writer, s *session.TypeSummary) error {
	var b strings.Builder
	header := s.Kind + " " + s.Name
	if s.Modifiers != "" {
		header = s.Modifiers + " " + header
	}
	if len(s.TypeParams) > 0 {
		header += "<" + strings.Join(s.TypeParams, ", ") + ">"
	}
	fmt.Fprintf(&b, "%s\n", header)
	fmt.Fprintf(&b, "  binary name: %s\n", s.BinaryName)
	fmt.Fprintf(&b, "  unit: %s\n", s.Unit)
	if s.Enclosing != "" {
		fmt.Fprintf(&b, "  enclosing: %s\n", s.Enclosing)
	}
	if s.Superclass != "" {
		fmt.Fprintf(&b, "  extends: %s\n", s.Superclass)
	}
	if len(s.Interfaces) > 0 {
		fmt.Fprintf(&b, "  implements: %s\n", strings.Join(s.Interfaces, ", "))
	}
	for _, ann := range s.Annotations {
		fmt.Fprintf(&b, "  %s\n", ann)
	}
	if s.Incomplete {
		b.WriteString("  (incomplete)\n")
	}
	members := func(title string, ms []session.MemberSummary) {
		if len(ms) == 0 {
			return
		}
		fmt.Fprintf(&b, "  %s:\n", title)
		for _, m := range ms {
			line := m.Name + " " + m.Type
			if m.Modifiers != "" {
				line = m.Modifiers + " " + line
			}
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	members("fields", s.Fields)
	members("methods", s.Methods)

	_, err := io.WriteString(w, b.String())
	return err
}
