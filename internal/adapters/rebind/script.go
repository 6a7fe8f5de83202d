package rebind

import (
	"context"
	"os"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Script refines the answers of a base oracle with a risor script. The script
// sees the globals "requested" and "candidates" and its last expression is the
// answer: a string, a list of strings, or nil for no candidates.
type Script struct {
	path   string
	source string
	base   ports.RebindOracle

	mu      sync.Mutex
	answers map[string][]string
}

var _ ports.RebindOracle = (*Script)(nil)

// LoadScript reads the script at path.
func LoadScript(path string, base ports.RebindOracle) (*Script, error) {
	//nolint:gosec // Path comes from the project configuration
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRebindScriptFailed.Error()), "path", path)
	}
	return NewScript(path, string(src), base), nil
}

// NewScript creates a script oracle over source. Label names the script in errors.
func NewScript(label, source string, base ports.RebindOracle) *Script {
	return &Script{
		path:    label,
		source:  source,
		base:    base,
		answers: make(map[string][]string),
	}
}

// AllCandidates evaluates the script for requested. Answers are memoized per
// requested type for the lifetime of the oracle.
func (s *Script) AllCandidates(ctx context.Context, requested string) ([]string, error) {
	s.mu.Lock()
	if a, ok := s.answers[requested]; ok {
		s.mu.Unlock()
		return a, nil
	}
	s.mu.Unlock()

	candidates, err := s.base.AllCandidates(ctx, requested)
	if err != nil {
		return nil, err
	}
	list := make([]object.Object, 0, len(candidates))
	for _, c := range candidates {
		list = append(list, object.NewString(c))
	}

	res, err := risor.Eval(ctx, s.source,
		risor.WithGlobal("requested", object.NewString(requested)),
		risor.WithGlobal("candidates", object.NewList(list)),
	)
	if err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrRebindScriptFailed.Error()), "script", s.path), "requested", requested)
	}
	answer, err := names(res)
	if err != nil {
		return nil, zerr.With(zerr.With(err, "script", s.path), "requested", requested)
	}

	s.mu.Lock()
	s.answers[requested] = answer
	s.mu.Unlock()
	return answer, nil
}

func names(res object.Object) ([]string, error) {
	switch v := res.(type) {
	case nil, *object.NilType:
		return nil, nil
	case *object.String:
		return []string{v.Value()}, nil
	case *object.List:
		out := make([]string, 0, len(v.Value()))
		for _, item := range v.Value() {
			str, ok := item.(*object.String)
			if !ok {
				return nil, zerr.With(zerr.Wrap(domain.ErrRebindScriptResult, "list item is not a string"), "item", item.Type())
			}
			out = append(out, str.Value())
		}
		return out, nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrRebindScriptResult, "unexpected result"), "type", res.Type())
	}
}
