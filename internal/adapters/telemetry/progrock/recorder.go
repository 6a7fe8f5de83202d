// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/lathe/internal/core/ports"
)

// Recorder implements ports.Telemetry on a progrock tape. Every build phase
// becomes a vertex; a phase recorded again in a later cycle gets a new digest.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder

	mu sync.Mutex
	// seq counts recorded vertices so that repeated phase names stay distinct.
	seq int
	// latest maps a phase name to the digest of its most recent vertex.
	latest map[string]digest.Digest
}

var _ ports.Telemetry = (*Recorder)(nil)

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:      w,
		rec:    progrock.NewRecorder(w),
		latest: make(map[string]digest.Digest),
	}
}

// Record starts a vertex for the named phase. Inputs name earlier phases; names
// never recorded are ignored.
func (r *Recorder) Record(ctx context.Context, name string, opts ...ports.VertexOption) (context.Context, ports.Vertex) {
	cfg := &ports.VertexConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	d, inputs := r.digest(name, cfg.Inputs)
	var vopts []progrock.VertexOpt
	if len(inputs) > 0 {
		vopts = append(vopts, progrock.WithInputs(inputs...))
	}
	vertex := &Vertex{vertex: r.rec.Vertex(d, name, vopts...)}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

func (r *Recorder) digest(name string, inputNames []string) (digest.Digest, []digest.Digest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var inputs []digest.Digest
	for _, in := range inputNames {
		if d, ok := r.latest[in]; ok {
			inputs = append(inputs, d)
		}
	}
	r.seq++
	d := digest.FromString(fmt.Sprintf("%d:%s", r.seq, name))
	r.latest[name] = d
	return d, inputs
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
