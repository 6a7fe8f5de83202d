package ports

import (
	"context"
	"io"

	"go.trai.ch/lathe/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records the phases of a build as vertices.
type Telemetry interface {
	// Record starts a vertex for the named phase.
	Record(ctx context.Context, name string, opts ...VertexOption) (context.Context, Vertex)
	// Close flushes and closes the recording session.
	Close() error
}

// Vertex is one recorded unit of work.
type Vertex interface {
	// Stdout returns a writer to capture standard output stream.
	Stdout() io.Writer
	// Stderr returns a writer to capture error output stream.
	Stderr() io.Writer
	// Log records a structured log message associated with this vertex.
	Log(level domain.LogLevel, msg string)
	// Complete marks the vertex as finished (successfully or with an error).
	Complete(err error)
	// Cached marks the vertex as a cache hit.
	Cached()
}

// VertexConfig holds configuration for a starting vertex.
type VertexConfig struct {
	// Inputs are the digests of vertices this one depends on.
	Inputs []string
}

// VertexOption is a functional option for configuring a vertex.
type VertexOption func(*VertexConfig)

// WithInputs declares the vertices a new vertex depends on.
func WithInputs(names ...string) VertexOption {
	return func(c *VertexConfig) {
		c.Inputs = append(c.Inputs, names...)
	}
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex carried by ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
