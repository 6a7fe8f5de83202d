// Package telemetry holds the telemetry adapters of the build.
package telemetry

import (
	"context"
	"io"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

// Noop is a ports.Telemetry that records nothing.
type Noop struct{}

var _ ports.Telemetry = Noop{}

// NewNoop creates a new Noop.
func NewNoop() Noop {
	return Noop{}
}

// Record returns ctx carrying a vertex that discards everything.
func (Noop) Record(ctx context.Context, _ string, _ ...ports.VertexOption) (context.Context, ports.Vertex) {
	v := noopVertex{}
	return ports.ContextWithVertex(ctx, v), v
}

// Close does nothing.
func (Noop) Close() error {
	return nil
}

type noopVertex struct{}

func (noopVertex) Stdout() io.Writer { return io.Discard }
func (noopVertex) Stderr() io.Writer { return io.Discard }
func (noopVertex) Log(_ domain.LogLevel, _ string) {}
func (noopVertex) Complete(_ error) {}
func (noopVertex) Cached() {}
