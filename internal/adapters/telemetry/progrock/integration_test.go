package progrock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/adapters/telemetry/progrock"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
)

func TestNew(t *testing.T) {
	recorder := progrock.New()
	assert.NotNil(t, recorder)
}

func TestRecorder_Phases(t *testing.T) {
	recorder := progrock.New()
	ctx := context.Background()

	scanCtx, scan := recorder.Record(ctx, "scan")
	fromCtx, ok := ports.VertexFromContext(scanCtx)
	require.True(t, ok)
	assert.Equal(t, scan, fromCtx)
	scan.Complete(nil)

	_, resolve := recorder.Record(ctx, "resolve", ports.WithInputs("scan", "never-recorded"))
	_, err := resolve.Stdout().Write([]byte("pass 1\n"))
	require.NoError(t, err)
	resolve.Log(domain.LogLevelDebug, "resolving 3 units")
	resolve.Log(domain.LogLevelError, "resolver failed")
	resolve.Cached()
	resolve.Complete(nil)

	// The same phase in a later cycle is a separate vertex.
	_, again := recorder.Record(ctx, "scan")
	again.Complete(errors.New("index failed"))

	assert.NoError(t, recorder.Close())
}
