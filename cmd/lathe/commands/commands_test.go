package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/cmd/lathe/commands"
	"go.trai.ch/lathe/internal/app"
	"go.trai.ch/lathe/internal/build"
)

type mockApp struct {
	dir         string
	buildOpts   *app.BuildOptions
	watchOpts   *app.BuildOptions
	inspectName string
	inspectOpts *app.InspectOptions
	cleaned     bool
	err         error
}

func (m *mockApp) WithDir(dir string) *app.App {
	m.dir = dir
	return nil
}

func (m *mockApp) Build(_ context.Context, opts app.BuildOptions) error {
	m.buildOpts = &opts
	return m.err
}

func (m *mockApp) Watch(_ context.Context, opts app.BuildOptions) error {
	m.watchOpts = &opts
	return m.err
}

func (m *mockApp) Inspect(_ context.Context, name string, opts app.InspectOptions) error {
	m.inspectName = name
	m.inspectOpts = &opts
	return m.err
}

func (m *mockApp) Clean(_ context.Context) error {
	m.cleaned = true
	return m.err
}

func execute(t *testing.T, m *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(m)
	cli.SetArgs(args)
	out := new(bytes.Buffer)
	cli.SetOutput(out, out)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestCommands_Build(t *testing.T) {
	t.Run("wires flags", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "build", "--no-cache", "--log-format", "json", "-C", "/work")
		require.NoError(t, err)
		require.NotNil(t, m.buildOpts)
		assert.True(t, m.buildOpts.NoCache)
		assert.Equal(t, "json", m.buildOpts.OutputMode)
		assert.Equal(t, "/work", m.dir)
	})

	t.Run("defaults", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "build")
		require.NoError(t, err)
		require.NotNil(t, m.buildOpts)
		assert.False(t, m.buildOpts.NoCache)
		assert.Equal(t, "auto", m.buildOpts.OutputMode)
		assert.Empty(t, m.dir)
	})

	t.Run("returns app errors", func(t *testing.T) {
		m := &mockApp{err: errors.New("simulated error")}
		_, err := execute(t, m, "build")
		require.EqualError(t, err, "simulated error")
	})

	t.Run("rejects arguments", func(t *testing.T) {
		m := &mockApp{}
		_, err := execute(t, m, "build", "extra")
		require.Error(t, err)
		assert.Nil(t, m.buildOpts)
	})
}

func TestCommands_Environment(t *testing.T) {
	t.Setenv("LATHE_LOG_FORMAT", "linear")
	t.Setenv("LATHE_NO_CACHE", "true")
	t.Setenv("LATHE_DIR", "/from/env")

	m := &mockApp{}
	_, err := execute(t, m, "watch")
	require.NoError(t, err)
	require.NotNil(t, m.watchOpts)
	assert.Equal(t, "linear", m.watchOpts.OutputMode)
	assert.True(t, m.watchOpts.NoCache)
	assert.Equal(t, "/from/env", m.dir)

	// Flags win over the environment.
	m = &mockApp{}
	_, err = execute(t, m, "watch", "--log-format", "pretty")
	require.NoError(t, err)
	assert.Equal(t, "pretty", m.watchOpts.OutputMode)
}

func TestCommands_Inspect(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "inspect", "a.Foo", "--raw", "--cached")
	require.NoError(t, err)
	assert.Equal(t, "a.Foo", m.inspectName)
	require.NotNil(t, m.inspectOpts)
	assert.True(t, m.inspectOpts.Raw)
	assert.True(t, m.inspectOpts.Cached)

	_, err = execute(t, &mockApp{}, "inspect")
	require.Error(t, err, "a name is required")
}

func TestCommands_Clean(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "clean")
	require.NoError(t, err)
	assert.True(t, m.cleaned)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "lathe version "+build.Version+" (commit: "+build.Commit+", date: "+build.Date+")\n", out)

	out, err = execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "lathe version "+build.Version)
}
