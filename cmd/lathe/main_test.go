package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lathe/internal/app"
	"go.trai.ch/lathe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func components(t *testing.T) (*app.Components, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	a := app.New(mocks.NewMockConfigLoader(ctrl), log, nil, nil, nil, nil, nil, nil)
	return app.NewComponents(a, log), log
}

func TestRun_Version(t *testing.T) {
	c, _ := components(t)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := run(context.Background(), []string{"version"}, stdout, stderr, func(context.Context) (*app.Components, error) {
		return c, nil
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "lathe version")
}

func TestRun_ProviderError(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := run(context.Background(), []string{"build"}, stdout, stderr, func(context.Context) (*app.Components, error) {
		return nil, errors.New("graft failed")
	})
	assert.Equal(t, 1, code)
	assert.Equal(t, "Error: graft failed\n", stderr.String())
}

func TestRun_CommandError(t *testing.T) {
	c, log := components(t)
	log.EXPECT().Error(gomock.Any()).Times(1)

	code := run(context.Background(), []string{"no-such-command"}, new(bytes.Buffer), new(bytes.Buffer),
		func(context.Context) (*app.Components, error) {
			return c, nil
		})
	assert.Equal(t, 1, code)
}

func TestRun_ConfigError(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	loader := mocks.NewMockConfigLoader(ctrl)
	a := app.New(loader, log, nil, nil, nil, nil, nil, nil).WithDir(t.TempDir())

	loader.EXPECT().Load(gomock.Any()).Return(nil, errors.New("no lathe.yaml"))
	log.EXPECT().Error(gomock.Any()).Times(1)

	code := run(context.Background(), []string{"clean"}, new(bytes.Buffer), new(bytes.Buffer),
		func(context.Context) (*app.Components, error) {
			return app.NewComponents(a, log), nil
		})
	assert.Equal(t, 1, code)
}
