package rebind_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/adapters/rebind"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestRules(t *testing.T) {
	t.Parallel()
	r := rebind.NewRules(map[string][]string{"a.Iface": {"a.Impl", "a.Other"}})

	got, err := r.AllCandidates(context.Background(), "a.Iface")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.Impl", "a.Other"}, got)

	got, err = r.AllCandidates(context.Background(), "a.Plain")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.Plain"}, got)
}

func TestScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  string
		want    []string
		wantErr error
	}{
		{
			name:   "passes candidates through",
			source: `candidates`,
			want:   []string{"a.Impl"},
		},
		{
			name:   "single string",
			source: `requested + "Impl"`,
			want:   []string{"a.IfaceImpl"},
		},
		{
			name:   "list",
			source: `["a.X", requested]`,
			want:   []string{"a.X", "a.Iface"},
		},
		{
			name:   "nil means no candidates",
			source: `nil`,
			want:   nil,
		},
		{
			name:    "wrong result type",
			source:  `42`,
			wantErr: domain.ErrRebindScriptResult,
		},
		{
			name:    "wrong list item",
			source:  `["a.X", 1]`,
			wantErr: domain.ErrRebindScriptResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := rebind.NewScript("inline", tt.source, rebind.NewRules(map[string][]string{"a.Iface": {"a.Impl"}}))

			got, err := s.AllCandidates(context.Background(), "a.Iface")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScript_SyntaxError(t *testing.T) {
	t.Parallel()
	s := rebind.NewScript("broken", `[`, rebind.NewRules(nil))

	_, err := s.AllCandidates(context.Background(), "a.Iface")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrRebindScriptFailed.Error())
}

func TestScript_MemoizesAnswers(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	base := mocks.NewMockRebindOracle(ctrl)
	base.EXPECT().AllCandidates(gomock.Any(), "a.Iface").Return([]string{"a.Impl"}, nil).Times(1)

	s := rebind.NewScript("inline", `candidates`, base)
	for range 3 {
		got, err := s.AllCandidates(context.Background(), "a.Iface")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.Impl"}, got)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "rebind.risor")
	require.NoError(t, os.WriteFile(path, []byte(`[candidates[0], requested + "Fallback"]`), 0o600))

	oracle, err := rebind.New(domain.RebindConfig{
		Rules:  map[string][]string{"a.Iface": {"a.Impl"}},
		Script: path,
	})
	require.NoError(t, err)
	got, err := oracle.AllCandidates(context.Background(), "a.Iface")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.Impl", "a.IfaceFallback"}, got)

	_, err = rebind.New(domain.RebindConfig{Script: filepath.Join(dir, "missing.risor")})
	assert.ErrorContains(t, err, domain.ErrRebindScriptFailed.Error())
}
