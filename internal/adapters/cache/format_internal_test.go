package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/core/domain"
)

func TestFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		key    string
		suffix bool
	}{
		{name: "safe key kept verbatim", key: "a.b.Type", suffix: false},
		{name: "colon and slash", key: "unit:a/B.java", suffix: true},
		{name: "nested marker", key: "type:a.B$C", suffix: true},
		{name: "empty", key: "", suffix: true},
		{name: "too long", key: strings.Repeat("x", maxStem+1), suffix: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := fileName(tt.key)
			assert.True(t, strings.HasSuffix(got, fileExt))
			assert.NotContains(t, got, "/")
			if tt.suffix {
				assert.Contains(t, got, "-")
			} else {
				assert.Equal(t, tt.key+fileExt, got)
			}
		})
	}

	assert.NotEqual(t, fileName("unit:a/B.java"), fileName("unit_a_B.java"))
	assert.NotEqual(t, fileName("unit:a/B.java"), fileName("unit:a:B.java"))
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	s := domain.Stamp{Env: "env", SourceTime: -7}
	key, payload, got, err := decode(encode("type:a.B", []byte{1, 2, 3}, s))
	require.NoError(t, err)
	assert.Equal(t, "type:a.B", key)
	assert.Equal(t, []byte{1, 2, 3}, payload)
	assert.Equal(t, s, got)

	data := encode("k", nil, s)
	for _, bad := range [][]byte{nil, []byte("LTHC"), data[:len(data)-1], append([]byte("XXXX"), data[4:]...)} {
		_, _, _, err := decode(bad)
		require.ErrorIs(t, err, domain.ErrCacheEntryCorrupt)
	}
}
