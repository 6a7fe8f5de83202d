package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lathe/internal/core/domain"
)

func TestLogLevel_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level domain.LogLevel
		want  string
	}{
		{domain.LogLevelDebug, "DEBUG"},
		{domain.LogLevelInfo, "INFO"},
		{domain.LogLevelWarn, "WARN"},
		{domain.LogLevelError, "ERROR"},
		{domain.LogLevel(42), "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestLevelOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.LogLevelError, domain.LevelOf(domain.SeverityError))
	assert.Equal(t, domain.LogLevelWarn, domain.LevelOf(domain.SeverityWarning))
	assert.Equal(t, domain.LogLevelInfo, domain.LevelOf(domain.SeverityInfo))
}
