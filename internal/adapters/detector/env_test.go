package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lathe/internal/adapters/detector"
)

func TestDetectEnvironment_CI(t *testing.T) {
	for _, value := range []string{"true", "1"} {
		t.Run("CI="+value, func(t *testing.T) {
			t.Setenv("CI", value)
			assert.Equal(t, detector.ModeLinear, detector.DetectEnvironment())
		})
	}
}

func TestDetectEnvironment_NotATerminal(t *testing.T) {
	// go test runs with stdout redirected.
	t.Setenv("CI", "false")
	assert.Equal(t, detector.ModeLinear, detector.DetectEnvironment())
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name         string
		autoDetected detector.OutputMode
		userFlag     string
		expected     detector.OutputMode
	}{
		{"auto keeps pretty", detector.ModePretty, "auto", detector.ModePretty},
		{"auto keeps linear", detector.ModeLinear, "auto", detector.ModeLinear},
		{"empty keeps detection", detector.ModePretty, "", detector.ModePretty},
		{"pretty overrides", detector.ModeLinear, "pretty", detector.ModePretty},
		{"linear overrides", detector.ModePretty, "linear", detector.ModeLinear},
		{"ci is alias for linear", detector.ModePretty, "ci", detector.ModeLinear},
		{"json overrides", detector.ModePretty, "json", detector.ModeJSON},
		{"unknown keeps detection", detector.ModeLinear, "fancy", detector.ModeLinear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detector.ResolveMode(tt.autoDetected, tt.userFlag))
		})
	}
}

func TestOutputMode_String(t *testing.T) {
	assert.Equal(t, "auto", detector.ModeAuto.String())
	assert.Equal(t, "pretty", detector.ModePretty.String())
	assert.Equal(t, "linear", detector.ModeLinear.String())
	assert.Equal(t, "json", detector.ModeJSON.String())
}
