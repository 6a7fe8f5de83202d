// Package detector picks the output mode of the CLI from its environment.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode is how diagnostics and progress are rendered.
type OutputMode int

const (
	// ModeAuto defers to DetectEnvironment.
	ModeAuto OutputMode = iota
	// ModePretty renders colored output for an interactive terminal.
	ModePretty
	// ModeLinear renders output for logs and CI systems with the basic ANSI palette.
	ModeLinear
	// ModeJSON emits one JSON record per line.
	ModeJSON
)

// String returns the flag value naming m.
func (m OutputMode) String() string {
	switch m {
	case ModePretty:
		return "pretty"
	case ModeLinear:
		return "linear"
	case ModeJSON:
		return "json"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the mode suited to the current process: linear when
// stdout is not a terminal or a CI variable is set, pretty otherwise.
func DetectEnvironment() OutputMode {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if !isTTY || isCI() {
		return ModeLinear
	}
	return ModePretty
}

func isCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// ResolveMode applies the --output flag to the detected mode. Unknown values
// fall back to the detected mode.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "pretty":
		return ModePretty
	case "linear", "ci":
		return ModeLinear
	case "json":
		return ModeJSON
	default:
		return autoDetected
	}
}
