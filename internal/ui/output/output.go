// Package output builds the termenv outputs log lines are rendered to.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

func noColor() bool {
	return os.Getenv("NO_COLOR") != ""
}

// ColorProfile returns the profile the terminal supports, or Ascii when NO_COLOR is set.
func ColorProfile() termenv.Profile {
	if noColor() {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// LinearProfile returns the profile of linear logs: ANSI, or Ascii when NO_COLOR is set.
// Linear logs are read by CI log viewers, which render the basic colors only.
func LinearProfile() termenv.Profile {
	if noColor() {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// New returns an output rendering to w in profile. A nil w writes to stderr.
// The output always counts as a terminal so that profile alone decides about colors.
func New(w io.Writer, profile termenv.Profile) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w, termenv.WithProfile(profile), termenv.WithTTY(true))
}
