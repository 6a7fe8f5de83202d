// Package style provides shared UI styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/lathe/internal/core/domain"
)

// Brand Colors.
var (
	Copper = lipgloss.Color("#C2703D")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
)

// SeverityColor returns the color diagnostics of severity s are printed in.
func SeverityColor(s domain.Severity) lipgloss.Color {
	switch s {
	case domain.SeverityError:
		return Red
	case domain.SeverityWarning:
		return Yellow
	default:
		return Slate
	}
}

// SeverityIcon returns the icon prefixed to diagnostics of severity s.
func SeverityIcon(s domain.Severity) string {
	switch s {
	case domain.SeverityError:
		return Cross
	case domain.SeverityWarning:
		return Warning
	default:
		return Dot
	}
}
