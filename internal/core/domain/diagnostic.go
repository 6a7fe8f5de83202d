package domain

import "fmt"

// Severity classifies a diagnostic.
type Severity uint8

const (
	// SeverityInfo is an informational note.
	SeverityInfo Severity = iota
	// SeverityWarning is a recoverable problem; the build continues with partial results.
	SeverityWarning
	// SeverityError is an unrecoverable problem; the owning unit is removed from the model.
	SeverityError
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Position is a 1-based line and column within a unit.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"col"`
}

// IsValid reports whether the position points somewhere.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Diagnostic is a message about a unit, optionally anchored at a source position.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`
	Pos      Position `json:"pos"`
}

// Errorf creates an error diagnostic.
func Errorf(location string, pos Position, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...), Location: location, Pos: pos}
}

// Warnf creates a warning diagnostic.
func Warnf(location string, pos Position, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Location: location, Pos: pos}
}

// String formats the diagnostic as "location:line:col: severity: message".
func (d Diagnostic) String() string {
	where := d.Location
	if d.Pos.IsValid() {
		where = fmt.Sprintf("%s:%d:%d", d.Location, d.Pos.Line, d.Pos.Column)
	}
	if where == "" {
		return d.Severity.String() + ": " + d.Message
	}
	return where + ": " + d.Severity.String() + ": " + d.Message
}
