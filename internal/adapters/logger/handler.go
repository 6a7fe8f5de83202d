package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/lathe/internal/ui/output"
	"go.trai.ch/lathe/internal/ui/style"
)

// PrettyHandler is a custom slog.Handler that produces human-readable,
// colored output using the shared UI components.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to the provided writer.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	return NewPrettyHandlerWithProfile(w, opts, output.ColorProfile)
}

// NewPrettyHandlerWithProfile creates a PrettyHandler whose colors follow profileFn.
func NewPrettyHandlerWithProfile(w io.Writer, opts *slog.HandlerOptions, profileFn func() termenv.Profile) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w, profileFn()),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and outputs the log record. A record carrying a file
// attribute is printed compiler style, prefixed with file:line:col.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		icon  string
		color termenv.Color
	)
	switch {
	case r.Level >= slog.LevelError:
		icon, color = style.Cross, termenv.RGBColor(string(style.Red))
	case r.Level >= slog.LevelWarn:
		icon, color = style.Warning, termenv.RGBColor(string(style.Yellow))
	default:
		color = termenv.RGBColor(string(style.Slate))
	}

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})

	var where string
	rest := attrs[:0:0]
	if file, line, col, ok := sourcePosition(attrs); ok {
		where = file
		if line != "" {
			where += ":" + line + ":" + col
		}
		for _, a := range attrs {
			if a.Key != "file" && a.Key != "line" && a.Key != "col" {
				rest = append(rest, a)
			}
		}
	} else {
		rest = attrs
	}

	parts := make([]string, 0, 3+len(rest))
	if icon != "" {
		parts = append(parts, icon)
	}
	if where != "" {
		parts = append(parts, where+":")
	}
	parts = append(parts, r.Message)
	for _, attr := range rest {
		parts = append(parts, formatAttr(h.group, attr))
	}

	styled := h.out.String(strings.Join(parts, " ")).Foreground(color)
	_, err := h.out.WriteString(styled.String() + "\n")

	return err
}

func sourcePosition(attrs []slog.Attr) (file, line, col string, ok bool) {
	for _, a := range attrs {
		switch a.Key {
		case "file":
			file, ok = a.Value.String(), true
		case "line":
			line = a.Value.String()
		case "col":
			col = a.Value.String()
		}
	}
	return file, line, col, ok
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: newAttrs,
		group: h.group,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{
		out:   h.out,
		level: h.level,
		attrs: h.attrs,
		group: name,
	}
}

// formatAttr formats a single attribute for output.
// If a group is set, the key is prefixed with the group name.
func formatAttr(group string, attr slog.Attr) string {
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	return key + "=" + attr.Value.String()
}
