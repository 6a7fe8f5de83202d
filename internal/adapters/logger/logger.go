// Package logger implements a logging adapter using log/slog.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/lathe/internal/ui/output"
)

// messager describes an error that can report its own message without the chain.
// This matches the Message() method provided by zerr.Error.
type messager interface {
	Message() string
}

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	jsonMode bool
	linear   bool
	output   io.Writer
}

var _ ports.Logger = (*Logger)(nil)

// New creates a new Logger writing pretty output to stderr.
func New() *Logger {
	l := &Logger{output: os.Stderr}
	l.logger = slog.New(l.handler())
	return l
}

// SetOutput updates the logger's output destination, preserving the JSON mode.
// If w is nil, os.Stderr is used.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.logger = slog.New(l.handler())
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.jsonMode = enable
	l.logger = slog.New(l.handler())
}

// SetLinear restricts pretty output to the basic ANSI palette used on CI systems.
func (l *Logger) SetLinear(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.linear = enable
	l.logger = slog.New(l.handler())
}

func (l *Logger) handler() slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	switch {
	case l.jsonMode:
		return slog.NewJSONHandler(l.output, opts)
	case l.linear:
		return NewPrettyHandlerWithProfile(l.output, opts, output.LinearProfile)
	default:
		return NewPrettyHandler(l.output, opts)
	}
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg)
}

// Report logs a diagnostic at the level matching its severity.
func (l *Logger) Report(d domain.Diagnostic) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	level := slog.LevelInfo
	switch d.Severity {
	case domain.SeverityWarning:
		level = slog.LevelWarn
	case domain.SeverityError:
		level = slog.LevelError
	}

	attrs := make([]any, 0, 3)
	if d.Location != "" {
		attrs = append(attrs, slog.String("file", d.Location))
	}
	if d.Pos.IsValid() {
		attrs = append(attrs, slog.Int("line", d.Pos.Line), slog.Int("col", d.Pos.Column))
	}
	l.logger.Log(context.Background(), level, d.Message, attrs...)
}

// Error logs an error with its cause chain.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err == nil {
		return
	}

	if l.jsonMode {
		l.logger.Error("operation failed", "error", err)
		return
	}
	l.logger.Error(formatError(err))
}

// formatError renders the messages of an error chain hierarchically. Empty
// messages from metadata-only wrappers are skipped.
func formatError(err error) string {
	var messages []string
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			// Standard error: append full Error() and stop
			messages = append(messages, current.Error())
			break
		}
		if msg := m.Message(); msg != "" {
			messages = append(messages, msg)
		}
		current = errors.Unwrap(current)
	}
	if len(messages) == 0 {
		messages = append(messages, err.Error())
	}

	var formattedLines []string
	for i, msg := range messages {
		lines := strings.Split(msg, "\n")

		if i == 0 {
			formattedLines = append(formattedLines, "Error: "+lines[0])
			for _, line := range lines[1:] {
				formattedLines = append(formattedLines, "       "+line)
			}
			continue
		}
		if i == 1 {
			formattedLines = append(formattedLines, "", "  Caused by:")
		}
		formattedLines = append(formattedLines, "    → "+lines[0])
		for _, line := range lines[1:] {
			formattedLines = append(formattedLines, "      "+line)
		}
	}
	return strings.Join(formattedLines, "\n")
}
