package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger keeps the printf-style call sites of the CLI while emitting
// structured slog records.
type Logger struct {
	Debug bool
	l     *slog.Logger
}

func NewLogger(debug bool) *Logger {
	return NewLoggerTo(os.Stderr, debug)
}

func NewLoggerTo(w io.Writer, debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})

	return &Logger{Debug: debug, l: slog.New(h)}
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}

	return &Logger{Debug: l.Debug, l: l.l.With(args...)}
}

// Slog exposes the underlying handler chain for libraries that take a
// *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return slog.Default()
	}

	return l.l
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(slog.LevelDebug, format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(slog.LevelInfo, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(slog.LevelWarn, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(slog.LevelError, format, args...)
}

func (l *Logger) logf(level slog.Level, format string, args ...any) {
	if l == nil || !l.l.Enabled(context.Background(), level) {
		return
	}

	l.l.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(format, args...)))
}
