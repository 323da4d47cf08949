// Package runtimelog is the structured logging seam for the memory
// runtime: a small interface decoupled from any one backend, a
// context-carried accessor, a dev-null default, and a tint-decorated slog
// implementation for terminal output.
package runtimelog

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level is the minimum severity a Logger will emit.
type Level slog.Level

const (
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

func (l Level) String() string { return slog.Level(l).String() }

// LevelFromString converts a config string to a Level, defaulting to Info
// for anything unrecognized.
func LevelFromString(value string) Level {
	switch strings.ToLower(value) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the logging interface every runtime component depends on.
// It is intended to align with log/slog but allow other backends via thin
// adapters.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// NullLogger discards everything. It is the default wherever no logger is
// configured, so library code never needs a nil check.
type NullLogger struct{}

func (NullLogger) Debug(context.Context, string, ...any) {}
func (NullLogger) Info(context.Context, string, ...any)  {}
func (NullLogger) Warn(context.Context, string, ...any)  {}
func (NullLogger) Error(context.Context, string, ...any) {}
func (l NullLogger) With(...any) Logger                  { return l }

// StructuredLogger implements Logger on top of log/slog, rendered through
// tint for readable terminal output, falling back to plain (non-color)
// output when stdout isn't a TTY.
type StructuredLogger struct {
	logger *slog.Logger
}

// New builds a tint-backed logger writing to os.Stdout at the given
// minimum level.
func New(level Level) *StructuredLogger {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
		TimeFormat: time.Kitchen,
		Level:      slog.Level(level),
	})
	return &StructuredLogger{logger: slog.New(handler)}
}

func (l *StructuredLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *StructuredLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *StructuredLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *StructuredLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *StructuredLogger) With(args ...any) Logger {
	return &StructuredLogger{logger: l.logger.With(args...)}
}

type contextKey struct{}

// WithLogger returns a new context carrying logger, threading the active
// logger through context rather than as an explicit parameter everywhere.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// Ctx returns the logger stashed in ctx, or a NullLogger if none was set.
func Ctx(ctx context.Context) Logger {
	if ctx == nil {
		return NullLogger{}
	}
	if logger, ok := ctx.Value(contextKey{}).(Logger); ok {
		return logger
	}
	return NullLogger{}
}
