// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	GlobalLogger = NewLogger(os.Stderr, "info")
}

// NewLogger builds a JSON logger writing to w at the named level.
func NewLogger(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return &Logger{Logger: slog.New(handler)}
}

// SetupLogging replaces GlobalLogger with one at the configured level.
func SetupLogging(level string) {
	GlobalLogger = NewLogger(os.Stderr, level)
	slog.SetDefault(GlobalLogger.Logger)
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
)

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// ComponentLogger tags every record with the component that produced it.
type ComponentLogger struct {
	component string
}

// NewComponentLogger creates a logger for the named component. The global
// logger is resolved on each call so SetupLogging takes effect everywhere.
func NewComponentLogger(component string) *ComponentLogger {
	return &ComponentLogger{component: component}
}

func (l *ComponentLogger) base() *Logger {
	return GlobalLogger
}

func (l *ComponentLogger) attrs(ctx context.Context, args []any) []any {
	out := make([]any, 0, len(args)+2)
	out = append(out, slog.String("component", l.component))
	if id := ExtractCorrelationID(ctx); id != "" {
		out = append(out, slog.String("correlation_id", id))
	}
	return append(out, args...)
}

// Debug logs at debug level.
func (l *ComponentLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.base().DebugContext(ctx, msg, l.attrs(ctx, args)...)
}

// Info logs at info level.
func (l *ComponentLogger) Info(ctx context.Context, msg string, args ...any) {
	l.base().InfoContext(ctx, msg, l.attrs(ctx, args)...)
}

// Warn logs at warn level.
func (l *ComponentLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.base().WarnContext(ctx, msg, l.attrs(ctx, args)...)
}

// Error logs err at error level.
func (l *ComponentLogger) Error(ctx context.Context, err error, msg string, args ...any) {
	args = append(args, slog.String("error", err.Error()))
	l.base().ErrorContext(ctx, msg, l.attrs(ctx, args)...)
}
