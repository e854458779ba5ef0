// Package logging configures structured logging with log/slog.
//
// Loggers obtained through FromContext carry the chi request id of an HTTP
// request and the call id of a tool call, so every line written while serving
// one call can be correlated.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const ctxKeyCallID contextKey = "call_id"

// Setup installs the default slog logger writing to stdout.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger for w. Unknown levels fall back to info and unknown
// formats to text; use ParseLevel to reject them up front.
func New(w io.Writer, level, format string) *slog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// ContextWithCallID stores the id of the tool call being served.
func ContextWithCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCallID, id)
}

// CallIDFromContext returns the call id stored by ContextWithCallID, or "".
func CallIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyCallID).(string); ok {
		return v
	}
	return ""
}

// FromContext returns the default logger enriched with the request id set by
// chi's RequestID middleware and the current call id, when present.
//
// Usage:
//
//	logger := logging.FromContext(r.Context())
//	logger.Info("tool called", "tool", name)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if callID := CallIDFromContext(ctx); callID != "" {
		logger = logger.With("call_id", callID)
	}

	return logger
}

// WithFields returns FromContext(ctx) with additional structured fields.
//
//	callLogger := logging.WithFields(ctx, "tool", name, "doc_id", src.ID)
//	callLogger.Debug("fetched", "bytes", len(text))
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
