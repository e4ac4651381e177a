// Package ctxutil carries log attributes in a context.
package ctxutil

import (
	"context"
	"log/slog"
)

type ctxKey string

const (
	sessionIDKey ctxKey = "session_id"
	lineKey      ctxKey = "line"
)

// WithSessionID stores the worker session ID in the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromCtx extracts the session ID from the context.
// Returns an empty string if absent.
func SessionIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// WithLine stores the 1-based input line being processed.
func WithLine(ctx context.Context, line int) context.Context {
	return context.WithValue(ctx, lineKey, line)
}

// LineFromCtx extracts the input line from the context.
// Returns 0 and false if the value is missing or not positive.
func LineFromCtx(ctx context.Context) (int, bool) {
	line, ok := ctx.Value(lineKey).(int)
	if !ok || line <= 0 {
		return 0, false
	}
	return line, true
}

// Handler adds the context values of this package to every record logged
// with a context.
type Handler struct {
	slog.Handler
}

// NewHandler wraps h.
func NewHandler(h slog.Handler) *Handler {
	return &Handler{Handler: h}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id := SessionIDFromCtx(ctx); id != "" {
		r.AddAttrs(slog.String(string(sessionIDKey), id))
	}
	if line, ok := LineFromCtx(ctx); ok {
		r.AddAttrs(slog.Int(string(lineKey), line))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}
