package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// TraceIDContextKey stores the correlation id shared by logs, problems and
// websocket messages. HTTP requests reuse their request id.
const TraceIDContextKey contextKey = "trace_id"

// WithTraceID returns ctx carrying traceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the correlation id in ctx, falling back to the active
// OpenTelemetry span's trace id.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(TraceIDContextKey).(string); ok && id != "" {
		return id
	}
	return TraceIDFromContext(ctx)
}

// EnsureTraceID gives background work such as cache warm-up and scheduled
// exports a correlation id of its own.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}
