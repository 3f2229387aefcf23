package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const runIDKey contextKey = "run_id"

// ContextWithRunID tags ctx with the model run id. An empty id leaves ctx unchanged.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run id set by ContextWithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// TraceIDFromContext returns the trace id of the active span, or "" when no
// span is recording.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
