package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, RunIDFromContext(ctx))
	require.Equal(t, ctx, ContextWithRunID(ctx, ""))

	ctx = ContextWithRunID(ctx, "run-1")
	require.Equal(t, "run-1", RunIDFromContext(ctx))
}

func TestTraceIDFromContext(t *testing.T) {
	require.Empty(t, TraceIDFromContext(context.Background()))

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "s")
	defer span.End()
	require.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
}

func TestStartEnd_RecordsStatus(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	tracer := tp.Tracer("test")

	_, ok := Start(context.Background(), tracer, SpanFetchBytes, attribute.String(AttrURL, "https://x"))
	End(ok, nil)
	_, bad := Start(context.Background(), tracer, SpanFetchWiki)
	End(bad, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, codes.Ok, spans[0].Status().Code)
	require.Contains(t, spans[0].Attributes(), attribute.String(AttrURL, "https://x"))
	require.Equal(t, codes.Error, spans[1].Status().Code)
	require.Equal(t, "boom", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1, "error recorded as an event")
}
