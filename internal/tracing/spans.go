package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrRunID      = "run.id"
	AttrPage       = "wiki.page"
	AttrURL        = "http.url"
	AttrStatusCode = "http.status_code"
	AttrNamespace  = "cache.namespace"
	AttrCacheHit   = "cache.hit"
	AttrForce      = "fetch.force"
	AttrBytes      = "fetch.bytes"
	AttrStage      = "scrape.stage"
	AttrTable      = "scrape.table"
	AttrRows       = "scrape.rows"
	AttrRecords    = "model.records"
	AttrUnresolved = "model.unresolved"
	AttrRecordName = "model.record_name"
)

// Span names.
const (
	SpanScrapeModel = "scrape.model"
	SpanPrefixStage = "scrape.stage."
	SpanFetchBytes  = "fetch.bytes"
	SpanFetchWiki   = "fetch.wikitext"
)

// Event names.
const (
	EventRowSkipped     = "row.skipped"
	EventCacheWrite     = "cache.write"
	EventUnresolvedName = "model.unresolved_name"
)

// Start begins an internal span named name with attrs.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// End records err on span, if any, sets the status and ends the span.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
