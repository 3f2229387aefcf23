// Package scrape builds a model.Model from wiki pages.
//
// Stages run in a fixed order. Each stage fetches its page through the
// fetch client, reads its tables and creates or references records. Names
// that are referenced but never created are reported once all stages are
// done.
package scrape

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/factorytown/internal/fetch"
	"github.com/zjrosen/factorytown/internal/log"
	"github.com/zjrosen/factorytown/internal/model"
	"github.com/zjrosen/factorytown/internal/pubsub"
	"github.com/zjrosen/factorytown/internal/tracing"
)

// Stage names.
const (
	StageBuildings = "buildings"
	StageCoins     = "coins"
)

// StageEvent is published when a stage starts and when it finishes.
type StageEvent struct {
	RunID   string
	Stage   string
	Records int // realized records after the stage
	Elapsed time.Duration
	Err     error
}

// Unresolved is a referenced name no stage created, with close realized names.
type Unresolved struct {
	Name        string
	Suggestions []string
}

// Result summarizes one ScrapeModel run.
type Result struct {
	Summary    model.Summary
	Unresolved []Unresolved
}

// Scraper runs the scrape stages.
type Scraper struct {
	Pages  *fetch.Client
	Tracer trace.Tracer
	// Events, when set, receives StageStartedEvent and StageFinishedEvent.
	Events pubsub.Publisher[StageEvent]
	// Strict fails the run when names remain unresolved.
	Strict bool
}

type stage struct {
	name string
	run  func(ctx context.Context, s *Scraper, m *model.Model, force bool) error
}

var stages = []stage{
	{StageBuildings, scrapeBuildings},
	{StageCoins, scrapeCoins},
}

// ScrapeModel runs every stage against m. force refetches pages instead of
// reading them from the cache.
func (s *Scraper) ScrapeModel(ctx context.Context, m *model.Model, force bool) (result Result, err error) {
	ctx = tracing.ContextWithRunID(ctx, m.ID())
	ctx, span := tracing.Start(ctx, s.tracer(), tracing.SpanScrapeModel,
		attribute.String(tracing.AttrRunID, m.ID()),
		attribute.Bool(tracing.AttrForce, force),
	)
	defer func() { tracing.End(span, err) }()

	log.Info(log.CatScrape, "Scraping model", "run", m.ID(), "force", force)
	for _, st := range stages {
		if err := s.runStage(ctx, st, m, force); err != nil {
			return Result{}, err
		}
	}

	result = Result{Summary: m.Summary()}
	for _, name := range m.Records().UnresolvedNames() {
		u := Unresolved{Name: name, Suggestions: m.Suggest(name)}
		result.Unresolved = append(result.Unresolved, u)
		log.Warn(log.CatScrape, "Unresolved reference", "name", name, "suggestions", u.Suggestions)
		span.AddEvent(tracing.EventUnresolvedName, trace.WithAttributes(attribute.String(tracing.AttrRecordName, name)))
	}
	span.SetAttributes(
		attribute.Int(tracing.AttrRecords, result.Summary.Realized),
		attribute.Int(tracing.AttrUnresolved, result.Summary.Unresolved),
	)

	if _, err := m.CheckReferences(s.Strict); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Scraper) runStage(ctx context.Context, st stage, m *model.Model, force bool) (err error) {
	ctx, span := tracing.Start(ctx, s.tracer(), tracing.SpanPrefixStage+st.name,
		attribute.String(tracing.AttrStage, st.name),
	)
	defer func() { tracing.End(span, err) }()

	start := time.Now()
	s.publish(pubsub.StageStartedEvent, StageEvent{RunID: m.ID(), Stage: st.name})
	log.Debug(log.CatScrape, "Stage started", "stage", st.name, "run", m.ID())

	err = st.run(ctx, s, m, force)
	ev := StageEvent{
		RunID:   m.ID(),
		Stage:   st.name,
		Records: m.Records().Len(),
		Elapsed: time.Since(start),
		Err:     err,
	}
	s.publish(pubsub.StageFinishedEvent, ev)
	if err != nil {
		log.ErrorErr(log.CatScrape, "Stage failed", err, "stage", st.name, "run", m.ID())
		return fmt.Errorf("scraping %s: %w", st.name, err)
	}
	log.Info(log.CatScrape, "Stage finished", "stage", st.name, "records", ev.Records,
		"elapsed", ev.Elapsed.Round(time.Millisecond))
	return nil
}

func (s *Scraper) tracer() trace.Tracer {
	if s.Tracer == nil {
		return noop.NewTracerProvider().Tracer("")
	}
	return s.Tracer
}

func (s *Scraper) publish(t pubsub.EventType, ev StageEvent) {
	if s.Events != nil {
		s.Events.Publish(t, ev)
	}
}
