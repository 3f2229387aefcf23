package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/factorytown/internal/config"
	"github.com/zjrosen/factorytown/internal/fetch"
	"github.com/zjrosen/factorytown/internal/log"
	"github.com/zjrosen/factorytown/internal/metrics"
	"github.com/zjrosen/factorytown/internal/model"
	"github.com/zjrosen/factorytown/internal/pagecache"
	"github.com/zjrosen/factorytown/internal/scrape"
	"github.com/zjrosen/factorytown/internal/tracing"
)

// session wires the page cache, tracing, fetch client and metrics for one
// command invocation.
type session struct {
	cfg     config.Config
	store   *pagecache.Cached
	tracing *tracing.Provider
	metrics *metrics.Metrics
	scraper *scrape.Scraper
}

func openSession(ctx context.Context, cfg config.Config) (*session, error) {
	store, err := pagecache.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := tracing.NewProvider(ctx, tracing.FromConfig(cfg.Tracing))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("starting tracing: %w", err)
	}

	s := &session{
		cfg:     cfg,
		store:   store,
		tracing: provider,
		metrics: metrics.New(),
	}

	pages := fetch.New(store,
		fetch.WithWikiConfig(cfg.Wiki),
		fetch.WithTracer(provider.Tracer()),
		fetch.WithPublisher(s.metrics),
	)
	s.scraper = &scrape.Scraper{
		Pages:  pages,
		Tracer: provider.Tracer(),
		Strict: cfg.Model.StrictReferences,
	}
	log.Debug(log.CatCLI, "Session opened", "backend", store.Driver(), "tracing", provider.Enabled())
	return s, nil
}

// build scrapes a fresh model. Metrics are observed and written even when
// the scrape fails on unresolved references.
func (s *session) build(ctx context.Context, force bool) (*model.Model, scrape.Result, error) {
	m := model.New()
	result, err := s.scraper.ScrapeModel(ctx, m, force)
	if err != nil && !errors.Is(err, model.ErrUnresolvedReference) {
		return nil, result, err
	}
	s.metrics.ObserveModel(m.Summary())
	if werr := s.metrics.WriteTextfile(s.cfg.ResolvePath(s.cfg.Metrics.Textfile)); werr != nil {
		log.ErrorErr(log.CatMetrics, "Failed to write metrics", werr)
	}
	return m, result, err
}

func (s *session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(s.tracing.Shutdown(ctx), s.store.Close())
}
