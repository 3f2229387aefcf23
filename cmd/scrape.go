package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/factorytown/internal/config"
	"github.com/zjrosen/factorytown/internal/log"
	"github.com/zjrosen/factorytown/internal/model"
	"github.com/zjrosen/factorytown/internal/pagecache"
	"github.com/zjrosen/factorytown/internal/presentation"
	"github.com/zjrosen/factorytown/internal/pubsub"
	"github.com/zjrosen/factorytown/internal/scrape"
	"github.com/zjrosen/factorytown/internal/watcher"
)

type scrapeOptions struct {
	force  bool
	strict bool
	watch  bool
	json   bool
}

func newScrapeCmd(root *rootOptions) *cobra.Command {
	o := &scrapeOptions{}
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Build the model and report what is unresolved",
		Long: `Build the model from the wiki and print a summary followed by every
name that was referenced but never defined.

Examples:
  # Build from cached pages where available
  factorytown scrape

  # Refetch every page
  factorytown scrape --force

  # Fail when any reference is unresolved
  factorytown scrape --strict

  # Rebuild whenever the file cache changes
  factorytown scrape --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.validated()
			if err != nil {
				return err
			}
			if o.strict {
				cfg.Model.StrictReferences = true
			}
			if o.watch {
				return runScrapeWatch(cmd.Context(), cfg, o, root.formatter(cmd.OutOrStdout(), o.json), cmd.OutOrStdout())
			}
			return runScrapeOnce(cmd.Context(), cfg, o, root.formatter(cmd.OutOrStdout(), o.json))
		},
	}
	cmd.Flags().BoolVarP(&o.force, "force", "f", false, "refetch pages instead of reading the cache")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "fail when names remain unresolved (overrides model.strict_references)")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "rebuild whenever the file cache changes")
	cmd.Flags().BoolVar(&o.json, "json", false, "print JSON")
	return cmd
}

func runScrapeOnce(ctx context.Context, cfg config.Config, o *scrapeOptions, f *presentation.Formatter) error {
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	return scrapeAndReport(ctx, s, o.force, f)
}

func scrapeAndReport(ctx context.Context, s *session, force bool, f *presentation.Formatter) error {
	m, result, err := s.build(ctx, force)
	if err != nil && !errors.Is(err, model.ErrUnresolvedReference) {
		return err
	}

	if ferr := f.FormatSummary(presentation.FromSummary(m.ID(), result.Summary)); ferr != nil {
		return ferr
	}
	if ferr := f.FormatUnresolved(presentation.FromUnresolved(result.Unresolved)); ferr != nil {
		return ferr
	}
	return err
}

// runScrapeWatch rebuilds on every cache change until ctx is done. Build
// errors are printed and the watch continues. The watcher starts after the
// first build so the pages that build writes do not trigger a rebuild.
func runScrapeWatch(ctx context.Context, cfg config.Config, o *scrapeOptions, f *presentation.Formatter, out io.Writer) error {
	if cfg.Cache.Backend != config.BackendFile {
		return fmt.Errorf("--watch needs the %q cache backend, got %q", config.BackendFile, cfg.Cache.Backend)
	}

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	files, ok := s.store.Unwrap().(*pagecache.FileStore)
	if !ok {
		return fmt.Errorf("--watch needs the %q cache backend, got %q", config.BackendFile, s.store.Driver())
	}

	report := func(force bool) {
		if err := scrapeAndReport(ctx, s, force, f); err != nil {
			_, _ = fmt.Fprintf(out, "factorytown: error: %s\n", err)
		}
	}
	report(o.force)

	changes := pubsub.NewBroker[watcher.Change]()
	defer changes.Close()
	logged := pubsub.Go(ctx, changes, func(ev pubsub.Event[watcher.Change]) {
		for ns, keys := range ev.Payload.Keys {
			log.Info(log.CatWatcher, "Pages changed", "namespace", ns, "keys", keys)
		}
	})

	wcfg := watcher.DefaultConfig(files.Root())
	wcfg.Publisher = changes
	w, err := watcher.New(wcfg)
	if err != nil {
		return err
	}
	onChange, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}
	defer func() {
		_ = w.Stop()
		<-logged
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-onChange:
			if err := s.store.Invalidate(ctx); err != nil {
				log.ErrorErr(log.CatCache, "Failed to invalidate memory cache", err)
			}
			report(false)
		}
	}
}

// Used by records and unresolved, which never refetch.
func buildFromCache(ctx context.Context, cfg config.Config) (*model.Model, scrape.Result, error) {
	s, err := openSession(ctx, cfg)
	if err != nil {
		return nil, scrape.Result{}, err
	}
	defer func() { _ = s.Close() }()
	return s.build(ctx, false)
}
