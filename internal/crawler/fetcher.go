package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/audiophile/internal/cache"
	"github.com/nao1215/audiophile/internal/model"
	"github.com/nao1215/audiophile/internal/progress"
)

// Getter fetches a page body. *fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Stats counts what a fetcher did.
type Stats struct {
	// Fetched is the number of pages downloaded and written.
	Fetched int

	// Skipped is the number of pages left alone because a cached copy existed.
	Skipped int

	// Pruned is the number of stale pages removed from an earlier, larger run.
	Pruned int
}

// Total returns the number of pages now present for this run.
func (s Stats) Total() int {
	return s.Fetched + s.Skipped
}

// Option configures IndexFetcher and PageFetcher.
type Option func(*options)

type options struct {
	concurrency  int
	skipExisting bool
	logger       *slog.Logger
	tracker      progress.Tracker
}

func defaultOptions() options {
	return options{
		concurrency: 1,
		logger:      slog.New(slog.DiscardHandler),
		tracker:     progress.Noop{},
	}
}

// WithConcurrency bounds the number of simultaneous page fetches.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// WithSkipExisting leaves pages alone whose cache file already has content.
func WithSkipExisting(skip bool) Option {
	return func(o *options) {
		o.skipExisting = skip
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress sets the progress tracker.
func WithProgress(t progress.Tracker) Option {
	return func(o *options) {
		o.tracker = progress.OrNoop(t)
	}
}

// IndexFetcher downloads the paginated index pages of a query.
type IndexFetcher struct {
	client Getter
	layout *cache.Layout
	origin string
	opts   options
}

// NewIndexFetcher creates an IndexFetcher writing into layout.IndexesDir.
func NewIndexFetcher(client Getter, layout *cache.Layout, origin string, opts ...Option) *IndexFetcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &IndexFetcher{client: client, layout: layout, origin: origin, opts: o}
}

// Fetch downloads index pages 1..pages for the query, in order, and stores
// each body verbatim as index_{n}.html. Cached index pages numbered above
// pages are removed first.
//
// Design decision: Index pages are fetched sequentially even when a higher
// concurrency is configured. Their count is small and the site paginates
// them server-side, so parallelism buys little and costs politeness.
func (f *IndexFetcher) Fetch(ctx context.Context, query string, queryType model.QueryType, pages int) (Stats, error) {
	var stats Stats

	pruned, err := cache.PrunePages(f.layout.Fs(), f.layout.IndexesDir, cache.KindIndex, pages)
	if err != nil {
		return stats, err
	}
	stats.Pruned = pruned

	f.opts.tracker.Start("index pages", pages)
	defer f.opts.tracker.Finish()

	for n := 1; n <= pages; n++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		pageURL, err := IndexURL(f.origin, query, queryType, n)
		if err != nil {
			return stats, err
		}

		skipped, err := fetchToFile(ctx, f.client, f.layout, pageURL, f.layout.IndexPath(n), f.opts)
		if err != nil {
			return stats, fmt.Errorf("index page %d: %w", n, err)
		}
		if skipped {
			stats.Skipped++
		} else {
			stats.Fetched++
		}
		f.opts.tracker.Add(1)
	}
	return stats, nil
}

// PageFetcher downloads result pages listed in a URL list.
type PageFetcher struct {
	client Getter
	layout *cache.Layout
	opts   options
}

// NewPageFetcher creates a PageFetcher writing into layout.ResultsDir.
func NewPageFetcher(client Getter, layout *cache.Layout, opts ...Option) *PageFetcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &PageFetcher{client: client, layout: layout, opts: o}
}

// FetchAll downloads urls[i] into sound_page_{i+1}.html.
//
// File names are fixed by list position before any request is made, so the
// cache looks the same whatever the concurrency. The first failure cancels
// the remaining fetches and is returned.
func (f *PageFetcher) FetchAll(ctx context.Context, urls []string) (Stats, error) {
	var stats Stats

	pruned, err := cache.PrunePages(f.layout.Fs(), f.layout.ResultsDir, cache.KindResult, len(urls))
	if err != nil {
		return stats, err
	}
	stats.Pruned = pruned

	f.opts.tracker.Start("result pages", len(urls))
	defer f.opts.tracker.Finish()

	var fetched, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.concurrency)

	for i, pageURL := range urls {
		n := i + 1
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			wasSkipped, err := fetchToFile(gctx, f.client, f.layout, pageURL, f.layout.ResultPath(n), f.opts)
			if err != nil {
				return fmt.Errorf("result page %d: %w", n, err)
			}
			if wasSkipped {
				skipped.Add(1)
			} else {
				fetched.Add(1)
			}
			f.opts.tracker.Add(1)
			return nil
		})
	}

	err = g.Wait()
	stats.Fetched = int(fetched.Load())
	stats.Skipped = int(skipped.Load())
	return stats, err
}

// fetchToFile fetches pageURL into path unless skip-existing applies.
// It reports whether the fetch was skipped.
func fetchToFile(ctx context.Context, client Getter, layout *cache.Layout, pageURL, path string, o options) (bool, error) {
	if o.skipExisting && cache.HasContent(layout.Fs(), path) {
		o.logger.Debug("using cached page", "path", path)
		return true, nil
	}

	o.logger.Debug("fetching page", "url", pageURL)
	body, err := client.Get(ctx, pageURL)
	if err != nil {
		return false, err
	}
	if err := cache.WriteFile(layout.Fs(), path, body); err != nil {
		return false, err
	}
	return false, nil
}
