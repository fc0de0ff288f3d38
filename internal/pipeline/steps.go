package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/nao1215/audiophile/internal/cache"
	"github.com/nao1215/audiophile/internal/config"
	"github.com/nao1215/audiophile/internal/crawler"
	"github.com/nao1215/audiophile/internal/download"
	"github.com/nao1215/audiophile/internal/fetch"
	"github.com/nao1215/audiophile/internal/model"
	"github.com/nao1215/audiophile/internal/progress"
)

// Step names, also stored in SessionReport.PerformedSteps.
const (
	StepInitFolders   = "init_folders"
	StepFetchIndexes  = "fetch_indexes"
	StepParseIndexes  = "parse_indexes"
	StepFetchResults  = "fetch_results"
	StepParseResults  = "parse_results"
	StepDownloadAudio = "download"
)

// InitFoldersStep creates the session folder tree.
//
// Design decision: A folder that cannot be created is reported as a warning
// and the step succeeds. The first stage that needs the folder fails with a
// precise write error, which is more useful than failing here.
type InitFoldersStep struct {
	layout *cache.Layout
	logger *slog.Logger
}

// NewInitFoldersStep creates an InitFoldersStep.
func NewInitFoldersStep(layout *cache.Layout, logger *slog.Logger) *InitFoldersStep {
	return &InitFoldersStep{layout: layout, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *InitFoldersStep) Name() string {
	return StepInitFolders
}

// Do executes the step.
func (s *InitFoldersStep) Do(_ context.Context, report *model.SessionReport) error {
	report.BaseDir = s.layout.BaseDir
	if err := s.layout.Init(); err != nil {
		s.logger.Warn("failed to initialize session folders", "error", err)
		report.AddWarning(err.Error())
	}
	return nil
}

// FetchIndexesStep downloads the index pages of the report's query.
type FetchIndexesStep struct {
	fetcher *crawler.IndexFetcher
}

// NewFetchIndexesStep creates a FetchIndexesStep.
func NewFetchIndexesStep(fetcher *crawler.IndexFetcher) *FetchIndexesStep {
	return &FetchIndexesStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchIndexesStep) Name() string {
	return StepFetchIndexes
}

// Do executes the step.
func (s *FetchIndexesStep) Do(ctx context.Context, report *model.SessionReport) error {
	stats, err := s.fetcher.Fetch(ctx, report.Query, report.QueryType, report.Pages)
	report.IndexPages = stats.Total()
	if err != nil {
		return fmt.Errorf("failed to fetch index pages: %w", err)
	}
	return nil
}

// ParseIndexesStep turns the cached index pages into sound_pages_urls.csv.
type ParseIndexesStep struct {
	layout *cache.Layout
	origin string
	logger *slog.Logger
}

// NewParseIndexesStep creates a ParseIndexesStep. origin prefixes every
// extracted link.
func NewParseIndexesStep(layout *cache.Layout, origin string, logger *slog.Logger) *ParseIndexesStep {
	return &ParseIndexesStep{layout: layout, origin: origin, logger: orDefault(logger)}
}

// Name returns the step name.
func (s *ParseIndexesStep) Name() string {
	return StepParseIndexes
}

// Do executes the step. Pages are read in page-number order and their links
// concatenated, so the list order matches the site's result order.
func (s *ParseIndexesStep) Do(_ context.Context, report *model.SessionReport) error {
	urls, err := parseCached(s.layout, s.layout.IndexesDir, cache.KindIndex, func(r io.Reader) ([]string, error) {
		return crawler.ParseIndexPage(r, s.origin)
	})
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		s.logger.Warn("no results found on index pages", "query", report.Query)
	}

	if err := cache.WriteURLList(s.layout.Fs(), s.layout.SoundPagesList, urls); err != nil {
		return err
	}
	report.ResultURLs = len(urls)
	return nil
}

// FetchResultsStep downloads every result page listed in sound_pages_urls.csv.
type FetchResultsStep struct {
	layout  *cache.Layout
	fetcher *crawler.PageFetcher
}

// NewFetchResultsStep creates a FetchResultsStep.
func NewFetchResultsStep(layout *cache.Layout, fetcher *crawler.PageFetcher) *FetchResultsStep {
	return &FetchResultsStep{layout: layout, fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchResultsStep) Name() string {
	return StepFetchResults
}

// Do executes the step.
func (s *FetchResultsStep) Do(ctx context.Context, report *model.SessionReport) error {
	urls, err := cache.ReadURLList(s.layout.Fs(), s.layout.SoundPagesList)
	if err != nil {
		return err
	}

	stats, err := s.fetcher.FetchAll(ctx, urls)
	report.ResultPages = stats.Total()
	if err != nil {
		return fmt.Errorf("failed to fetch result pages: %w", err)
	}
	return nil
}

// ParseResultsStep turns the cached result pages into download_urls.csv.
type ParseResultsStep struct {
	layout *cache.Layout
	origin string
}

// NewParseResultsStep creates a ParseResultsStep.
func NewParseResultsStep(layout *cache.Layout, origin string) *ParseResultsStep {
	return &ParseResultsStep{layout: layout, origin: origin}
}

// Name returns the step name.
func (s *ParseResultsStep) Name() string {
	return StepParseResults
}

// Do executes the step. A page without a download link aborts the step; the
// error names the offending file.
func (s *ParseResultsStep) Do(_ context.Context, report *model.SessionReport) error {
	urls, err := parseCached(s.layout, s.layout.ResultsDir, cache.KindResult, func(r io.Reader) ([]string, error) {
		link, err := crawler.ParseSoundPage(r, s.origin)
		if err != nil {
			return nil, err
		}
		return []string{link}, nil
	})
	if err != nil {
		return err
	}

	if err := cache.WriteURLList(s.layout.Fs(), s.layout.DownloadList, urls); err != nil {
		return err
	}
	report.DownloadURLs = len(urls)
	return nil
}

// DownloadStep downloads the allowed files listed in download_urls.csv.
type DownloadStep struct {
	layout     *cache.Layout
	downloader *download.Downloader
}

// NewDownloadStep creates a DownloadStep.
func NewDownloadStep(layout *cache.Layout, downloader *download.Downloader) *DownloadStep {
	return &DownloadStep{layout: layout, downloader: downloader}
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return StepDownloadAudio
}

// Do executes the step. Files finished before a failure are still recorded.
func (s *DownloadStep) Do(ctx context.Context, report *model.SessionReport) error {
	urls, err := cache.ReadURLList(s.layout.Fs(), s.layout.DownloadList)
	if err != nil {
		return err
	}

	artifacts, rejected, err := s.downloader.Download(ctx, model.NewTargets(urls), report.Formats)
	report.Artifacts = append(report.Artifacts, artifacts...)
	report.Rejected = len(rejected)
	if err != nil {
		return fmt.Errorf("failed to download audio: %w", err)
	}
	return nil
}

// parseCached runs parse over every cached page of kind in dir, in page
// order, and concatenates the results.
func parseCached(layout *cache.Layout, dir string, kind cache.PageKind, parse func(io.Reader) ([]string, error)) ([]string, error) {
	pages, err := cache.ListPages(layout.Fs(), dir, kind)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0)
	for _, page := range pages {
		found, err := parseFile(layout, page.Path, parse)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(page.Path), err)
		}
		urls = append(urls, found...)
	}
	return urls, nil
}

func parseFile(layout *cache.Layout, path string, parse func(io.Reader) ([]string, error)) ([]string, error) {
	f, err := layout.Fs().Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parse(f)
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// SiteURL is the origin used for index URLs and link prefixes.
	SiteURL string

	// Concurrency bounds result-page fetches and downloads.
	Concurrency int

	// KeepIndex names audio files after their download-list row.
	KeepIndex bool

	// SkipExisting reuses cached pages and audio files that have content.
	SkipExisting bool

	// Progress receives per-stage progress. Nil means no progress output.
	Progress progress.Tracker

	// Logger is passed to the steps. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultPipelineOption configures DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineSiteURL sets the site origin.
func WithPipelineSiteURL(siteURL string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SiteURL = siteURL
	}
}

// WithPipelineConcurrency sets the fetch and download concurrency.
func WithPipelineConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Concurrency = n
	}
}

// WithPipelineKeepIndex enables source-row numbering of audio files.
func WithPipelineKeepIndex(keep bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.KeepIndex = keep
	}
}

// WithPipelineSkipExisting enables reuse of cached output.
func WithPipelineSkipExisting(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipExisting = skip
	}
}

// WithPipelineProgress sets the progress tracker.
func WithPipelineProgress(t progress.Tracker) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Progress = t
	}
}

// WithPipelineLogger sets the logger used inside steps.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates the scrape pipeline for one session:
// init folders, fetch indexes, parse indexes, fetch results, parse results,
// download.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineSiteURL, etc).
// pages fetches index and sound pages and must not carry the session
// cookies; downloads fetches audio files and should. Give both clients the
// same limiter (fetch.WithLimiter) so the rate limit spans the whole run.
func DefaultPipeline(pages, downloads *fetch.Client, layout *cache.Layout, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		SiteURL:     config.DefaultSiteURL,
		Concurrency: config.DefaultConcurrency,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}
	logger := orDefault(cfg.Logger)
	tracker := progress.OrNoop(cfg.Progress)

	crawlOpts := []crawler.Option{
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithSkipExisting(cfg.SkipExisting),
		crawler.WithLogger(logger),
		crawler.WithProgress(tracker),
	}

	downloader := download.New(downloads, layout,
		download.WithSourceNumbering(cfg.KeepIndex),
		download.WithConcurrency(cfg.Concurrency),
		download.WithSkipExisting(cfg.SkipExisting),
		download.WithLogger(logger),
		download.WithProgress(tracker),
	)

	p.AddSteps(
		NewInitFoldersStep(layout, logger),
		NewFetchIndexesStep(crawler.NewIndexFetcher(pages, layout, cfg.SiteURL, crawlOpts...)),
		NewParseIndexesStep(layout, cfg.SiteURL, logger),
		NewFetchResultsStep(layout, crawler.NewPageFetcher(pages, layout, crawlOpts...)),
		NewParseResultsStep(layout, cfg.SiteURL),
		NewDownloadStep(layout, downloader),
	)

	return p
}

// CachePipeline rebuilds sound_pages_urls.csv and download_urls.csv from
// pages already in the cache, without any network access. It runs with
// continue-on-error, so report.Error carries every parse failure.
func CachePipeline(layout *cache.Layout, origin string, logger *slog.Logger) *Pipeline {
	logger = orDefault(logger)

	p := New(WithLogger(logger), WithContinueOnError(true))
	p.AddStep(NewParseIndexesStep(layout, origin, logger))
	p.AddStep(NewParseResultsStep(layout, origin))
	return p
}
