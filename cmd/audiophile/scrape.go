package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nao1215/audiophile/internal/cache"
	"github.com/nao1215/audiophile/internal/config"
	"github.com/nao1215/audiophile/internal/database"
	"github.com/nao1215/audiophile/internal/fetch"
	"github.com/nao1215/audiophile/internal/log"
	"github.com/nao1215/audiophile/internal/model"
	"github.com/nao1215/audiophile/internal/pipeline"
	"github.com/nao1215/audiophile/internal/progress"
	"github.com/nao1215/audiophile/internal/report"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch listings, sound pages and audio files for a query",
		Long: `Scrape runs the whole session described by the session file:

  1. create <data-dir>/<query>/ with pages/indexes, pages/results and audio
  2. fetch n_pages listing pages into pages/indexes/index_{n}.html
  3. collect the sound page links into sound_pages_urls.csv
  4. fetch every sound page into pages/results/sound_page_{n}.html
  5. collect the download links into download_urls.csv
  6. download the files whose format is allowed into audio/sound{n}.{ext}

The first failing stage stops the run. The download stage sends the csrftoken
and sessionid cookies from the session file's auth section.

Examples:
  # Use ./config.json
  audiophile scrape

  # Use a specific session file and keep everything under /srv/sounds
  audiophile scrape -c rain.json -d /srv/sounds

  # Four downloads at a time, skipping files that already exist
  audiophile scrape -n 4 --skip-existing

  # Name files after their row in download_urls.csv
  audiophile scrape --keep-index

  # Print the summary as JSON and also write summary.md
  audiophile scrape --json --markdown`,
		Args: cobra.NoArgs,
		RunE: runScrapeCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Session file (default: ./config.json, then the XDG config directory)")
	cmd.Flags().StringP("data-dir", "d", config.DefaultDataDir,
		"Directory holding one folder per query")
	cmd.Flags().String("site", config.DefaultSiteURL,
		"Origin of the audio-sharing site")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum delay between requests (0 disables rate limiting)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of sound pages or files fetched at the same time")
	cmd.Flags().Bool("keep-index", false,
		"Name audio files after their row in download_urls.csv")
	cmd.Flags().Bool("skip-existing", false,
		"Skip pages and files that were already fetched")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Bool("no-progress", false,
		"Disable progress bars")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write summary.md into the session folder")
	cmd.Flags().BoolP("json", "j", false,
		"Print the summary as JSON")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the download manifest (empty disables it)")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScrape(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig collects the scrape flags into a config.Config.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.DataDir, err = flags.GetString("data-dir"); err != nil {
		return nil, err
	}
	if cfg.SiteURL, err = flags.GetString("site"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.KeepIndex, err = flags.GetBool("keep-index"); err != nil {
		return nil, err
	}
	if cfg.SkipExisting, err = flags.GetBool("skip-existing"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}

	noProgress, err := flags.GetBool("no-progress")
	if err != nil {
		return nil, err
	}
	cfg.Progress = !noProgress

	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Cookie values never reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// loadSession resolves, loads and validates the session file.
func loadSession(cfg *config.Config) (*config.Session, error) {
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil, fmt.Errorf("%w (run 'audiophile init' to create %s)", config.ErrConfigNotFound, config.DefaultConfigFile)
	}

	session, err := config.LoadSessionFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load session file %s: %w", path, err)
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", path, err)
	}
	return session, nil
}

// runScrape runs the pipeline for one session and reports the outcome.
// The pipeline error, if any, is returned after the report was written.
func runScrape(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	session, err := loadSession(cfg)
	if err != nil {
		return err
	}

	layout := cache.NewLayout(afero.NewOsFs(), cfg.DataDir, session.Query)

	pages, downloads := newClients(cfg, session, logger)

	var tracker progress.Tracker = progress.Noop{}
	if cfg.Progress {
		tracker = progress.NewBar(stderr)
	}

	p := pipeline.DefaultPipeline(pages, downloads, layout,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithPipelineSiteURL(cfg.SiteURL),
		pipeline.WithPipelineConcurrency(cfg.Concurrency),
		pipeline.WithPipelineKeepIndex(cfg.KeepIndex),
		pipeline.WithPipelineSkipExisting(cfg.SkipExisting),
		pipeline.WithPipelineProgress(tracker),
		pipeline.WithPipelineLogger(logger),
	)

	logger.Info("starting scrape",
		"query", session.Query,
		"type", session.Type(),
		"pages", session.Pages,
		"formats", session.NormalizedFormats(),
		"base", layout.BaseDir,
		"steps", p.StepCount(),
	)

	sessionReport := model.NewSessionReport(session.Query, session.Type(), session.Pages, session.NormalizedFormats())
	sessionReport.BaseDir = layout.BaseDir

	runErr := p.Execute(ctx, sessionReport)

	if cfg.DBDir != "" {
		if err := saveSessionReport(ctx, cfg.DBDir, sessionReport, logger); err != nil {
			logger.Error("failed to save session to manifest", "error", err)
		}
	}

	if err := outputReport(cfg, layout, stdout, sessionReport); err != nil {
		logger.Error("failed to write report", "error", err)
	}

	return runErr
}

// newClients builds the page client and the download client. Only the
// download client carries the session cookies; both wait on one limiter, so
// --delay spaces every request of the run.
func newClients(cfg *config.Config, session *config.Session, logger *slog.Logger) (*fetch.Client, *fetch.Client) {
	opts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxPageSize(cfg.MaxPageSize),
		fetch.WithLimiter(fetch.NewLimiter(cfg.Delay)),
	}
	pages := fetch.NewClient(cfg.Timeout, opts...)

	if session.Auth.Empty() {
		logger.Warn("no auth cookies configured, downloads may be refused")
		return pages, fetch.NewClient(cfg.Timeout, opts...)
	}
	opts = append(opts, fetch.WithCookies(cfg.SiteURL, fetch.AuthCookies(session.Auth.CSRF, session.Auth.Session)...))
	return pages, fetch.NewClient(cfg.Timeout, opts...)
}

// outputReport prints the summary to stdout and, with --markdown, also
// writes summary.md into the session folder.
func outputReport(cfg *config.Config, layout *cache.Layout, stdout io.Writer, sessionReport *model.SessionReport) error {
	var console report.Writer
	if cfg.JSONReport {
		console = report.NewJSONWriter(stdout, report.WithPrettyPrint())
	} else {
		console = report.NewTextWriter(stdout, report.WithVerbose(cfg.Verbose))
	}

	if !cfg.MarkdownReport {
		_, err := console.Write(sessionReport)
		return err
	}

	f, err := layout.Fs().OpenFile(layout.SummaryFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		// Still show the summary on the terminal.
		if _, werr := console.Write(sessionReport); werr != nil {
			return errors.Join(err, werr)
		}
		return fmt.Errorf("failed to create %s: %w", layout.SummaryFile, err)
	}
	defer f.Close()

	_, err = report.NewMultiWriter(console, report.NewMarkdownWriter(f)).Write(sessionReport)
	return err
}

// saveSessionReport records the session and its artifacts in the manifest.
func saveSessionReport(ctx context.Context, dbDir string, sessionReport *model.SessionReport, logger *slog.Logger) error {
	manifest, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer manifest.Close()

	// The run context may already be cancelled; the record is still wanted.
	id, err := manifest.SaveSession(context.WithoutCancel(ctx), sessionReport)
	if err != nil {
		return err
	}
	logger.Debug("session saved", "id", id, "path", manifest.Path())
	return nil
}
