package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nao1215/audiophile/internal/cache"
	"github.com/nao1215/audiophile/internal/config"
	"github.com/nao1215/audiophile/internal/model"
	"github.com/nao1215/audiophile/internal/pipeline"
)

// NewReparseCmd creates the reparse command.
func NewReparseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reparse",
		Short: "Rebuild the URL lists from cached pages",
		Long: `Reparse rebuilds sound_pages_urls.csv and download_urls.csv from the
pages a previous scrape left in <data-dir>/<query>/pages, without sending any
request. Both lists are attempted even if one of them fails; every failure is
reported.

Examples:
  # Rebuild the lists for the session in ./config.json
  audiophile reparse

  # Rebuild after fixing a page by hand
  audiophile reparse -c rain.json -d /srv/sounds`,
		Args: cobra.NoArgs,
		RunE: runReparseCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Session file (default: ./config.json, then the XDG config directory)")
	cmd.Flags().StringP("data-dir", "d", config.DefaultDataDir,
		"Directory holding one folder per query")
	cmd.Flags().String("site", config.DefaultSiteURL,
		"Origin prefixed to the extracted links")
	cmd.Flags().BoolP("json", "j", false,
		"Print the summary as JSON")

	return cmd
}

// runReparseCmd executes the reparse command.
func runReparseCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return err
	}
	if cfg.DataDir, err = flags.GetString("data-dir"); err != nil {
		return err
	}
	if cfg.SiteURL, err = flags.GetString("site"); err != nil {
		return err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	session, err := loadSession(cfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	layout := cache.NewLayout(afero.NewOsFs(), cfg.DataDir, session.Query)
	p := pipeline.CachePipeline(layout, cfg.SiteURL, logger)

	logger.Info("re-parsing cache", "base", layout.BaseDir, "steps", p.StepCount())

	sessionReport := model.NewSessionReport(session.Query, session.Type(), session.Pages, session.NormalizedFormats())
	sessionReport.BaseDir = layout.BaseDir
	if err := p.Execute(cmd.Context(), sessionReport); err != nil {
		return err
	}

	cfg.MarkdownReport = false
	if err := outputReport(cfg, layout, cmd.OutOrStdout(), sessionReport); err != nil {
		logger.Error("failed to write report", "error", err)
	}
	return sessionReport.Error
}
