package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/audiophile/internal/config"
	"github.com/nao1215/audiophile/internal/database"
	"github.com/nao1215/audiophile/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "Show what earlier scrape runs downloaded",
		Long: `History reads the download manifest written by scrape.

Without a query it lists every scraped query with its number of sessions and
files. With a query it lists the files downloaded for that query, newest
session first.

Examples:
  # List all queries
  audiophile history

  # List the files downloaded for "rain"
  audiophile history rain

  # Show the summary of the last "rain" session
  audiophile history rain --latest

  # Markdown output for pasting into an issue
  audiophile history rain --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("markdown", "m", false, "Output in Markdown format")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().Bool("latest", false, "Show the summary of the most recent session of the query")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the download manifest")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if markdownOut && jsonOut {
		return errors.New("--markdown and --json are mutually exclusive")
	}

	var query string
	if len(args) == 1 {
		query = args[0]
	}
	if latest && query == "" {
		return errors.New("--latest requires a query")
	}

	out := cmd.OutOrStdout()
	writer := historyWriter(out, markdownOut, jsonOut, getVerboseFlag(cmd))

	// No manifest yet means nothing was recorded.
	if _, err := os.Stat(filepath.Join(dbDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		if latest {
			return fmt.Errorf("no session recorded for %q", query)
		}
		_, err := writer.WriteHistory(&report.History{Query: query})
		return err
	}

	manifest, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return err
	}
	defer manifest.Close()

	ctx := cmd.Context()

	if latest {
		sessionReport, err := manifest.LatestSession(ctx, query)
		if err != nil {
			return err
		}
		if sessionReport == nil {
			return fmt.Errorf("no session recorded for %q", query)
		}
		_, err = writer.Write(sessionReport)
		return err
	}

	history := &report.History{Query: query}
	if query == "" {
		if history.Queries, err = manifest.ListQueries(ctx); err != nil {
			return err
		}
	} else {
		if history.Artifacts, err = manifest.ListArtifacts(ctx, query); err != nil {
			return err
		}
	}

	_, err = writer.WriteHistory(history)
	return err
}

func historyWriter(out io.Writer, markdownOut, jsonOut, verbose bool) report.Writer {
	switch {
	case markdownOut:
		return report.NewMarkdownWriter(out)
	case jsonOut:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	default:
		return report.NewTextWriter(out, report.WithVerbose(verbose))
	}
}
