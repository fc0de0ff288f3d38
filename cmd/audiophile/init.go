package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/audiophile/internal/config"
)

//go:embed templates/config.json
var sessionTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a session file template",
		Long: `Init writes a session file describing what to scrape.

Fields:
  query       search term or tag
  query_type  "search" or "tags"
  n_pages     number of listing pages to fetch
  formats     allowed file extensions, e.g. ["wav", "flac"]
  auth        csrf and session cookie values copied from a logged-in browser

Examples:
  # Create config.json in current directory
  audiophile init

  # Create the session file at a specific path
  audiophile init -o sessions/rain.json

  # Force overwrite existing file
  audiophile init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the session file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing session file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("session file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := sessionTemplate.ReadFile("templates/config.json")
	if err != nil {
		return fmt.Errorf("failed to read session template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file ends up holding session cookies, so only the owner may read it.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created session file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to set:")
	fmt.Fprintln(out, "  - the query and whether it is a search or a tag")
	fmt.Fprintln(out, "  - how many listing pages to fetch and which formats to keep")
	fmt.Fprintln(out, "  - the csrftoken and sessionid cookie values of your account")

	return nil
}
