package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/audiophile/internal/model"
)

// TextWriter outputs human-readable text reports.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to files.
type TextWriter struct {
	baseWriter

	// verbose lists every artifact instead of only the totals.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables per-artifact output.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the session report in human-readable format.
func (w *TextWriter) Write(report *model.SessionReport) (int, error) {
	var sb strings.Builder

	rule(&sb, "=")
	fmt.Fprintf(&sb, "Query:      %s (%s, %d page(s))\n", report.Query, report.QueryType, report.Pages)
	fmt.Fprintf(&sb, "Folder:     %s\n", report.BaseDir)
	fmt.Fprintf(&sb, "Formats:    %s\n", strings.Join(report.Formats, ", "))
	fmt.Fprintf(&sb, "Duration:   %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "Status:     %s\n", statusText(report))
	rule(&sb, "-")

	fmt.Fprintf(&sb, "  Index pages:    %d\n", report.IndexPages)
	fmt.Fprintf(&sb, "  Result URLs:    %d\n", report.ResultURLs)
	fmt.Fprintf(&sb, "  Result pages:   %d\n", report.ResultPages)
	fmt.Fprintf(&sb, "  Download URLs:  %d\n", report.DownloadURLs)
	fmt.Fprintf(&sb, "  Rejected:       %d\n", report.Rejected)
	fmt.Fprintf(&sb, "  Files:          %d (%d downloaded, %s)\n",
		len(report.Artifacts), report.Downloaded(), bytesText(report.TotalBytes()))

	for _, fc := range countFormats(report.Artifacts) {
		fmt.Fprintf(&sb, "    %-6s %d\n", fc.format, fc.count)
	}

	if w.verbose && len(report.Artifacts) > 0 {
		rule(&sb, "-")
		for _, a := range report.Artifacts {
			marker := "+"
			if a.Skipped {
				marker = "="
			}
			fmt.Fprintf(&sb, "  [%s] %s <- row %d %s\n", marker, a.Path, a.SourceRow, a.URL)
		}
	}

	for _, warning := range report.Warnings {
		fmt.Fprintf(&sb, "  warning: %s\n", warning)
	}
	rule(&sb, "=")

	return io.WriteString(w.output, sb.String())
}

// WriteHistory outputs stored history in human-readable format.
func (w *TextWriter) WriteHistory(history *History) (int, error) {
	var sb strings.Builder

	if history.Query == "" {
		if len(history.Queries) == 0 {
			sb.WriteString("No sessions recorded yet.\n")
		}
		for _, q := range history.Queries {
			fmt.Fprintf(&sb, "%-30s %3d session(s) %5d file(s)  last run %s\n",
				q.Query, q.Sessions, q.Artifacts, q.LastRun.Local().Format("2006-01-02 15:04"))
		}
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "Files downloaded for %q: %d\n", history.Query, len(history.Artifacts))
	for _, a := range history.Artifacts {
		fmt.Fprintf(&sb, "  #%-5d %-40s %8s  %s\n", a.SessionID, a.Path, bytesText(a.Size), a.URL)
	}
	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, char string) {
	sb.WriteString(strings.Repeat(char, 70))
	sb.WriteString("\n")
}
