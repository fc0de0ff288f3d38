package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/audiophile/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// The scrape command writes it to summary.md inside the session folder.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the session report in Markdown format.
func (w *MarkdownWriter) Write(report *model.SessionReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStages(md, report)
	w.writeAlert(md, report)
	w.writeFormats(md, report)
	w.writeArtifacts(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the session information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SessionReport) {
	md.H1("Audiophile Session: " + report.Query)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Query", "`" + report.Query + "`"},
			{"Query Type", report.QueryType.String()},
			{"Index Pages Requested", strconv.Itoa(report.Pages)},
			{"Formats", "`" + joinOrDash(report.Formats) + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// writeStages writes the per-stage counts.
func (w *MarkdownWriter) writeStages(md *markdown.Markdown, report *model.SessionReport) {
	md.H2("Stages")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Count"},
		Rows: [][]string{
			{"Index pages fetched", strconv.Itoa(report.IndexPages)},
			{"Result URLs found", strconv.Itoa(report.ResultURLs)},
			{"Result pages fetched", strconv.Itoa(report.ResultPages)},
			{"Download URLs found", strconv.Itoa(report.DownloadURLs)},
			{"Rejected by format", strconv.Itoa(report.Rejected)},
			{"**Files**", "**" + strconv.Itoa(len(report.Artifacts)) + "**"},
		},
	})
	md.PlainText("")
}

// writeAlert writes an alert matching the session outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.SessionReport) {
	switch {
	case !report.Succeeded():
		md.Cautionf("The session stopped early: %s", report.ErrorMessage)
	case len(report.Warnings) > 0:
		md.Warningf("The session finished with %d warning(s).", len(report.Warnings))
	case len(report.Artifacts) == 0:
		md.Importantf("No file matched the allowed formats (%s).", joinOrDash(report.Formats))
	default:
		md.Tip("All allowed files were downloaded.")
	}
	md.PlainText("")

	if len(report.Warnings) > 0 {
		md.BulletList(report.Warnings...)
		md.PlainText("")
	}
}

// writeFormats writes a mermaid pie chart of downloaded formats.
func (w *MarkdownWriter) writeFormats(md *markdown.Markdown, report *model.SessionReport) {
	counts := countFormats(report.Artifacts)
	if len(counts) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Files by Format"),
		piechart.WithShowData(true),
	)
	for _, fc := range counts {
		chart.LabelAndIntValue(fc.format, uint64(fc.count))
	}

	md.H2("Formats")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeArtifacts writes one table row per file.
func (w *MarkdownWriter) writeArtifacts(md *markdown.Markdown, report *model.SessionReport) {
	if len(report.Artifacts) == 0 {
		return
	}

	md.H2("Files")
	md.PlainText("")

	rows := make([][]string, len(report.Artifacts))
	for i, a := range report.Artifacts {
		status := "downloaded"
		if a.Skipped {
			status = "kept"
		}
		rows[i] = []string{
			strconv.Itoa(a.Number),
			strconv.Itoa(a.SourceRow),
			"`" + a.Path + "`",
			bytesText(a.Size),
			status,
			truncateString(a.SHA256, 12),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Row", "File", "Size", "Status", "SHA-256"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("Total: %s", bytesText(report.TotalBytes()))
	md.PlainText("")
}

// WriteHistory outputs stored history in Markdown format.
func (w *MarkdownWriter) WriteHistory(history *History) (int, error) {
	md := markdown.NewMarkdown(w.output)

	if history.Query == "" {
		md.H1("Audiophile History")
		md.PlainText("")

		rows := make([][]string, len(history.Queries))
		for i, q := range history.Queries {
			rows[i] = []string{
				"`" + q.Query + "`",
				strconv.Itoa(q.Sessions),
				strconv.Itoa(q.Artifacts),
				q.LastRun.Format("2006-01-02 15:04:05 MST"),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Query", "Sessions", "Files", "Last Run"},
			Rows:   rows,
		})
	} else {
		md.H1("Audiophile History: " + history.Query)
		md.PlainText("")

		rows := make([][]string, len(history.Artifacts))
		for i, a := range history.Artifacts {
			rows[i] = []string{
				strconv.FormatInt(a.SessionID, 10),
				"`" + a.Path + "`",
				a.Format,
				bytesText(a.Size),
				a.URL,
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Session", "File", "Format", "Size", "URL"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [audiophile](https://github.com/nao1215/audiophile)*")
}

// joinOrDash joins items with ", " or returns "-" for none.
func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	s := items[0]
	for _, item := range items[1:] {
		s += ", " + item
	}
	return s
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
