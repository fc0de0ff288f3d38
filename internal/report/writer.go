package report

import (
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/audiophile/internal/database"
	"github.com/nao1215/audiophile/internal/model"
)

// Writer defines the interface for report output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the same API.
type Writer interface {
	// Write outputs a session report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.SessionReport) (int, error)

	// WriteHistory outputs stored download history.
	WriteHistory(history *History) (int, error)
}

// History is what the history command shows: either every query, or the
// artifacts of one query.
type History struct {
	// Query is the query the artifacts belong to; empty lists all queries.
	Query string `json:"query,omitempty"`

	// Queries summarizes every stored query.
	Queries []database.QuerySummary `json:"queries,omitempty"`

	// Artifacts are the stored files of Query.
	Artifacts []database.ArtifactRecord `json:"artifacts,omitempty"`
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.SessionReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the history to all configured Writers.
func (m *MultiWriter) WriteHistory(history *History) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(history)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// formatCount is the number of artifacts per format.
type formatCount struct {
	format string
	count  int
}

// countFormats groups artifacts by format, most common first.
func countFormats(artifacts []model.Artifact) []formatCount {
	counts := make(map[string]int)
	for _, a := range artifacts {
		counts[a.Format]++
	}

	result := make([]formatCount, 0, len(counts))
	for f, c := range counts {
		result = append(result, formatCount{format: f, count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].count != result[j].count {
			return result[i].count > result[j].count
		}
		return result[i].format < result[j].format
	})
	return result
}

// bytesText renders a byte count for humans.
func bytesText(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// statusText returns a one-line outcome of the session.
func statusText(report *model.SessionReport) string {
	if !report.Succeeded() {
		return "Error - " + report.ErrorMessage
	}
	return "Complete"
}
