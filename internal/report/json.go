package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/audiophile/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because the reports are small and the model types already
// carry json tags.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps a session report with output-only metadata.
type JSONReport struct {
	// Report is the session report.
	Report *model.SessionReport `json:"report"`

	// Downloaded is the number of files fetched in this session.
	Downloaded int `json:"downloaded"`

	// TotalBytes is the combined size of all files.
	TotalBytes int64 `json:"total_bytes"`
}

// Write outputs the session report as JSON.
func (w *JSONWriter) Write(report *model.SessionReport) (int, error) {
	return w.writeJSON(&JSONReport{
		Report:     report,
		Downloaded: report.Downloaded(),
		TotalBytes: report.TotalBytes(),
	})
}

// WriteHistory outputs stored history as JSON.
func (w *JSONWriter) WriteHistory(history *History) (int, error) {
	return w.writeJSON(history)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
