package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/audiophile/internal/database"
	"github.com/nao1215/audiophile/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.SessionReport {
	report := model.NewSessionReport("rain", model.QueryTypeSearch, 2, []string{"wav", "flac"})
	report.BaseDir = "data/rain"
	report.StartedAt = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	report.FinishedAt = report.StartedAt.Add(90 * time.Second)
	report.IndexPages = 2
	report.ResultURLs = 30
	report.ResultPages = 30
	report.DownloadURLs = 30
	report.Rejected = 27
	report.Artifacts = []model.Artifact{
		{Number: 1, SourceRow: 4, URL: "https://freesound.org/4.wav", Format: "wav", Path: "data/rain/audio/sound1.wav", Size: 2048, SHA256: "0123456789abcdef"},
		{Number: 2, SourceRow: 9, URL: "https://freesound.org/9.wav", Format: "wav", Path: "data/rain/audio/sound2.wav", Size: 1024, SHA256: "fedcba9876543210", Skipped: true},
		{Number: 3, SourceRow: 20, URL: "https://freesound.org/20.flac", Format: "flac", Path: "data/rain/audio/sound3.flac", Size: 4096, SHA256: "00ff00ff00ff00ff"},
	}
	return report
}

func createTestHistory() *History {
	return &History{
		Queries: []database.QuerySummary{
			{Query: "rain", Sessions: 2, Artifacts: 3, LastRun: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)},
			{Query: "wind", Sessions: 1, Artifacts: 0, LastRun: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)},
		},
	}
}

// TestTextWriter tests the human-readable report writer.
func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes stage counts and totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"rain", "search", "Result URLs:    30", "Rejected:       27", "3 (2 downloaded", "Complete", "wav", "flac"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
		if strings.Contains(output, "sound1.wav") {
			t.Error("expected artifacts to be listed only in verbose mode")
		}
	})

	t.Run("verbose lists artifacts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[+] data/rain/audio/sound1.wav <- row 4") {
			t.Errorf("expected downloaded artifact line:\n%s", output)
		}
		if !strings.Contains(output, "[=] data/rain/audio/sound2.wav") {
			t.Errorf("expected kept artifact line:\n%s", output)
		}
	})

	t.Run("error and warnings", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Error = errors.New("boom")
		report.ErrorMessage = "boom"
		report.AddWarning("couldn't create folder data/rain")

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Error - boom") || !strings.Contains(output, "warning: couldn't create folder") {
			t.Errorf("expected error and warning:\n%s", output)
		}
	})

	t.Run("history of all queries", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "rain") || !strings.Contains(output, "wind") {
			t.Errorf("expected both queries:\n%s", output)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteHistory(&History{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No sessions recorded yet") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("history of one query", func(t *testing.T) {
		t.Parallel()

		history := &History{
			Query: "rain",
			Artifacts: []database.ArtifactRecord{
				{Artifact: model.Artifact{Path: "data/rain/audio/sound1.wav", URL: "https://freesound.org/4.wav", Size: 2048}, SessionID: 7},
			},
		}

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteHistory(history); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, `"rain": 1`) || !strings.Contains(output, "#7") || !strings.Contains(output, "2.0 kB") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})
}

// TestMarkdownWriter tests Markdown output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes session summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected bytes written")
		}

		output := buf.String()
		for _, want := range []string{
			"# Audiophile Session: rain",
			"## Stages",
			"## Formats",
			"mermaid",
			"## Files",
			"sound3.flac",
			"[!TIP]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected markdown to contain %q", want)
			}
		}
	})

	t.Run("alerts on failure", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.ErrorMessage = "failed to download audio"

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!CAUTION]") {
			t.Error("expected caution alert")
		}
	})

	t.Run("no files", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Artifacts = nil

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!IMPORTANT]") {
			t.Error("expected important alert")
		}
		if strings.Contains(output, "## Files") {
			t.Error("expected no files section")
		}
	})

	t.Run("writes history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "# Audiophile History") || !strings.Contains(output, "`wind`") {
			t.Errorf("unexpected history:\n%s", output)
		}
	})
}

// TestJSONWriter tests JSON output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Report.Query != "rain" || decoded.Downloaded != 2 || decoded.TotalBytes != 7168 {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})

	t.Run("compact history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteHistory(createTestHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"sessions":2`) {
			t.Errorf("unexpected JSON %s", buf.String())
		}
	})
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, md bytes.Buffer
	w := NewMultiWriter(NewTextWriter(&text), NewMarkdownWriter(&md))

	n, err := w.Write(createTestReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text.Len() == 0 || md.Len() == 0 {
		t.Error("expected both writers to receive the report")
	}
	if n < text.Len() {
		t.Errorf("expected total bytes >= text bytes, got %d", n)
	}

	if _, err := w.WriteHistory(createTestHistory()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestCountFormats tests format grouping.
func TestCountFormats(t *testing.T) {
	t.Parallel()

	counts := countFormats(createTestReport().Artifacts)
	if len(counts) != 2 || counts[0].format != "wav" || counts[0].count != 2 || counts[1].format != "flac" {
		t.Errorf("unexpected counts %+v", counts)
	}
}
