package model

import (
	"testing"
	"time"
)

// TestNewTargets verifies that rows are 1-based and follow list order.
func TestNewTargets(t *testing.T) {
	t.Parallel()

	targets := NewTargets([]string{"https://a/1", "https://a/2", "https://a/3"})
	if len(targets) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(targets))
	}
	for i, target := range targets {
		if target.Row != i+1 {
			t.Errorf("target %d: expected row %d, got %d", i, i+1, target.Row)
		}
	}
	if targets[2].URL != "https://a/3" {
		t.Errorf("expected last URL https://a/3, got %q", targets[2].URL)
	}
}

// TestSessionReport tests the helper methods of SessionReport.
func TestSessionReport(t *testing.T) {
	t.Parallel()

	t.Run("new report is initialized", func(t *testing.T) {
		t.Parallel()

		r := NewSessionReport("rain", QueryTypeSearch, 2, []string{"wav"})
		if r.Artifacts == nil || r.PerformedSteps == nil {
			t.Error("expected slices to be initialized")
		}
		if r.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
		if !r.Succeeded() {
			t.Error("expected new report to be successful")
		}
		if r.Duration() != 0 {
			t.Errorf("expected zero duration before finish, got %v", r.Duration())
		}
	})

	t.Run("counts downloads and bytes", func(t *testing.T) {
		t.Parallel()

		r := NewSessionReport("rain", QueryTypeSearch, 1, nil)
		r.Artifacts = []Artifact{
			{Number: 1, Size: 10},
			{Number: 2, Size: 20, Skipped: true},
			{Number: 3, Size: 5},
		}
		if r.Downloaded() != 2 {
			t.Errorf("expected 2 downloaded, got %d", r.Downloaded())
		}
		if r.TotalBytes() != 35 {
			t.Errorf("expected 35 bytes, got %d", r.TotalBytes())
		}
	})

	t.Run("error message marks failure", func(t *testing.T) {
		t.Parallel()

		r := NewSessionReport("rain", QueryTypeTags, 1, nil)
		r.ErrorMessage = "boom"
		if r.Succeeded() {
			t.Error("expected failed report")
		}
	})

	t.Run("duration after finish", func(t *testing.T) {
		t.Parallel()

		r := NewSessionReport("rain", QueryTypeTags, 1, nil)
		r.FinishedAt = r.StartedAt.Add(3 * time.Second)
		if r.Duration() != 3*time.Second {
			t.Errorf("expected 3s, got %v", r.Duration())
		}
	})
}
