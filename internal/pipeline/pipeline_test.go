package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/audiophile/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, report *model.SessionReport) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, report *model.SessionReport) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, report)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newTestReport() *model.SessionReport {
	return model.NewSessionReport("piano", model.QueryTypeSearch, 1, []string{"wav"})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "step-1"})
	p.AddSteps(&mockStep{name: "step-2"}, &mockStep{name: "step-3"})

	if p.StepCount() != 3 {
		t.Errorf("expected 3 steps, got %d", p.StepCount())
	}
	if got := strings.Join(p.StepNames(), ","); got != "step-1,step-2,step-3" {
		t.Errorf("unexpected step order %q", got)
	}
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *model.SessionReport) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New(WithLogger(quietLogger()))
		p.AddSteps(record("a"), record("b"), record("c"))

		report := newTestReport()
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Join(order, "") != "abc" {
			t.Errorf("expected order abc, got %v", order)
		}
		if strings.Join(report.PerformedSteps, "") != "abc" {
			t.Errorf("expected performed steps abc, got %v", report.PerformedSteps)
		}
		if report.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
		if !report.Succeeded() {
			t.Error("expected report to succeed")
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		failing := &mockStep{name: "failing", doFunc: func(context.Context, *model.SessionReport) error {
			return boom
		}}
		after := &mockStep{name: "after"}

		p := New(WithLogger(quietLogger()))
		p.AddSteps(&mockStep{name: "first"}, failing, after)

		report := newTestReport()
		err := p.Execute(context.Background(), report)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("expected step after failure not to run")
		}
		if !errors.Is(report.Error, boom) || report.ErrorMessage != "boom" {
			t.Errorf("expected error recorded in report, got %v / %q", report.Error, report.ErrorMessage)
		}
		if len(report.PerformedSteps) != 1 {
			t.Errorf("expected 1 performed step, got %v", report.PerformedSteps)
		}
		if report.Succeeded() {
			t.Error("expected report to fail")
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{name: "failing", doFunc: func(context.Context, *model.SessionReport) error {
			return errors.New("boom")
		}}
		after := &mockStep{name: "after"}

		p := New(WithLogger(quietLogger()), WithContinueOnError(true))
		p.AddSteps(failing, after)

		report := newTestReport()
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if after.callCount != 1 {
			t.Error("expected step after failure to run")
		}
		if report.ErrorMessage != "boom" {
			t.Errorf("expected error recorded, got %q", report.ErrorMessage)
		}
	})

	t.Run("continue on error joins every failure", func(t *testing.T) {
		t.Parallel()

		first := errors.New("first")
		second := errors.New("second")
		p := New(WithLogger(quietLogger()), WithContinueOnError(true))
		p.AddStep(&mockStep{name: "a", doFunc: func(context.Context, *model.SessionReport) error { return first }})
		p.AddStep(&mockStep{name: "b", doFunc: func(context.Context, *model.SessionReport) error { return second }})

		report := newTestReport()
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(report.Error, first) || !errors.Is(report.Error, second) {
			t.Errorf("expected both failures in report, got %v", report.Error)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		first := &mockStep{name: "first", doFunc: func(context.Context, *model.SessionReport) error {
			cancel()
			return nil
		}}
		second := &mockStep{name: "second"}

		p := New(WithLogger(quietLogger()))
		p.AddSteps(first, second)

		report := newTestReport()
		err := p.Execute(ctx, report)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if second.callCount != 0 {
			t.Error("expected second step not to run")
		}
		if !errors.Is(report.Error, context.Canceled) {
			t.Errorf("expected cancellation recorded, got %v", report.Error)
		}
	})
}

// TestPipelineWithLogger tests logging during execution.
func TestPipelineWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := New(WithLogger(logger))
	p.AddStep(&mockStep{name: "logged-step"})

	if err := p.Execute(context.Background(), newTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "logged-step") || !strings.Contains(out, "query=piano") {
		t.Errorf("expected step and query in log output, got %q", out)
	}
}
