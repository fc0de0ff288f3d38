package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandler_SanitizesSensitiveKeys tests that credential keys are masked.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{"csrftoken cookie name", "csrftoken", "abc123", true},
		{"sessionid cookie name", "sessionid", "xyz789", true},
		{"session file csrf key", "csrf", "abc123", true},
		{"session file session key", "session", "xyz789", true},
		{"uppercase Cookie header", "Cookie", "a=b", true},
		{"keyword inside key", "auth_csrf_value", "abc", true},
		{"url is kept", "url", "https://freesound.org/search/?q=rain", false},
		{"query is kept", "query", "rain", false},
		{"format is kept", "format", "wav", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))
			logger.Info("test", tt.key, tt.value)

			output := buf.String()
			masked := strings.Contains(output, MaskValue)
			if masked != tt.wantMask {
				t.Errorf("mask = %v, want %v (output: %s)", masked, tt.wantMask, output)
			}
			if tt.wantMask && strings.Contains(output, tt.value) {
				t.Errorf("expected value %q to be hidden, got %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandler_MasksCookieValues tests masking of cookie strings under innocuous keys.
func TestSecureHandler_MasksCookieValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))
	logger.Info("request", "header", "csrftoken=abc123; sessionid=xyz789")

	output := buf.String()
	if strings.Contains(output, "abc123") || strings.Contains(output, "xyz789") {
		t.Errorf("expected cookie values to be masked, got %s", output)
	}
	if !strings.Contains(output, "csrftoken=") || !strings.Contains(output, "sessionid=") {
		t.Errorf("expected cookie names to be kept, got %s", output)
	}
}

func TestSecureHandler_MasksMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))
	logger.Info("sent sessionid=topsecret")

	if strings.Contains(buf.String(), "topsecret") {
		t.Errorf("expected message to be masked, got %s", buf.String())
	}
}

// TestSecureHandler_Groups tests that grouped attributes are sanitized.
func TestSecureHandler_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))
	logger.Info("session", slog.Group("auth_info", slog.String("csrf", "abc123"), slog.String("query", "rain")))

	output := buf.String()
	if strings.Contains(output, "abc123") {
		t.Errorf("expected grouped csrf to be masked, got %s", output)
	}
	if !strings.Contains(output, "rain") {
		t.Errorf("expected grouped query to be kept, got %s", output)
	}
}

// TestSecureHandler_WithAttrs tests that attributes bound with With are sanitized.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil))).With("sessionid", "xyz789")
	logger.WithGroup("stage").Info("download", "n", 1)

	if strings.Contains(buf.String(), "xyz789") {
		t.Errorf("expected bound attribute to be masked, got %s", buf.String())
	}
}

// TestNewSecureLogger tests level selection.
func TestNewSecureLogger(t *testing.T) {
	t.Parallel()

	t.Run("non-verbose drops info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)
		logger.Info("hidden")
		logger.Warn("shown")

		if strings.Contains(buf.String(), "hidden") {
			t.Error("expected info to be dropped")
		}
		if !strings.Contains(buf.String(), "shown") {
			t.Error("expected warn to be logged")
		}
	})

	t.Run("verbose logs debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		logger.Debug("details")

		if !strings.Contains(buf.String(), "details") {
			t.Error("expected debug to be logged")
		}
	})

	t.Run("nil handler falls back to default", func(t *testing.T) {
		t.Parallel()

		if NewSecureHandler(nil).handler == nil {
			t.Error("expected fallback handler")
		}
	})
}
