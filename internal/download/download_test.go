package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/nao1215/audiophile/internal/cache"
	"github.com/nao1215/audiophile/internal/fetch"
	"github.com/nao1215/audiophile/internal/model"
)

// fakeClient writes the URL itself as the file body.
type fakeClient struct {
	mu   sync.Mutex
	urls []string
	fail map[string]error
}

func (c *fakeClient) Download(_ context.Context, rawURL string, w io.Writer) (int64, error) {
	c.mu.Lock()
	c.urls = append(c.urls, rawURL)
	err := c.fail[rawURL]
	c.mu.Unlock()

	if err != nil {
		return 0, err
	}
	n, werr := io.WriteString(w, rawURL)
	return int64(n), werr
}

func newTestLayout(t *testing.T) *cache.Layout {
	t.Helper()

	layout := cache.NewLayout(afero.NewMemMapFs(), "data", "piano")
	if err := layout.Init(); err != nil {
		t.Fatalf("failed to init layout: %v", err)
	}
	return layout
}

func sum(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// TestFormatOf tests format derivation.
func TestFormatOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://freesound.org/s/1/download/1__a.wav", "wav"},
		{"https://freesound.org/s/1/download/1__a.MP3", "mp3"},
		{"https://freesound.org/s/1/download/a.b.flac?x=1#y", "flac"},
		{"https://freesound.org/s/1/download/", ""},
		{"https://freesound.org/s/1/download/noext", ""},
		{"https://cdn.example.org/dir.v2/noext", ""},
		{"https://freesound.org/s/1/trailing.", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			if got := FormatOf(tt.url); got != tt.want {
				t.Errorf("FormatOf(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

// TestPlan tests format filtering and numbering.
func TestPlan(t *testing.T) {
	t.Parallel()

	targets := model.NewTargets([]string{
		"https://freesound.org/a.wav",
		"https://freesound.org/b.mp3",
		"https://freesound.org/c.wav",
		"https://freesound.org/d",
		"https://freesound.org/e.WAV",
	})

	t.Run("dense numbering", func(t *testing.T) {
		t.Parallel()

		layout := newTestLayout(t)
		planned, rejected := New(&fakeClient{}, layout).Plan(targets, []string{"wav"})

		if len(planned) != 3 {
			t.Fatalf("expected 3 accepted, got %d", len(planned))
		}
		if len(rejected) != 2 || rejected[0].Row != 2 || rejected[1].Row != 4 {
			t.Errorf("unexpected rejected %+v", rejected)
		}
		wantRows := []int{1, 3, 5}
		for i, a := range planned {
			if a.Number != i+1 {
				t.Errorf("artifact %d: expected number %d, got %d", i, i+1, a.Number)
			}
			if a.SourceRow != wantRows[i] {
				t.Errorf("artifact %d: expected row %d, got %d", i, wantRows[i], a.SourceRow)
			}
			if a.Path != layout.AudioPath(i+1, "wav") {
				t.Errorf("artifact %d: unexpected path %q", i, a.Path)
			}
		}
	})

	t.Run("source numbering", func(t *testing.T) {
		t.Parallel()

		planned, _ := New(&fakeClient{}, newTestLayout(t), WithSourceNumbering(true)).Plan(targets, []string{"wav"})
		wantNumbers := []int{1, 3, 5}
		for i, a := range planned {
			if a.Number != wantNumbers[i] {
				t.Errorf("artifact %d: expected number %d, got %d", i, wantNumbers[i], a.Number)
			}
		}
	})

	t.Run("formats are normalized", func(t *testing.T) {
		t.Parallel()

		planned, _ := New(&fakeClient{}, newTestLayout(t)).Plan(targets, []string{".MP3", " wav "})
		if len(planned) != 4 {
			t.Errorf("expected 4 accepted, got %d", len(planned))
		}
	})
}

// TestDownload tests downloading accepted targets.
func TestDownload(t *testing.T) {
	t.Parallel()

	urls := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		ext := "wav"
		if i%3 == 0 {
			ext = "ogg"
		}
		urls = append(urls, fmt.Sprintf("https://freesound.org/s/%d/sound.%s", i, ext))
	}
	targets := model.NewTargets(urls)

	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("accepted files numbered 1..j with concurrency %d", concurrency), func(t *testing.T) {
			t.Parallel()

			layout := newTestLayout(t)
			client := &fakeClient{}
			artifacts, rejected, err := New(client, layout, WithConcurrency(concurrency)).
				Download(context.Background(), targets, []string{"wav"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(artifacts) != 7 || len(rejected) != 3 {
				t.Fatalf("expected 7 artifacts and 3 rejected, got %d and %d", len(artifacts), len(rejected))
			}
			if len(client.urls) != 7 {
				t.Errorf("expected 7 requests, got %d", len(client.urls))
			}

			files, err := afero.ReadDir(layout.Fs(), layout.AudioDir)
			if err != nil {
				t.Fatal(err)
			}
			if len(files) != 7 {
				t.Errorf("expected 7 files, got %d", len(files))
			}

			for i, a := range artifacts {
				if a.Number != i+1 {
					t.Errorf("artifact %d: expected number %d, got %d", i, i+1, a.Number)
				}
				body, err := afero.ReadFile(layout.Fs(), layout.AudioPath(i+1, "wav"))
				if err != nil {
					t.Fatalf("missing sound%d.wav: %v", i+1, err)
				}
				if string(body) != a.URL {
					t.Errorf("sound%d.wav: expected body %q, got %q", i+1, a.URL, body)
				}
				if a.Size != int64(len(a.URL)) || a.SHA256 != sum(a.URL) {
					t.Errorf("artifact %d: unexpected size/checksum %d %s", i, a.Size, a.SHA256)
				}
			}
		})
	}

	t.Run("empty allow-list", func(t *testing.T) {
		t.Parallel()

		_, _, err := New(&fakeClient{}, newTestLayout(t)).Download(context.Background(), targets, []string{" "})
		if !errors.Is(err, ErrNoFormats) {
			t.Errorf("expected ErrNoFormats, got %v", err)
		}
	})

	t.Run("nothing accepted", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{}
		artifacts, rejected, err := New(client, newTestLayout(t)).Download(context.Background(), targets, []string{"flac"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(artifacts) != 0 || len(rejected) != 10 || len(client.urls) != 0 {
			t.Errorf("expected nothing downloaded, got %d artifacts, %d rejected, %d requests",
				len(artifacts), len(rejected), len(client.urls))
		}
	})

	t.Run("failure leaves no partial file", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		layout := newTestLayout(t)
		client := &fakeClient{fail: map[string]error{urls[1]: boom}}

		artifacts, _, err := New(client, layout).Download(context.Background(), targets, []string{"wav"})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if len(artifacts) != 1 {
			t.Errorf("expected 1 finished artifact, got %d", len(artifacts))
		}
		if exists, _ := afero.Exists(layout.Fs(), layout.AudioPath(2, "wav")+partSuffix); exists {
			t.Error("partial file was left behind")
		}
		if exists, _ := afero.Exists(layout.Fs(), layout.AudioPath(2, "wav")); exists {
			t.Error("failed file was created")
		}
	})

	t.Run("skip existing", func(t *testing.T) {
		t.Parallel()

		layout := newTestLayout(t)
		if err := afero.WriteFile(layout.Fs(), layout.AudioPath(1, "wav"), []byte("kept"), 0644); err != nil {
			t.Fatal(err)
		}

		client := &fakeClient{}
		artifacts, _, err := New(client, layout, WithSkipExisting(true)).
			Download(context.Background(), targets[:2], []string{"wav"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(artifacts) != 2 {
			t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
		}
		if !artifacts[0].Skipped || artifacts[0].SHA256 != sum("kept") || artifacts[0].Size != 4 {
			t.Errorf("unexpected skipped artifact %+v", artifacts[0])
		}
		if artifacts[1].Skipped {
			t.Error("second artifact should have been downloaded")
		}
		if len(client.urls) != 1 {
			t.Errorf("expected 1 request, got %d", len(client.urls))
		}
	})
}

// TestDownloadSendsCookies checks that every accepted request carries both
// auth cookies through the real HTTP client.
func TestDownloadSendsCookies(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		paths   []string
		missing []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		paths = append(paths, r.URL.Path)
		csrf, err1 := r.Cookie(fetch.CSRFCookieName)
		session, err2 := r.Cookie(fetch.SessionCookieName)
		if err1 != nil || err2 != nil || csrf.Value != "tok" || session.Value != "sid" {
			missing = append(missing, r.URL.Path)
		}
		_, _ = io.WriteString(w, strings.ToUpper(r.URL.Path))
	}))
	defer server.Close()

	targets := model.NewTargets([]string{
		server.URL + "/1.wav",
		server.URL + "/2.aiff",
		server.URL + "/3.wav",
	})

	client := fetch.NewClient(5*time.Second, fetch.WithCookies(server.URL, fetch.AuthCookies("tok", "sid")...))
	layout := newTestLayout(t)
	artifacts, rejected, err := New(client, layout, WithConcurrency(2)).
		Download(context.Background(), targets, []string{"wav"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(artifacts) != 2 || len(rejected) != 1 {
		t.Fatalf("expected 2 artifacts and 1 rejected, got %d and %d", len(artifacts), len(rejected))
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 requests, got %v", paths)
	}
	if len(missing) != 0 {
		t.Errorf("requests without auth cookies: %v", missing)
	}

	body, err := afero.ReadFile(layout.Fs(), layout.AudioPath(2, "wav"))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "/3.WAV" {
		t.Errorf("unexpected body %q", body)
	}
}
