package progress

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Tracker receives progress for one stage at a time.
//
// Implementations must be safe for concurrent Add calls because downloads
// and page fetches may run in parallel.
type Tracker interface {
	// Start begins a new stage with the given description and item count.
	Start(description string, total int)
	// Add records n finished items.
	Add(n int)
	// Finish completes the current stage.
	Finish()
}

// Noop is a Tracker that discards everything.
type Noop struct{}

// Start implements Tracker.
func (Noop) Start(string, int) {}

// Add implements Tracker.
func (Noop) Add(int) {}

// Finish implements Tracker.
func (Noop) Finish() {}

// Bar is a Tracker backed by a terminal progress bar.
type Bar struct {
	w   io.Writer
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewBar creates a Bar that renders to w, normally os.Stderr.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

// Start implements Tracker. A running stage is finished first.
func (b *Bar) Start(description string, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
	b.bar = progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetItsString("file"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(b.w, "\n")
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Add implements Tracker.
func (b *Bar) Add(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Add(n)
	}
}

// Finish implements Tracker.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
		b.bar = nil
	}
}

// OrNoop returns t, or Noop when t is nil.
func OrNoop(t Tracker) Tracker {
	if t == nil {
		return Noop{}
	}
	return t
}
