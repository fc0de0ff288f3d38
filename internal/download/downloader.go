package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/audiophile/internal/cache"
	"github.com/nao1215/audiophile/internal/model"
	"github.com/nao1215/audiophile/internal/progress"
)

// partSuffix marks a file that is still being written.
const partSuffix = ".part"

// filePerm is the permission of downloaded files.
const filePerm os.FileMode = 0644

// ErrNoFormats is returned when the allow-list is empty.
var ErrNoFormats = errors.New("no allowed formats")

// Client streams a URL into a writer. *fetch.Client satisfies it.
type Client interface {
	Download(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithSourceNumbering names files after their row in the URL list instead of
// their position among accepted URLs.
func WithSourceNumbering(enabled bool) Option {
	return func(d *Downloader) {
		d.sourceNumbering = enabled
	}
}

// WithConcurrency bounds the number of simultaneous downloads.
// Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(d *Downloader) {
		if n < 1 {
			n = 1
		}
		d.concurrency = n
	}
}

// WithSkipExisting keeps files that already exist with content instead of
// downloading them again.
func WithSkipExisting(skip bool) Option {
	return func(d *Downloader) {
		d.skipExisting = skip
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithProgress sets the progress tracker.
func WithProgress(t progress.Tracker) Option {
	return func(d *Downloader) {
		d.tracker = progress.OrNoop(t)
	}
}

// Downloader fetches accepted URLs into the session's audio folder.
type Downloader struct {
	client          Client
	layout          *cache.Layout
	sourceNumbering bool
	concurrency     int
	skipExisting    bool
	logger          *slog.Logger
	tracker         progress.Tracker
}

// New creates a Downloader writing into layout.AudioDir.
func New(client Client, layout *cache.Layout, opts ...Option) *Downloader {
	d := &Downloader{
		client:      client,
		layout:      layout,
		concurrency: 1,
		logger:      slog.New(slog.DiscardHandler),
		tracker:     progress.Noop{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Plan filters targets by format and assigns every accepted target its file
// number and path. Rejected targets are returned in list order.
//
// Planning happens before any request is made, so file names never depend on
// the order in which concurrent downloads finish.
func (d *Downloader) Plan(targets []model.Target, formats []string) ([]model.Artifact, []model.Target) {
	allowed := newAllowList(formats)

	planned := make([]model.Artifact, 0, len(targets))
	rejected := make([]model.Target, 0)
	for _, t := range targets {
		format := FormatOf(t.URL)
		if !allowed.allows(format) {
			rejected = append(rejected, t)
			continue
		}

		n := len(planned) + 1
		if d.sourceNumbering {
			n = t.Row
		}
		planned = append(planned, model.Artifact{
			Number:    n,
			SourceRow: t.Row,
			URL:       t.URL,
			Format:    format,
			Path:      d.layout.AudioPath(n, format),
		})
	}
	return planned, rejected
}

// Download fetches every target whose format is allowed and returns one
// artifact per accepted target, in list order, plus the rejected targets.
// The first failed download cancels the rest; artifacts finished before the
// failure are still returned.
func (d *Downloader) Download(ctx context.Context, targets []model.Target, formats []string) ([]model.Artifact, []model.Target, error) {
	if len(newAllowList(formats)) == 0 {
		return nil, nil, ErrNoFormats
	}

	planned, rejected := d.Plan(targets, formats)
	for _, t := range rejected {
		d.logger.Debug("skipping URL with unwanted format", "row", t.Row, "url", t.URL, "format", FormatOf(t.URL))
	}

	done := make([]bool, len(planned))

	d.tracker.Start("audio files", len(planned))
	defer d.tracker.Finish()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i := range planned {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := d.fetch(gctx, &planned[i]); err != nil {
				return fmt.Errorf("download row %d (%s): %w", planned[i].SourceRow, planned[i].URL, err)
			}
			done[i] = true
			d.tracker.Add(1)
			return nil
		})
	}
	err := g.Wait()

	artifacts := make([]model.Artifact, 0, len(planned))
	for i, a := range planned {
		if done[i] {
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, rejected, err
}

// fetch downloads one planned artifact and fills in its size and checksum.
func (d *Downloader) fetch(ctx context.Context, a *model.Artifact) error {
	afs := d.layout.Fs()

	if d.skipExisting && cache.HasContent(afs, a.Path) {
		size, sum, err := checksum(afs, a.Path)
		if err != nil {
			return err
		}
		a.Size, a.SHA256, a.Skipped = size, sum, true
		d.logger.Debug("keeping existing file", "path", a.Path)
		return nil
	}

	d.logger.Debug("downloading", "url", a.URL, "path", a.Path)

	part := a.Path + partSuffix
	f, err := afs.OpenFile(part, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", part, err)
	}

	h := sha256.New()
	size, err := d.client.Download(ctx, a.URL, io.MultiWriter(f, h))
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close %s: %w", part, cerr)
	}
	if err != nil {
		_ = afs.Remove(part)
		return err
	}

	if err := afs.Rename(part, a.Path); err != nil {
		_ = afs.Remove(part)
		return fmt.Errorf("failed to move %s into place: %w", a.Path, err)
	}

	a.Size = size
	a.SHA256 = hex.EncodeToString(h.Sum(nil))
	return nil
}

// checksum returns the size and hex SHA-256 of an existing file.
func checksum(afs afero.Fs, path string) (int64, string, error) {
	f, err := afs.Open(path)
	if err != nil {
		return 0, "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return 0, "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return size, hex.EncodeToString(h.Sum(nil)), nil
}
