package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// filePerm is the permission of written cache files.
const filePerm fs.FileMode = 0644

// PageKind distinguishes the two kinds of cached HTML pages.
type PageKind int

const (
	// KindIndex is a listing page, index_{n}.html.
	KindIndex PageKind = iota

	// KindResult is a sound page, sound_page_{n}.html.
	KindResult
)

// prefix returns the file name prefix of the kind.
func (k PageKind) prefix() string {
	if k == KindResult {
		return "sound_page_"
	}
	return "index_"
}

// String returns a human-readable name of the kind.
func (k PageKind) String() string {
	if k == KindResult {
		return "result"
	}
	return "index"
}

// FileName returns the cache file name of page n.
func (k PageKind) FileName(n int) string {
	return k.prefix() + strconv.Itoa(n) + ".html"
}

// number extracts n from a file name produced by FileName.
func (k PageKind) number(name string) (int, bool) {
	if !strings.HasPrefix(name, k.prefix()) || !strings.HasSuffix(name, ".html") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, k.prefix()), ".html")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// CachedPage is a page file found in a cache folder.
type CachedPage struct {
	// Number is the page number parsed from the file name.
	Number int

	// Path is the full path of the file.
	Path string
}

// ListPages returns the cached pages of a kind in dir, ordered by page number.
// Files that do not follow the kind's naming scheme are ignored.
// A missing directory yields an empty list.
func ListPages(afs afero.Fs, dir string, kind PageKind) ([]CachedPage, error) {
	entries, err := afero.ReadDir(afs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []CachedPage{}, nil
		}
		return nil, fmt.Errorf("failed to list %s pages in %s: %w", kind, dir, err)
	}

	pages := make([]CachedPage, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, ok := kind.number(e.Name())
		if !ok {
			continue
		}
		pages = append(pages, CachedPage{Number: n, Path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Number < pages[j].Number
	})
	return pages, nil
}

// PrunePages removes cached pages of a kind whose number is greater than keep.
// Pages left over from an earlier, larger run would otherwise be parsed again.
// It returns the number of removed files.
func PrunePages(afs afero.Fs, dir string, kind PageKind, keep int) (int, error) {
	pages, err := ListPages(afs, dir, kind)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range pages {
		if p.Number <= keep {
			continue
		}
		if err := afs.Remove(p.Path); err != nil {
			return removed, fmt.Errorf("failed to remove stale page %s: %w", p.Path, err)
		}
		removed++
	}
	return removed, nil
}

// WriteFile writes data to path, replacing any previous content.
func WriteFile(afs afero.Fs, path string, data []byte) error {
	if err := afero.WriteFile(afs, path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// HasContent reports whether path is a non-empty regular file.
func HasContent(afs afero.Fs, path string) bool {
	info, err := afs.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}
