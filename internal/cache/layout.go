package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"
)

// File and folder names of the session layout.
const (
	pagesDirName    = "pages"
	indexesDirName  = "indexes"
	resultsDirName  = "results"
	audioDirName    = "audio"
	soundPagesList  = "sound_pages_urls.csv"
	downloadURLList = "download_urls.csv"
	summaryFileName = "summary.md"
)

// folder permission for created directories.
const dirPerm os.FileMode = 0750

// ErrCreateFolder is returned by Layout.Init when a folder cannot be created.
var ErrCreateFolder = errors.New("couldn't create folder")

// Layout holds every path of one session and the filesystem they live on.
type Layout struct {
	fs afero.Fs

	// BaseDir is the session folder, <data>/<query>.
	BaseDir string

	// PagesDir holds the cached HTML pages.
	PagesDir string

	// IndexesDir holds index_{n}.html.
	IndexesDir string

	// ResultsDir holds sound_page_{n}.html.
	ResultsDir string

	// AudioDir holds the downloaded files.
	AudioDir string

	// SoundPagesList is the result-page URL list.
	SoundPagesList string

	// DownloadList is the download URL list.
	DownloadList string

	// SummaryFile is the optional Markdown summary.
	SummaryFile string
}

// NewLayout derives all session paths from the data directory and query term.
func NewLayout(fs afero.Fs, dataDir, query string) *Layout {
	base := filepath.Join(dataDir, FolderName(query))
	pages := filepath.Join(base, pagesDirName)

	return &Layout{
		fs:             fs,
		BaseDir:        base,
		PagesDir:       pages,
		IndexesDir:     filepath.Join(pages, indexesDirName),
		ResultsDir:     filepath.Join(pages, resultsDirName),
		AudioDir:       filepath.Join(base, audioDirName),
		SoundPagesList: filepath.Join(base, soundPagesList),
		DownloadList:   filepath.Join(base, downloadURLList),
		SummaryFile:    filepath.Join(base, summaryFileName),
	}
}

// FolderName turns a query term into a single safe path element.
// The term is NFC-normalized so that visually identical queries share a folder,
// and separators are replaced so the folder always stays inside the data directory.
func FolderName(query string) string {
	name := norm.NFC.String(strings.TrimSpace(query))
	name = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// Fs returns the filesystem the layout lives on.
func (l *Layout) Fs() afero.Fs {
	return l.fs
}

// Init creates the session folders when the base folder does not exist yet.
// An existing base folder is left untouched, even if some subfolders are missing.
// The first folder that cannot be created stops the initialization; the error
// wraps ErrCreateFolder and is meant to be reported, not treated as fatal.
func (l *Layout) Init() error {
	exists, err := afero.Exists(l.fs, l.BaseDir)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrCreateFolder, l.BaseDir, err)
	}
	if exists {
		return nil
	}

	if err := l.fs.MkdirAll(l.BaseDir, dirPerm); err != nil {
		return fmt.Errorf("%w %s: %w", ErrCreateFolder, l.BaseDir, err)
	}
	for _, dir := range []string{l.PagesDir, l.IndexesDir, l.ResultsDir, l.AudioDir} {
		if err := l.fs.Mkdir(dir, dirPerm); err != nil {
			return fmt.Errorf("%w %s: %w", ErrCreateFolder, dir, err)
		}
	}
	return nil
}

// IndexPath returns the cache path of index page n.
func (l *Layout) IndexPath(n int) string {
	return filepath.Join(l.IndexesDir, KindIndex.FileName(n))
}

// ResultPath returns the cache path of result page n.
func (l *Layout) ResultPath(n int) string {
	return filepath.Join(l.ResultsDir, KindResult.FileName(n))
}

// AudioPath returns the path of audio file n with the given format.
func (l *Layout) AudioPath(n int, format string) string {
	return filepath.Join(l.AudioDir, "sound"+strconv.Itoa(n)+"."+format)
}
