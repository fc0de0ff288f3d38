package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "audiophile"

	// DefaultSiteURL is the origin of the audio-sharing site.
	// Relative links found in cached pages are prefixed with this origin.
	DefaultSiteURL = "https://freesound.org"

	// DefaultDataDir is the directory that holds one folder per query.
	DefaultDataDir = "data"

	// DefaultTimeout bounds each HTTP request. Audio files can be large,
	// so this is generous compared to an HTML-only crawler.
	DefaultTimeout = 2 * time.Minute

	// DefaultDelay is the minimum time between two requests.
	// Zero disables rate limiting.
	DefaultDelay = time.Duration(0)

	// DefaultConcurrency of 1 keeps every stage strictly sequential.
	DefaultConcurrency = 1

	// DefaultUserAgent identifies audiophile in HTTP requests.
	DefaultUserAgent = "audiophile/1.0 (+https://github.com/nao1215/audiophile)"

	// DefaultMaxPageSize is the largest HTML page accepted; bigger pages fail the run.
	// Audio downloads are streamed to disk and are not limited.
	DefaultMaxPageSize = 10 * 1024 * 1024 // 10MB
)

// Config holds runtime options for a scraping run.
// It is populated from CLI flags and passed down explicitly rather than kept
// in global state.
type Config struct {
	// ConfigFilePath is the session file path given on the command line.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// DataDir is the parent directory of all session folders.
	DataDir string

	// SiteURL is the origin used for listing URLs and to absolutize links.
	SiteURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Delay is the minimum interval between requests. Zero means no limit.
	Delay time.Duration

	// Concurrency bounds parallel result-page fetches and downloads.
	// File names are assigned before fan-out, so numbering does not depend on it.
	Concurrency int

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxPageSize is the maximum HTML body size read per page.
	MaxPageSize int64

	// KeepIndex names audio files after their row in download_urls.csv
	// instead of numbering accepted downloads densely.
	KeepIndex bool

	// SkipExisting skips pages and downloads whose output file already exists.
	SkipExisting bool

	// Progress enables progress bars on stderr.
	Progress bool

	// MarkdownReport writes summary.md into the session folder.
	MarkdownReport bool

	// JSONReport prints the session summary as JSON instead of text.
	JSONReport bool

	// Verbose enables debug logging.
	Verbose bool

	// DBDir is the directory of the manifest database.
	// Empty disables the manifest.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DataDir:     DefaultDataDir,
		SiteURL:     DefaultSiteURL,
		Timeout:     DefaultTimeout,
		Delay:       DefaultDelay,
		Concurrency: DefaultConcurrency,
		UserAgent:   DefaultUserAgent,
		MaxPageSize: DefaultMaxPageSize,
		Progress:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for audiophile.
// On Linux: ~/.local/share/audiophile
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for audiophile.
// On Linux: ~/.config/audiophile
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxPageSize < 0 {
		return ErrInvalidMaxPageSize
	}
	if c.DataDir == "" {
		return ErrEmptyDataDir
	}

	u, err := url.Parse(c.SiteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidSiteURL
	}
	return nil
}
