package model

// Target is a URL read from a cached URL list.
// Row is the 1-based position of the URL in the list file; downstream stages
// rely on it for file numbering, so it must never be recomputed after filtering.
type Target struct {
	// Row is the 1-based row of the URL in its list file.
	Row int `json:"row"`

	// URL is the absolute URL exactly as it was stored.
	URL string `json:"url"`
}

// NewTargets pairs each URL with its 1-based row.
func NewTargets(urls []string) []Target {
	targets := make([]Target, len(urls))
	for i, u := range urls {
		targets[i] = Target{Row: i + 1, URL: u}
	}
	return targets
}

// Artifact describes one downloaded audio file.
type Artifact struct {
	// Number is the sequence number used in the file name (sound{Number}.{Format}).
	Number int `json:"number"`

	// SourceRow is the 1-based row of the URL in download_urls.csv.
	// With dense numbering Number and SourceRow differ as soon as one URL is skipped.
	SourceRow int `json:"source_row"`

	// URL is the direct download URL.
	URL string `json:"url"`

	// Format is the file extension derived from the URL, without the dot.
	Format string `json:"format"`

	// Path is where the file was written.
	Path string `json:"path"`

	// Size is the number of bytes written.
	Size int64 `json:"size"`

	// SHA256 is the hex-encoded SHA-256 of the file content.
	SHA256 string `json:"sha256"`

	// Skipped is true when the file already existed and was not downloaded again.
	Skipped bool `json:"skipped,omitempty"`
}
