package model

import "time"

// SessionReport is the result of one scraping session.
// Pipeline steps receive the same report and record what they produced, so the
// report doubles as the progress record persisted to the manifest database.
type SessionReport struct {
	// Query is the search term or tag being scraped.
	Query string `json:"query"`

	// QueryType is the listing that was scraped.
	QueryType QueryType `json:"query_type"`

	// Pages is the number of index pages requested.
	Pages int `json:"pages"`

	// Formats is the download allow-list.
	Formats []string `json:"formats"`

	// BaseDir is the session folder on disk.
	BaseDir string `json:"base_dir"`

	// StartedAt is when the pipeline started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the pipeline stopped, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// IndexPages is the number of index pages fetched.
	IndexPages int `json:"index_pages"`

	// ResultURLs is the number of rows written to sound_pages_urls.csv.
	ResultURLs int `json:"result_urls"`

	// ResultPages is the number of result pages fetched.
	ResultPages int `json:"result_pages"`

	// DownloadURLs is the number of rows written to download_urls.csv.
	DownloadURLs int `json:"download_urls"`

	// Artifacts are the audio files produced by the downloader.
	Artifacts []Artifact `json:"artifacts"`

	// Rejected is the number of download URLs filtered out by format.
	Rejected int `json:"rejected"`

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Warnings collects non-fatal problems (e.g. folder creation failures).
	Warnings []string `json:"warnings,omitempty"`

	// Error is the error that aborted the session, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as a string for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewSessionReport creates a report for a session.
func NewSessionReport(query string, queryType QueryType, pages int, formats []string) *SessionReport {
	return &SessionReport{
		Query:          query,
		QueryType:      queryType,
		Pages:          pages,
		Formats:        formats,
		StartedAt:      time.Now(),
		Artifacts:      make([]Artifact, 0),
		PerformedSteps: make([]string, 0),
	}
}

// AddWarning records a non-fatal problem.
func (r *SessionReport) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Downloaded returns the number of artifacts actually fetched in this session.
func (r *SessionReport) Downloaded() int {
	n := 0
	for _, a := range r.Artifacts {
		if !a.Skipped {
			n++
		}
	}
	return n
}

// TotalBytes returns the combined size of all artifacts.
func (r *SessionReport) TotalBytes() int64 {
	var total int64
	for _, a := range r.Artifacts {
		total += a.Size
	}
	return total
}

// Succeeded reports whether the session finished without error.
func (r *SessionReport) Succeeded() bool {
	return r.Error == nil && r.ErrorMessage == ""
}

// Duration returns how long the session ran.
func (r *SessionReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
