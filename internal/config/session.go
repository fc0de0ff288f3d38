package config

import (
	"strings"

	"github.com/nao1215/audiophile/internal/model"
)

// Auth holds the session cookies sent with audio downloads.
// Both values are opaque tokens copied from a logged-in browser session.
type Auth struct {
	// CSRF is sent as the csrftoken cookie.
	CSRF string `json:"csrf" yaml:"csrf"`

	// Session is sent as the sessionid cookie.
	Session string `json:"session" yaml:"session"`
}

// Empty reports whether no credentials were configured.
func (a Auth) Empty() bool {
	return a.CSRF == "" && a.Session == ""
}

// Session describes one scraping session.
// It is immutable once loaded.
type Session struct {
	// Query is the search term or tag.
	Query string `json:"query" yaml:"query"`

	// QueryType selects the search or tags listing.
	QueryType string `json:"query_type" yaml:"query_type"`

	// Pages is the number of index pages to fetch, starting at 1.
	Pages int `json:"n_pages" yaml:"n_pages"`

	// Formats is the allow-list of file extensions to download (e.g. "wav").
	Formats []string `json:"formats" yaml:"formats"`

	// Auth holds the download cookies.
	Auth Auth `json:"auth" yaml:"auth"`
}

// Validate checks that every key the pipeline depends on is present and sane.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.Query) == "" {
		return ErrEmptyQuery
	}
	if _, err := model.ParseQueryType(s.QueryType); err != nil {
		return ErrInvalidQueryType
	}
	if s.Pages <= 0 {
		return ErrInvalidPageCount
	}
	if len(s.NormalizedFormats()) == 0 {
		return ErrNoFormats
	}
	return nil
}

// Type returns the parsed query type.
// It must only be called on a validated session.
func (s *Session) Type() model.QueryType {
	qt, err := model.ParseQueryType(s.QueryType)
	if err != nil {
		return model.QueryType(s.QueryType)
	}
	return qt
}

// NormalizedFormats returns the allow-list lower-cased, without leading dots,
// blanks or duplicates, in configuration order.
func (s *Session) NormalizedFormats() []string {
	seen := make(map[string]bool, len(s.Formats))
	formats := make([]string, 0, len(s.Formats))
	for _, f := range s.Formats {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}
	return formats
}
