package config

import "errors"

// Runtime configuration errors returned by Config.Validate.
var (
	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the request delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxPageSize is returned when the page size limit is negative.
	ErrInvalidMaxPageSize = errors.New("invalid max page size: must be non-negative")

	// ErrEmptyDataDir is returned when no data directory is configured.
	ErrEmptyDataDir = errors.New("data directory must not be empty")

	// ErrInvalidSiteURL is returned when the site origin is not an absolute http(s) URL.
	ErrInvalidSiteURL = errors.New("invalid site URL: expected http(s)://host")
)

// Session file errors returned by Session.Validate.
var (
	// ErrEmptyQuery is returned when the session has no query term.
	ErrEmptyQuery = errors.New("session: query must not be empty")

	// ErrInvalidQueryType is returned when query_type is neither "search" nor "tags".
	ErrInvalidQueryType = errors.New("session: query_type must be \"search\" or \"tags\"")

	// ErrInvalidPageCount is returned when n_pages is not positive.
	ErrInvalidPageCount = errors.New("session: n_pages must be positive")

	// ErrNoFormats is returned when the format allow-list is empty.
	ErrNoFormats = errors.New("session: formats must list at least one extension")
)
