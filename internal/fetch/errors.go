package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedStatus is returned (wrapped in a *StatusError) when the server
// answers with a non-2xx status code.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// ErrPageTooLarge is returned by Get when a page is bigger than the
// configured page size limit.
var ErrPageTooLarge = errors.New("page exceeds size limit")

// StatusError carries the status of a failed request.
type StatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status returned by the server.
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: GET %s: %d %s", ErrUnexpectedStatus, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap allows errors.Is(err, ErrUnexpectedStatus).
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}
