// Package fetch provides the HTTP clients used by the stages of the scraper.
//
// A Client issues plain GET requests, with no retry: any transport error or
// non-2xx status is returned to the caller, which aborts the run. It adds:
//   - a User-Agent header on every request
//   - optional session cookies, scoped to the site's host by a cookie jar
//   - optional politeness rate limiting (golang.org/x/time/rate), which
//     several clients can share through WithLimiter
//   - a size limit for HTML pages; audio downloads are streamed
//
// The scraper builds two clients: one without cookies for listing and sound
// pages, and one carrying the session cookies for audio downloads.
package fetch
