// Package crawler fetches and parses the listing and sound pages of the
// audio site.
//
// # Architecture
//
// The package is split along the four cached scrape stages:
//
//   - IndexFetcher: downloads paginated search or tag index pages
//   - ParseIndexPage: extracts result-page links from one index page
//   - PageFetcher: downloads every result page named in a URL list
//   - ParseSoundPage: extracts the direct download link from one result page
//
// Fetchers write every body verbatim into the session cache so that later
// stages, and later runs, can work from disk alone.
//
// Design decision: Parsing works on io.Readers and never touches the network.
// The pipeline reads cached files and feeds them in, which keeps the parsers
// testable with literal HTML.
//
// # Failure Policy
//
// Any transport error, non-2xx response or missing page element aborts the
// stage. There are no retries: a half-populated cache is resumable with
// --skip-existing, a silently skipped page is not.
//
// # Usage
//
//	f := crawler.NewIndexFetcher(client, layout, "https://freesound.org")
//	n, err := f.Fetch(ctx, "piano", model.QueryTypeSearch, 3)
package crawler
