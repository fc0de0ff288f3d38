// Package main provides the entry point for the audiophile CLI.
//
// audiophile scrapes an audio-sharing site for one query at a time: it caches
// the listing pages and sound pages, extracts the direct download links and
// downloads the files whose format is allowed.
//
// Usage:
//
//	audiophile init
//	audiophile scrape -c config.json
//	audiophile history [query]
//
// See --help for all available options.
package main

// main is the entry point for audiophile.
func main() {
	Execute()
}
