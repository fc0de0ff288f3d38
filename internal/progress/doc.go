// Package progress renders per-stage progress for long-running scrape stages.
//
// Fetchers and the downloader report through the Tracker interface so they
// never know whether a terminal is attached. The CLI passes a Bar when
// progress output is enabled and Noop otherwise.
package progress
