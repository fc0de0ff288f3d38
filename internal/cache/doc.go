// Package cache owns the on-disk layout of a scraping session.
//
// Every stage of the pipeline communicates with the next one through files
// under a per-query base folder:
//
//	<data>/<query>/
//	    pages/indexes/index_{n}.html
//	    pages/results/sound_page_{n}.html
//	    sound_pages_urls.csv
//	    download_urls.csv
//	    audio/sound{n}.{ext}
//
// All file access goes through an afero.Fs so the layout can be exercised
// against an in-memory filesystem in tests.
//
// Design decision: cached pages are always enumerated in numeric order of
// their file name suffix. URL lists are positional (row N feeds file N of the
// next stage), so directory enumeration order must never leak into them.
package cache
