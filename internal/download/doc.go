// Package download fetches the audio files named in a download URL list.
//
// Each URL is checked against a format allow-list; accepted URLs are fetched
// with the session's auth cookies and written to audio/sound{n}.{format}.
// By default n counts accepted URLs only (1, 2, 3, ...). With source
// numbering n is the URL's row in the list, so a file name always points
// back at the row it came from.
package download
