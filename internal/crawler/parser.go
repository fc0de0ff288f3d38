package crawler

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Selectors for the two page layouts the scraper understands.
const (
	// resultLinkSelector matches result titles on an index page.
	resultLinkSelector = "a.title"
	// downloadContainerSelector matches the download box on a sound page.
	downloadContainerSelector = "#download"
)

var (
	// ErrDownloadContainerNotFound is returned when a sound page has no
	// element with id "download".
	ErrDownloadContainerNotFound = errors.New("download container not found")

	// ErrDownloadLinkNotFound is returned when the download container holds
	// no anchor with an href.
	ErrDownloadLinkNotFound = errors.New("download link not found")
)

// ParseIndexPage returns the result-page URLs listed on one index page, in
// document order. Each href is prefixed with origin verbatim.
//
// An index page with no result titles yields an empty slice and no error;
// running past the last page of a query is not a failure.
func ParseIndexPage(r io.Reader, origin string) ([]string, error) {
	doc, err := newDocument(r)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0)
	doc.Find(resultLinkSelector).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			urls = append(urls, joinOrigin(origin, href))
		}
	})
	return urls, nil
}

// ParseSoundPage returns the direct download URL found on one sound page: the
// href of the first anchor inside the download container, prefixed with
// origin.
func ParseSoundPage(r io.Reader, origin string) (string, error) {
	doc, err := newDocument(r)
	if err != nil {
		return "", err
	}

	container := doc.Find(downloadContainerSelector).First()
	if container.Length() == 0 {
		return "", ErrDownloadContainerNotFound
	}

	href, ok := container.Find("a").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", ErrDownloadLinkNotFound
	}
	return joinOrigin(origin, href), nil
}

// newDocument parses r with the x/net/html tokenizer and wraps the tree for
// selector queries.
//
// Design decision: We parse with html.Parse ourselves rather than calling
// goquery.NewDocumentFromReader so that malformed-input errors surface with
// our own wrapping and the tree type stays the one the rest of the codebase
// walks.
func newDocument(r io.Reader) (*goquery.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// joinOrigin prefixes a site-relative href with the origin. The site emits
// root-relative links, so a plain concatenation is all that is needed;
// a trailing slash on origin is dropped to avoid "//".
func joinOrigin(origin, href string) string {
	return strings.TrimRight(origin, "/") + strings.TrimSpace(href)
}
