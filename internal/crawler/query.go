package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/audiophile/internal/model"
)

// IndexURL returns the URL of the given index page for a query.
//
// Search queries go into the query string and tag queries into the path, so
// each is escaped for its position. Queries made of unreserved characters
// come out unchanged.
func IndexURL(origin, query string, queryType model.QueryType, page int) (string, error) {
	origin = strings.TrimRight(origin, "/")

	switch queryType {
	case model.QueryTypeSearch:
		return fmt.Sprintf("%s/search/?q=%s&page=%d#sound", origin, url.QueryEscape(query), page), nil
	case model.QueryTypeTags:
		return fmt.Sprintf("%s/browse/tags/%s/?page=%d#sound", origin, url.PathEscape(query), page), nil
	default:
		return "", fmt.Errorf("%w: %q", model.ErrUnknownQueryType, queryType)
	}
}
