package model

import (
	"errors"
	"strings"
)

// QueryType selects which listing of the site a session scrapes.
// The site exposes two paginated listings that share the same result markup:
// free-text search results and tag browsing.
type QueryType string

const (
	// QueryTypeSearch scrapes the free-text search listing.
	QueryTypeSearch QueryType = "search"

	// QueryTypeTags scrapes the tag browsing listing.
	QueryTypeTags QueryType = "tags"
)

// ErrUnknownQueryType is returned by ParseQueryType for unsupported values.
var ErrUnknownQueryType = errors.New("unknown query type: must be \"search\" or \"tags\"")

// ParseQueryType converts a config value into a QueryType.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseQueryType(s string) (QueryType, error) {
	switch QueryType(strings.ToLower(strings.TrimSpace(s))) {
	case QueryTypeSearch:
		return QueryTypeSearch, nil
	case QueryTypeTags:
		return QueryTypeTags, nil
	default:
		return "", ErrUnknownQueryType
	}
}

// String returns the config representation of the query type.
func (q QueryType) String() string {
	return string(q)
}

// Valid reports whether q is one of the supported query types.
func (q QueryType) Valid() bool {
	return q == QueryTypeSearch || q == QueryTypeTags
}
