package download

import (
	"net/url"
	"path"
	"strings"
)

// FormatOf returns the file format of a download URL: the text after the last
// "." of the final path segment, lower-cased. Query strings and fragments are
// ignored. A URL without an extension has no format and returns "".
func FormatOf(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	base := path.Base(p)
	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// allowList is a set of accepted formats.
type allowList map[string]struct{}

func newAllowList(formats []string) allowList {
	a := make(allowList, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if f != "" {
			a[f] = struct{}{}
		}
	}
	return a
}

func (a allowList) allows(format string) bool {
	if format == "" {
		return false
	}
	_, ok := a[format]
	return ok
}
