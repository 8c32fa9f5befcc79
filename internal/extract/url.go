package extract

import (
	"net/url"
	"strings"
)

// ResolveURL turns href into an absolute URL. Absolute hrefs pass through,
// relative ones are resolved against base, and unresolvable ones are joined
// to base by plain concatenation. An empty href, a bare fragment or a
// javascript: link yields base itself.
func ResolveURL(href, base string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return base
	}

	ref, err := url.Parse(href)
	if err == nil && ref.IsAbs() {
		return href
	}
	if base == "" {
		return href
	}

	if err == nil {
		if b, berr := url.Parse(base); berr == nil && b.IsAbs() {
			return b.ResolveReference(ref).String()
		}
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}
