package sources

import (
	"fmt"
	"net/url"
	"strings"
)

// CleanText trims and collapses internal whitespace, including the nbsp
// runs portals love to pad cells with.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// firstPageURL gives parsers a concrete page URL to resolve relative
// hrefs against. Bases without a %d placeholder pass through untouched.
func firstPageURL(base string) string {
	if !strings.Contains(base, "%d") {
		return base
	}
	return fmt.Sprintf(base, 1)
}

// absURL resolves a possibly relative href against the page URL.
func absURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
