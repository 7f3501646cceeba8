package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ResolveURL resolves candidate against base. Absolute candidates are
// accepted as-is; everything else is interpreted relative to base.
func ResolveURL(base, candidate string) string {
	c, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	if c.IsAbs() {
		return candidate
	}

	b, err := url.Parse(base)
	if err != nil {
		return candidate
	}

	return b.ResolveReference(c).String()
}

// collectLinks gathers up to max resolved href values from a selection.
func collectLinks(sel *goquery.Selection, base string, max int) []string {
	var urls []string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
			return true
		}
		if resolved := ResolveURL(base, href); resolved != "" {
			urls = append(urls, resolved)
		}
		return max <= 0 || len(urls) < max
	})
	return urls
}

var titleNumberingRe = regexp.MustCompile(`^\d+\.\s*`)

// cleanTitle strips leading list numbering ("3. ") some sites prepend to
// announcement headings.
func cleanTitle(title string) string {
	return titleNumberingRe.ReplaceAllString(strings.TrimSpace(title), "")
}
