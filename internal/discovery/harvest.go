package discovery

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mfenderov/plenar/pkg/models"
)

// harvestLinks returns the href of every anchor in the container markup that
// matches selector, resolved against base.
func harvestLinks(containerHTML, selector string, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(containerHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse container: %w", err)
	}

	var links []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		links = append(links, href)
	})
	return links, nil
}

// isDisabled reports whether a pagination control is inert. Slick marks its
// arrows with a class and aria-disabled; plain buttons use the attribute.
func isDisabled(attrs map[string]string) bool {
	if _, ok := attrs["disabled"]; ok {
		return true
	}
	if strings.EqualFold(attrs["aria-disabled"], "true") {
		return true
	}
	return slices.Contains(strings.Fields(attrs["class"]), "slick-disabled")
}

// linkSet accumulates links, deduplicated by exact string equality.
type linkSet map[string]struct{}

func (s linkSet) add(links ...string) (added int) {
	for _, l := range links {
		if _, ok := s[l]; ok {
			continue
		}
		s[l] = struct{}{}
		added++
	}
	return added
}

// sorted returns the links ordered by file name, descending, so the newest
// sitting comes first. Equal file names fall back to the full link.
func (s linkSet) sorted() []string {
	links := make([]string, 0, len(s))
	for l := range s {
		links = append(links, l)
	}
	SortLinks(links)
	return links
}

// SortLinks orders links in place by trailing path segment, descending.
func SortLinks(links []string) {
	slices.SortFunc(links, func(a, b string) int {
		if c := strings.Compare(models.TrailingSegment(b), models.TrailingSegment(a)); c != 0 {
			return c
		}
		return strings.Compare(b, a)
	})
}
