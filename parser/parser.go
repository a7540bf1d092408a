package parser

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// ValidateSummary ensures a discovered listing entry is usable as a crawl
// target. Only the link is required; an entry without a name is still
// scraped and named from the hotel page title.
func ValidateSummary(h *models.HotelSummary) error {
	if h == nil {
		return fmt.Errorf("listing entry is nil")
	}
	if strings.TrimSpace(h.Link) == "" {
		return fmt.Errorf("listing entry missing link")
	}
	return nil
}

// AbsoluteURL resolves a listing link against the site origin. Absolute
// links pass through unchanged; relative links are prefixed with the origin.
// An empty link stays empty so callers can skip the entry.
func AbsoluteURL(origin, link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	origin = strings.TrimSuffix(origin, "/")
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return origin + link
}

// HotelNameFromTitle extracts the property name from a page title of the
// form "Name - Site tagline". A title without the " - " separator yields
// an empty string so callers fall back to a placeholder name.
func HotelNameFromTitle(title string) string {
	name, _, found := strings.Cut(strings.TrimSpace(title), " - ")
	if !found {
		return ""
	}
	return strings.TrimSpace(name)
}
