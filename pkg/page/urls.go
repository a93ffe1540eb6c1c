package page

import (
	"fmt"
	"strconv"
	"strings"
)

// URLs builds feed and page URLs from the feed base URL, e.g. http://host/feed
type URLs struct {
	Base string
}

// Feed returns the URL of the feed itself, served as the current head page
func (u URLs) Feed() string {
	return strings.TrimRight(u.Base, "/")
}

// Page returns the URL of the page with the given number
func (u URLs) Page(n int64) string {
	return fmt.Sprintf("%s/%d", u.Feed(), n)
}

// Entry returns the URL of a single entry
func (u URLs) Entry(id string) string {
	return u.Feed() + "/entries/" + id
}

// ParsePage parses page number from its path segment
func ParsePage(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid page number %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid page number %q: negative", s)
	}
	return n, nil
}
