package domain

import "time"

// Generator describes the software which produced a page
type Generator struct {
	Name    string
	URI     string
	Version string
}

// FeedPage is a fixed-size slice of the feed with navigation links.
// Entries are ordered oldest to newest. A page with a previous link is
// complete and never changes again, a page without it is the mutable head.
type FeedPage struct {
	ID        string
	Base      string
	Title     string
	Generator Generator
	Updated   time.Time
	Entries   []Entry
	Links     Links
}

// Self returns the page's own URL
func (p *FeedPage) Self() string {
	href, _ := p.Links.Get(RelSelf)
	return href
}

// Previous returns the URL of the newer page, if any
func (p *FeedPage) Previous() (string, bool) {
	return p.Links.Get(RelPrevious)
}

// Next returns the URL of the older page, if any
func (p *FeedPage) Next() (string, bool) {
	return p.Links.Get(RelNext)
}

// Last returns the URL of the oldest archived page, if any
func (p *FeedPage) Last() (string, bool) {
	return p.Links.Get(RelLast)
}

// IsComplete reports whether the page is complete and safe to cache forever
func (p *FeedPage) IsComplete() bool {
	_, ok := p.Previous()
	return ok
}

// MostRecent returns the newest entry on the page
func (p *FeedPage) MostRecent() (Entry, bool) {
	if len(p.Entries) == 0 {
		return Entry{}, false
	}
	return p.Entries[len(p.Entries)-1], true
}
