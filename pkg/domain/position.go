package domain

import "time"

// FeedPosition is a client cursor: the page to read and the last entry already seen on it
type FeedPosition struct {
	PageURL    string `json:"page_url" yaml:"page_url"`
	LastSeenID string `json:"last_seen_id,omitempty" yaml:"last_seen_id,omitempty"`
}

// IsZero reports whether the position is unset
func (p FeedPosition) IsZero() bool {
	return p.PageURL == "" && p.LastSeenID == ""
}

// CachedPage is a fetched page with its validator, kept for one traversal cycle
type CachedPage struct {
	Page        FeedPage
	ETag        string
	FetchedAt   time.Time
	NotModified bool         // server answered 304, Page carries the prior page context
	Position    FeedPosition // position the page was fetched for
}
