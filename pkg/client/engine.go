// Package client reads a paged feed as an endless stream of entries. It walks
// from a starting position towards the newest page and keeps polling the head,
// skipping entries already seen on the current page.
package client

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/pagefeed/pkg/domain"
)

// Item is an entry delivered by the engine with the page it came from
type Item struct {
	Entry   domain.Entry
	PageURL string
}

// Position returns the cursor to persist after the item is processed.
// Resuming with FromPosition continues right after this entry.
func (i Item) Position() domain.FeedPosition {
	return domain.FeedPosition{PageURL: i.PageURL, LastSeenID: i.Entry.ID}
}

// Stats is a snapshot of engine counters
type Stats struct {
	Fetches     int64
	NotModified int64
	Emitted     int64
	Failures    int64
}

// Engine drives fetch cycles: ask strategy for a position, fetch the page,
// drop already seen entries and hand the rest to the consumer one by one.
// The next fetch starts only after the consumer took every entry of the
// current page. An engine serves a single consumer.
type Engine struct {
	fetcher  PageFetcher
	strategy Strategy
	retry    RetryPolicy
	now      func() time.Time

	fetches     atomic.Int64
	notModified atomic.Int64
	emitted     atomic.Int64
	failures    atomic.Int64
}

// Option customizes Engine
type Option func(e *Engine)

// WithRetry sets retry policy, NoRetry by default
func WithRetry(p RetryPolicy) Option {
	return func(e *Engine) { e.retry = p }
}

// New makes an engine reading pages with fetcher in the order chosen by strategy
func New(fetcher PageFetcher, strategy Strategy, opts ...Option) *Engine {
	res := &Engine{fetcher: fetcher, strategy: strategy, retry: NoRetry(), now: time.Now}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Entries returns the entry stream. The stream ends with a single error item
// when the context is canceled or a failure is not retried, and when the
// consumer stops ranging. It never ends on its own otherwise.
func (e *Engine) Entries(ctx context.Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		var prev *domain.CachedPage
		for {
			cached, err := e.cycle(ctx, prev)
			if err != nil {
				yield(Item{}, err)
				return
			}
			pageURL := pageURL(&cached.Page, cached.Position.PageURL)
			for _, entry := range unseen(cached) {
				if err := ctx.Err(); err != nil {
					yield(Item{}, err)
					return
				}
				e.emitted.Add(1)
				if !yield(Item{Entry: entry, PageURL: pageURL}, nil) {
					return
				}
			}
			prev = cached
		}
	}
}

// Run passes every entry to fn until fn fails or the stream ends
func (e *Engine) Run(ctx context.Context, fn func(ctx context.Context, item Item) error) error {
	for item, err := range e.Entries(ctx) {
		if err != nil {
			return err
		}
		if err := fn(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns current counters
func (e *Engine) Stats() Stats {
	return Stats{
		Fetches:     e.fetches.Load(),
		NotModified: e.notModified.Load(),
		Emitted:     e.emitted.Load(),
		Failures:    e.failures.Load(),
	}
}

// cycle resolves the next position and fetches it. Failures of either step go
// through the retry policy, a failed fetch is retried for the same position.
func (e *Engine) cycle(ctx context.Context, prev *domain.CachedPage) (*domain.CachedPage, error) {
	var pos domain.FeedPosition
	resolved := false
	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		if !resolved {
			if pos, err = e.strategy.NextPosition(ctx, prev); err == nil {
				resolved = true
			}
		}
		if err == nil {
			var cached *domain.CachedPage
			if cached, err = e.fetch(ctx, pos, prev); err == nil {
				return cached, nil
			}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrPageNotFound) || errors.Is(err, ErrNoPage) {
			return nil, err
		}
		failures++
		e.failures.Add(1)
		delay, rerr := e.retry(failures, err)
		if rerr != nil {
			log.Printf("[WARN] giving up on %s: %v", pos.PageURL, rerr)
			return nil, rerr
		}
		log.Printf("[WARN] failure %d for %q, retry in %v: %v", failures, pos.PageURL, delay, err)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// fetch gets the page for pos. The validator of the previous page is sent
// only if the same url is requested again.
func (e *Engine) fetch(ctx context.Context, pos domain.FeedPosition, prev *domain.CachedPage) (*domain.CachedPage, error) {
	etag := ""
	if prev != nil && prev.ETag != "" && (prev.Position.PageURL == pos.PageURL || prev.Page.Self() == pos.PageURL) {
		etag = prev.ETag
	}

	e.fetches.Add(1)
	res, err := e.fetcher.Fetch(ctx, pos.PageURL, etag)
	if err != nil {
		return nil, err
	}

	cached := &domain.CachedPage{ETag: res.ETag, FetchedAt: e.now(), Position: pos}
	if res.NotModified {
		e.notModified.Add(1)
		cached.NotModified = true
		if cached.ETag == "" {
			cached.ETag = etag
		}
		if prev != nil {
			cached.Page = prev.Page
		} else {
			cached.Page.Links = domain.Links{{Rel: domain.RelSelf, Href: pos.PageURL}}
		}
		cached.Page.Entries = nil
		log.Printf("[DEBUG] %s not modified", pos.PageURL)
		return cached, nil
	}
	if res.Page == nil {
		return nil, &FetchError{URL: pos.PageURL, Err: errors.New("empty response")}
	}
	cached.Page = *res.Page
	log.Printf("[DEBUG] fetched %s, %d entries", pos.PageURL, len(res.Page.Entries))
	return cached, nil
}

// unseen returns entries newer than the position's last seen id. An unknown
// id means the whole page is new.
func unseen(cached *domain.CachedPage) []domain.Entry {
	entries := cached.Page.Entries
	last := cached.Position.LastSeenID
	if last == "" {
		return entries
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].ID == last {
			return entries[i+1:]
		}
	}
	return entries
}
