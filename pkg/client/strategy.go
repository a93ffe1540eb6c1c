package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/pagefeed/pkg/domain"
)

// ErrNoPage returned by a strategy asked to move on without a previous page
var ErrNoPage = errors.New("no previous page to continue from")

// Strategy decides which page to read next. The first call returns the
// starting position, every later call derives the position from the page
// fetched in the previous cycle.
type Strategy interface {
	NextPosition(ctx context.Context, prev *domain.CachedPage) (domain.FeedPosition, error)
}

// follower implements the shared part of all strategies: walk to the newer
// page while one exists, poll the head otherwise.
type follower struct {
	pollInterval time.Duration
	initial      func(ctx context.Context) (domain.FeedPosition, error)

	mu      sync.Mutex
	started bool
}

// NextPosition returns the starting position once, then follows prev
func (f *follower) NextPosition(ctx context.Context, prev *domain.CachedPage) (domain.FeedPosition, error) {
	f.mu.Lock()
	started := f.started
	f.mu.Unlock()

	if !started {
		pos, err := f.initial(ctx)
		if err != nil {
			return domain.FeedPosition{}, err
		}
		f.mu.Lock()
		f.started = true
		f.mu.Unlock()
		log.Printf("[DEBUG] starting position %s, last seen %q", pos.PageURL, pos.LastSeenID)
		return pos, nil
	}

	if prev == nil {
		return domain.FeedPosition{}, ErrNoPage
	}

	if newer, ok := prev.Page.Previous(); ok {
		return domain.FeedPosition{PageURL: newer}, nil
	}

	// head reached, wait before polling it again
	if err := sleep(ctx, f.pollInterval); err != nil {
		return domain.FeedPosition{}, err
	}

	pos := domain.FeedPosition{PageURL: prev.Page.Self(), LastSeenID: prev.Position.LastSeenID}
	if pos.PageURL == "" {
		pos.PageURL = prev.Position.PageURL
	}
	if latest, ok := prev.Page.MostRecent(); ok {
		pos.LastSeenID = latest.ID
	}
	return pos, nil
}

// FromStart reads the whole feed from the oldest page
func FromStart(feedURL string, fetcher PageFetcher, pollInterval time.Duration) Strategy {
	return &follower{pollInterval: pollInterval, initial: func(ctx context.Context) (domain.FeedPosition, error) {
		head, err := fetchHead(ctx, fetcher, feedURL)
		if err != nil {
			return domain.FeedPosition{}, err
		}
		if last, ok := head.Last(); ok {
			return domain.FeedPosition{PageURL: last}, nil
		}
		return domain.FeedPosition{PageURL: pageURL(head, feedURL)}, nil
	}}
}

// FromNowOn skips everything published so far and reads only new entries
func FromNowOn(feedURL string, fetcher PageFetcher, pollInterval time.Duration) Strategy {
	return &follower{pollInterval: pollInterval, initial: func(ctx context.Context) (domain.FeedPosition, error) {
		head, err := fetchHead(ctx, fetcher, feedURL)
		if err != nil {
			return domain.FeedPosition{}, err
		}
		pos := domain.FeedPosition{PageURL: pageURL(head, feedURL)}
		if latest, ok := head.MostRecent(); ok {
			pos.LastSeenID = latest.ID
		}
		return pos, nil
	}}
}

// FromPosition resumes from a stored cursor
func FromPosition(pos domain.FeedPosition, pollInterval time.Duration) Strategy {
	return &follower{pollInterval: pollInterval, initial: func(context.Context) (domain.FeedPosition, error) {
		if pos.PageURL == "" {
			return domain.FeedPosition{}, errors.New("position without page url")
		}
		return pos, nil
	}}
}

func fetchHead(ctx context.Context, fetcher PageFetcher, feedURL string) (*domain.FeedPage, error) {
	res, err := fetcher.Fetch(ctx, feedURL, "")
	if err != nil {
		return nil, fmt.Errorf("fetch head page: %w", err)
	}
	if res.Page == nil {
		return nil, fmt.Errorf("fetch head page %s: empty response", feedURL)
	}
	return res.Page, nil
}

func pageURL(p *domain.FeedPage, fallback string) string {
	if self := p.Self(); self != "" {
		return self
	}
	return fallback
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
