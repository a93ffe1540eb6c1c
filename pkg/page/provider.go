// Package page slices the indexed entry sequence into fixed-size pages
// with navigation links. Page n holds offsets [n*size, (n+1)*size).
// Links follow the archived-feed convention used by clients: "previous"
// points to the newer page and exists only once a page is complete,
// "next" points to the older page, "last" is always page 0.
package page

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/umputun/pagefeed/pkg/domain"
	"github.com/umputun/pagefeed/pkg/store"
)

//go:generate moq -out mocks/entry_store.go -pkg mocks -skip-ensure -fmt goimports . EntryStore

// ErrOutOfRange returned for a page beyond the current head page
var ErrOutOfRange = errors.New("page out of range")

// EntryStore is the storage used to build pages
type EntryStore interface {
	Index(ctx context.Context) (int, error)
	Count(ctx context.Context) (int64, error)
	Range(ctx context.Context, from int64, limit int) ([]store.StoredEntry, error)
}

// Config defines page provider parameters
type Config struct {
	Size      int    // entries per page
	BaseURL   string // feed URL, pages live under it
	Title     string
	Generator domain.Generator
}

// Provider builds feed pages from the entry store
type Provider struct {
	store     EntryStore
	size      int
	urls      URLs
	title     string
	generator domain.Generator
	now       func() time.Time
}

// NewProvider makes a page provider. Size defaults to 25.
func NewProvider(st EntryStore, cfg Config) *Provider {
	if cfg.Size <= 0 {
		cfg.Size = 25
	}
	if cfg.Title == "" {
		cfg.Title = "pagefeed"
	}
	return &Provider{
		store:     st,
		size:      cfg.Size,
		urls:      URLs{Base: cfg.BaseURL},
		title:     cfg.Title,
		generator: cfg.Generator,
		now:       time.Now,
	}
}

// Size returns configured page size
func (p *Provider) Size() int {
	return p.size
}

// URLs returns URL builder of the provider
func (p *Provider) URLs() URLs {
	return p.urls
}

// HeadNumber indexes pending entries and returns the current head page number
func (p *Provider) HeadNumber(ctx context.Context) (int64, error) {
	if _, err := p.store.Index(ctx); err != nil {
		return 0, fmt.Errorf("index: %w", err)
	}
	total, err := p.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return total / int64(p.size), nil
}

// Head builds the current head page
func (p *Provider) Head(ctx context.Context) (*domain.FeedPage, error) {
	head, err := p.HeadNumber(ctx)
	if err != nil {
		return nil, err
	}
	return p.build(ctx, head)
}

// Build makes the page with the given number. Entries of pending writes
// are indexed first. Pages beyond the head return ErrOutOfRange.
func (p *Provider) Build(ctx context.Context, number int64) (*domain.FeedPage, error) {
	if number < 0 {
		return nil, fmt.Errorf("page %d: %w", number, ErrOutOfRange)
	}
	head, err := p.HeadNumber(ctx)
	if err != nil {
		return nil, err
	}
	if number > head {
		return nil, fmt.Errorf("page %d, head is %d: %w", number, head, ErrOutOfRange)
	}
	return p.build(ctx, number)
}

func (p *Provider) build(ctx context.Context, number int64) (*domain.FeedPage, error) {
	// one extra entry shows whether anything newer exists past this page
	stored, err := p.store.Range(ctx, number*int64(p.size), p.size+1)
	if err != nil {
		return nil, fmt.Errorf("get entries of page %d: %w", number, err)
	}

	complete := len(stored) > p.size
	if complete {
		stored = stored[:p.size]
	}

	entries := make([]domain.Entry, 0, len(stored))
	for _, se := range stored {
		e := se.Entry
		e.Links = domain.Links{{Rel: "edit", Href: p.urls.Entry(e.ID)}}
		entries = append(entries, e)
	}

	links := domain.Links{}.
		Set(domain.RelSelf, p.urls.Page(number)).
		Set(domain.RelFirst, p.urls.Feed()).
		Set(domain.RelLast, p.urls.Page(0))
	if complete {
		links = links.Set(domain.RelPrevious, p.urls.Page(number+1))
	}
	if number > 0 {
		links = links.Set(domain.RelNext, p.urls.Page(number-1))
	}

	updated := p.now().UTC()
	if len(entries) > 0 {
		updated = entries[len(entries)-1].Updated
	}

	return &domain.FeedPage{
		ID:        fmt.Sprintf("urn:pagefeed:%s:page:%d", p.title, number),
		Base:      p.urls.Feed(),
		Title:     p.title,
		Generator: p.generator,
		Updated:   updated,
		Entries:   entries,
		Links:     links,
	}, nil
}
