package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/umputun/pagefeed/pkg/codec"
	"github.com/umputun/pagefeed/pkg/domain"
)

const maxPageSize = 32 << 20

// ErrPageNotFound returned when the server has no such page, e.g. a stale
// cursor pointing past the head. Not retryable.
var ErrPageNotFound = errors.New("page not found")

// FetchError is a failed page fetch: transport error, unexpected status or undecodable body
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchResult is a fetched page or a not-modified answer
type FetchResult struct {
	Page        *domain.FeedPage // nil if NotModified
	ETag        string
	NotModified bool
}

//go:generate moq -out mocks/page_fetcher.go -pkg mocks -skip-ensure -fmt goimports . PageFetcher

// PageFetcher retrieves a feed page, conditionally when etag is not empty
type PageFetcher interface {
	Fetch(ctx context.Context, url, etag string) (FetchResult, error)
}

// FetcherConfig defines HTTPFetcher parameters
type FetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
	Accept    codec.Codec    // preferred representation, JSON by default
	Registry  codec.Registry // typed content decoders
	Client    *http.Client   // optional, overrides Timeout
}

// HTTPFetcher fetches pages with conditional GET
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	accept    codec.Codec
	registry  codec.Registry
}

// NewHTTPFetcher makes a fetcher with pooled http client
func NewHTTPFetcher(cfg FetcherConfig) *HTTPFetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pagefeed-client/1.0"
	}
	if cfg.Accept == nil {
		cfg.Accept = codec.JSON{}
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &HTTPFetcher{client: client, userAgent: cfg.UserAgent, accept: cfg.Accept, registry: cfg.Registry}
}

// Fetch retrieves the page at url. With etag set the request is conditional
// and a 304 answer returns NotModified without a page.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, etag string) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return FetchResult{}, &FetchError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", f.accept.ContentType())
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		newTag := resp.Header.Get("ETag")
		if newTag == "" {
			newTag = etag
		}
		return FetchResult{ETag: newTag, NotModified: true}, nil
	case http.StatusNotFound:
		return FetchResult{}, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: ErrPageNotFound}
	default:
		return FetchResult{}, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: errors.New("unexpected status")}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return FetchResult{}, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	c := f.accept
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if c, err = codec.ForContentType(ct); err != nil {
			return FetchResult{}, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
		}
	}
	page, err := c.Decode(body, f.registry)
	if err != nil {
		return FetchResult{}, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode page: %w", err)}
	}
	return FetchResult{Page: page, ETag: resp.Header.Get("ETag")}, nil
}
