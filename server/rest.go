package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	jsoniter "github.com/json-iterator/go"

	"github.com/umputun/pagefeed/pkg/codec"
	"github.com/umputun/pagefeed/pkg/domain"
	"github.com/umputun/pagefeed/pkg/page"
	"github.com/umputun/pagefeed/pkg/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const immutableCache = "public, max-age=31536000, immutable"

// appendRequest is a single entry in POST body
type appendRequest struct {
	ID      string     `json:"id"`
	Updated *time.Time `json:"updated"`
	Content struct {
		Type string `json:"type"`
		Body string `json:"body"`
	} `json:"content"`
	Draft bool `json:"draft"`
}

type entryResponse struct {
	ID      string       `json:"id"`
	Seq     *int64       `json:"seq,omitempty"`
	Href    string       `json:"href"`
	Updated time.Time    `json:"updated"`
	Content *contentBody `json:"content,omitempty"`
	Draft   bool         `json:"draft,omitempty"`
}

type contentBody struct {
	Type string `json:"type"`
	Body string `json:"body"`
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	count, err := s.entries.Count(r.Context())
	if err != nil {
		renderError(w, r, fmt.Errorf("count entries: %w", err), http.StatusInternalServerError)
		return
	}
	pending, err := s.entries.Pending(r.Context())
	if err != nil {
		renderError(w, r, fmt.Errorf("count pending entries: %w", err), http.StatusInternalServerError)
		return
	}
	rest.RenderJSON(w, rest.JSON{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
		"feed":    s.pages.URLs().Feed(),
		"entries": count,
		"pending": pending,
	})
}

// headHandler serves the current head page under the feed url
func (s *Server) headHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.pages.Head(r.Context())
	if err != nil {
		lgr.Printf("[ERROR] failed to build head page: %v", err)
		renderError(w, r, errors.New("can't build head page"), http.StatusInternalServerError)
		return
	}
	s.writePage(w, r, p)
}

// pageHandler serves a page by number. Complete pages are immutable and cached forever.
func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	n, err := page.ParsePage(r.PathValue("page"))
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}
	p, err := s.pages.Build(r.Context(), n)
	if errors.Is(err, page.ErrOutOfRange) {
		renderError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		lgr.Printf("[ERROR] failed to build page %d: %v", n, err)
		renderError(w, r, fmt.Errorf("can't build page %d", n), http.StatusInternalServerError)
		return
	}
	s.writePage(w, r, p)
}

// writePage encodes page in the representation asked by Accept, with ETag validator
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, p *domain.FeedPage) {
	c := codec.Negotiate(r.Header.Get("Accept"))
	body, err := c.Encode(p)
	if err != nil {
		lgr.Printf("[ERROR] failed to encode page %s: %v", p.Self(), err)
		renderError(w, r, errors.New("can't encode page"), http.StatusInternalServerError)
		return
	}

	etag, err := pageETag(c, p, body)
	if err != nil {
		lgr.Printf("[ERROR] failed to make etag of page %s: %v", p.Self(), err)
		renderError(w, r, errors.New("can't encode page"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Vary", "Accept")
	if p.IsComplete() {
		w.Header().Set("Cache-Control", immutableCache)
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", c.ContentType()+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		lgr.Printf("[WARN] failed to write page %s: %v", p.Self(), err)
	}
}

// appendHandler stores posted entries, a single object or an array.
// HTML content is sanitized before it is stored.
func (s *Server) appendHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		renderError(w, r, fmt.Errorf("read body: %w", err), http.StatusBadRequest)
		return
	}

	var reqs []appendRequest
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &reqs)
	} else {
		var one appendRequest
		err = json.Unmarshal(trimmed, &one)
		reqs = []appendRequest{one}
	}
	if err != nil {
		renderError(w, r, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	if len(reqs) == 0 {
		renderError(w, r, errors.New("no entries"), http.StatusBadRequest)
		return
	}

	entries := make([]domain.Entry, 0, len(reqs))
	for i, req := range reqs {
		if req.Content.Type == "" {
			renderError(w, r, fmt.Errorf("entry %d: content type is required", i), http.StatusBadRequest)
			return
		}
		entries = append(entries, s.toEntry(req))
	}

	stored, err := s.entries.Append(r.Context(), entries...)
	if errors.Is(err, store.ErrDuplicateID) {
		renderError(w, r, err, http.StatusConflict)
		return
	}
	if err != nil {
		lgr.Printf("[ERROR] failed to append %d entries: %v", len(entries), err)
		renderError(w, r, errors.New("can't store entries"), http.StatusInternalServerError)
		return
	}
	s.scheduler.Trigger()

	res := make([]entryResponse, 0, len(stored))
	for _, e := range stored {
		res = append(res, entryResponse{ID: e.ID, Href: s.pages.URLs().Entry(e.ID), Updated: e.Updated})
	}
	lgr.Printf("[DEBUG] appended %d entries", len(stored))
	renderJSON(w, r, http.StatusCreated, res)
}

// entryHandler returns a single stored entry
func (s *Server) entryHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, err := s.entries.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		renderError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		lgr.Printf("[ERROR] failed to get entry %s: %v", id, err)
		renderError(w, r, errors.New("can't get entry"), http.StatusInternalServerError)
		return
	}

	res := entryResponse{
		ID:      e.ID,
		Href:    s.pages.URLs().Entry(e.ID),
		Updated: e.Updated,
		Content: &contentBody{Type: e.Content.Type, Body: e.Content.Body},
	}
	if e.Seq >= 0 {
		res.Seq = &e.Seq
	}
	if e.Control != nil {
		res.Draft = e.Control.Draft
	}
	renderJSON(w, r, http.StatusOK, res)
}

func (s *Server) toEntry(req appendRequest) domain.Entry {
	e := domain.Entry{ID: req.ID, Content: domain.Content{Type: req.Content.Type, Body: req.Content.Body}}
	if req.Updated != nil {
		e.Updated = *req.Updated
	}
	if isHTML(req.Content.Type) {
		e.Content.Body = s.sanitizer.Sanitize(req.Content.Body)
	}
	if req.Draft {
		e.Control = &domain.Control{Draft: true}
	}
	return e
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "html" || ct == "xhtml" || strings.HasPrefix(ct, "text/html")
}

// makeETag returns strong validator of the encoded page
// pageETag returns the validator of an encoded page. An empty page is stamped
// with the build time, so it is hashed without it to stay stable between requests.
func pageETag(c codec.Codec, p *domain.FeedPage, body []byte) (string, error) {
	if len(p.Entries) > 0 {
		return makeETag(body), nil
	}
	stable := *p
	stable.Updated = time.Time{}
	data, err := c.Encode(&stable)
	if err != nil {
		return "", fmt.Errorf("encode page for etag: %w", err)
	}
	return makeETag(data), nil
}

func makeETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// etagMatch checks If-None-Match header value against etag, weak comparison
func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, rest.JSON{"error": errMsg})
}
