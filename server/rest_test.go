package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/pagefeed/pkg/client"
	"github.com/umputun/pagefeed/pkg/codec"
	"github.com/umputun/pagefeed/pkg/domain"
	"github.com/umputun/pagefeed/pkg/page"
	"github.com/umputun/pagefeed/pkg/store"
	"github.com/umputun/pagefeed/server/mocks"
)

func TestServer_statusHandler(t *testing.T) {
	entries := &mocks.EntriesMock{
		CountFunc:   func(context.Context) (int64, error) { return 42, nil },
		PendingFunc: func(context.Context) (int64, error) { return 3, nil },
	}
	srv := New(testConfig(":8080"), testPages("http://example.com/feed"), entries, &mocks.SchedulerMock{}, "1.2.3", false)

	req := httptest.NewRequest("GET", "/api/v1/status", http.NoBody)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "1.2.3", status["version"])
	assert.Equal(t, "http://example.com/feed", status["feed"])
	assert.InDelta(t, 42, status["entries"], 0.001)
	assert.InDelta(t, 3, status["pending"], 0.001)
	assert.NotEmpty(t, status["time"])
}

func TestServer_statusHandlerError(t *testing.T) {
	entries := &mocks.EntriesMock{CountFunc: func(context.Context) (int64, error) { return 0, errors.New("db is gone") }}
	srv := New(testConfig(":8080"), testPages("http://example.com/feed"), entries, &mocks.SchedulerMock{}, "1.2.3", false)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/status", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_Pages(t *testing.T) {
	ts, st := newStoreServer(t, 2)
	ctx := context.Background()
	for _, id := range []string{"e0", "e1", "e2", "e3", "e4"} {
		_, err := st.Append(ctx, domain.Entry{ID: id, Content: domain.Content{Type: "text", Body: id}})
		require.NoError(t, err)
	}

	get := func(t *testing.T, path string, hdr map[string]string) *http.Response {
		t.Helper()
		req, err := http.NewRequest("GET", ts.URL+path, http.NoBody)
		require.NoError(t, err)
		for k, v := range hdr {
			req.Header.Set(k, v)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}
	decode := func(t *testing.T, resp *http.Response) *domain.FeedPage {
		t.Helper()
		c, err := codec.ForContentType(resp.Header.Get("Content-Type"))
		require.NoError(t, err)
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		p, err := c.Decode(data, nil)
		require.NoError(t, err)
		return p
	}

	t.Run("head", func(t *testing.T) {
		resp := get(t, "/feed", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
		p := decode(t, resp)
		assert.Equal(t, ts.URL+"/feed/2", p.Self())
		assert.False(t, p.IsComplete())
		require.Len(t, p.Entries, 1)
		assert.Equal(t, "e4", p.Entries[0].ID)
		next, ok := p.Next()
		require.True(t, ok)
		assert.Equal(t, ts.URL+"/feed/1", next)
	})

	t.Run("complete page cached forever", func(t *testing.T) {
		resp := get(t, "/feed/0", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, immutableCache, resp.Header.Get("Cache-Control"))
		etag := resp.Header.Get("ETag")
		require.NotEmpty(t, etag)
		p := decode(t, resp)
		assert.True(t, p.IsComplete())
		assert.Equal(t, []string{"e0", "e1"}, []string{p.Entries[0].ID, p.Entries[1].ID})

		resp = get(t, "/feed/0", map[string]string{"If-None-Match": etag})
		assert.Equal(t, http.StatusNotModified, resp.StatusCode)

		resp = get(t, "/feed/0", map[string]string{"If-None-Match": `"other", W/` + etag})
		assert.Equal(t, http.StatusNotModified, resp.StatusCode)

		resp = get(t, "/feed/0", map[string]string{"If-None-Match": `"other"`})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("atom representation", func(t *testing.T) {
		resp := get(t, "/feed/1", map[string]string{"Accept": codec.MediaAtom})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), codec.MediaAtom)
		p := decode(t, resp)
		assert.Equal(t, ts.URL+"/feed/1", p.Self())
		require.Len(t, p.Entries, 2)
		assert.Equal(t, "e2", p.Entries[0].ID)
	})

	t.Run("out of range", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, "/feed/3", nil).StatusCode)
	})

	t.Run("bad page number", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get(t, "/feed/abc", nil).StatusCode)
		assert.Equal(t, http.StatusBadRequest, get(t, "/feed/-1", nil).StatusCode)
	})

	t.Run("entry", func(t *testing.T) {
		resp := get(t, "/feed/entries/e3", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var e entryResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
		assert.Equal(t, "e3", e.ID)
		require.NotNil(t, e.Seq)
		assert.EqualValues(t, 3, *e.Seq)
		assert.Equal(t, ts.URL+"/feed/entries/e3", e.Href)

		assert.Equal(t, http.StatusNotFound, get(t, "/feed/entries/nope", nil).StatusCode)
	})
}

func TestServer_EmptyHeadNotModified(t *testing.T) {
	ts, st := newStoreServer(t, 2)

	get := func(t *testing.T, etag string) *http.Response {
		t.Helper()
		req, err := http.NewRequest("GET", ts.URL+"/feed", http.NoBody)
		require.NoError(t, err)
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp
	}

	t.Run("empty feed", func(t *testing.T) {
		first := get(t, "")
		require.Equal(t, http.StatusOK, first.StatusCode)
		etag := first.Header.Get("ETag")
		require.NotEmpty(t, etag)

		time.Sleep(5 * time.Millisecond)
		resp := get(t, etag)
		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
		assert.Equal(t, etag, resp.Header.Get("ETag"))
	})

	t.Run("empty head after a page filled", func(t *testing.T) {
		etag := get(t, "").Header.Get("ETag")
		for _, id := range []string{"e0", "e1"} {
			_, err := st.Append(context.Background(), domain.Entry{ID: id, Content: domain.Content{Type: "text", Body: id}})
			require.NoError(t, err)
		}

		first := get(t, etag)
		require.Equal(t, http.StatusOK, first.StatusCode, "links changed, new validator")
		etag = first.Header.Get("ETag")
		assert.NotEmpty(t, etag)

		time.Sleep(5 * time.Millisecond)
		resp := get(t, etag)
		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	})
}

func TestServer_pageHandlerErrors(t *testing.T) {
	pages := testPages("http://example.com/feed")
	pages.HeadFunc = func(context.Context) (*domain.FeedPage, error) { return nil, errors.New("index failed") }
	pages.BuildFunc = func(context.Context, int64) (*domain.FeedPage, error) { return nil, errors.New("index failed") }
	srv := New(testConfig(":8080"), pages, &mocks.EntriesMock{}, &mocks.SchedulerMock{}, "test", false)

	for _, path := range []string{"/feed", "/feed/1"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, http.NoBody))
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.NotContains(t, w.Body.String(), "index failed", "internal error not exposed")
	}

	pages.BuildFunc = func(context.Context, int64) (*domain.FeedPage, error) {
		return nil, page.ErrOutOfRange
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/feed/7", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.Len(t, pages.BuildCalls(), 2)
	assert.EqualValues(t, 7, pages.BuildCalls()[1].Number)
}

func TestServer_appendHandler(t *testing.T) {
	newServer := func(appendErr error) (*Server, *mocks.EntriesMock, *mocks.SchedulerMock) {
		entries := &mocks.EntriesMock{AppendFunc: func(_ context.Context, ee ...domain.Entry) ([]domain.Entry, error) {
			if appendErr != nil {
				return nil, appendErr
			}
			res := make([]domain.Entry, len(ee))
			for i, e := range ee {
				if e.ID == "" {
					e.ID = "generated"
				}
				res[i] = e
			}
			return res, nil
		}}
		sched := &mocks.SchedulerMock{TriggerFunc: func() {}}
		return New(testConfig(":8080"), testPages("http://example.com/feed"), entries, sched, "test", false), entries, sched
	}
	post := func(srv *Server, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/feed/entries", strings.NewReader(body)))
		return w
	}

	t.Run("single entry", func(t *testing.T) {
		srv, entries, sched := newServer(nil)
		w := post(srv, `{"id":"o1","updated":"2024-05-01T10:00:00Z","content":{"type":"order","body":"{\"n\":1}"}}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		require.Len(t, entries.AppendCalls(), 1)
		got := entries.AppendCalls()[0].Entries
		require.Len(t, got, 1)
		assert.Equal(t, "o1", got[0].ID)
		assert.Equal(t, domain.Content{Type: "order", Body: `{"n":1}`}, got[0].Content)
		assert.True(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Equal(got[0].Updated))
		assert.Nil(t, got[0].Control)
		assert.Len(t, sched.TriggerCalls(), 1)

		var res []entryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res, 1)
		assert.Equal(t, "http://example.com/feed/entries/o1", res[0].Href)
	})

	t.Run("batch with sanitized html", func(t *testing.T) {
		srv, entries, _ := newServer(nil)
		w := post(srv, `[{"content":{"type":"html","body":"<b>hi</b><script>alert(1)</script>"},"draft":true},
			{"content":{"type":"text","body":"<script>kept</script>"}}]`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		got := entries.AppendCalls()[0].Entries
		require.Len(t, got, 2)
		assert.Equal(t, "<b>hi</b>", got[0].Content.Body)
		require.NotNil(t, got[0].Control)
		assert.True(t, got[0].Control.Draft)
		assert.Equal(t, "<script>kept</script>", got[1].Content.Body, "non-html content stored as is")
	})

	tbl := []struct {
		name string
		body string
		err  error
		code int
	}{
		{name: "invalid json", body: `{"content":`, code: http.StatusBadRequest},
		{name: "missing type", body: `{"content":{"body":"x"}}`, code: http.StatusBadRequest},
		{name: "empty batch", body: `[]`, code: http.StatusBadRequest},
		{name: "duplicate", body: `{"id":"o1","content":{"type":"t","body":"x"}}`, err: store.ErrDuplicateID, code: http.StatusConflict},
		{name: "store failure", body: `{"content":{"type":"t","body":"x"}}`, err: errors.New("disk full"), code: http.StatusInternalServerError},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, sched := newServer(tt.err)
			w := post(srv, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Empty(t, sched.TriggerCalls())
		})
	}
}

func TestETagMatch(t *testing.T) {
	tbl := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{`*`, true},
		{`"abcd"`, false},
	}
	for _, tt := range tbl {
		assert.Equal(t, tt.want, etagMatch(tt.header, `"abc"`), tt.header)
	}
	assert.Equal(t, makeETag([]byte("page")), makeETag([]byte("page")))
	assert.NotEqual(t, makeETag([]byte("page")), makeETag([]byte("page2")))
}

func TestServer_FollowedByClient(t *testing.T) {
	ts, st := newStoreServer(t, 3)

	for i := range 7 {
		body := fmt.Sprintf(`{"id":"e%d","content":{"type":"text","body":"x"}}`, i)
		resp, err := http.Post(ts.URL+"/feed/entries", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	fetcher := client.NewHTTPFetcher(client.FetcherConfig{Timeout: 5 * time.Second})
	eng := client.New(fetcher, client.FromStart(ts.URL+"/feed", fetcher, 10*time.Millisecond),
		client.WithRetry(client.FixedRetry(3, 10*time.Millisecond)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var ids []string
	var last client.Item
	for item, err := range eng.Entries(ctx) {
		require.NoError(t, err)
		ids = append(ids, item.Entry.ID)
		last = item
		if len(ids) == 7 {
			// published while the client is polling the head
			_, err := st.Append(context.Background(), domain.Entry{ID: "e7", Content: domain.Content{Type: "text", Body: "x"}})
			require.NoError(t, err)
		}
		if len(ids) == 8 {
			break
		}
	}
	assert.Equal(t, []string{"e0", "e1", "e2", "e3", "e4", "e5", "e6", "e7"}, ids)
	assert.Equal(t, ts.URL+"/feed/2", last.PageURL)

	// resume from stored position sees nothing old
	_, err := st.Append(context.Background(), domain.Entry{ID: "e8", Content: domain.Content{Type: "text", Body: "x"}})
	require.NoError(t, err)
	resumed := client.New(fetcher, client.FromPosition(last.Position(), 10*time.Millisecond))
	for item, err := range resumed.Entries(ctx) {
		require.NoError(t, err)
		assert.Equal(t, "e8", item.Entry.ID)
		break
	}
}
