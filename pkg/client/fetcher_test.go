package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/pagefeed/pkg/client"
	"github.com/umputun/pagefeed/pkg/codec"
	"github.com/umputun/pagefeed/pkg/domain"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	page := testPage("http://example.com/feed/0", "", "e1", "e2")
	page.Entries[0].Content = domain.Content{Type: "note", Body: `{"text":"hi"}`}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pagefeed-test", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/feed/0":
			if r.Header.Get("If-None-Match") == `"v1"` {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			c := codec.Negotiate(r.Header.Get("Accept"))
			body, err := c.Encode(page)
			require.NoError(t, err)
			w.Header().Set("Content-Type", c.ContentType())
			w.Header().Set("ETag", `"v1"`)
			_, _ = w.Write(body)
		case "/broken":
			w.Header().Set("Content-Type", codec.MediaJSON)
			_, _ = w.Write([]byte("{not json"))
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		case "/fail":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	type note struct {
		Text string `json:"text"`
	}
	reg := codec.Registry{"note": codec.JSONContent[note]()}

	for _, accept := range []codec.Codec{codec.JSON{}, codec.Atom{}} {
		t.Run(accept.ContentType(), func(t *testing.T) {
			f := client.NewHTTPFetcher(client.FetcherConfig{Timeout: time.Second, UserAgent: "pagefeed-test",
				Accept: accept, Registry: reg})

			res, err := f.Fetch(context.Background(), ts.URL+"/feed/0", "")
			require.NoError(t, err)
			assert.False(t, res.NotModified)
			assert.Equal(t, `"v1"`, res.ETag)
			require.NotNil(t, res.Page)
			require.Len(t, res.Page.Entries, 2)
			assert.Equal(t, "http://example.com/feed/0", res.Page.Self())
			n, err := domain.ContentAs[note](res.Page.Entries[0])
			require.NoError(t, err)
			assert.Equal(t, "hi", n.Text)

			res, err = f.Fetch(context.Background(), ts.URL+"/feed/0", `"v1"`)
			require.NoError(t, err)
			assert.True(t, res.NotModified)
			assert.Nil(t, res.Page)
			assert.Equal(t, `"v1"`, res.ETag)
		})
	}

	f := client.NewHTTPFetcher(client.FetcherConfig{UserAgent: "pagefeed-test"})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), ts.URL+"/feed/99", "")
		require.ErrorIs(t, err, client.ErrPageNotFound)
		var fe *client.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), ts.URL+"/fail", "")
		var fe *client.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
		assert.False(t, errors.Is(err, client.ErrPageNotFound))
	})

	t.Run("undecodable body", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), ts.URL+"/broken", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode page")
	})

	t.Run("unsupported media", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), ts.URL+"/html", "")
		require.Error(t, err)
	})

	t.Run("connection refused", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/feed", "")
		var fe *client.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Zero(t, fe.StatusCode)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.Fetch(ctx, ts.URL+"/feed/0", "")
		require.ErrorIs(t, err, context.Canceled)
	})
}
