package client_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/pagefeed/pkg/client"
	"github.com/umputun/pagefeed/pkg/domain"
)

func TestCursorFile(t *testing.T) {
	c := client.CursorFile{Path: filepath.Join(t.TempDir(), "cursor.json")}

	_, ok, err := c.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	pos := domain.FeedPosition{PageURL: "http://example.com/feed/2", LastSeenID: "e7"}
	require.NoError(t, c.Save(pos))
	got, ok, err := c.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, pos, got)

	data, err := os.ReadFile(c.Path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"page_url":"http://example.com/feed/2","last_seen_id":"e7"}`, string(data))

	require.NoError(t, os.WriteFile(c.Path, []byte("garbage"), 0o600))
	_, _, err = c.Load()
	require.Error(t, err)
}
