package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/pagefeed/pkg/client"
)

// lineWriter collects output and cancels follow after limit lines
type lineWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	limit  int
	cancel context.CancelFunc
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.buf.Write(p)
	if strings.Count(w.buf.String(), "\n") >= w.limit {
		w.cancel()
	}
	return n, err
}

func (w *lineWriter) lines() []followLine {
	w.mu.Lock()
	defer w.mu.Unlock()
	var res []followLine
	for _, l := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		var fl followLine
		if err := json.Unmarshal([]byte(l), &fl); err == nil {
			res = append(res, fl)
		}
	}
	return res
}

func TestRunServer_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := runServer(ctx, ServerCmd{Config: "non-existent-config.yml"}, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestRunServer_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid-config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := runServer(ctx, ServerCmd{Config: configPath}, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestRun_ServerAppendFollow(t *testing.T) {
	// find free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	tmpDir := t.TempDir()
	feedURL := fmt.Sprintf("http://%s/feed", addr)
	configPath := filepath.Join(tmpDir, "pagefeed.yml")
	configContent := fmt.Sprintf(`
server:
  listen: %q
  base_url: %s
  page_size: 2
database:
  dsn: file:%s
indexer:
  interval: 50ms
client:
  poll_interval: 20ms
  retry:
    attempts: 3
    delay: 10ms
    max_delay: 100ms
`, addr, feedURL, filepath.Join(tmpDir, "feed.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	serverCtx, stopServer := context.WithCancel(ctx)
	serverErr := make(chan error, 1)
	go func() { serverErr <- runServer(serverCtx, ServerCmd{Config: configPath}, false) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(feedURL)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond, "server started")

	for i := range 3 {
		var out bytes.Buffer
		require.NoError(t, runAppend(ctx, AppendCmd{Feed: feedURL, ID: fmt.Sprintf("e%d", i), Type: "text", Body: "hello"}, &out))
		assert.Contains(t, out.String(), fmt.Sprintf(`"id":"e%d"`, i))
	}
	err = runAppend(ctx, AppendCmd{Feed: feedURL, ID: "e0", Type: "text", Body: "again"}, io.Discard)
	require.Error(t, err, "duplicate id rejected")
	assert.Contains(t, err.Error(), "409")

	cursorPath := filepath.Join(tmpDir, "cursor.json")
	follow := func(limit int) []followLine {
		followCtx, stop := context.WithCancel(ctx)
		defer stop()
		w := &lineWriter{limit: limit, cancel: stop}
		require.NoError(t, runFollow(followCtx, FollowCmd{Feed: feedURL, From: "start", Cursor: cursorPath, Config: configPath}, w))
		return w.lines()
	}

	lines := follow(3)
	require.Len(t, lines, 3)
	for i, l := range lines {
		assert.Equal(t, fmt.Sprintf("e%d", i), l.ID)
		assert.Equal(t, "hello", l.Body)
	}
	assert.Equal(t, feedURL+"/1", lines[2].Page)

	pos, ok, err := client.CursorFile{Path: cursorPath}.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "e2", pos.LastSeenID)

	// resumed follower sees only what was published after the cursor
	require.NoError(t, runAppend(ctx, AppendCmd{Feed: feedURL, ID: "e3", Type: "text", Body: "later"}, io.Discard))
	lines = follow(1)
	require.Len(t, lines, 1)
	assert.Equal(t, "e3", lines[0].ID)
	assert.Equal(t, "later", lines[0].Body)

	stopServer()
	select {
	case err := <-serverErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server shutdown timeout")
	}
}

func TestRunFollow_BadCursor(t *testing.T) {
	cursorPath := filepath.Join(t.TempDir(), "cursor.json")
	require.NoError(t, os.WriteFile(cursorPath, []byte("{"), 0o600))
	err := runFollow(context.Background(), FollowCmd{Feed: "http://127.0.0.1:1/feed", Cursor: cursorPath}, io.Discard)
	require.Error(t, err)
}

func TestSetupLog(t *testing.T) {
	t.Run("debug mode enabled", func(t *testing.T) {
		SetupLog(true)
	})

	t.Run("debug mode disabled", func(t *testing.T) {
		SetupLog(false)
	})

	t.Run("with secrets", func(t *testing.T) {
		SetupLog(true, "secret1", "secret2")
	})
}
