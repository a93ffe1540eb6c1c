package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/pagefeed/pkg/client"
	"github.com/umputun/pagefeed/pkg/codec"
	"github.com/umputun/pagefeed/pkg/config"
	"github.com/umputun/pagefeed/pkg/domain"
	"github.com/umputun/pagefeed/pkg/page"
	"github.com/umputun/pagefeed/pkg/scheduler"
	"github.com/umputun/pagefeed/pkg/store"
	"github.com/umputun/pagefeed/server"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Opts with all CLI options
type Opts struct {
	Server ServerCmd `command:"server" description:"run feed server"`
	Follow FollowCmd `command:"follow" description:"follow a feed and print new entries as json lines"`
	Append AppendCmd `command:"append" description:"append an entry to a feed"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

// ServerCmd runs the feed server
type ServerCmd struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"pagefeed.yml" description:"config file"`
}

// FollowCmd tails a feed
type FollowCmd struct {
	Feed   string `short:"f" long:"feed" env:"FEED" required:"true" description:"feed url"`
	From   string `long:"from" choice:"start" choice:"now" default:"start" description:"where to start without a stored cursor"`
	Cursor string `long:"cursor" env:"CURSOR" description:"cursor file, resumed from and updated after every entry"`
	Config string `short:"c" long:"config" env:"CONFIG" description:"config file with client section"`
	Atom   bool   `long:"atom" description:"request atom representation"`
}

// AppendCmd posts an entry
type AppendCmd struct {
	Feed  string `short:"f" long:"feed" env:"FEED" required:"true" description:"feed url"`
	ID    string `long:"id" description:"entry id, random if empty"`
	Type  string `short:"t" long:"type" default:"text" description:"content type tag"`
	Body  string `short:"b" long:"body" required:"true" description:"content body"`
	Draft bool   `long:"draft" description:"mark entry as draft"`
}

// followLine is an entry printed by follow command
type followLine struct {
	ID      string    `json:"id"`
	Page    string    `json:"page"`
	Updated time.Time `json:"updated"`
	Type    string    `json:"type"`
	Body    string    `json:"body"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}
	if parser.Active == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	SetupLog(opts.Debug)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		lgr.Print("[INFO] termination signal received")
		cancel()
	}()

	var err error
	switch parser.Active.Name {
	case "server":
		lgr.Printf("[INFO] starting pagefeed version %s", revision)
		err = runServer(ctx, opts.Server, opts.Debug)
	case "follow":
		err = runFollow(ctx, opts.Follow, os.Stdout)
	case "append":
		err = runAppend(ctx, opts.Append, os.Stdout)
	}
	cancel()

	if err != nil {
		lgr.Printf("[ERROR] %s failed: %v", parser.Active.Name, err)
		os.Exit(1)
	}
	lgr.Print("[INFO] shutdown complete")
}

// runServer opens the store and runs the indexer and http server until ctx is done
func runServer(ctx context.Context, opts ServerCmd, debug bool) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.New(ctx, store.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.StoreLifetime(),
	}, store.WithTableName(cfg.Database.Table))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			lgr.Printf("[WARN] failed to close store: %v", err)
		}
	}()

	pages := page.NewProvider(st, page.Config{
		Size:      cfg.Server.PageSize,
		BaseURL:   cfg.Server.BaseURL,
		Title:     cfg.Server.Title,
		Generator: domain.Generator{Name: "pagefeed", URI: "https://github.com/umputun/pagefeed", Version: revision},
	})
	sched := scheduler.NewScheduler(st, scheduler.Config{IndexInterval: cfg.Indexer.Interval})
	srv := server.New(cfg, pages, st, sched, revision, debug)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runFollow prints feed entries as json lines until ctx is done
func runFollow(ctx context.Context, opts FollowCmd, out io.Writer) error {
	cfg := &config.Config{}
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.SetDefaults()

	var accept codec.Codec = codec.JSON{}
	if opts.Atom {
		accept = codec.Atom{}
	}
	fetcher := client.NewHTTPFetcher(client.FetcherConfig{
		Timeout:   cfg.Client.Timeout,
		UserAgent: cfg.Client.UserAgent,
		Accept:    accept,
	})

	cursor := client.CursorFile{Path: opts.Cursor}
	strategy, err := followStrategy(opts, cursor, fetcher, cfg.Client.PollInterval)
	if err != nil {
		return err
	}

	retry := cfg.Client.Retry
	eng := client.New(fetcher, strategy, client.WithRetry(client.ExponentialRetry(retry.Attempts, retry.Delay, retry.MaxDelay)))

	enc := json.NewEncoder(out)
	err = eng.Run(ctx, func(_ context.Context, item client.Item) error {
		line := followLine{ID: item.Entry.ID, Page: item.PageURL, Updated: item.Entry.Updated,
			Type: item.Entry.Content.Type, Body: item.Entry.Content.Body}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write entry %s: %w", item.Entry.ID, err)
		}
		if opts.Cursor == "" {
			return nil
		}
		return cursor.Save(item.Position())
	})

	stats := eng.Stats()
	lgr.Printf("[INFO] followed %s: %d fetches, %d not modified, %d entries, %d failures",
		opts.Feed, stats.Fetches, stats.NotModified, stats.Emitted, stats.Failures)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// followStrategy resumes from the cursor file if it has a position, starts as asked otherwise
func followStrategy(opts FollowCmd, cursor client.CursorFile, fetcher client.PageFetcher, poll time.Duration) (client.Strategy, error) {
	if opts.Cursor != "" {
		pos, ok, err := cursor.Load()
		if err != nil {
			return nil, err
		}
		if ok {
			lgr.Printf("[INFO] resuming from %s after %q", pos.PageURL, pos.LastSeenID)
			return client.FromPosition(pos, poll), nil
		}
	}
	if opts.From == "now" {
		return client.FromNowOn(opts.Feed, fetcher, poll), nil
	}
	return client.FromStart(opts.Feed, fetcher, poll), nil
}

// runAppend posts a single entry to the feed
func runAppend(ctx context.Context, opts AppendCmd, out io.Writer) error {
	req := map[string]any{
		"content": map[string]string{"type": opts.Type, "body": opts.Body},
		"draft":   opts.Draft,
	}
	if opts.ID != "" {
		req["id"] = opts.ID
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	url := strings.TrimRight(opts.Feed, "/") + "/entries"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("make request: %w", err)
	}
	httpReq.Header.Set("Content-Type", codec.MediaJSON)

	resp, err := (&http.Client{Timeout: 30 * time.Second}).Do(httpReq)
	if err != nil {
		return fmt.Errorf("post entry: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("post entry: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	_, err = out.Write(respBody)
	return err
}

// SetupLog configures lgr, logs go to stderr so follow output stays clean
func SetupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(os.Stderr), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = append(logOpts, lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
