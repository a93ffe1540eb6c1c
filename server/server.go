package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/pagefeed/pkg/domain"
	"github.com/umputun/pagefeed/pkg/page"
	"github.com/umputun/pagefeed/pkg/store"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/pages.go -pkg mocks -skip-ensure -fmt goimports . Pages
//go:generate moq -out mocks/entries.go -pkg mocks -skip-ensure -fmt goimports . Entries
//go:generate moq -out mocks/scheduler.go -pkg mocks -skip-ensure -fmt goimports . Scheduler

// Server represents HTTP server instance
type Server struct {
	config    ConfigProvider
	pages     Pages
	entries   Entries
	scheduler Scheduler
	version   string
	debug     bool
	feedPath  string
	sanitizer *bluemonday.Policy

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Pages builds feed pages
type Pages interface {
	Head(ctx context.Context) (*domain.FeedPage, error)
	Build(ctx context.Context, number int64) (*domain.FeedPage, error)
	URLs() page.URLs
}

// Entries is the entry store
type Entries interface {
	Append(ctx context.Context, entries ...domain.Entry) ([]domain.Entry, error)
	Get(ctx context.Context, id string) (store.StoredEntry, error)
	Count(ctx context.Context) (int64, error)
	Pending(ctx context.Context) (int64, error)
}

// Scheduler interface for on-demand indexing
type Scheduler interface {
	Trigger()
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
	GetThrottle() int
}

// New initializes a new server instance
func New(cfg ConfigProvider, pages Pages, entries Entries, scheduler Scheduler, version string, debug bool) *Server {
	s := &Server{
		config:    cfg,
		pages:     pages,
		entries:   entries,
		scheduler: scheduler,
		version:   version,
		debug:     debug,
		feedPath:  feedPath(pages.URLs()),
		sanitizer: bluemonday.UGCPolicy(),
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	lgr.Printf("[INFO] starting server on %s, feed at %s", listen, s.pages.URLs().Feed())

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.lock.Lock()
		defer s.lock.Unlock()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("pagefeed", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	if throttle := s.config.GetThrottle(); throttle > 0 {
		s.router.Use(rest.Throttle(int64(throttle)))
	}
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
	})

	s.router.HandleFunc("GET "+s.feedPath, s.headHandler)
	s.router.HandleFunc("GET "+s.feedPath+"/{page}", s.pageHandler)
	s.router.HandleFunc("POST "+s.feedPath+"/entries", s.appendHandler)
	s.router.HandleFunc("GET "+s.feedPath+"/entries/{id}", s.entryHandler)
}

// feedPath returns path part of the feed url, /feed if it has none
func feedPath(urls page.URLs) string {
	u, err := url.Parse(urls.Feed())
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/feed"
	}
	return u.Path
}
