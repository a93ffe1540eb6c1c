// Package scheduler runs background maintenance of the entry store. The
// indexer worker assigns sequence numbers to appended entries periodically
// and on demand, so page reads rarely find unindexed rows.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
)

//go:generate moq -out mocks/indexer.go -pkg mocks -skip-ensure -fmt goimports . Indexer

// Indexer assigns sequence numbers to pending entries
type Indexer interface {
	Index(ctx context.Context) (int, error)
}

// Config holds scheduler configuration
type Config struct {
	IndexInterval time.Duration // zero disables periodic indexing, Trigger still works
}

// Scheduler manages periodic indexing
type Scheduler struct {
	indexer       Indexer
	indexInterval time.Duration
	trigger       chan struct{}

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler(indexer Indexer, cfg Config) *Scheduler {
	return &Scheduler{indexer: indexer, indexInterval: cfg.IndexInterval, trigger: make(chan struct{}, 1)}
}

// Start begins the scheduler in background
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Run(ctx); err != nil && ctx.Err() == nil {
			lgr.Printf("[ERROR] scheduler failed: %v", err)
		}
	}()
	lgr.Printf("[INFO] scheduler started with index interval %v", s.indexInterval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// Run blocks running workers until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	s.indexWorker(ctx)
	return ctx.Err()
}

// Trigger requests an indexing run as soon as possible. Never blocks,
// requests made while one is pending are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// indexWorker indexes on start, on every tick and on trigger
func (s *Scheduler) indexWorker(ctx context.Context) {
	var tick <-chan time.Time
	if s.indexInterval > 0 {
		ticker := time.NewTicker(s.indexInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// run immediately on start
	s.index(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.index(ctx)
		case <-s.trigger:
			s.index(ctx)
		}
	}
}

func (s *Scheduler) index(ctx context.Context) {
	n, err := s.indexer.Index(ctx)
	if err != nil {
		if ctx.Err() == nil {
			lgr.Printf("[WARN] failed to index entries: %v", err)
		}
		return
	}
	if n > 0 {
		lgr.Printf("[DEBUG] indexed %d entries", n)
	}
}
