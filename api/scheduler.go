/*
scheduler.go - Periodic period status refresh

PURPOSE:
  Period status (past/current/upcoming) is derived from today and is always
  recomputed on read. The stored copy still drifts as days pass, so this
  scheduler rewrites stale statuses for every company on an interval.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Fires once immediately on Start, then on every tick
  - Each company is refreshed in its own transaction
  - Failures are logged and retried on the next tick

USAGE:
  scheduler := NewStatusScheduler(svc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/payroll-engine/payroll"
)

// StatusRefresher is the part of payroll.Service the scheduler drives.
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context) (int, error)
}

var _ StatusRefresher = (*payroll.Service)(nil)

// StatusScheduler refreshes stored period statuses in the background.
type StatusScheduler struct {
	Refresher     StatusRefresher
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewStatusScheduler creates a scheduler with a one hour interval.
func NewStatusScheduler(refresher StatusRefresher, logger *zap.Logger) *StatusScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusScheduler{
		Refresher:     refresher,
		Logger:        logger,
		CheckInterval: time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler. Calling Start twice is a no-op.
func (s *StatusScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("status scheduler disabled")
		return
	}
	if s.running {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.running = true
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.Logger.Info("status scheduler started", zap.Duration("interval", s.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight refresh to finish.
func (s *StatusScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.running = false
	s.Logger.Info("status scheduler stopped")
}

func (s *StatusScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	// Run immediately on start
	s.refresh()

	for {
		select {
		case <-ticker.C:
			s.refresh()
		case <-stop:
			return
		}
	}
}

func (s *StatusScheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.CheckInterval)
	defer cancel()

	updated, err := s.Refresher.RefreshStatuses(ctx)
	if err != nil {
		s.Logger.Error("period status refresh failed", zap.Error(err))
		return
	}
	if updated > 0 {
		s.Logger.Info("period statuses refreshed", zap.Int("updated", updated))
	}
}
