// Package worker runs the background jobs of the server process.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is used when the scheduler is built with a zero interval.
const DefaultSweepInterval = 2 * time.Minute

// Sweeper performs one status sweep and reports how many tasks changed.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// StatusScheduler runs a Sweeper once at start and then on a fixed interval.
// Start and Stop are safe to call repeatedly.
type StatusScheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewStatusScheduler creates a stopped scheduler.
func NewStatusScheduler(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *StatusScheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusScheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the sweep loop. It is a no-op when already running.
func (s *StatusScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Debug("status scheduler already running")
		return
	}
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.running = true

	go s.run(s.stopChan, s.doneChan)

	s.logger.Info("status scheduler started", slog.Duration("interval", s.interval))
}

func (s *StatusScheduler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StatusScheduler) sweep(ctx context.Context) {
	if updated := s.sweeper.Sweep(ctx); updated > 0 {
		s.logger.Info("scheduled status sweep", slog.Int("updated", updated))
	}
}

// Stop ends the sweep loop and waits for an in-flight sweep to return or
// for ctx to expire. It is a no-op when not running.
func (s *StatusScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopChan)
	done := s.doneChan
	s.mu.Unlock()

	select {
	case <-done:
		s.logger.Info("status scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("status scheduler stop timed out")
		return ctx.Err()
	}
}

// Running reports whether the sweep loop is active.
func (s *StatusScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow performs a sweep on the caller's goroutine, independent of the loop.
func (s *StatusScheduler) RunNow(ctx context.Context) int {
	return s.sweeper.Sweep(ctx)
}
