package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Sweeper periodically deletes messages older than the retention window. It
// runs once immediately when started, to clear any backlog accumulated while
// the process was down, then on every tick until the context is done.
//
// Swept deletions are not broadcast to subscribers; they are observed by
// clients on their next full list fetch.
type Sweeper struct {
	store    MessageStore
	window   time.Duration
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(store MessageStore, window, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		window:   window,
		interval: interval,
		logger:   logger,
	}
}

// Sweep runs a single pass and returns the number of messages removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.window)
	removed, err := s.store.DeleteMessagesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeleteMessagesBefore: %w", err)
	}
	return removed, nil
}

// Start launches the sweep loop on its own goroutine, registered with wg.
func (s *Sweeper) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.run(ctx)
	}()
}

func (s *Sweeper) run(ctx context.Context) {
	s.logger.Info("sweeper started",
		slog.Duration("window", s.window), slog.Duration("interval", s.interval))

	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweepAndLog(ctx)
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	removed, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error(fmt.Sprintf("sweep: %v", err))
		return
	}
	if removed > 0 {
		s.logger.Info("swept expired messages", slog.Int("removed", removed))
	}
}
