// Package schedule runs the archive pipeline on a cron schedule in
// daemon mode and reloads rule maps when they change on disk.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"waveform-hq/archivist/pkg/config"
)

// Scheduler triggers archive runs on a cron schedule. Runs are
// single-flight: a tick that fires while the previous run is still in
// progress is skipped, never queued.
type Scheduler struct {
	cfg    config.ScheduleConfig
	run    func(ctx context.Context) error
	cron   *cron.Cron
	logger *slog.Logger

	// busy is independent of mu: Stop drains running ticks while
	// holding mu, and a tick must be able to clear busy during that
	// drain without deadlocking.
	busy atomic.Bool

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler that invokes run on every tick.
func NewScheduler(cfg config.ScheduleConfig, run func(ctx context.Context) error, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		run:    run,
		cron:   cron.New(),
		logger: logger.With("component", "scheduler"),
	}
}

// Start validates the cron expression and begins scheduling. It returns
// immediately; the runs happen on the cron goroutine until the context
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := cron.ParseStandard(s.cfg.Cron); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.cfg.Cron, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.Cron, func() {
		s.tick(ctx)
	}); err != nil {
		return fmt.Errorf("schedule run: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "schedule", s.cfg.Cron)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// tick runs one scheduled pass unless one is already in flight.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, skipping tick")
		return
	}
	defer s.busy.Store(false)

	s.logger.Info("scheduled run starting")
	if err := s.run(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
		return
	}
	s.logger.Info("scheduled run completed")
}

// Stop stops the cron loop and waits for a running pass to finish. The
// drain happens outside the mutex so an in-flight tick can complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done := s.cron.Stop()
	s.mu.Unlock()

	<-done.Done()
	s.logger.Info("scheduler stopped")
}
