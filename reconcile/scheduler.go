package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Reconciler repairs the cached availability flags. services.ToolService
// implements it.
type Reconciler interface {
	Reconcile(ctx context.Context) (fixed []int64, idle int64, err error)
}

// Result describes one reconciliation pass.
type Result struct {
	Fixed []int64
	Idle  int64
	Took  time.Duration
}

// Scheduler runs the reconciler on a cron schedule.
type Scheduler struct {
	rec      Reconciler
	schedule string
	log      *slog.Logger
	timeout  time.Duration

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

func NewScheduler(rec Reconciler, schedule string, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		rec:      rec,
		schedule: schedule,
		log:      log.With("component", "reconcile"),
		timeout:  time.Minute,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the job and starts the cron loop. It stops when ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("reconcile failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	s.cron.Start()
	s.isRunning = true
	s.log.Info("scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunOnce performs a single pass immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	fixed, idle, err := s.rec.Reconcile(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Fixed: fixed, Idle: idle, Took: time.Since(start)}

	if len(fixed) > 0 {
		s.log.Warn("repaired availability drift", "tools", fixed)
	}
	if idle > 0 {
		s.log.Info("tools out of service without a loan", "count", idle)
	}
	s.log.Debug("reconcile pass done", "fixed", len(fixed), "idle", idle, "took", res.Took)
	return res, nil
}
