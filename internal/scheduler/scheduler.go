package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"inbox-triage-go/internal/config"
	"inbox-triage-go/internal/engine"
	"inbox-triage-go/internal/guidance"
	"inbox-triage-go/internal/model"
	"inbox-triage-go/internal/poll"
)

// Scheduler manages the periodic triage runs
type Scheduler struct {
	cron         *cron.Cron
	entryID      cron.EntryID
	config       *config.SchedulerConfig
	source       poll.Source
	engine       *engine.Engine
	snapshotPath string
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	isRunning    bool
	mu           sync.RWMutex

	lastResult *model.RunResult
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.SchedulerConfig, source poll.Source, eng *engine.Engine, snapshotPath string) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:         cron.New(cron.WithSeconds()),
		config:       cfg,
		source:       source,
		engine:       eng,
		snapshotPath: snapshotPath,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	// Stop cancels the context, so a restart needs a fresh one.
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)

	entryID, err := s.cron.AddFunc(schedule, s.runCycle)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()

	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// runCycle polls the configured mailboxes and executes one triage run.
func (s *Scheduler) runCycle() {
	s.wg.Add(1)
	defer s.wg.Done()

	logrus.Info("Starting triage cycle")

	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping cycle")
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	startTime := time.Now()

	batch, err := s.source.Poll(ctx)
	if err != nil {
		logrus.Errorf("Failed to poll mailboxes: %v", err)
		return
	}

	logrus.Infof("Polled %d new messages", len(batch.Messages))

	snapshot, warning := guidance.LoadSnapshot(s.snapshotPath)
	if warning != "" {
		logrus.Warnf("Guidance degraded: %s", warning)
	}

	result, err := s.engine.Execute(ctx, batch, snapshot)
	if err != nil {
		logrus.Errorf("Triage run %s aborted: %v", batch.RunID, err)
		return
	}

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	logrus.Infof("Triage cycle completed in %v", time.Since(startTime))
}

// RunOnce runs one triage cycle immediately (for manual triggering)
func (s *Scheduler) RunOnce() error {
	logrus.Info("Running triage cycle once")
	s.runCycle()
	return nil
}

// LastResult returns the result of the most recent completed run, or nil.
func (s *Scheduler) LastResult() *model.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	if !s.isRunning {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRun returns the time of the last run
func (s *Scheduler) GetLastRun() time.Time {
	if !s.isRunning {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Prev
}

// Wait waits for the scheduler to stop
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
