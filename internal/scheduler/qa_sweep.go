// Package scheduler runs periodic background jobs on a cron cadence.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/potool/potool/internal/config"
	"github.com/potool/potool/internal/tasks"
)

// QASweepScheduler periodically enqueues a catalog-wide QA sweep. The sweep
// itself runs on the task queue workers; the scheduler only submits it.
type QASweepScheduler struct {
	taskClient *tasks.Client
	cfg        config.QASweep

	cron        *cron.Cron
	entryID     cron.EntryID
	mu          sync.RWMutex
	isRunning   bool
	cancelFunc  context.CancelFunc
	watcherDone chan struct{}
}

// NewQASweepScheduler creates a new scheduler instance
func NewQASweepScheduler(taskClient *tasks.Client, cfg config.QASweep) *QASweepScheduler {
	return &QASweepScheduler{
		taskClient: taskClient,
		cfg:        cfg,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the sweep is enabled
func (s *QASweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("QA sweep scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.enqueueSweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("QA sweep scheduler: started with schedule '%s'. Next run: %v",
		s.cfg.Schedule, s.nextRunLocked())

	watcherDone := make(chan struct{})
	s.watcherDone = watcherDone
	go func() {
		defer close(watcherDone)
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *QASweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	// Release the context watcher started in Start; its re-entrant Stop
	// call is a no-op once isRunning is cleared.
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("QA sweep scheduler: stopped")
}

// RunNow enqueues a sweep immediately, outside the schedule.
func (s *QASweepScheduler) RunNow(ctx context.Context) error {
	return s.submit(ctx)
}

// IsRunning returns whether the scheduler is active
func (s *QASweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next sweep will be enqueued
func (s *QASweepScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	return s.nextRunLocked()
}

func (s *QASweepScheduler) nextRunLocked() *time.Time {
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *QASweepScheduler) enqueueSweep(ctx context.Context) {
	if err := s.submit(ctx); err != nil {
		log.Printf("QA sweep: failed to enqueue: %v", err)
		return
	}
	log.Printf("QA sweep: enqueued")
}

func (s *QASweepScheduler) submit(ctx context.Context) error {
	_, err := s.taskClient.Add(tasks.QASweepTask{}).Ctx(ctx).Save()
	return err
}
