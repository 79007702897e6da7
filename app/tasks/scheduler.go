package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultCheckInterval = 5 * time.Minute
	DefaultStaleAfter    = 5 * time.Hour
	DefaultTaskTimeout   = 5 * time.Minute
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Options struct {
	CheckInterval time.Duration
	StaleAfter    time.Duration
	TaskTimeout   time.Duration
	Now           func() time.Time
}

// Scheduler checks catalog age on every tick and queues a refresh once it is
// older than StaleAfter. Refreshes run on a single worker.
type Scheduler struct {
	refresher     Refresher
	checkInterval time.Duration
	staleAfter    time.Duration
	taskTimeout   time.Duration
	now           func() time.Time
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
}

func NewScheduler(refresher Refresher, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		refresher:     refresher,
		checkInterval: opts.CheckInterval,
		staleAfter:    opts.StaleAfter,
		taskTimeout:   opts.TaskTimeout,
		now:           opts.Now,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 1),
	}
	if s.checkInterval <= 0 {
		s.checkInterval = DefaultCheckInterval
	}
	if s.staleAfter <= 0 {
		s.staleAfter = DefaultStaleAfter
	}
	if s.taskTimeout <= 0 {
		s.taskTimeout = DefaultTaskTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.checkStaleness()
			}
		}
	}()

	slog.Debug("Scheduler started", "check_interval", s.checkInterval, "stale_after", s.staleAfter)
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// Stale reports whether the catalogs are older than the staleness window.
func (s *Scheduler) Stale() bool {
	age := s.now().Sub(s.refresher.State().LastRefreshAt)
	return age > s.staleAfter
}

func (s *Scheduler) checkStaleness() {
	if !s.Stale() {
		slog.Debug("Catalog is fresh", "last_refresh_at", s.refresher.State().LastRefreshAt)
		return
	}
	if s.refresher.Refreshing() || len(s.taskQueue) > 0 {
		slog.Debug("Catalog refresh already pending")
		return
	}

	if err := s.EnqueueTask(NewRefreshCatalogTask(s.refresher)); err != nil {
		slog.Debug("Catalog refresh not queued", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := min(time.Duration(1<<uint(task.GetRetryCount()-1))*time.Second, 30*time.Second)

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
