package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// TaskFunc is one delayed unit of work. A non-nil error is logged by the
// scheduler and retried up to the configured attempt count.
type TaskFunc func(ctx context.Context) error

// Scheduler owns a table of named one-shot tasks. Scheduling under an
// existing key replaces the pending task; Cancel disarms it. Owners cancel
// tasks the moment the entity they guard reaches a terminal state.
type Scheduler struct {
	logger      *logger.Logger
	maxAttempts int
	retryDelay  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	quit   chan struct{}
	wg     sync.WaitGroup
}

func NewScheduler(logger *logger.Logger) *Scheduler {
	return &Scheduler{
		logger:      logger,
		maxAttempts: 3,
		retryDelay:  10 * time.Second,
		timers:      make(map[string]*time.Timer),
		quit:        make(chan struct{}),
	}
}

// NewSchedulerWithRetry overrides the retry policy, mainly for tests.
func NewSchedulerWithRetry(logger *logger.Logger, maxAttempts int, retryDelay time.Duration) *Scheduler {
	s := NewScheduler(logger)
	s.maxAttempts = maxAttempts
	s.retryDelay = retryDelay
	return s
}

func (s *Scheduler) Schedule(key string, delay time.Duration, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if existing, ok := s.timers[key]; ok {
		existing.Stop()
	}

	s.timers[key] = time.AfterFunc(delay, func() {
		s.fire(key, fn)
	})

	s.logger.Debug("task scheduled",
		zap.String("task", key),
		zap.Duration("delay", delay),
	)
}

// Cancel disarms a pending task. Returns false when no task was pending
// under the key (already fired or never scheduled).
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[key]
	if !ok {
		return false
	}
	delete(s.timers, key)

	stopped := timer.Stop()
	if stopped {
		s.logger.Debug("task cancelled", zap.String("task", key))
	}
	return stopped
}

// Pending reports whether a task is still armed under the key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}

// Stop disarms every pending task and waits for in-flight ones to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.quit)
	}
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) fire(key string, fn TaskFunc) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := fn(context.Background())
		if err == nil {
			return
		}

		s.logger.Error("scheduled task failed",
			zap.String("task", key),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < s.maxAttempts {
			timer := time.NewTimer(s.retryDelay)
			select {
			case <-timer.C:
			case <-s.quit:
				timer.Stop()
				s.logger.Debug("retry abandoned on shutdown", zap.String("task", key))
				return
			}
		}
	}

	s.logger.Error("scheduled task gave up",
		zap.String("task", key),
		zap.Int("attempts", s.maxAttempts),
	)
}
