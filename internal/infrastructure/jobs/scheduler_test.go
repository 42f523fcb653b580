package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
)

func TestScheduleFires(t *testing.T) {
	s := NewScheduler(logger.NewNop())
	defer s.Stop()

	fired := make(chan struct{})
	s.Schedule("task", time.Millisecond, func(ctx context.Context) error {
		close(fired)
		return nil
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("task never fired")
	}

	require.Eventually(t, func() bool {
		return !s.Pending("task")
	}, time.Second, 5*time.Millisecond, "fired task must leave the table")
}

func TestCancelDisarms(t *testing.T) {
	s := NewScheduler(logger.NewNop())
	defer s.Stop()

	var fired atomic.Bool
	s.Schedule("task", 50*time.Millisecond, func(ctx context.Context) error {
		fired.Store(true)
		return nil
	})

	assert.True(t, s.Cancel("task"))
	assert.False(t, s.Pending("task"))
	assert.False(t, s.Cancel("task"), "second cancel finds nothing")

	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestScheduleReplacesPendingTask(t *testing.T) {
	s := NewScheduler(logger.NewNop())
	defer s.Stop()

	var firstFired atomic.Bool
	secondFired := make(chan struct{})

	s.Schedule("task", 30*time.Millisecond, func(ctx context.Context) error {
		firstFired.Store(true)
		return nil
	})
	s.Schedule("task", time.Millisecond, func(ctx context.Context) error {
		close(secondFired)
		return nil
	})

	select {
	case <-secondFired:
	case <-time.After(time.Second):
		t.Fatal("replacement task never fired")
	}

	time.Sleep(60 * time.Millisecond)
	assert.False(t, firstFired.Load(), "replaced task must not fire")
}

func TestRetriesBoundedAttempts(t *testing.T) {
	s := NewSchedulerWithRetry(logger.NewNop(), 3, time.Millisecond)
	defer s.Stop()

	var attempts atomic.Int32
	done := make(chan struct{})
	s.Schedule("flaky", time.Millisecond, func(ctx context.Context) error {
		if attempts.Add(1) == 3 {
			defer close(done)
		}
		return errors.New("still broken")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never exhausted its attempts")
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load(), "attempts stop at the bound")
}

func TestRetryStopsOnSuccess(t *testing.T) {
	s := NewSchedulerWithRetry(logger.NewNop(), 5, time.Millisecond)
	defer s.Stop()

	var attempts atomic.Int32
	done := make(chan struct{})
	s.Schedule("flaky", time.Millisecond, func(ctx context.Context) error {
		if attempts.Add(1) == 2 {
			close(done)
			return nil
		}
		return errors.New("first try fails")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never recovered")
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestStopPreventsNewWork(t *testing.T) {
	s := NewScheduler(logger.NewNop())

	var fired atomic.Bool
	s.Schedule("task", 20*time.Millisecond, func(ctx context.Context) error {
		fired.Store(true)
		return nil
	})
	s.Stop()

	s.Schedule("late", time.Millisecond, func(ctx context.Context) error {
		fired.Store(true)
		return nil
	})

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestStopInterruptsRetryBackoff(t *testing.T) {
	s := NewSchedulerWithRetry(logger.NewNop(), 3, time.Hour)

	attempted := make(chan struct{})
	s.Schedule("task", time.Millisecond, func(ctx context.Context) error {
		select {
		case attempted <- struct{}{}:
		default:
		}
		return errors.New("still broken")
	})

	select {
	case <-attempted:
	case <-time.After(time.Second):
		t.Fatal("task never attempted")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop must not wait out the retry backoff")
	}
}
