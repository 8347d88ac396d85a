package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNonPositiveInterval(t *testing.T) {
	_, err := New(Options{Interval: 0})
	require.Error(t, err)
}

func TestNextTick(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 7, 30, 0, time.UTC)

	aligned := &Scheduler{opts: Options{Interval: 15 * time.Minute, AlignToStart: true}}
	assert.Equal(t, time.Date(2026, 1, 2, 10, 15, 0, 0, time.UTC), aligned.nextTick(now))

	onBoundary := time.Date(2026, 1, 2, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 2, 10, 30, 0, 0, time.UTC), aligned.nextTick(onBoundary))

	relative := &Scheduler{opts: Options{Interval: 15 * time.Minute}}
	assert.Equal(t, now.Add(15*time.Minute), relative.nextTick(now))
}

func TestRun_TicksAndSurvivesErrors(t *testing.T) {
	s, err := New(Options{Name: "test", Interval: 20 * time.Millisecond, RunOnStart: true})
	require.NoError(t, err)

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, tick time.Time) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return errors.New("tick failed")
		})
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestRun_CancelledDuringStartupDelay(t *testing.T) {
	s, err := New(Options{Interval: time.Hour, StartupDelay: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Run(ctx, func(context.Context, time.Time) error {
		t.Fatal("tick must not run")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
