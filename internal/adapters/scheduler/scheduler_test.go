package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunCycle(ctx context.Context) error {
	r.calls.Add(1)
	return r.err
}

type countingResetter struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func (r *countingResetter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls == 1 {
		close(r.done)
	}
}

func TestNextDailyRun(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2024, 3, 1, 8, 0, 0, 0, loc), time.Date(2024, 3, 1, 9, 30, 0, 0, loc)},
		{"exactly now rolls over", time.Date(2024, 3, 1, 9, 30, 0, 0, loc), time.Date(2024, 3, 2, 9, 30, 0, 0, loc)},
		{"already passed", time.Date(2024, 3, 1, 23, 0, 0, 0, loc), time.Date(2024, 3, 2, 9, 30, 0, 0, loc)},
		{"month end", time.Date(2024, 2, 29, 10, 0, 0, 0, loc), time.Date(2024, 3, 1, 9, 30, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDailyRun(tt.now, 9, 30)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, loc, got.Location())
		})
	}
}

func TestIntervalTriggerRunsAndStops(t *testing.T) {
	runner := &countingRunner{}
	trigger := NewIntervalTrigger(runner, 10*time.Millisecond, zap.NewNop())

	require.NoError(t, trigger.Start())
	assert.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop())

	stopped := runner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runner.calls.Load())
}

func TestIntervalTriggerSurvivesErrors(t *testing.T) {
	runner := &countingRunner{err: core.ErrCycleInProgress}
	trigger := NewIntervalTrigger(runner, 5*time.Millisecond, zap.NewNop())

	require.NoError(t, trigger.Start())
	assert.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop())

	bad := NewIntervalTrigger(&countingRunner{err: errors.New("boom")}, 0, zap.NewNop())
	assert.Error(t, bad.Start())
}

func TestDailyTriggerFiresReset(t *testing.T) {
	resetter := &countingResetter{done: make(chan struct{})}
	trigger := NewDailyTrigger(resetter, 0, 0, zap.NewNop())

	var waits []time.Duration
	var mu sync.Mutex
	trigger.now = func() time.Time { return time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC) }
	trigger.after = func(d time.Duration) <-chan time.Time {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return time.After(time.Millisecond)
	}

	require.NoError(t, trigger.Start())
	select {
	case <-resetter.done:
	case <-time.After(time.Second):
		t.Fatal("reset was not called")
	}
	require.NoError(t, trigger.Stop())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, waits)
	assert.Equal(t, time.Hour, waits[0])
}
