package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mikey/mailbox-warmup/internal/core"
	"go.uber.org/zap"
)

// CycleRunner runs one warmup cycle
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// IntervalTrigger runs a warmup cycle on startup and then every interval
type IntervalTrigger struct {
	runner   CycleRunner
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewIntervalTrigger creates an interval trigger
func NewIntervalTrigger(runner CycleRunner, interval time.Duration, logger *zap.Logger) *IntervalTrigger {
	return &IntervalTrigger{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Name returns the trigger name
func (t *IntervalTrigger) Name() string {
	return "interval"
}

// Start launches the scheduling loop
func (t *IntervalTrigger) Start() error {
	if t.interval <= 0 {
		return errors.New("cycle interval must be positive")
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.logger.Info("Starting warmup cycle scheduler", zap.Duration("interval", t.interval))

		t.tick(ctx)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.tick(ctx)
			case <-ctx.Done():
				t.logger.Info("Warmup cycle scheduler stopped")
				return
			}
		}
	}()
	return nil
}

// Stop cancels the loop and waits for a running cycle to return
func (t *IntervalTrigger) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	return nil
}

func (t *IntervalTrigger) tick(ctx context.Context) {
	err := t.runner.RunCycle(ctx)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrCycleInProgress):
		t.logger.Info("Skipping tick, warmup cycle still running")
	default:
		t.logger.Error("Warmup cycle failed", zap.Error(err))
	}
}
