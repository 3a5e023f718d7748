package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Resetter clears the daily counters
type Resetter interface {
	Reset()
}

// DailyTrigger calls Reset once a day at a fixed local wall-clock time
type DailyTrigger struct {
	resetter Resetter
	hour     int
	minute   int
	logger   *zap.Logger
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDailyTrigger creates a trigger firing at hour:minute in the process time zone
func NewDailyTrigger(resetter Resetter, hour, minute int, logger *zap.Logger) *DailyTrigger {
	return &DailyTrigger{
		resetter: resetter,
		hour:     hour,
		minute:   minute,
		logger:   logger,
		now:      time.Now,
		after:    time.After,
	}
}

// Name returns the trigger name
func (t *DailyTrigger) Name() string {
	return "daily-reset"
}

// Start launches the reset loop
func (t *DailyTrigger) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			next := NextDailyRun(t.now(), t.hour, t.minute)
			t.logger.Info("Scheduled daily reset", zap.Time("at", next))

			select {
			case <-t.after(next.Sub(t.now())):
				t.resetter.Reset()
			case <-ctx.Done():
				t.logger.Info("Daily reset scheduler stopped")
				return
			}
		}
	}()
	return nil
}

// Stop cancels the loop
func (t *DailyTrigger) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	return nil
}

// NextDailyRun returns the first hour:minute strictly after now, in now's location
func NextDailyRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}
