package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/mailbox-warmup/internal/domains"
	"github.com/mikey/mailbox-warmup/internal/metrics"
	"go.uber.org/zap"
)

// ErrCycleInProgress is returned when a cycle is triggered while another one runs
var ErrCycleInProgress = errors.New("warmup cycle already in progress")

// DefaultSample is attached to the spam analysis of each test send
const DefaultSample = "warmup cadence verification"

// CycleRunner orchestrates one warmup pass over all accounts: engagement first,
// reputation aggregation for the whole batch afterwards
type CycleRunner struct {
	accounts   AccountStore
	state      *DailyState
	sequence   *EngagementSequence
	analyzer   *SpamAnalyzer
	reputation *ReputationAggregator
	lock       CycleLock
	paused     *domains.Set
	logger     *zap.Logger
	sample     string

	// running is held for the whole cycle and by Reset
	running sync.Mutex
}

// NewCycleRunner creates a runner. lock and paused may be nil.
func NewCycleRunner(
	accounts AccountStore,
	state *DailyState,
	sequence *EngagementSequence,
	analyzer *SpamAnalyzer,
	reputation *ReputationAggregator,
	lock CycleLock,
	paused *domains.Set,
	logger *zap.Logger,
	sample string,
) *CycleRunner {
	if sample == "" {
		sample = DefaultSample
	}
	return &CycleRunner{
		accounts:   accounts,
		state:      state,
		sequence:   sequence,
		analyzer:   analyzer,
		reputation: reputation,
		lock:       lock,
		paused:     paused,
		logger:     logger,
		sample:     sample,
	}
}

// ComputeDailyQuota returns today's quota for the account
func (r *CycleRunner) ComputeDailyQuota(account Account) int {
	return r.state.ComputeDailyQuota(account)
}

// SentCount returns the number of iterations the account ran today
func (r *CycleRunner) SentCount(accountID int64) int {
	return r.state.SentCount(accountID)
}

// RunCycle executes one pass. It returns ErrCycleInProgress without doing anything
// when another cycle holds the guard, locally or through the distributed lock.
func (r *CycleRunner) RunCycle(ctx context.Context) error {
	if !r.running.TryLock() {
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		return ErrCycleInProgress
	}
	defer r.running.Unlock()

	if r.lock != nil {
		acquired, err := r.lock.Acquire(ctx)
		if err != nil {
			metrics.CyclesTotal.WithLabelValues("failed").Inc()
			return fmt.Errorf("failed to acquire cycle lock: %w", err)
		}
		if !acquired {
			metrics.CyclesTotal.WithLabelValues("skipped").Inc()
			return ErrCycleInProgress
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.lock.Release(releaseCtx); err != nil {
				r.logger.Warn("Failed to release cycle lock", zap.Error(err))
			}
		}()
	}

	runID := uuid.NewString()
	logger := r.logger.With(zap.String("cycle_id", runID))
	start := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	accounts, err := r.accounts.ListAccounts(ctx)
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	logger.Info("Starting warmup cycle", zap.Int("accounts", len(accounts)))

	processed := make([]Account, 0, len(accounts))
	var skipped, failed int
	for _, account := range accounts {
		if ctx.Err() != nil {
			logger.Warn("Warmup cycle interrupted", zap.Error(ctx.Err()))
			break
		}

		if r.paused != nil && r.paused.Contains(domains.Extract(account.Email)) {
			logger.Debug("Skipping account on paused domain", zap.String("account", account.Email))
			skipped++
			continue
		}

		quota := r.state.ComputeDailyQuota(account)
		sent := r.state.SentCount(account.ID)
		if sent >= quota {
			logger.Debug("Daily quota reached",
				zap.String("account", account.Email),
				zap.Int("quota", quota),
				zap.Int("sent", sent))
			skipped++
			continue
		}

		processed = append(processed, account)
		sentMail, err := r.processAccount(ctx, account)
		if sentMail {
			sent = r.state.IncrementSent(account.ID)
		}
		if err != nil {
			failed++
			metrics.AccountFailuresTotal.Inc()
			logger.Error("Warmup iteration failed",
				zap.Int64("account_id", account.ID),
				zap.String("account", account.Email),
				zap.Bool("counted", sentMail),
				zap.Error(err))
			continue
		}

		logger.Info("Warmup iteration completed",
			zap.String("account", account.Email),
			zap.Int("sent", sent),
			zap.Int("quota", quota))
	}

	records := r.reputation.RefreshBatch(ctx, processed)

	metrics.CyclesTotal.WithLabelValues("completed").Inc()
	logger.Info("Warmup cycle finished",
		zap.Int("processed", len(processed)),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Int("reputation_records", len(records)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// processAccount runs the step sequence for one account, analyzing the test send
// as soon as it completes. sentMail reports whether send_test_email was recorded;
// such an iteration counts against the quota even when a later step fails.
func (r *CycleRunner) processAccount(ctx context.Context, account Account) (sentMail bool, err error) {
	for _, step := range r.sequence.Steps() {
		activity, err := step.Run(ctx, account)
		if err != nil {
			return sentMail, err
		}
		metrics.ActivitiesTotal.WithLabelValues(step.Name, string(activity.Status)).Inc()

		if step.Name == StepSendTestEmail && activity.Status == StatusCompleted {
			sentMail = true
			if _, err := r.analyzer.AnalyzeMessage(ctx, account, activity, r.sample); err != nil {
				return sentMail, err
			}
		}
	}
	return sentMail, nil
}

// Reset clears today's counters and cached quotas. It waits for an in-flight cycle.
func (r *CycleRunner) Reset() {
	r.running.Lock()
	defer r.running.Unlock()

	r.state.Reset()
	metrics.DailyResetsTotal.Inc()
	r.logger.Info("Daily warmup counters reset")
}
