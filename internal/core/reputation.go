package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mikey/mailbox-warmup/internal/metrics"
	"go.uber.org/zap"
)

// DefaultAlertThreshold is the score drop that triggers an alert
const DefaultAlertThreshold = 15.0

// ReputationAggregator turns recent spam scores into daily reputation snapshots
type ReputationAggregator struct {
	analyzer   *SpamAnalyzer
	records    ReputationStore
	accounts   AccountStore
	alerts     AlertSink
	logger     *zap.Logger
	threshold  float64
	windowDays int
	now        func() time.Time
}

// NewReputationAggregator creates an aggregator. alerts may be nil to disable notifications.
func NewReputationAggregator(
	analyzer *SpamAnalyzer,
	records ReputationStore,
	accounts AccountStore,
	alerts AlertSink,
	logger *zap.Logger,
	threshold float64,
	windowDays int,
	now func() time.Time,
) *ReputationAggregator {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if now == nil {
		now = time.Now
	}
	return &ReputationAggregator{
		analyzer:   analyzer,
		records:    records,
		accounts:   accounts,
		alerts:     alerts,
		logger:     logger,
		threshold:  threshold,
		windowDays: windowDays,
		now:        now,
	}
}

// Threshold returns the configured alert threshold
func (r *ReputationAggregator) Threshold() float64 {
	return r.threshold
}

// CalculateScore converts spam scores into a 0-100 rating. No scores rate 100.
func CalculateScore(spamScores []float64) float64 {
	if len(spamScores) == 0 {
		return 100.0
	}
	var sum float64
	for _, s := range spamScores {
		sum += s
	}
	score := 100.0 - (sum/float64(len(spamScores)))*12
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return round2(score)
}

// DropExceeds reports whether the fall from previous to current is larger than threshold
func DropExceeds(previous, current, threshold float64) bool {
	return previous-current > threshold
}

// RefreshAccount computes today's reputation for the account and upserts the daily record
func (r *ReputationAggregator) RefreshAccount(ctx context.Context, account Account) (*ReputationRecord, error) {
	grouped, err := r.analyzer.SummarizeAccounts(ctx, []int64{account.ID}, r.windowDays)
	if err != nil {
		return nil, err
	}
	messages := grouped[account.ID]

	spamScores := make([]float64, 0, len(messages))
	for _, m := range messages {
		if m.SpamScore != nil {
			spamScores = append(spamScores, *m.SpamScore)
		}
	}
	score := CalculateScore(spamScores)
	var avgSpam *float64
	if avg, ok := averageScore(messages); ok {
		avgSpam = &avg
	}

	existing, err := r.records.LatestReputation(ctx, account.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load latest reputation: %w", err)
	}

	now := r.now()
	details := map[string]interface{}{"messages": len(messages)}

	var previousScore *float64
	var entry *ReputationRecord
	if existing != nil {
		prev := existing.Score
		previousScore = &prev
	}

	if existing != nil && sameDay(existing.RecordedAt, now) {
		existing.Score = score
		existing.SpamScore = avgSpam
		existing.Details = details
		entry, err = r.records.UpdateReputation(ctx, existing)
	} else {
		entry, err = r.records.InsertReputation(ctx, &ReputationRecord{
			AccountID:  account.ID,
			Score:      score,
			SpamScore:  avgSpam,
			Details:    details,
			RecordedAt: now,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save reputation for account %d: %w", account.ID, err)
	}

	metrics.ReputationScore.WithLabelValues(strconv.FormatInt(account.ID, 10)).Set(entry.Score)

	if previousScore != nil && DropExceeds(*previousScore, entry.Score, r.threshold) {
		r.notify(ctx, account, entry.Score, *previousScore)
	}

	return entry, nil
}

func (r *ReputationAggregator) notify(ctx context.Context, account Account, current, previous float64) {
	metrics.ReputationAlertsTotal.Inc()
	if r.alerts == nil {
		return
	}
	if err := r.alerts.NotifyReputationDrop(ctx, account, current, previous); err != nil {
		r.logger.Error("Failed to deliver reputation alert",
			zap.String("account", account.Email),
			zap.Error(err))
	}
}

// RefreshBatch refreshes each account independently. Accounts that fail are logged and left out.
func (r *ReputationAggregator) RefreshBatch(ctx context.Context, accounts []Account) []ReputationRecord {
	results := make([]ReputationRecord, 0, len(accounts))
	for _, account := range accounts {
		entry, err := r.RefreshAccount(ctx, account)
		if err != nil {
			r.logger.Error("Failed to refresh reputation",
				zap.Int64("account_id", account.ID),
				zap.Error(err))
			continue
		}
		results = append(results, *entry)
	}
	return results
}

// GetStats returns the reputation history of all the user's accounts with alert state.
// The alert flag is derived from the last two records of each account.
func (r *ReputationAggregator) GetStats(ctx context.Context, userID int64) (*ReputationStats, error) {
	records, err := r.records.ReputationHistoryByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reputation history: %w", err)
	}

	stats := &ReputationStats{
		History:   []ReputationPoint{},
		Threshold: r.threshold,
	}
	if len(records) == 0 {
		return stats, nil
	}

	accounts, err := r.accounts.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	emails := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		emails[a.ID] = a.Email
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RecordedAt.Before(records[j].RecordedAt)
	})

	perAccount := make(map[int64][]ReputationRecord)
	var order []int64
	for _, record := range records {
		if _, seen := perAccount[record.AccountID]; !seen {
			order = append(order, record.AccountID)
		}
		perAccount[record.AccountID] = append(perAccount[record.AccountID], record)

		point := ReputationPoint{
			AccountID:  record.AccountID,
			Score:      record.Score,
			SpamScore:  record.SpamScore,
			RecordedAt: record.RecordedAt,
		}
		if email, ok := emails[record.AccountID]; ok {
			point.AccountEmail = &email
		}
		stats.History = append(stats.History, point)
	}

	for _, id := range order {
		points := perAccount[id]
		if len(points) < 2 {
			continue
		}
		previous, latest := points[len(points)-2], points[len(points)-1]
		if DropExceeds(previous.Score, latest.Score, r.threshold) {
			stats.Alert = true
			break
		}
	}

	latest := stats.History[0]
	for _, point := range stats.History[1:] {
		if point.RecordedAt.After(latest.RecordedAt) {
			latest = point
		}
	}
	stats.Latest = &latest

	return stats, nil
}
