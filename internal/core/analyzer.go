package core

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/mikey/mailbox-warmup/internal/domains"
	"github.com/mikey/mailbox-warmup/internal/metrics"
	"go.uber.org/zap"
)

const (
	fallbackMinScore    = 0.1
	fallbackMaxScore    = 4.0
	domainSummaryLimit  = 50
	DefaultWindowDays   = 7
	fallbackProvider    = "fallback"
	fallbackReason      = "simulated"
	defaultScoreTimeout = 15 * time.Second
)

// SpamAnalyzer scores synthetic sends and summarizes the recorded scores
type SpamAnalyzer struct {
	messages MessageStore
	scorer   SpamScorer
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewSpamAnalyzer creates an analyzer. A nil scorer means every send is scored
// with the deterministic fallback.
func NewSpamAnalyzer(
	messages MessageStore,
	scorer SpamScorer,
	logger *zap.Logger,
	timeout time.Duration,
	now func() time.Time,
) *SpamAnalyzer {
	if timeout <= 0 {
		timeout = defaultScoreTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &SpamAnalyzer{
		messages: messages,
		scorer:   scorer,
		logger:   logger,
		timeout:  timeout,
		now:      now,
	}
}

// AnalyzeMessage scores the account's sending domain and persists the observation.
// activity and sample are optional.
func (a *SpamAnalyzer) AnalyzeMessage(ctx context.Context, account Account, activity *Activity, sample string) (*Message, error) {
	domain := domains.Extract(account.Email)

	report := a.externalScore(ctx, domain)
	if report == nil {
		fallback := FallbackScore(domain)
		report = &fallback
		metrics.SpamScoresTotal.WithLabelValues(fallbackProvider).Inc()
	} else {
		metrics.SpamScoresTotal.WithLabelValues("external").Inc()
	}

	details := map[string]interface{}{
		"reason":   report.Reason,
		"provider": report.Provider,
	}
	if sample != "" {
		details["sample"] = sample
	}
	if report.Raw != nil {
		details["raw"] = report.Raw
	}

	accountID := account.ID
	score := report.Score
	message := &Message{
		AccountID:   &accountID,
		Domain:      domain,
		SpamScore:   &score,
		SpamDetails: details,
		CreatedAt:   a.now(),
	}
	if activity != nil {
		activityID := activity.ID
		message.ActivityID = &activityID
	}

	saved, err := a.messages.RecordMessage(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to record warmup message: %w", err)
	}

	a.logger.Info("Recorded spam score",
		zap.String("domain", domain),
		zap.Float64("score", score),
		zap.String("provider", report.Provider))
	return saved, nil
}

// externalScore returns nil when no scorer is configured or the call fails
func (a *SpamAnalyzer) externalScore(ctx context.Context, domain string) *ScoreReport {
	if a.scorer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	report, err := a.scorer.Score(ctx, domain)
	if err != nil {
		a.logger.Warn("Spam check request failed", zap.String("domain", domain), zap.Error(err))
		return nil
	}
	return report
}

// FallbackScore derives a reproducible score in [0.1, 4.0] from the domain.
// The PRNG is seeded with the FNV-1a 64 hash of the domain, so the result is stable
// across calls and process restarts.
func FallbackScore(domain string) ScoreReport {
	h := fnv.New64a()
	h.Write([]byte(domain))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	score := fallbackMinScore + rng.Float64()*(fallbackMaxScore-fallbackMinScore)
	return ScoreReport{
		Score:    round2(score),
		Reason:   fallbackReason,
		Provider: fallbackProvider,
	}
}

// SummarizeDomain summarizes the 50 most recent messages recorded for a domain
func (a *SpamAnalyzer) SummarizeDomain(ctx context.Context, domain string) (*DomainSummary, error) {
	messages, err := a.messages.RecentMessagesByDomain(ctx, domain, domainSummaryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages for domain %s: %w", domain, err)
	}
	if len(messages) == 0 {
		return &DomainSummary{}, nil
	}

	summary := &DomainSummary{Count: len(messages)}
	if avg, ok := averageScore(messages); ok {
		summary.AverageScore = &avg
	}

	latest := messages[0]
	if latest.SpamScore != nil {
		score := *latest.SpamScore
		summary.LatestScore = &score
	}
	checkedAt := latest.CreatedAt
	summary.LastCheckedAt = &checkedAt
	if provider, ok := latest.SpamDetails["provider"].(string); ok {
		summary.Provider = &provider
	}

	return summary, nil
}

// SummarizeAccounts returns the messages of each account created within the trailing
// window, oldest first. Every requested id has an entry, possibly empty.
func (a *SpamAnalyzer) SummarizeAccounts(ctx context.Context, accountIDs []int64, windowDays int) (map[int64][]Message, error) {
	grouped := make(map[int64][]Message, len(accountIDs))
	if len(accountIDs) == 0 {
		return grouped, nil
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	for _, id := range accountIDs {
		grouped[id] = []Message{}
	}

	cutoff := a.now().Add(-time.Duration(windowDays) * 24 * time.Hour)
	rows, err := a.messages.MessagesSince(ctx, accountIDs, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load account messages: %w", err)
	}

	for _, row := range rows {
		if row.AccountID == nil {
			continue
		}
		grouped[*row.AccountID] = append(grouped[*row.AccountID], row)
	}
	return grouped, nil
}

// averageScore averages the non-null scores, rounded to 2 decimals
func averageScore(messages []Message) (float64, bool) {
	var sum float64
	var n int
	for _, m := range messages {
		if m.SpamScore == nil {
			continue
		}
		sum += *m.SpamScore
		n++
	}
	if n == 0 {
		return 0, false
	}
	return round2(sum / float64(n)), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
