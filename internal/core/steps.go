package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Engagement step names, in execution order
const (
	StepSendTestEmail   = "send_test_email"
	StepMarkAsNonSpam   = "mark_as_non_spam"
	StepOpenEmail       = "open_email"
	StepMarkAsImportant = "mark_as_important"
	StepReplyToEmail    = "reply_to_email"
	StepMaybeReply      = "maybe_reply"
)

// DefaultReplyTimeout bounds a reply generation call when none is configured
const DefaultReplyTimeout = 15 * time.Second

// FallbackReply is recorded whenever reply generation is unavailable or fails
const FallbackReply = "Hi there, thanks for reaching out! I'm keeping an eye on our warmup run and will follow up with any updates."

// Step is one simulated inbox action
type Step struct {
	Name string
	Run  func(ctx context.Context, account Account) (*Activity, error)
}

// SequenceConfig holds the tunables of the engagement sequence
type SequenceConfig struct {
	Recipients     []string
	ReplyRate      float64
	ReplyThreshold float64
	ReplyTimeout   time.Duration
	Language       string
	Tone           string
}

// EngagementSequence executes the six warmup steps against the activity store
type EngagementSequence struct {
	activities ActivityStore
	replies    ReplyGenerator
	logger     *zap.Logger
	cfg        SequenceConfig
	draw       func() float64
	now        func() time.Time
}

// NewEngagementSequence creates a sequence. replies may be nil, in which case
// every generated reply is the fallback. draw must return values in [0,1).
func NewEngagementSequence(
	activities ActivityStore,
	replies ReplyGenerator,
	logger *zap.Logger,
	cfg SequenceConfig,
	draw func() float64,
	now func() time.Time,
) *EngagementSequence {
	if now == nil {
		now = time.Now
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = DefaultReplyTimeout
	}
	return &EngagementSequence{
		activities: activities,
		replies:    replies,
		logger:     logger,
		cfg:        cfg,
		draw:       draw,
		now:        now,
	}
}

// Steps returns the steps in their fixed execution order
func (s *EngagementSequence) Steps() []Step {
	return []Step{
		{Name: StepSendTestEmail, Run: s.SendTestEmail},
		{Name: StepMarkAsNonSpam, Run: s.MarkAsNonSpam},
		{Name: StepOpenEmail, Run: s.OpenEmail},
		{Name: StepMarkAsImportant, Run: s.MarkAsImportant},
		{Name: StepReplyToEmail, Run: s.ReplyToEmail},
		{Name: StepMaybeReply, Run: s.MaybeReply},
	}
}

// SendTestEmail records a simulated send to the seed recipients
func (s *EngagementSequence) SendTestEmail(ctx context.Context, account Account) (*Activity, error) {
	recipients := make([]string, len(s.cfg.Recipients))
	copy(recipients, s.cfg.Recipients)
	s.logger.Info("Sending warmup test email",
		zap.String("account", account.Email),
		zap.Strings("recipients", recipients))
	return s.record(ctx, account, StepSendTestEmail, StatusCompleted, map[string]interface{}{
		"recipients": recipients,
	})
}

// MarkAsNonSpam records a message being moved out of spam
func (s *EngagementSequence) MarkAsNonSpam(ctx context.Context, account Account) (*Activity, error) {
	return s.record(ctx, account, StepMarkAsNonSpam, StatusCompleted, map[string]interface{}{
		"action": "moved to inbox",
	})
}

// OpenEmail records an open signal
func (s *EngagementSequence) OpenEmail(ctx context.Context, account Account) (*Activity, error) {
	return s.record(ctx, account, StepOpenEmail, StatusCompleted, map[string]interface{}{
		"engagement": "opened",
	})
}

// MarkAsImportant records a priority label
func (s *EngagementSequence) MarkAsImportant(ctx context.Context, account Account) (*Activity, error) {
	return s.record(ctx, account, StepMarkAsImportant, StatusCompleted, map[string]interface{}{
		"label": "important",
	})
}

// ReplyToEmail records the configured reply rate. It does not gate anything.
func (s *EngagementSequence) ReplyToEmail(ctx context.Context, account Account) (*Activity, error) {
	return s.record(ctx, account, StepReplyToEmail, StatusCompleted, map[string]interface{}{
		"reply_rate": s.cfg.ReplyRate,
	})
}

// MaybeReply draws a probability and either skips or records a generated reply
func (s *EngagementSequence) MaybeReply(ctx context.Context, account Account) (*Activity, error) {
	p := s.draw()
	if !DecideReply(p, s.cfg.ReplyThreshold) {
		return s.record(ctx, account, StepMaybeReply, StatusSkipped, map[string]interface{}{
			"probability": p,
			"threshold":   s.cfg.ReplyThreshold,
		})
	}

	reply := s.generateReply(ctx, account)
	return s.record(ctx, account, StepMaybeReply, StatusCompleted, map[string]interface{}{
		"probability": p,
		"threshold":   s.cfg.ReplyThreshold,
		"reply":       reply,
		"language":    s.cfg.Language,
		"tone":        s.cfg.Tone,
	})
}

// DecideReply reports whether a reply should be sent for the drawn probability.
// Draws above the threshold skip.
func DecideReply(probability, threshold float64) bool {
	return probability <= threshold
}

// generateReply calls the reply generator with a timeout, returning FallbackReply on any failure
func (s *EngagementSequence) generateReply(ctx context.Context, account Account) string {
	if s.replies == nil {
		s.logger.Warn("Reply generator not configured; using fallback reply",
			zap.String("account", account.Email))
		return FallbackReply
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReplyTimeout)
	defer cancel()

	text, err := s.replies.GenerateReply(ctx, ReplyRequest{
		Context:  fmt.Sprintf("Quick check-in from %s about our ongoing conversation. Let me know how things look on your side.", account.Email),
		Language: s.cfg.Language,
		Tone:     s.cfg.Tone,
	})
	if err != nil {
		s.logger.Warn("Reply generation failed; using fallback reply",
			zap.String("account", account.Email),
			zap.Error(err))
		return FallbackReply
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackReply
	}
	return text
}

func (s *EngagementSequence) record(
	ctx context.Context,
	account Account,
	step string,
	status ActivityStatus,
	details map[string]interface{},
) (*Activity, error) {
	details["insights"] = InsightsFor(step)
	accountID := account.ID

	activity, err := s.activities.RecordActivity(ctx, &Activity{
		AccountID: &accountID,
		Step:      step,
		Status:    status,
		Timestamp: s.now(),
		Details:   details,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record %s activity: %w", step, err)
	}

	s.logger.Debug("Warmup step finished",
		zap.String("step", step),
		zap.String("status", string(status)),
		zap.Int64("account_id", account.ID))
	return activity, nil
}
