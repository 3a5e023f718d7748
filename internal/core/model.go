package core

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a requested row does not exist
var ErrNotFound = errors.New("not found")

// WarmupMode selects the quota curve applied to an account
type WarmupMode string

const (
	ModeGrowth WarmupMode = "growth"
	ModeFlat   WarmupMode = "flat"
	ModeRandom WarmupMode = "random"
)

// ActivityStatus is the outcome of one engagement step
type ActivityStatus string

const (
	StatusCompleted ActivityStatus = "completed"
	StatusSkipped   ActivityStatus = "skipped"
)

// Account represents a mailbox under warmup
type Account struct {
	ID         int64
	UserID     int64
	Email      string
	Provider   string
	WarmupMode WarmupMode
	CreatedAt  time.Time
}

// Activity represents one recorded engagement step
type Activity struct {
	ID        int64                  `json:"id"`
	AccountID *int64                 `json:"account_id"`
	Step      string                 `json:"step"`
	Status    ActivityStatus         `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details"`
}

// Message represents the spam scoring observation for one synthetic send
type Message struct {
	ID          int64
	AccountID   *int64
	ActivityID  *int64
	Domain      string
	SpamScore   *float64
	SpamDetails map[string]interface{}
	CreatedAt   time.Time
}

// ReputationRecord is an account's reputation snapshot for one calendar day
type ReputationRecord struct {
	ID         int64
	AccountID  int64
	Score      float64
	SpamScore  *float64
	Details    map[string]interface{}
	RecordedAt time.Time
}

// Insight is a static description of what an engagement step is good for
type Insight struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ScoreReport is the result of scoring a sending domain
type ScoreReport struct {
	Score    float64
	Reason   string
	Provider string
	Raw      map[string]interface{}
}

// ReplyRequest carries the context handed to a reply generator
type ReplyRequest struct {
	Context  string
	Language string
	Tone     string
}

// DomainSummary aggregates the most recent spam scores of one domain
type DomainSummary struct {
	Count         int        `json:"count"`
	AverageScore  *float64   `json:"average_score"`
	LatestScore   *float64   `json:"latest_score"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	Provider      *string    `json:"provider,omitempty"`
}

// ReputationPoint is one history entry returned by GetStats
type ReputationPoint struct {
	AccountID    int64     `json:"account_id"`
	AccountEmail *string   `json:"account_email"`
	Score        float64   `json:"score"`
	SpamScore    *float64  `json:"spam_score"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// ReputationStats is the read-side view of a user's reputation history
type ReputationStats struct {
	History   []ReputationPoint `json:"history"`
	Latest    *ReputationPoint  `json:"latest"`
	Threshold float64           `json:"threshold"`
	Alert     bool              `json:"alert"`
}
