package core

import (
	"context"
	"time"
)

// AccountStore reads accounts owned by the account management service
type AccountStore interface {
	// ListAccounts returns every account under warmup, ordered by id
	ListAccounts(ctx context.Context) ([]Account, error)

	// ListAccountsByUser returns the accounts owned by a user
	ListAccountsByUser(ctx context.Context, userID int64) ([]Account, error)
}

// ActivityStore persists engagement step records
type ActivityStore interface {
	// RecordActivity appends an activity and returns it with its id set
	RecordActivity(ctx context.Context, activity *Activity) (*Activity, error)

	// RecentActivities returns the newest activities first
	RecentActivities(ctx context.Context, limit int) ([]Activity, error)
}

// MessageStore persists spam scoring observations
type MessageStore interface {
	// RecordMessage appends a message and returns it with its id set
	RecordMessage(ctx context.Context, message *Message) (*Message, error)

	// RecentMessagesByDomain returns up to limit messages for a domain, newest first
	RecentMessagesByDomain(ctx context.Context, domain string, limit int) ([]Message, error)

	// MessagesSince returns messages of the given accounts created at or after
	// since, oldest first
	MessagesSince(ctx context.Context, accountIDs []int64, since time.Time) ([]Message, error)
}

// ReputationStore persists daily reputation snapshots
type ReputationStore interface {
	// LatestReputation returns the most recent record for an account or ErrNotFound
	LatestReputation(ctx context.Context, accountID int64) (*ReputationRecord, error)

	// InsertReputation appends a new record
	InsertReputation(ctx context.Context, record *ReputationRecord) (*ReputationRecord, error)

	// UpdateReputation overwrites score, spam score and details of an existing record
	UpdateReputation(ctx context.Context, record *ReputationRecord) (*ReputationRecord, error)

	// ReputationHistoryByUser returns all records of a user's accounts, oldest first
	ReputationHistoryByUser(ctx context.Context, userID int64) ([]ReputationRecord, error)
}

// Store groups the persistence ports used by the engine
type Store interface {
	AccountStore
	ActivityStore
	MessageStore
	ReputationStore
}

// SpamScorer scores a sending domain using an external service
type SpamScorer interface {
	// Score returns the report for a domain or an error on any failure
	Score(ctx context.Context, domain string) (*ScoreReport, error)
}

// ReplyGenerator produces human-like reply text
type ReplyGenerator interface {
	// GenerateReply returns reply text for the request or an error on any failure
	GenerateReply(ctx context.Context, req ReplyRequest) (string, error)
}

// AlertSink receives reputation drop notifications
type AlertSink interface {
	// NotifyReputationDrop is called when an account's score fell beyond the threshold
	NotifyReputationDrop(ctx context.Context, account Account, current, previous float64) error
}

// CycleLock guards cycle execution across processes
type CycleLock interface {
	// Acquire tries to take the lock without blocking
	Acquire(ctx context.Context) (bool, error)

	// Release gives the lock back if it is still owned
	Release(ctx context.Context) error
}
