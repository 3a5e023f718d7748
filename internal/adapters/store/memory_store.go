package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mikey/mailbox-warmup/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of core.Store.
// It applies the same delete semantics as the SQL schema.
type MemoryStore struct {
	mu         sync.RWMutex
	logger     *zap.Logger
	accounts   map[int64]core.Account
	activities []core.Activity
	messages   []core.Message
	reputation []core.ReputationRecord
	nextID     int64
}

// NewMemoryStore creates an empty store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger:   logger,
		accounts: make(map[int64]core.Account),
	}
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// CreateAccount adds an account and assigns its id
func (s *MemoryStore) CreateAccount(ctx context.Context, account *core.Account) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *account
	created.ID = s.id()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	if created.WarmupMode == "" {
		created.WarmupMode = core.ModeGrowth
	}
	s.accounts[created.ID] = created
	return &created, nil
}

// DeleteAccount removes an account, detaching its activities and messages and
// dropping its reputation history
func (s *MemoryStore) DeleteAccount(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.accounts, id)

	for i := range s.activities {
		if a := s.activities[i].AccountID; a != nil && *a == id {
			s.activities[i].AccountID = nil
		}
	}
	for i := range s.messages {
		if a := s.messages[i].AccountID; a != nil && *a == id {
			s.messages[i].AccountID = nil
		}
	}
	kept := s.reputation[:0]
	for _, r := range s.reputation {
		if r.AccountID != id {
			kept = append(kept, r)
		}
	}
	s.reputation = kept

	s.logger.Debug("Deleted account", zap.Int64("account_id", id))
	return nil
}

// ListAccounts returns all accounts ordered by id
func (s *MemoryStore) ListAccounts(ctx context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterAccounts(func(core.Account) bool { return true }), nil
}

// ListAccountsByUser returns a user's accounts ordered by id
func (s *MemoryStore) ListAccountsByUser(ctx context.Context, userID int64) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterAccounts(func(a core.Account) bool { return a.UserID == userID }), nil
}

func (s *MemoryStore) filterAccounts(keep func(core.Account) bool) []core.Account {
	out := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecordActivity appends an activity
func (s *MemoryStore) RecordActivity(ctx context.Context, activity *core.Activity) (*core.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *activity
	saved.ID = s.id()
	if saved.Timestamp.IsZero() {
		saved.Timestamp = time.Now()
	}
	s.activities = append(s.activities, saved)
	return &saved, nil
}

// RecentActivities returns the newest activities first
func (s *MemoryStore) RecentActivities(ctx context.Context, limit int) ([]core.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Activity, len(s.activities))
	copy(out, s.activities)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordMessage appends a message
func (s *MemoryStore) RecordMessage(ctx context.Context, message *core.Message) (*core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *message
	saved.ID = s.id()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, saved)
	return &saved, nil
}

// RecentMessagesByDomain returns up to limit messages for a domain, newest first
func (s *MemoryStore) RecentMessagesByDomain(ctx context.Context, domain string, limit int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Message
	for _, m := range s.messages {
		if m.Domain == domain {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MessagesSince returns messages of the accounts created at or after since, oldest first
func (s *MemoryStore) MessagesSince(ctx context.Context, accountIDs []int64, since time.Time) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = struct{}{}
	}

	var out []core.Message
	for _, m := range s.messages {
		if m.AccountID == nil || m.CreatedAt.Before(since) {
			continue
		}
		if _, ok := wanted[*m.AccountID]; ok {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// LatestReputation returns the newest record of an account or core.ErrNotFound
func (s *MemoryStore) LatestReputation(ctx context.Context, accountID int64) (*core.ReputationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *core.ReputationRecord
	for i := range s.reputation {
		r := s.reputation[i]
		if r.AccountID != accountID {
			continue
		}
		if latest == nil || r.RecordedAt.After(latest.RecordedAt) ||
			(r.RecordedAt.Equal(latest.RecordedAt) && r.ID > latest.ID) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, core.ErrNotFound
	}
	out := *latest
	return &out, nil
}

// InsertReputation appends a reputation record
func (s *MemoryStore) InsertReputation(ctx context.Context, record *core.ReputationRecord) (*core.ReputationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *record
	saved.ID = s.id()
	if saved.RecordedAt.IsZero() {
		saved.RecordedAt = time.Now()
	}
	s.reputation = append(s.reputation, saved)
	return &saved, nil
}

// UpdateReputation overwrites score, spam score and details of an existing record
func (s *MemoryStore) UpdateReputation(ctx context.Context, record *core.ReputationRecord) (*core.ReputationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.reputation {
		if s.reputation[i].ID == record.ID {
			s.reputation[i].Score = record.Score
			s.reputation[i].SpamScore = record.SpamScore
			s.reputation[i].Details = record.Details
			out := s.reputation[i]
			return &out, nil
		}
	}
	return nil, core.ErrNotFound
}

// ReputationHistoryByUser returns all records of a user's accounts, oldest first
func (s *MemoryStore) ReputationHistoryByUser(ctx context.Context, userID int64) ([]core.ReputationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.ReputationRecord
	for _, r := range s.reputation {
		if a, ok := s.accounts[r.AccountID]; ok && a.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out, nil
}

// Close is a no-op kept for parity with SQLStore
func (s *MemoryStore) Close() error {
	return nil
}
