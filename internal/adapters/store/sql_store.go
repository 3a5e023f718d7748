package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/metrics"
	"go.uber.org/zap"
)

// Dialect describes the SQL differences between the supported databases
type Dialect struct {
	// Name selects the migration directory
	Name string
	// Driver is the database/sql driver name
	Driver string
	// Numbered placeholders ($1, $2) instead of ?
	Numbered bool
	// Returning fetches inserted ids with RETURNING instead of LastInsertId
	Returning bool
}

var (
	DialectSQLite   = Dialect{Name: "sqlite", Driver: "sqlite3"}
	DialectMySQL    = Dialect{Name: "mysql", Driver: "mysql"}
	DialectPostgres = Dialect{Name: "postgres", Driver: "pgx", Numbered: true, Returning: true}
)

const (
	accountColumns    = "id, user_id, email, provider, warmup_mode, created_at"
	activityColumns   = "id, account_id, step, status, timestamp, details"
	messageColumns    = "id, account_id, activity_id, domain, spam_score, spam_details, created_at"
	reputationColumns = "id, account_id, score, spam_score, details, recorded_at"
)

// SQLStore implements core.Store on top of database/sql
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewSQLStore wraps an open connection pool
func NewSQLStore(db *sql.DB, dialect Dialect, logger *zap.Logger) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

// DB exposes the underlying pool
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect.Name, err)
	}
	return nil
}

// Ping checks the connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders for dialects with numbered parameters
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		status = "error"
	}
	metrics.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	metrics.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// insert runs an INSERT and returns the new row id
func (s *SQLStore) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if s.dialect.Returning {
		var id int64
		if err := s.db.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CreateAccount inserts an account row. Accounts are normally owned by the account
// management service; this is used for seeding and tests.
func (s *SQLStore) CreateAccount(ctx context.Context, account *core.Account) (_ *core.Account, err error) {
	defer func(start time.Time) { s.observe("create_account", start, err) }(time.Now())

	created := *account
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	if created.WarmupMode == "" {
		created.WarmupMode = core.ModeGrowth
	}

	id, err := s.insert(ctx,
		"INSERT INTO email_accounts (user_id, email, provider, warmup_mode, created_at) VALUES (?, ?, ?, ?, ?)",
		created.UserID, created.Email, created.Provider, string(created.WarmupMode), created.CreatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}
	created.ID = id
	return &created, nil
}

// DeleteAccount removes an account. Messages and activities keep their rows with a
// null account, reputation history is removed with it.
func (s *SQLStore) DeleteAccount(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.observe("delete_account", start, err) }(time.Now())

	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM email_accounts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListAccounts returns every account ordered by id
func (s *SQLStore) ListAccounts(ctx context.Context) (_ []core.Account, err error) {
	defer func(start time.Time) { s.observe("list_accounts", start, err) }(time.Now())

	return s.queryAccounts(ctx, "SELECT "+accountColumns+" FROM email_accounts ORDER BY id")
}

// ListAccountsByUser returns the accounts owned by a user ordered by id
func (s *SQLStore) ListAccountsByUser(ctx context.Context, userID int64) (_ []core.Account, err error) {
	defer func(start time.Time) { s.observe("list_accounts_by_user", start, err) }(time.Now())

	return s.queryAccounts(ctx,
		"SELECT "+accountColumns+" FROM email_accounts WHERE user_id = ? ORDER BY id", userID)
}

func (s *SQLStore) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		var mode string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Email, &a.Provider, &mode, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.WarmupMode = core.WarmupMode(mode)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	return accounts, nil
}

// RecordActivity appends an activity row
func (s *SQLStore) RecordActivity(ctx context.Context, activity *core.Activity) (_ *core.Activity, err error) {
	defer func(start time.Time) { s.observe("record_activity", start, err) }(time.Now())

	details, err := encodeDetails(activity.Details)
	if err != nil {
		return nil, err
	}

	saved := *activity
	if saved.Timestamp.IsZero() {
		saved.Timestamp = time.Now()
	}

	id, err := s.insert(ctx,
		"INSERT INTO warmup_activities (account_id, step, status, timestamp, details) VALUES (?, ?, ?, ?, ?)",
		nullInt64(saved.AccountID), saved.Step, string(saved.Status), saved.Timestamp.UTC(), details)
	if err != nil {
		return nil, fmt.Errorf("failed to insert activity: %w", err)
	}
	saved.ID = id
	return &saved, nil
}

// RecentActivities returns the newest activities first
func (s *SQLStore) RecentActivities(ctx context.Context, limit int) (_ []core.Activity, err error) {
	defer func(start time.Time) { s.observe("recent_activities", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+activityColumns+" FROM warmup_activities ORDER BY timestamp DESC, id DESC LIMIT ?"), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []core.Activity
	for rows.Next() {
		var a core.Activity
		var accountID sql.NullInt64
		var status string
		var details sql.NullString
		if err := rows.Scan(&a.ID, &accountID, &a.Step, &status, &a.Timestamp, &details); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.AccountID = int64Ptr(accountID)
		a.Status = core.ActivityStatus(status)
		if a.Details, err = decodeDetails(details); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activities: %w", err)
	}
	return activities, nil
}

// RecordMessage appends a spam scoring observation
func (s *SQLStore) RecordMessage(ctx context.Context, message *core.Message) (_ *core.Message, err error) {
	defer func(start time.Time) { s.observe("record_message", start, err) }(time.Now())

	details, err := encodeDetails(message.SpamDetails)
	if err != nil {
		return nil, err
	}

	saved := *message
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now()
	}

	id, err := s.insert(ctx,
		"INSERT INTO warmup_messages (account_id, activity_id, domain, spam_score, spam_details, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		nullInt64(saved.AccountID), nullInt64(saved.ActivityID), saved.Domain,
		nullFloat64(saved.SpamScore), details, saved.CreatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	saved.ID = id
	return &saved, nil
}

// RecentMessagesByDomain returns up to limit messages for a domain, newest first
func (s *SQLStore) RecentMessagesByDomain(ctx context.Context, domain string, limit int) (_ []core.Message, err error) {
	defer func(start time.Time) { s.observe("recent_messages_by_domain", start, err) }(time.Now())

	return s.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM warmup_messages WHERE domain = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		domain, limit)
}

// MessagesSince returns messages of the accounts created at or after since, oldest first
func (s *SQLStore) MessagesSince(ctx context.Context, accountIDs []int64, since time.Time) (_ []core.Message, err error) {
	defer func(start time.Time) { s.observe("messages_since", start, err) }(time.Now())

	if len(accountIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(accountIDs))
	args := make([]interface{}, 0, len(accountIDs)+1)
	for i, id := range accountIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, since.UTC())

	query := "SELECT " + messageColumns + " FROM warmup_messages WHERE account_id IN (" +
		strings.Join(placeholders, ", ") + ") AND created_at >= ? ORDER BY created_at ASC, id ASC"
	return s.queryMessages(ctx, query, args...)
}

func (s *SQLStore) queryMessages(ctx context.Context, query string, args ...interface{}) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var m core.Message
		var accountID, activityID sql.NullInt64
		var score sql.NullFloat64
		var details sql.NullString
		if err := rows.Scan(&m.ID, &accountID, &activityID, &m.Domain, &score, &details, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.AccountID = int64Ptr(accountID)
		m.ActivityID = int64Ptr(activityID)
		m.SpamScore = float64Ptr(score)
		if m.SpamDetails, err = decodeDetails(details); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

// LatestReputation returns the most recent record of an account or core.ErrNotFound
func (s *SQLStore) LatestReputation(ctx context.Context, accountID int64) (_ *core.ReputationRecord, err error) {
	defer func(start time.Time) { s.observe("latest_reputation", start, err) }(time.Now())

	records, err := s.queryReputation(ctx,
		"SELECT "+reputationColumns+" FROM reputation_history WHERE account_id = ? ORDER BY recorded_at DESC, id DESC LIMIT 1",
		accountID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrNotFound
	}
	return &records[0], nil
}

// InsertReputation appends a reputation snapshot
func (s *SQLStore) InsertReputation(ctx context.Context, record *core.ReputationRecord) (_ *core.ReputationRecord, err error) {
	defer func(start time.Time) { s.observe("insert_reputation", start, err) }(time.Now())

	details, err := encodeDetails(record.Details)
	if err != nil {
		return nil, err
	}

	saved := *record
	if saved.RecordedAt.IsZero() {
		saved.RecordedAt = time.Now()
	}

	id, err := s.insert(ctx,
		"INSERT INTO reputation_history (account_id, score, spam_score, details, recorded_at) VALUES (?, ?, ?, ?, ?)",
		saved.AccountID, saved.Score, nullFloat64(saved.SpamScore), details, saved.RecordedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert reputation: %w", err)
	}
	saved.ID = id
	return &saved, nil
}

// UpdateReputation overwrites score, spam score and details. recorded_at is kept.
func (s *SQLStore) UpdateReputation(ctx context.Context, record *core.ReputationRecord) (_ *core.ReputationRecord, err error) {
	defer func(start time.Time) { s.observe("update_reputation", start, err) }(time.Now())

	details, err := encodeDetails(record.Details)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE reputation_history SET score = ?, spam_score = ?, details = ? WHERE id = ?"),
		record.Score, nullFloat64(record.SpamScore), details, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update reputation: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 && s.dialect.Name != DialectMySQL.Name {
		// MySQL reports zero affected rows when the values did not change
		return nil, core.ErrNotFound
	}

	saved := *record
	return &saved, nil
}

// ReputationHistoryByUser returns all records of a user's accounts, oldest first
func (s *SQLStore) ReputationHistoryByUser(ctx context.Context, userID int64) (_ []core.ReputationRecord, err error) {
	defer func(start time.Time) { s.observe("reputation_history_by_user", start, err) }(time.Now())

	return s.queryReputation(ctx,
		"SELECT r.id, r.account_id, r.score, r.spam_score, r.details, r.recorded_at"+
			" FROM reputation_history r JOIN email_accounts a ON a.id = r.account_id"+
			" WHERE a.user_id = ? ORDER BY r.recorded_at ASC, r.id ASC",
		userID)
}

func (s *SQLStore) queryReputation(ctx context.Context, query string, args ...interface{}) ([]core.ReputationRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reputation: %w", err)
	}
	defer rows.Close()

	var records []core.ReputationRecord
	for rows.Next() {
		var r core.ReputationRecord
		var spam sql.NullFloat64
		var details sql.NullString
		if err := rows.Scan(&r.ID, &r.AccountID, &r.Score, &spam, &details, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reputation: %w", err)
		}
		r.SpamScore = float64Ptr(spam)
		if r.Details, err = decodeDetails(details); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reputation: %w", err)
	}
	return records, nil
}

func encodeDetails(details map[string]interface{}) (interface{}, error) {
	if details == nil {
		return nil, nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode details: %w", err)
	}
	return string(data), nil
}

func decodeDetails(raw sql.NullString) (map[string]interface{}, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var details map[string]interface{}
	if err := json.Unmarshal([]byte(raw.String), &details); err != nil {
		return nil, fmt.Errorf("failed to decode details: %w", err)
	}
	return details, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func float64Ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
