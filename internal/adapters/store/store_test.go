package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var base = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "warmup.db"), true, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func storesUnderTest(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(zap.NewNop()),
		"sqlite": newSQLiteStore(t),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func TestAccounts(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a, err := st.CreateAccount(ctx, &core.Account{UserID: 1, Email: "a@example.com", Provider: "gmail", WarmupMode: core.ModeFlat, CreatedAt: base})
			require.NoError(t, err)
			b, err := st.CreateAccount(ctx, &core.Account{UserID: 2, Email: "b@example.org", Provider: "outlook", CreatedAt: base})
			require.NoError(t, err)
			c, err := st.CreateAccount(ctx, &core.Account{UserID: 1, Email: "c@example.com", Provider: "gmail", WarmupMode: core.ModeRandom, CreatedAt: base})
			require.NoError(t, err)

			all, err := st.ListAccounts(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})
			assert.Equal(t, core.ModeFlat, all[0].WarmupMode)
			assert.Equal(t, core.ModeGrowth, all[1].WarmupMode)
			assert.True(t, base.Equal(all[0].CreatedAt))

			mine, err := st.ListAccountsByUser(ctx, 1)
			require.NoError(t, err)
			require.Len(t, mine, 2)
			assert.Equal(t, "a@example.com", mine[0].Email)
			assert.Equal(t, "c@example.com", mine[1].Email)

			err = st.DeleteAccount(ctx, 9999)
			assert.True(t, errors.Is(err, core.ErrNotFound))
		})
	}
}

func TestActivities(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			account, err := st.CreateAccount(ctx, &core.Account{UserID: 1, Email: "a@example.com", Provider: "gmail", CreatedAt: base})
			require.NoError(t, err)

			for i, step := range []string{core.StepSendTestEmail, core.StepMarkAsNonSpam, core.StepOpenEmail} {
				saved, err := st.RecordActivity(ctx, &core.Activity{
					AccountID: ptr(account.ID),
					Step:      step,
					Status:    core.StatusCompleted,
					Timestamp: base.Add(time.Duration(i) * time.Minute),
					Details:   map[string]interface{}{"index": i},
				})
				require.NoError(t, err)
				assert.NotZero(t, saved.ID)
			}

			recent, err := st.RecentActivities(ctx, 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, core.StepOpenEmail, recent[0].Step)
			assert.Equal(t, core.StepMarkAsNonSpam, recent[1].Step)
			assert.EqualValues(t, 2, recent[0].Details["index"])
			require.NotNil(t, recent[0].AccountID)
			assert.Equal(t, account.ID, *recent[0].AccountID)
		})
	}
}

func TestMessages(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a, err := st.CreateAccount(ctx, &core.Account{UserID: 1, Email: "a@example.com", Provider: "gmail", CreatedAt: base})
			require.NoError(t, err)
			b, err := st.CreateAccount(ctx, &core.Account{UserID: 1, Email: "b@example.com", Provider: "gmail", CreatedAt: base})
			require.NoError(t, err)

			record := func(account int64, score float64, at time.Time) {
				_, err := st.RecordMessage(ctx, &core.Message{
					AccountID:   ptr(account),
					Domain:      "example.com",
					SpamScore:   ptr(score),
					SpamDetails: map[string]interface{}{"provider": "fallback", "reason": "simulated"},
					CreatedAt:   at,
				})
				require.NoError(t, err)
			}
			record(a.ID, 1.0, base.Add(-10*24*time.Hour))
			record(a.ID, 2.0, base.Add(-2*24*time.Hour))
			record(b.ID, 3.0, base.Add(-1*24*time.Hour))
			record(a.ID, 4.0, base)

			recent, err := st.RecentMessagesByDomain(ctx, "example.com", 3)
			require.NoError(t, err)
			require.Len(t, recent, 3)
			assert.Equal(t, 4.0, *recent[0].SpamScore)
			assert.Equal(t, 3.0, *recent[1].SpamScore)
			assert.Equal(t, "fallback", recent[0].SpamDetails["provider"])

			none, err := st.RecentMessagesByDomain(ctx, "other.net", 50)
			require.NoError(t, err)
			assert.Empty(t, none)

			since, err := st.MessagesSince(ctx, []int64{a.ID}, base.Add(-7*24*time.Hour))
			require.NoError(t, err)
			require.Len(t, since, 2)
			assert.Equal(t, 2.0, *since[0].SpamScore)
			assert.Equal(t, 4.0, *since[1].SpamScore)

			both, err := st.MessagesSince(ctx, []int64{a.ID, b.ID}, base.Add(-7*24*time.Hour))
			require.NoError(t, err)
			assert.Len(t, both, 3)
		})
	}
}

func TestReputation(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a, err := st.CreateAccount(ctx, &core.Account{UserID: 1, Email: "a@example.com", Provider: "gmail", CreatedAt: base})
			require.NoError(t, err)
			other, err := st.CreateAccount(ctx, &core.Account{UserID: 2, Email: "o@example.org", Provider: "gmail", CreatedAt: base})
			require.NoError(t, err)

			_, err = st.LatestReputation(ctx, a.ID)
			assert.True(t, errors.Is(err, core.ErrNotFound))

			first, err := st.InsertReputation(ctx, &core.ReputationRecord{AccountID: a.ID, Score: 80, SpamScore: ptr(1.67), Details: map[string]interface{}{"messages": 3}, RecordedAt: base.Add(-24 * time.Hour)})
			require.NoError(t, err)
			second, err := st.InsertReputation(ctx, &core.ReputationRecord{AccountID: a.ID, Score: 75, RecordedAt: base})
			require.NoError(t, err)
			_, err = st.InsertReputation(ctx, &core.ReputationRecord{AccountID: other.ID, Score: 50, RecordedAt: base})
			require.NoError(t, err)

			latest, err := st.LatestReputation(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, second.ID, latest.ID)
			assert.Nil(t, latest.SpamScore)

			latest.Score = 60
			latest.SpamScore = ptr(3.33)
			latest.Details = map[string]interface{}{"messages": 1}
			_, err = st.UpdateReputation(ctx, latest)
			require.NoError(t, err)

			reloaded, err := st.LatestReputation(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, 60.0, reloaded.Score)
			assert.Equal(t, 3.33, *reloaded.SpamScore)
			assert.True(t, base.Equal(reloaded.RecordedAt))
			assert.EqualValues(t, 1, reloaded.Details["messages"])

			history, err := st.ReputationHistoryByUser(ctx, 1)
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, first.ID, history[0].ID)
			assert.Equal(t, second.ID, history[1].ID)
		})
	}
}

func TestDeleteAccountDetachesAndCascades(t *testing.T) {
	for name, st := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a, err := st.CreateAccount(ctx, &core.Account{UserID: 1, Email: "a@example.com", Provider: "gmail", CreatedAt: base})
			require.NoError(t, err)

			activity, err := st.RecordActivity(ctx, &core.Activity{AccountID: ptr(a.ID), Step: core.StepSendTestEmail, Status: core.StatusCompleted, Timestamp: base})
			require.NoError(t, err)
			_, err = st.RecordMessage(ctx, &core.Message{AccountID: ptr(a.ID), ActivityID: ptr(activity.ID), Domain: "example.com", SpamScore: ptr(1.0), CreatedAt: base})
			require.NoError(t, err)
			_, err = st.InsertReputation(ctx, &core.ReputationRecord{AccountID: a.ID, Score: 88, RecordedAt: base})
			require.NoError(t, err)

			require.NoError(t, st.DeleteAccount(ctx, a.ID))

			messages, err := st.RecentMessagesByDomain(ctx, "example.com", 50)
			require.NoError(t, err)
			require.Len(t, messages, 1)
			assert.Nil(t, messages[0].AccountID)
			require.NotNil(t, messages[0].ActivityID)
			assert.Equal(t, activity.ID, *messages[0].ActivityID)

			activities, err := st.RecentActivities(ctx, 50)
			require.NoError(t, err)
			require.Len(t, activities, 1)
			assert.Nil(t, activities[0].AccountID)

			_, err = st.LatestReputation(ctx, a.ID)
			assert.True(t, errors.Is(err, core.ErrNotFound))
		})
	}
}

func TestSQLiteRejectsInMemoryPaths(t *testing.T) {
	for _, path := range []string{"", ":memory:", "file::memory:?cache=shared", "file:warmup?mode=memory"} {
		_, err := NewSQLiteStore(path, true, zap.NewNop())
		assert.ErrorIs(t, err, ErrInMemorySQLite, path)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warmup.db")
	st, err := NewSQLiteStore(path, true, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, migrateDSN(DialectSQLite, SQLiteDSN(path), zap.NewNop()))

	db, err := sql.Open(DialectSQLite.Driver, SQLiteDSN(path))
	require.NoError(t, err)
	version, dirty, err := MigrationVersion(db, DialectSQLite, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestMigrateDSNReportsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warmup.db")

	version, dirty, err := MigrateDSN(DialectSQLite, SQLiteDSN(path), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
