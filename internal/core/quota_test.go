package core

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGrowthQuota(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name   string
		tenure int
		want   int
	}{
		{"new account", 0, 5},
		{"ten days", 10, 15},
		{"thirty five days", 35, 40},
		{"long tenure is capped", 400, 40},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewDailyState(DefaultQuotaPolicy(), nil, fixedClock(now))
			account := Account{ID: int64(i + 1), WarmupMode: ModeGrowth, CreatedAt: now.AddDate(0, 0, -tt.tenure)}
			assert.Equal(t, tt.want, state.ComputeDailyQuota(account))
		})
	}
}

func TestGrowthQuotaIsNonDecreasing(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)
	state := NewDailyState(DefaultQuotaPolicy(), nil, fixedClock(now))

	previous := 0
	for days := 0; days <= 60; days++ {
		quota := state.ComputeDailyQuota(Account{ID: int64(days + 1), WarmupMode: ModeGrowth, CreatedAt: now.AddDate(0, 0, -days)})
		assert.GreaterOrEqual(t, quota, previous)
		assert.LessOrEqual(t, quota, 40)
		previous = quota
	}
}

func TestFlatQuota(t *testing.T) {
	now := time.Now()
	state := NewDailyState(DefaultQuotaPolicy(), nil, fixedClock(now))

	assert.Equal(t, 7, state.ComputeDailyQuota(Account{ID: 1, WarmupMode: ModeFlat, CreatedAt: now}))
	assert.Equal(t, 7, state.ComputeDailyQuota(Account{ID: 2, WarmupMode: ModeFlat, CreatedAt: now.AddDate(-1, 0, 0)}))
}

func TestRandomQuotaRangeAndNotCached(t *testing.T) {
	state := NewDailyState(DefaultQuotaPolicy(), rand.New(rand.NewSource(1)), nil)
	account := Account{ID: 1, WarmupMode: ModeRandom, CreatedAt: time.Now()}

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		quota := state.ComputeDailyQuota(account)
		assert.GreaterOrEqual(t, quota, 5)
		assert.LessOrEqual(t, quota, 10)
		seen[quota] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestRandomQuotaWithNegativeVariance(t *testing.T) {
	state := NewDailyState(QuotaPolicy{Base: 5, Cap: 40, Variance: -1}, rand.New(rand.NewSource(1)), nil)
	account := Account{ID: 1, WarmupMode: ModeRandom, CreatedAt: time.Now()}

	assert.NotPanics(t, func() {
		assert.Equal(t, 5, state.ComputeDailyQuota(account))
	})
}

func TestUnknownModeUsesBase(t *testing.T) {
	state := NewDailyState(DefaultQuotaPolicy(), nil, nil)
	assert.Equal(t, 5, state.ComputeDailyQuota(Account{ID: 1, WarmupMode: "turbo", CreatedAt: time.Now().AddDate(0, 0, -20)}))
}

func TestQuotaIsMemoizedUntilReset(t *testing.T) {
	created := time.Date(2026, 10, 1, 10, 0, 0, 0, time.Local)
	now := created.AddDate(0, 0, 10)
	clock := func() time.Time { return now }
	state := NewDailyState(DefaultQuotaPolicy(), nil, clock)
	account := Account{ID: 1, WarmupMode: ModeGrowth, CreatedAt: created}

	assert.Equal(t, 15, state.ComputeDailyQuota(account))

	now = now.AddDate(0, 0, 2)
	assert.Equal(t, 15, state.ComputeDailyQuota(account))

	state.Reset()
	assert.Equal(t, 17, state.ComputeDailyQuota(account))
}

func TestSentCounters(t *testing.T) {
	state := NewDailyState(DefaultQuotaPolicy(), nil, nil)

	assert.Equal(t, 0, state.SentCount(1))
	assert.Equal(t, 1, state.IncrementSent(1))
	assert.Equal(t, 2, state.IncrementSent(1))
	assert.Equal(t, 1, state.IncrementSent(2))
	assert.Equal(t, 2, state.SentCount(1))

	state.Reset()
	assert.Equal(t, 0, state.SentCount(1))
	assert.Equal(t, 0, state.SentCount(2))

	state.Reset()
	assert.Equal(t, 0, state.SentCount(1))
}

func TestTenureDays(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	now := time.Date(2026, 10, 18, 0, 1, 0, 0, loc)

	assert.Equal(t, 1, TenureDays(time.Date(2026, 10, 17, 23, 59, 0, 0, loc), now))
	assert.Equal(t, 0, TenureDays(time.Date(2026, 10, 18, 0, 0, 0, 0, loc), now))
	assert.Equal(t, 0, TenureDays(now.Add(48*time.Hour), now))
	assert.Equal(t, 31, TenureDays(time.Date(2026, 9, 17, 12, 0, 0, 0, loc), now))
}

func TestSameDay(t *testing.T) {
	now := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	assert.True(t, sameDay(now.Add(-23*time.Hour), now))
	assert.False(t, sameDay(now.Add(-24*time.Hour), now))
}
