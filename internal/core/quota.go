package core

import (
	"math/rand"
	"sync"
	"time"
)

// QuotaPolicy holds the constants of the daily quota curves
type QuotaPolicy struct {
	Base     int
	Cap      int
	Variance int
}

// DefaultQuotaPolicy returns the standard curve: 5 base sends, growth capped at 40,
// random mode drawing up to 5 extra
func DefaultQuotaPolicy() QuotaPolicy {
	return QuotaPolicy{Base: 5, Cap: 40, Variance: 5}
}

// DailyState tracks per-account quotas and sent counters for the current day.
// It lives for the lifetime of the process and is cleared by Reset.
type DailyState struct {
	mu     sync.Mutex
	policy QuotaPolicy
	quotas map[int64]int
	sent   map[int64]int
	rng    *rand.Rand
	now    func() time.Time
}

// NewDailyState creates an empty daily state. A nil rng is seeded from the clock.
func NewDailyState(policy QuotaPolicy, rng *rand.Rand, now func() time.Time) *DailyState {
	if now == nil {
		now = time.Now
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(now().UnixNano()))
	}
	if policy.Variance < 0 {
		policy.Variance = 0
	}
	return &DailyState{
		policy: policy,
		quotas: make(map[int64]int),
		sent:   make(map[int64]int),
		rng:    rng,
		now:    now,
	}
}

// ComputeDailyQuota returns the number of warmup iterations the account may run today.
// Growth and flat results are memoized until Reset; random mode draws on every call.
func (s *DailyState) ComputeDailyQuota(account Account) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.WarmupMode == ModeRandom {
		return s.policy.Base + s.rng.Intn(s.policy.Variance+1)
	}

	if quota, ok := s.quotas[account.ID]; ok {
		return quota
	}

	var quota int
	switch account.WarmupMode {
	case ModeGrowth:
		quota = s.policy.Base + TenureDays(account.CreatedAt, s.now())
		if quota > s.policy.Cap {
			quota = s.policy.Cap
		}
	case ModeFlat:
		quota = s.policy.Base + 2
	default:
		return s.policy.Base
	}

	s.quotas[account.ID] = quota
	return quota
}

// SentCount returns how many iterations the account completed today
func (s *DailyState) SentCount(accountID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[accountID]
}

// IncrementSent records one completed iteration and returns the new count
func (s *DailyState) IncrementSent(accountID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[accountID]++
	return s.sent[accountID]
}

// Reset clears sent counters and memoized quotas
func (s *DailyState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotas = make(map[int64]int)
	s.sent = make(map[int64]int)
}

// TenureDays is the number of calendar days between created and now in now's
// location, never negative
func TenureDays(created, now time.Time) int {
	loc := now.Location()
	c := created.In(loc)
	start := time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// sameDay reports whether a and b fall on the same calendar day in b's location
func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
