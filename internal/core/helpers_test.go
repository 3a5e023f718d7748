package core_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mikey/mailbox-warmup/internal/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeReplies struct {
	text  string
	err   error
	calls int
	last  core.ReplyRequest
}

func (f *fakeReplies) GenerateReply(ctx context.Context, req core.ReplyRequest) (string, error) {
	f.calls++
	f.last = req
	return f.text, f.err
}

type fakeScorer struct {
	report *core.ScoreReport
	err    error
	calls  int
}

func (f *fakeScorer) Score(ctx context.Context, domain string) (*core.ScoreReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type alertCall struct {
	account           core.Account
	current, previous float64
}

type fakeAlerts struct {
	mu    sync.Mutex
	calls []alertCall
	err   error
}

func (f *fakeAlerts) NotifyReputationDrop(ctx context.Context, account core.Account, current, previous float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, alertCall{account: account, current: current, previous: previous})
	return f.err
}

type fakeLock struct {
	acquire  bool
	err      error
	released int
}

func (f *fakeLock) Acquire(ctx context.Context) (bool, error) {
	return f.acquire, f.err
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.released++
	return nil
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T {
	return &v
}

// hangingReplies never answers; it returns once the caller's context ends
type hangingReplies struct {
	hadDeadline bool
}

func (b *hangingReplies) GenerateReply(ctx context.Context, req core.ReplyRequest) (string, error) {
	_, b.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return "", ctx.Err()
}

type hangingScorer struct{}

func (hangingScorer) Score(ctx context.Context, domain string) (*core.ScoreReport, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
