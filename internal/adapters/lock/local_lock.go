package lock

import (
	"context"
	"sync"
)

// LocalLock guards cycles within a single process
type LocalLock struct {
	mu   sync.Mutex
	held bool
}

// NewLocalLock creates an in-process cycle lock
func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

// Acquire takes the lock if it is free
func (l *LocalLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

// Release frees the lock
func (l *LocalLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}
