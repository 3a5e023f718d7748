package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mikey/mailbox-warmup/internal/core"
	"go.uber.org/zap"
)

type scoreEntry struct {
	report    core.ScoreReport
	expiresAt time.Time
}

// ScoreCache wraps a SpamScorer and remembers successful reports per domain for a TTL.
// Failures are never cached.
type ScoreCache struct {
	scorer      core.SpamScorer
	ttl         time.Duration
	entries     map[string]scoreEntry
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	now         func() time.Time
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewScoreCache creates a caching scorer and starts its cleanup task
func NewScoreCache(scorer core.SpamScorer, ttl, cleanupFreq time.Duration, logger *zap.Logger) *ScoreCache {
	if cleanupFreq <= 0 {
		cleanupFreq = ttl
	}
	c := &ScoreCache{
		scorer:      scorer,
		ttl:         ttl,
		entries:     make(map[string]scoreEntry),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go c.startCleanupTask()

	return c
}

// Score returns the cached report for the domain or asks the wrapped scorer
func (c *ScoreCache) Score(ctx context.Context, domain string) (*core.ScoreReport, error) {
	key := strings.ToLower(domain)

	if report, ok := c.get(key); ok {
		c.logger.Debug("Spam score cache hit", zap.String("domain", key))
		return report, nil
	}

	report, err := c.scorer.Score(ctx, domain)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = scoreEntry{report: *report, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return report, nil
}

func (c *ScoreCache) get(key string) (*core.ScoreReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	report := entry.report
	return &report, true
}

// Len returns the number of entries, expired ones included until the next cleanup
func (c *ScoreCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries
func (c *ScoreCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired spam scores", zap.Int("expired_count", expiredCount))
}

func (c *ScoreCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.stopCh:
			return
		}
	}
}

// Close stops the background cleanup task
func (c *ScoreCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}
