package factory

import (
	"github.com/mikey/mailbox-warmup/internal/adapters/cache"
	"github.com/mikey/mailbox-warmup/internal/adapters/spamcheck"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"go.uber.org/zap"
)

// ScorerFactory creates the external spam scorer
type ScorerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScorerFactory creates a new scorer factory
func NewScorerFactory(cfg *config.Config, logger *zap.Logger) *ScorerFactory {
	return &ScorerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSpamScorer returns the HTTP scorer wrapped in a score cache, or nil when
// no API URL is configured
func (f *ScorerFactory) CreateSpamScorer() (core.SpamScorer, error) {
	spamCfg, err := f.cfg.GetSpamCheck()
	if err != nil {
		return nil, err
	}
	if spamCfg.APIURL == "" {
		f.logger.Info("Spam check API not configured; using deterministic fallback scores")
		return nil, nil
	}

	scorer := spamcheck.NewHTTPScorer(
		spamCfg.APIURL,
		spamCfg.APIKey,
		spamCfg.Timeout,
		spamCfg.RateLimit,
		spamCfg.Burst,
		f.logger,
	)
	if spamCfg.CacheTTL <= 0 {
		return scorer, nil
	}
	return cache.NewScoreCache(scorer, spamCfg.CacheTTL, spamCfg.CacheCleanup, f.logger), nil
}
