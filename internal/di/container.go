package di

import (
	"math/rand"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mailbox-warmup/internal/adapters/store"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/domains"
	"github.com/mikey/mailbox-warmup/internal/factory"
	"github.com/mikey/mailbox-warmup/internal/logging"
	"github.com/mikey/mailbox-warmup/internal/ports"
	"github.com/mikey/mailbox-warmup/internal/utils"
)

// BuildContainer creates and configures a dependency injection container for the daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideEngine(container); err != nil {
		return nil, err
	}

	// Register triggers
	if err := container.Provide(factory.NewTriggerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.TriggerFactory, runner *core.CycleRunner, st store.Store) ([]ports.Trigger, error) {
		return f.CreateTriggers(runner, st)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideEngine registers the adapters and the warmup engine. It expects
// *config.Config and *zap.Logger to be provided already.
func provideEngine(container *dig.Container) error {
	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register factories
	for _, constructor := range []interface{}{
		factory.NewStoreFactory,
		factory.NewReplyFactory,
		factory.NewScorerFactory,
		factory.NewAlertFactory,
		factory.NewLockFactory,
	} {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	// Register adapters
	if err := container.Provide(func(f *factory.StoreFactory) (store.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ReplyFactory) (core.ReplyGenerator, error) {
		return f.CreateReplyGenerator()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ScorerFactory) (core.SpamScorer, error) {
		return f.CreateSpamScorer()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.AlertFactory) (core.AlertSink, error) {
		return f.CreateAlertSink()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.LockFactory) (core.CycleLock, error) {
		return f.CreateCycleLock()
	}); err != nil {
		return err
	}

	// Register warmup configuration
	if err := container.Provide(func(cfg *config.Config) (config.WarmupConfig, error) {
		return cfg.GetWarmup()
	}); err != nil {
		return err
	}

	// Register paused domains
	if err := container.Provide(func(warmupCfg config.WarmupConfig, logger *zap.Logger) *domains.Set {
		return domains.NewSet(warmupCfg.PausedDomains, logger)
	}); err != nil {
		return err
	}

	// Register engine components
	if err := container.Provide(func(warmupCfg config.WarmupConfig) *core.DailyState {
		policy := core.QuotaPolicy{
			Base:     warmupCfg.BaseQuota,
			Cap:      warmupCfg.GrowthCap,
			Variance: warmupCfg.RandomVariance,
		}
		return core.NewDailyState(policy, nil, nil)
	}); err != nil {
		return err
	}

	if err := container.Provide(func(
		cfg *config.Config,
		warmupCfg config.WarmupConfig,
		st store.Store,
		replies core.ReplyGenerator,
		logger *zap.Logger,
	) (*core.EngagementSequence, error) {
		replyCfg, err := cfg.GetReply()
		if err != nil {
			return nil, err
		}
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		return core.NewEngagementSequence(st, replies, logger, core.SequenceConfig{
			Recipients:     warmupCfg.Recipients,
			ReplyRate:      warmupCfg.ReplyRate,
			ReplyThreshold: warmupCfg.ReplyThreshold,
			ReplyTimeout:   replyCfg.Timeout,
			Language:       replyCfg.Language,
			Tone:           replyCfg.Tone,
		}, rng.Float64, nil), nil
	}); err != nil {
		return err
	}

	if err := container.Provide(func(cfg *config.Config, st store.Store, scorer core.SpamScorer, logger *zap.Logger) (*core.SpamAnalyzer, error) {
		spamCfg, err := cfg.GetSpamCheck()
		if err != nil {
			return nil, err
		}
		return core.NewSpamAnalyzer(st, scorer, logger, spamCfg.Timeout, nil), nil
	}); err != nil {
		return err
	}

	if err := container.Provide(func(
		cfg *config.Config,
		analyzer *core.SpamAnalyzer,
		st store.Store,
		alerts core.AlertSink,
		logger *zap.Logger,
	) *core.ReputationAggregator {
		repCfg := cfg.GetReputation()
		return core.NewReputationAggregator(analyzer, st, st, alerts, logger, repCfg.AlertThreshold, repCfg.WindowDays, nil)
	}); err != nil {
		return err
	}

	return container.Provide(func(
		warmupCfg config.WarmupConfig,
		st store.Store,
		state *core.DailyState,
		sequence *core.EngagementSequence,
		analyzer *core.SpamAnalyzer,
		reputation *core.ReputationAggregator,
		cycleLock core.CycleLock,
		paused *domains.Set,
		logger *zap.Logger,
	) *core.CycleRunner {
		return core.NewCycleRunner(st, state, sequence, analyzer, reputation, cycleLock, paused, logger, warmupCfg.Sample)
	})
}
