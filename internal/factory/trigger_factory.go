package factory

import (
	"github.com/mikey/mailbox-warmup/internal/adapters/opsserver"
	"github.com/mikey/mailbox-warmup/internal/adapters/scheduler"
	"github.com/mikey/mailbox-warmup/internal/adapters/store"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/ports"
	"go.uber.org/zap"
)

// TriggerFactory creates the long-running components of the daemon
type TriggerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTriggerFactory creates a new trigger factory
func NewTriggerFactory(cfg *config.Config, logger *zap.Logger) *TriggerFactory {
	return &TriggerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTriggers returns the cycle scheduler, the daily reset and, when enabled, the ops server
func (f *TriggerFactory) CreateTriggers(runner *core.CycleRunner, st store.Store) ([]ports.Trigger, error) {
	warmupCfg, err := f.cfg.GetWarmup()
	if err != nil {
		return nil, err
	}

	triggers := []ports.Trigger{
		scheduler.NewIntervalTrigger(runner, warmupCfg.CycleInterval, f.logger),
		scheduler.NewDailyTrigger(runner, warmupCfg.ResetHour, warmupCfg.ResetMinute, f.logger),
	}

	metricsCfg := f.cfg.GetMetrics()
	if metricsCfg.Enabled {
		var pinger opsserver.Pinger
		if p, ok := st.(opsserver.Pinger); ok {
			pinger = p
		}
		triggers = append(triggers, opsserver.New(metricsCfg.ListenAddress, pinger, st, f.logger))
	}

	return triggers, nil
}
