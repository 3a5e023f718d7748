package factory

import (
	"fmt"

	"github.com/mikey/mailbox-warmup/internal/adapters/alert"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"go.uber.org/zap"
)

// AlertFactory creates the reputation alert sink
type AlertFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAlertFactory creates a new alert factory
func NewAlertFactory(cfg *config.Config, logger *zap.Logger) *AlertFactory {
	return &AlertFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAlertSink returns the configured sink, or nil when alerts are disabled
func (f *AlertFactory) CreateAlertSink() (core.AlertSink, error) {
	alertCfg := f.cfg.GetAlert()

	switch alertCfg.Type {
	case "log":
		return alert.NewLogAlerter(f.logger), nil
	case "smtp":
		sink, err := alert.NewSMTPAlerter(
			alertCfg.SMTPAddress,
			alertCfg.SMTPUsername,
			alertCfg.SMTPPassword,
			alertCfg.From,
			alertCfg.To,
			f.logger,
		)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported alert type: %s", alertCfg.Type)
	}
}
