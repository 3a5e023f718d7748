package alert

import (
	"context"

	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/metrics"
	"go.uber.org/zap"
)

// LogAlerter reports reputation drops to the application log
type LogAlerter struct {
	logger *zap.Logger
}

// NewLogAlerter creates a log-only alert sink
func NewLogAlerter(logger *zap.Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

// NotifyReputationDrop logs the drop as a warning
func (a *LogAlerter) NotifyReputationDrop(ctx context.Context, account core.Account, current, previous float64) error {
	a.logger.Sugar().Warnf("Reputation drop detected for %s: %.2f -> %.2f", account.Email, previous, current)
	metrics.AlertDeliveriesTotal.WithLabelValues("log", "success").Inc()
	return nil
}
