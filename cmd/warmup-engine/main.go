package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/mailbox-warmup/internal/adapters/store"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/di"
	"github.com/mikey/mailbox-warmup/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	triggers []ports.Trigger,
	st store.Store,
	replies core.ReplyGenerator,
	scorer core.SpamScorer,
	cycleLock core.CycleLock,
) error {
	defer logger.Sync()
	defer st.Close()

	started := make([]ports.Trigger, 0, len(triggers))
	for _, trigger := range triggers {
		if err := trigger.Start(); err != nil {
			logger.Error("Failed to start trigger", zap.String("trigger", trigger.Name()), zap.Error(err))
			stopAll(logger, started)
			return err
		}
		started = append(started, trigger)
	}
	logger.Info("Warmup engine started", zap.Int("triggers", len(started)))

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	stopAll(logger, started)

	// Close any resources that need closing
	if closer, ok := replies.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close reply client", zap.Error(err))
		}
	}
	if closer, ok := scorer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close spam score cache", zap.Error(err))
		}
	}
	if closer, ok := cycleLock.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close cycle lock", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}

// stopAll stops triggers in reverse start order
func stopAll(logger *zap.Logger, triggers []ports.Trigger) {
	for i := len(triggers) - 1; i >= 0; i-- {
		if err := triggers[i].Stop(); err != nil {
			logger.Error("Failed to stop trigger", zap.String("trigger", triggers[i].Name()), zap.Error(err))
		}
	}
}
