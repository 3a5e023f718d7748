package logging

import (
	"fmt"

	"github.com/mikey/mailbox-warmup/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "mailbox-warmup"

// InitLogger initializes the daemon logger based on configuration
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	level := parseLevel(cfg.GetString("logging.level"))
	return build(level, cfg.GetString("logging.format") == "json", map[string]interface{}{
		"service": serviceName,
	})
}

// InitConsoleLogger initializes a console-friendly logger for the CLI
func InitConsoleLogger(verbose bool, jsonFormat bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return build(level, jsonFormat, nil)
}

// parseLevel maps a configured level name to a zap level, defaulting to info
func parseLevel(name string) zapcore.Level {
	switch name {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func build(level zapcore.Level, jsonFormat bool, fields map[string]interface{}) (*zap.Logger, error) {
	var logConfig zap.Config
	if jsonFormat {
		logConfig = zap.NewProductionConfig()
		logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)
	logConfig.InitialFields = fields

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}
