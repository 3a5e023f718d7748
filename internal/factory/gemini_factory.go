package factory

import (
	"context"

	"github.com/mikey/mailbox-warmup/internal/adapters/gemini"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/utils"
	"go.uber.org/zap"
)

// GeminiFactory creates Gemini reply clients
type GeminiFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiFactory creates a new Gemini factory
func NewGeminiFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *GeminiFactory {
	return &GeminiFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateReplyGenerator creates a Gemini reply client, or nil without an API key
func (f *GeminiFactory) CreateReplyGenerator(maxBodySize int) (core.ReplyGenerator, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		f.logger.Warn("Gemini API key not set; replies will use the fallback text")
		return nil, nil
	}

	client, err := gemini.NewReplyClient(
		context.Background(),
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		maxBodySize,
		f.logger,
		f.textProcessor,
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}
