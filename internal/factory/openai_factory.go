package factory

import (
	"github.com/mikey/mailbox-warmup/internal/adapters/openai"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/utils"
	"go.uber.org/zap"
)

// OpenAIFactory creates reply clients for OpenAI-compatible endpoints
type OpenAIFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIFactory creates a new OpenAI factory
func NewOpenAIFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *OpenAIFactory {
	return &OpenAIFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateReplyGenerator creates an OpenAI reply client, or nil without an API key
func (f *OpenAIFactory) CreateReplyGenerator(maxBodySize int) (core.ReplyGenerator, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		f.logger.Warn("OpenAI API key not set; replies will use the fallback text")
		return nil, nil
	}

	return openai.NewReplyClient(
		openaiCfg.APIKey,
		openaiCfg.BaseURL,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		maxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}
