package factory

import (
	"fmt"

	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/utils"
	"go.uber.org/zap"
)

// ReplyFactory creates the reply generator for the configured provider
type ReplyFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewReplyFactory creates a new reply factory
func NewReplyFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ReplyFactory {
	return &ReplyFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateReplyGenerator returns the configured generator. A nil generator with a nil
// error means generation is disabled and the fallback reply is used.
func (f *ReplyFactory) CreateReplyGenerator() (core.ReplyGenerator, error) {
	replyCfg, err := f.cfg.GetReply()
	if err != nil {
		return nil, err
	}

	switch replyCfg.Provider {
	case "openai":
		return NewOpenAIFactory(f.cfg, f.logger, f.textProcessor).CreateReplyGenerator(replyCfg.MaxBodySize)
	case "gemini":
		return NewGeminiFactory(f.cfg, f.logger, f.textProcessor).CreateReplyGenerator(replyCfg.MaxBodySize)
	case "bedrock":
		return NewBedrockFactory(f.cfg, f.logger, f.textProcessor).CreateReplyGenerator(replyCfg.MaxBodySize)
	case "none", "":
		f.logger.Info("Reply generation disabled; replies will use the fallback text")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported reply provider: %s", replyCfg.Provider)
	}
}
