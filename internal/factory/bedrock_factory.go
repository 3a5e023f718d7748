package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/mailbox-warmup/internal/adapters/bedrock"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/utils"
	"go.uber.org/zap"
)

// BedrockFactory creates Bedrock reply clients
type BedrockFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBedrockFactory creates a new Bedrock factory
func NewBedrockFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *BedrockFactory {
	return &BedrockFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateReplyGenerator creates a Bedrock reply client using the default AWS credential chain
func (f *BedrockFactory) CreateReplyGenerator(maxBodySize int) (core.ReplyGenerator, error) {
	bedrockCfg := f.cfg.GetBedrock()
	if bedrockCfg.ModelID == "" {
		f.logger.Warn("Bedrock model id not set; replies will use the fallback text")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return bedrock.NewReplyClient(
		bedrockruntime.NewFromConfig(awsCfg),
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		maxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}
