package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/metrics"
	"github.com/mikey/mailbox-warmup/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const providerName = "openai"

// ErrEmptyReply is returned when the model answers with no usable text
var ErrEmptyReply = errors.New("empty reply from chat completion")

// ReplyClient generates warmup replies through an OpenAI-compatible chat
// completion endpoint such as DeepSeek
type ReplyClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewReplyClient creates a client. An empty baseURL targets api.openai.com.
func NewReplyClient(
	apiKey string,
	baseURL string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *ReplyClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &ReplyClient{
		client:        openai.NewClientWithConfig(cfg),
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// GenerateReply asks the model for a short reply in the requested language and tone
func (c *ReplyClient) GenerateReply(ctx context.Context, req core.ReplyRequest) (string, error) {
	system, user := c.textProcessor.ReplyPrompts(req.Context, req.Language, req.Tone, c.maxBodySize)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	})
	if err != nil {
		metrics.ReplyRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		metrics.ReplyRequestsTotal.WithLabelValues(providerName, "empty").Inc()
		return "", ErrEmptyReply
	}

	reply := c.textProcessor.CleanReply(resp.Choices[0].Message.Content)
	if reply == "" {
		metrics.ReplyRequestsTotal.WithLabelValues(providerName, "empty").Inc()
		return "", ErrEmptyReply
	}

	metrics.ReplyRequestsTotal.WithLabelValues(providerName, "success").Inc()
	c.logger.Debug("Generated reply",
		zap.String("model", c.modelName),
		zap.Int("length", len(reply)))
	return reply, nil
}
