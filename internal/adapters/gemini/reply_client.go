package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/metrics"
	"github.com/mikey/mailbox-warmup/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const providerName = "gemini"

// ErrEmptyReply is returned when Gemini produces no text candidates
var ErrEmptyReply = errors.New("empty reply from Gemini")

// ReplyClient generates warmup replies with Google Gemini
type ReplyClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewReplyClient creates a Gemini client
func NewReplyClient(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*ReplyClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &ReplyClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *ReplyClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// GenerateReply asks Gemini for a short reply in the requested language and tone
func (c *ReplyClient) GenerateReply(ctx context.Context, req core.ReplyRequest) (string, error) {
	system, user := c.textProcessor.ReplyPrompts(req.Context, req.Language, req.Tone, c.maxBodySize)

	// The system instruction is per request because language and tone vary
	model := *c.model
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		metrics.ReplyRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	reply := c.textProcessor.CleanReply(responseText(resp))
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

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
