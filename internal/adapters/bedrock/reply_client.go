package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/metrics"
	"github.com/mikey/mailbox-warmup/internal/utils"
	"go.uber.org/zap"
)

const providerName = "bedrock"

// ErrEmptyReply is returned when the model produces no text
var ErrEmptyReply = errors.New("empty reply from Bedrock")

// InvokeModelAPI is the subset of the Bedrock runtime client used here
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// ReplyClient generates warmup replies with a model hosted on Amazon Bedrock
type ReplyClient struct {
	client        InvokeModelAPI
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewReplyClient creates a Bedrock reply client
func NewReplyClient(
	client InvokeModelAPI,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *ReplyClient {
	return &ReplyClient{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// GenerateReply invokes the model and extracts the reply text
func (c *ReplyClient) GenerateReply(ctx context.Context, req core.ReplyRequest) (string, error) {
	system, user := c.textProcessor.ReplyPrompts(req.Context, req.Language, req.Tone, c.maxBodySize)

	payload, err := c.buildPayload(system, user)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		metrics.ReplyRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := c.parseResponse(resp.Body)
	if err != nil {
		metrics.ReplyRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return "", err
	}

	reply := c.textProcessor.CleanReply(text)
	if reply == "" {
		metrics.ReplyRequestsTotal.WithLabelValues(providerName, "empty").Inc()
		return "", ErrEmptyReply
	}

	metrics.ReplyRequestsTotal.WithLabelValues(providerName, "success").Inc()
	c.logger.Debug("Generated reply",
		zap.String("model", c.modelID),
		zap.Int("length", len(reply)))
	return reply, nil
}

func (c *ReplyClient) buildPayload(system, user string) ([]byte, error) {
	switch {
	case c.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\n%s\n\nAssistant:", system, user),
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	case c.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": system + "\n\n" + user,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      system + "\n\n" + user,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
}

func (c *ReplyClient) parseResponse(body []byte) (string, error) {
	switch {
	case c.isAnthropicModel():
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	case c.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", ErrEmptyReply
		}
		return titanResp.Results[0].OutputText, nil
	default:
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, candidate := range []string{genericResp.Output, genericResp.Text, genericResp.Response} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return "", ErrEmptyReply
	}
}

func (c *ReplyClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

func (c *ReplyClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
