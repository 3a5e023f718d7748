package spamcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultReason = "external_report"

// HTTPDoer is satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPScorer scores domains against an external JSON spam check API
type HTTPScorer struct {
	url     string
	apiKey  string
	client  HTTPDoer
	limiter *rate.Limiter
	logger  *zap.Logger
}

type scoreRequest struct {
	Domain string `json:"domain"`
}

// NewHTTPScorer creates a scorer. ratePerSecond <= 0 disables rate limiting.
func NewHTTPScorer(url, apiKey string, timeout time.Duration, ratePerSecond float64, burst int, logger *zap.Logger) *HTTPScorer {
	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	return &HTTPScorer{
		url:     url,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger,
	}
}

// WithClient replaces the HTTP client
func (s *HTTPScorer) WithClient(client HTTPDoer) *HTTPScorer {
	s.client = client
	return s
}

// Score posts the domain and parses {score, reason}. Missing fields default to
// 0 and "external_report"; the provider is the service URL.
func (s *HTTPScorer) Score(ctx context.Context, domain string) (*core.ScoreReport, error) {
	report, err := s.score(ctx, domain)
	if err != nil {
		metrics.SpamCheckRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SpamCheckRequests.WithLabelValues("success").Inc()
	return report, nil
}

func (s *HTTPScorer) score(ctx context.Context, domain string) (*core.ScoreReport, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("spam check rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(scoreRequest{Domain: domain})
	if err != nil {
		return nil, fmt.Errorf("failed to encode spam check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create spam check request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spam check request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read spam check response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("spam check returned status %d", resp.StatusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode spam check response: %w", err)
	}

	report := &core.ScoreReport{
		Reason:   defaultReason,
		Provider: s.url,
		Raw:      raw,
	}
	if v, ok := raw["score"]; ok && v != nil {
		score, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("spam check score is not a number: %v", v)
		}
		report.Score = score
	}
	if v, ok := raw["reason"].(string); ok && v != "" {
		report.Reason = v
	}

	s.logger.Debug("Spam check response received",
		zap.String("domain", domain),
		zap.Float64("score", report.Score),
		zap.String("reason", report.Reason))
	return report, nil
}
