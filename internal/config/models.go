package config

import (
	"fmt"
	"time"
)

// WarmupConfig represents the engagement cycle configuration
type WarmupConfig struct {
	BaseQuota      int
	GrowthCap      int
	RandomVariance int
	ReplyRate      float64
	ReplyThreshold float64
	CycleInterval  time.Duration
	ResetHour      int
	ResetMinute    int
	Sample         string
	Recipients     []string
	PausedDomains  []string
}

// SpamCheckConfig represents the external spam scoring service configuration
type SpamCheckConfig struct {
	APIURL       string
	APIKey       string
	Timeout      time.Duration
	RateLimit    float64
	Burst        int
	CacheTTL     time.Duration
	CacheCleanup time.Duration
}

// ReplyConfig represents the reply generation configuration
type ReplyConfig struct {
	Provider    string
	Timeout     time.Duration
	Language    string
	Tone        string
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI-compatible endpoints
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// ReputationConfig represents the reputation aggregation configuration
type ReputationConfig struct {
	AlertThreshold float64
	WindowDays     int
}

// AlertConfig represents the reputation drop alert channel configuration
type AlertConfig struct {
	Type         string
	SMTPAddress  string
	SMTPUsername string
	SMTPPassword string
	From         string
	To           []string
}

// StoreConfig represents the persistence configuration
type StoreConfig struct {
	Type        string
	SQLitePath  string
	MySQLDSN    string
	PostgresDSN string
	Migrate     bool
}

// LockConfig represents the cycle lock configuration
type LockConfig struct {
	Type      string
	RedisAddr string
	Key       string
	TTL       time.Duration
}

// MetricsConfig represents the metrics endpoint configuration
type MetricsConfig struct {
	Enabled       bool
	ListenAddress string
}

// GetWarmup returns the warmup configuration
func (c *Config) GetWarmup() (WarmupConfig, error) {
	interval, err := c.GetDuration("warmup.cycle_interval")
	if err != nil {
		return WarmupConfig{}, fmt.Errorf("invalid warmup cycle interval: %w", err)
	}
	if interval <= 0 {
		return WarmupConfig{}, fmt.Errorf("warmup cycle interval must be positive, got %s", interval)
	}

	resetAt, err := time.Parse("15:04", c.GetString("warmup.reset_time"))
	if err != nil {
		return WarmupConfig{}, fmt.Errorf("invalid warmup reset time: %w", err)
	}

	base := c.GetInt("warmup.base_quota")
	if base < 0 {
		return WarmupConfig{}, fmt.Errorf("warmup base quota must not be negative, got %d", base)
	}
	growthCap := c.GetInt("warmup.growth_cap")
	if growthCap < base {
		return WarmupConfig{}, fmt.Errorf("warmup growth cap %d is below base quota %d", growthCap, base)
	}
	variance := c.GetInt("warmup.random_variance")
	if variance < 0 {
		return WarmupConfig{}, fmt.Errorf("warmup random variance must not be negative, got %d", variance)
	}

	return WarmupConfig{
		BaseQuota:      base,
		GrowthCap:      growthCap,
		RandomVariance: variance,
		ReplyRate:      c.GetFloat64("warmup.reply_rate"),
		ReplyThreshold: c.GetFloat64("warmup.reply_threshold"),
		CycleInterval:  interval,
		ResetHour:      resetAt.Hour(),
		ResetMinute:    resetAt.Minute(),
		Sample:         c.GetString("warmup.sample"),
		Recipients:     c.GetStringSlice("warmup.recipients"),
		PausedDomains:  c.GetStringSlice("warmup.paused_domains"),
	}, nil
}

// GetSpamCheck returns the spam check configuration
func (c *Config) GetSpamCheck() (SpamCheckConfig, error) {
	timeout, err := c.GetDuration("spamcheck.timeout")
	if err != nil {
		return SpamCheckConfig{}, fmt.Errorf("invalid spam check timeout: %w", err)
	}
	cacheTTL, err := c.GetDuration("spamcheck.cache_ttl")
	if err != nil {
		return SpamCheckConfig{}, fmt.Errorf("invalid spam check cache ttl: %w", err)
	}
	cacheCleanup, err := c.GetDuration("spamcheck.cache_cleanup")
	if err != nil {
		return SpamCheckConfig{}, fmt.Errorf("invalid spam check cache cleanup frequency: %w", err)
	}

	return SpamCheckConfig{
		APIURL:       c.GetString("spamcheck.api_url"),
		APIKey:       c.GetString("spamcheck.api_key"),
		Timeout:      timeout,
		RateLimit:    c.GetFloat64("spamcheck.rate_limit"),
		Burst:        c.GetInt("spamcheck.burst"),
		CacheTTL:     cacheTTL,
		CacheCleanup: cacheCleanup,
	}, nil
}

// GetReply returns the reply generation configuration
func (c *Config) GetReply() (ReplyConfig, error) {
	timeout, err := c.GetDuration("reply.timeout")
	if err != nil {
		return ReplyConfig{}, fmt.Errorf("invalid reply timeout: %w", err)
	}
	if timeout <= 0 {
		return ReplyConfig{}, fmt.Errorf("reply timeout must be positive, got %s", timeout)
	}

	return ReplyConfig{
		Provider:    c.GetString("reply.provider"),
		Timeout:     timeout,
		Language:    c.GetString("reply.language"),
		Tone:        c.GetString("reply.tone"),
		MaxBodySize: c.GetInt("reply.max_body_size"),
	}, nil
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetReputation returns the reputation configuration
func (c *Config) GetReputation() ReputationConfig {
	return ReputationConfig{
		AlertThreshold: c.GetFloat64("reputation.alert_threshold"),
		WindowDays:     c.GetInt("reputation.window_days"),
	}
}

// GetAlert returns the alert channel configuration
func (c *Config) GetAlert() AlertConfig {
	return AlertConfig{
		Type:         c.GetString("alert.type"),
		SMTPAddress:  c.GetString("alert.smtp.address"),
		SMTPUsername: c.GetString("alert.smtp.username"),
		SMTPPassword: c.GetString("alert.smtp.password"),
		From:         c.GetString("alert.smtp.from"),
		To:           c.GetStringSlice("alert.smtp.to"),
	}
}

// GetStore returns the persistence configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:        c.GetString("store.type"),
		SQLitePath:  c.GetString("store.sqlite_path"),
		MySQLDSN:    c.GetString("store.mysql_dsn"),
		PostgresDSN: c.GetString("store.postgres_dsn"),
		Migrate:     c.GetBool("store.migrate"),
	}
}

// GetLock returns the cycle lock configuration
func (c *Config) GetLock() (LockConfig, error) {
	ttl, err := c.GetDuration("lock.ttl")
	if err != nil {
		return LockConfig{}, fmt.Errorf("invalid lock ttl: %w", err)
	}

	return LockConfig{
		Type:      c.GetString("lock.type"),
		RedisAddr: c.GetString("lock.redis_addr"),
		Key:       c.GetString("lock.key"),
		TTL:       ttl,
	}, nil
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled:       c.GetBool("metrics.enabled"),
		ListenAddress: c.GetString("metrics.listen_address"),
	}
}
