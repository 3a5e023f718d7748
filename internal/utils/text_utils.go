package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	replySystemPrompt = "You are an email deliverability specialist composing concise, human-sounding replies. Use the requested language (%s) and tone (%s)."
	replyUserPrompt   = "Reply to the following message while sounding natural and lightly conversational.\n\n%s"
)

// TextProcessor prepares text exchanged with reply generators
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]

	// Drop bytes of a rune split by the cut
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated
}

// SanitizeUTF8 drops invalid UTF-8 bytes
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(result)))

	return result
}

// CleanReply normalizes generated reply text: invalid bytes removed, surrounding
// whitespace and quotes trimmed
func (tp *TextProcessor) CleanReply(text string) string {
	cleaned := strings.TrimSpace(tp.SanitizeUTF8(text))
	if len(cleaned) >= 2 {
		first, last := cleaned[0], cleaned[len(cleaned)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
		}
	}
	return cleaned
}

// ReplyPrompts builds the system and user prompts for a reply request.
// The context is truncated to maxSize bytes.
func (tp *TextProcessor) ReplyPrompts(context, lang, tone string, maxSize int) (system, user string) {
	body := tp.SanitizeUTF8(tp.TruncateText(context, maxSize))
	system = fmt.Sprintf(replySystemPrompt, LanguageName(lang), tone)
	user = fmt.Sprintf(replyUserPrompt, body)
	return system, user
}

// LanguageName returns the English display name of a BCP 47 tag ("fr" -> "French").
// Values that are not valid tags are returned unchanged so that plain names still work.
func LanguageName(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "English"
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	name := display.English.Tags().Name(parsed)
	if name == "" {
		return tag
	}
	return name
}
