package ai

import (
	"context"

	"resumeopt/internal/keywords"
)

// AIProvider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	ExtractKeywords(ctx context.Context, jobDescription string, topN int) ([]keywords.Entry, *TokenUsage, error)
	ProposeRewrite(ctx context.Context, bullet, keyword string, maxDelta int) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// PromptBuilder interface for building AI prompts
type PromptBuilder interface {
	BuildExtractPrompt(jobDescription string, topN int) string
	BuildRewritePrompt(bullet, keyword string, maxDelta int) string
}
