package ai

import (
	"context"
	"fmt"

	"resumeopt/internal/config"
	"resumeopt/internal/errors"
	"resumeopt/internal/keywords"
)

// Service handles AI operations for one operation type
type Service struct {
	Provider AIProvider // Exported for access from server package
	config   *config.OperationAIConfig
	logger   *errors.Logger
}

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*Service, error) {
	var provider AIProvider
	var err error

	// Debug logging for service initialization
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		logger:   logger,
	}, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) any {
	return s.Provider.GetModelInfo(ctx)
}

// Assist bundles the per-operation services behind the single collaborator
// interface the pipeline consumes. Token usage is logged here so pipeline
// callers stay unaware of provider accounting.
type Assist struct {
	Extract *Service
	Rewrite *Service
	logger  *errors.Logger
}

// NewAssist builds the extract and rewrite services from the resolved
// operation configurations.
func NewAssist(cfg *config.Config, logger *errors.Logger) (*Assist, error) {
	extractCfg := cfg.GetExtractConfig()
	extract, err := NewService(&extractCfg, "extract", logger)
	if err != nil {
		return nil, err
	}

	rewriteCfg := cfg.GetRewriteConfig()
	rewrite, err := NewService(&rewriteCfg, "rewrite", logger)
	if err != nil {
		return nil, err
	}

	return &Assist{
		Extract: extract,
		Rewrite: rewrite,
		logger:  logger,
	}, nil
}

// ExtractKeywords asks the extract service for weighted keywords
func (a *Assist) ExtractKeywords(ctx context.Context, jobText string, topN int) ([]keywords.Entry, error) {
	entries, usage, err := a.Extract.Provider.ExtractKeywords(ctx, jobText, topN)
	if err != nil {
		return nil, err
	}
	a.logTokenUsage("extract_keywords", usage)
	return entries, nil
}

// ProposeRewrite asks the rewrite service for a bullet rephrasing
func (a *Assist) ProposeRewrite(ctx context.Context, bullet, keyword string, maxDelta int) (string, error) {
	proposal, usage, err := a.Rewrite.Provider.ProposeRewrite(ctx, bullet, keyword, maxDelta)
	if err != nil {
		return "", err
	}
	a.logTokenUsage("propose_rewrite", usage)
	return proposal, nil
}

// GetModelInfo reports the extract model's readiness; both operations
// usually share a model
func (a *Assist) GetModelInfo(ctx context.Context) any {
	return a.Extract.GetModelInfo(ctx)
}

// Close releases both providers
func (a *Assist) Close() error {
	if err := a.Extract.Provider.Close(); err != nil {
		return err
	}
	return a.Rewrite.Provider.Close()
}

func (a *Assist) logTokenUsage(operation string, usage *TokenUsage) {
	if usage == nil {
		return
	}
	a.logger.Debug("AI token usage",
		"operation", operation,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"total_tokens", usage.TotalTokens)
}
