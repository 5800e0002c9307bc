package common

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"resumeopt/internal/ai"
	"resumeopt/internal/ats"
	"resumeopt/internal/config"
	"resumeopt/internal/errors"
	"resumeopt/internal/keywords"
	"resumeopt/internal/pipeline"
	"resumeopt/internal/report"
	"resumeopt/internal/rewrite"
)

// Artifact file names written next to each other by WriteArtifacts.
const (
	ArtifactOptimizedTex = "main_optimized.tex"
	ArtifactDiffPatch    = "diff.patch"
	ArtifactKeywordMap   = "keyword_map.json"
	ArtifactReport       = "report.md"
)

// PipelineOptions translates the resolved configuration into the pipeline's
// option set. The pipeline itself never touches viper or the environment.
func PipelineOptions(cfg *config.Config) pipeline.Options {
	p := cfg.Pipeline

	scoring := ats.DefaultConfig()
	scoring.Weights = ats.Weights{
		Coverage:     p.Weights.Coverage,
		Format:       p.Weights.Format,
		Quality:      p.Weights.Quality,
		Distribution: p.Weights.Distribution,
	}
	scoring.SynonymDiscount = p.SynonymDiscount
	if len(p.RequiredSections) > 0 {
		scoring.RequiredSections = p.RequiredSections
	}
	if p.MaxPages > 0 {
		scoring.MaxPages = p.MaxPages
	}

	rw := rewrite.DefaultConfig()
	rw.Strict = p.Strict
	if p.StrictBudget > 0 {
		rw.StrictBudget = p.StrictBudget
	}
	if p.RelaxedBudget > 0 {
		rw.RelaxedBudget = p.RelaxedBudget
	}
	if p.UsageCap > 0 {
		rw.UsageCap = p.UsageCap
	}

	return pipeline.Options{
		TopN:      p.TopN,
		UseAssist: p.UseAssist,
		Scoring:   scoring,
		Rewrite:   rw,
		Lexicon:   keywords.DefaultLexicon(),
	}
}

// BuildAssist constructs the AI collaborator when assist is enabled.
// A nil return with nil error means the run proceeds rule-based only.
func BuildAssist(cfg *config.Config, logger *errors.Logger) (pipeline.Assist, error) {
	if !cfg.Pipeline.UseAssist {
		return nil, nil
	}
	assist, err := ai.NewAssist(cfg, logger)
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAssistUnavailable,
			"Failed to initialize AI assist", err)
	}
	return assist, nil
}

// ArtifactWriter persists the outputs of an optimization run as sibling
// files in one directory.
type ArtifactWriter struct {
	fileProcessor *FileProcessor
	logger        *errors.Logger
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(logger *errors.Logger) *ArtifactWriter {
	return &ArtifactWriter{
		fileProcessor: NewFileProcessor(logger),
		logger:        logger,
	}
}

// WriteArtifacts writes the rewritten source, unified diff, keyword map and
// report into dir. Files are only useful together, so any failure aborts.
func (aw *ArtifactWriter) WriteArtifacts(dir string, result *pipeline.Result) error {
	usages := result.KeywordMap
	if usages == nil {
		usages = map[string]report.Usage{}
	}
	keywordMap, err := json.MarshalIndent(usages, "", "  ")
	if err != nil {
		return errors.NewInternalError("KEYWORD_MAP_MARSHAL_FAILED",
			"Failed to marshal keyword map", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{ArtifactOptimizedTex, result.RewrittenSource},
		{ArtifactDiffPatch, result.Diff},
		{ArtifactKeywordMap, string(keywordMap)},
		{ArtifactReport, result.Report},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := aw.fileProcessor.WriteFile(path, f.content); err != nil {
			return fmt.Errorf("failed to write artifact %s: %w", f.name, err)
		}
	}

	aw.logger.Info("Artifacts written",
		"dir", dir,
		"score_before", result.Before.Overall,
		"score_after", result.After.Overall)
	return nil
}
