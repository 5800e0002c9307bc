package common

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"resumeopt/internal/ats"
	"resumeopt/internal/config"
	"resumeopt/internal/errors"
	"resumeopt/internal/keywords"
	"resumeopt/internal/pipeline"
	"resumeopt/internal/report"
)

var testLogger = errors.NewLogger(slog.LevelError)

func TestPipelineOptionsTranslation(t *testing.T) {
	cfg := &config.Config{
		Pipeline: config.PipelineConfig{
			TopN:             15,
			UseAssist:        true,
			Strict:           false,
			StrictBudget:     12,
			RelaxedBudget:    80,
			UsageCap:         3,
			SynonymDiscount:  0.5,
			MaxPages:         3,
			RequiredSections: []string{"experience", "projects"},
			Weights: config.WeightsConfig{
				Coverage:     0.5,
				Format:       0.2,
				Quality:      0.2,
				Distribution: 0.1,
			},
		},
	}

	opts := PipelineOptions(cfg)

	if opts.TopN != 15 {
		t.Errorf("Expected TopN 15, got %d", opts.TopN)
	}
	if !opts.UseAssist {
		t.Error("Expected UseAssist to carry over")
	}
	if opts.Scoring.Weights != (ats.Weights{Coverage: 0.5, Format: 0.2, Quality: 0.2, Distribution: 0.1}) {
		t.Errorf("Weights not translated: %+v", opts.Scoring.Weights)
	}
	if opts.Scoring.SynonymDiscount != 0.5 {
		t.Errorf("Expected synonym discount 0.5, got %f", opts.Scoring.SynonymDiscount)
	}
	if opts.Scoring.MaxPages != 3 {
		t.Errorf("Expected max pages 3, got %d", opts.Scoring.MaxPages)
	}
	if len(opts.Scoring.RequiredSections) != 2 {
		t.Errorf("Expected 2 required sections, got %v", opts.Scoring.RequiredSections)
	}
	if opts.Rewrite.Strict {
		t.Error("Expected relaxed mode")
	}
	if opts.Rewrite.Budget() != 80 {
		t.Errorf("Expected active budget 80, got %d", opts.Rewrite.Budget())
	}
	if opts.Rewrite.UsageCap != 3 {
		t.Errorf("Expected usage cap 3, got %d", opts.Rewrite.UsageCap)
	}
	if len(opts.Scoring.ActionVerbs) == 0 {
		t.Error("Action verbs should come from defaults")
	}
}

func TestPipelineOptionsZeroValuesKeepDefaults(t *testing.T) {
	cfg := &config.Config{
		Pipeline: config.PipelineConfig{
			TopN:   20,
			Strict: true,
		},
	}

	opts := PipelineOptions(cfg)
	def := pipeline.DefaultOptions()

	if opts.Rewrite.StrictBudget != def.Rewrite.StrictBudget {
		t.Errorf("Zero strict budget should keep default %d, got %d",
			def.Rewrite.StrictBudget, opts.Rewrite.StrictBudget)
	}
	if opts.Scoring.MaxPages != def.Scoring.MaxPages {
		t.Errorf("Zero max pages should keep default %d, got %d",
			def.Scoring.MaxPages, opts.Scoring.MaxPages)
	}
	if len(opts.Scoring.RequiredSections) != len(def.Scoring.RequiredSections) {
		t.Error("Empty required sections should keep defaults")
	}
}

func TestBuildAssistDisabled(t *testing.T) {
	cfg := &config.Config{}

	assist, err := BuildAssist(cfg, testLogger)
	if err != nil {
		t.Fatalf("Disabled assist should not error: %v", err)
	}
	if assist != nil {
		t.Error("Disabled assist should be nil")
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()

	result := &pipeline.Result{
		RewrittenSource: "\\documentclass{article}\n",
		Diff:            "--- a\n+++ b\n",
		Report:          "# Report\n",
		Keywords: []keywords.Entry{
			{Term: "python", Weight: 1.0, Category: keywords.CategorySkill},
		},
		KeywordMap: map[string]report.Usage{
			"python":  {Before: 1, After: 2},
			"tableau": {Before: 0, After: 1},
		},
	}

	writer := NewArtifactWriter(testLogger)
	if err := writer.WriteArtifacts(dir, result); err != nil {
		t.Fatalf("WriteArtifacts failed: %v", err)
	}

	for _, name := range []string{ArtifactOptimizedTex, ArtifactDiffPatch, ArtifactKeywordMap, ArtifactReport} {
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Artifact %s not written: %v", name, err)
		}
		if len(content) == 0 {
			t.Errorf("Artifact %s is empty", name)
		}
	}

	raw, _ := os.ReadFile(filepath.Join(dir, ArtifactKeywordMap))
	var usages map[string]report.Usage
	if err := json.Unmarshal(raw, &usages); err != nil {
		t.Fatalf("Keyword map is not a term-to-usage object: %v\n%s", err, raw)
	}
	if got := usages["python"]; got.Before != 1 || got.After != 2 {
		t.Errorf(`Keyword map "python" = %+v, want {before: 1, after: 2}`, got)
	}
	if got := usages["tableau"]; got.Before != 0 || got.After != 1 {
		t.Errorf(`Keyword map "tableau" = %+v, want {before: 0, after: 1}`, got)
	}
}

func TestWriteArtifactsEmptyKeywordMap(t *testing.T) {
	dir := t.TempDir()

	result := &pipeline.Result{
		RewrittenSource: "\\documentclass{article}\n",
		Diff:            " ",
		Report:          "# Report\n",
	}

	writer := NewArtifactWriter(testLogger)
	if err := writer.WriteArtifacts(dir, result); err != nil {
		t.Fatalf("WriteArtifacts failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, ArtifactKeywordMap))
	if err != nil {
		t.Fatalf("Keyword map not written: %v", err)
	}
	if string(raw) != "{}" {
		t.Errorf("Empty keyword map should serialize as an empty object, got %q", raw)
	}
}
