package formatters

import (
	"strings"
	"testing"

	"resumeopt/internal/ats"
	"resumeopt/internal/keywords"
	"resumeopt/internal/pipeline"
	"resumeopt/internal/rewrite"
	"resumeopt/internal/types"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Job: types.JobPosting{Title: "Data Engineer", Company: "Acme"},
		Keywords: []keywords.Entry{
			{Term: "python", Weight: 1.0, Category: keywords.CategorySkill, Synonyms: []string{"pandas"}},
			{Term: "airflow", Weight: 0.8, Category: keywords.CategoryTool},
		},
		RewrittenSource: "\\documentclass{article}\n",
		Before:          ats.Result{Overall: 55.0, Coverage: 40.0, Format: 80.0, Quality: 60.0, Distribution: 50.0},
		After:           ats.Result{Overall: 72.5, Coverage: 70.0, Format: 80.0, Quality: 65.0, Distribution: 75.0},
		Diff:            "--- original\n+++ rewritten\n",
		Plans: []rewrite.Plan{
			{Block: 4, Original: "Built ETL jobs", Replacement: "Built Python ETL jobs", Keywords: []string{"python"}, EditDelta: 7},
		},
		Skipped: []rewrite.SkippedGap{
			{Term: "airflow", Reason: "budget exhausted"},
		},
		Report: "# Optimization Report\n",
		Flags:  []string{"missing section: education"},
	}
}

func TestOptimizeTextFormatter(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleResult(), "text")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"Data Engineer",
		"55.0 -> 72.5",
		"Built Python ETL jobs",
		"airflow: budget exhausted",
		"missing section: education",
		"--- original",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Text output should contain %q", want)
		}
	}
}

func TestOptimizeMarkdownFormatterPassesReportThrough(t *testing.T) {
	result := sampleResult()
	out, err := GlobalRegistry.Format(result, "markdown")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if out != result.Report {
		t.Error("Markdown formatter should return the pipeline report verbatim")
	}
}

func TestScoreFormatters(t *testing.T) {
	score := pipeline.ScoreOutput{
		Job: types.JobPosting{Title: "Analyst"},
		Keywords: []keywords.Entry{
			{Term: "sql", Weight: 1.0, Category: keywords.CategorySkill},
			{Term: "tableau", Weight: 0.6, Category: keywords.CategoryTool},
		},
		Score: ats.Result{
			Overall:  48.0,
			Coverage: 30.0,
			Evidence: []ats.Match{{Term: "sql", Block: 2}},
		},
	}

	text, err := GlobalRegistry.Format(score, "text")
	if err != nil {
		t.Fatalf("Text format failed: %v", err)
	}
	if !strings.Contains(text, "Keywords matched: 1/2") {
		t.Errorf("Text output should report match counts, got:\n%s", text)
	}
	if !strings.Contains(text, "- tableau") {
		t.Error("Text output should list missing keywords")
	}

	md, err := GlobalRegistry.Format(score, "markdown")
	if err != nil {
		t.Fatalf("Markdown format failed: %v", err)
	}
	if !strings.Contains(md, "| Coverage | 30.0 |") {
		t.Error("Markdown output should include the component table")
	}
}

func TestKeywordFormatters(t *testing.T) {
	entries := []keywords.Entry{
		{Term: "kubernetes", Weight: 0.9, Category: keywords.CategoryTool, Synonyms: []string{"k8s"}},
	}

	text, err := GlobalRegistry.Format(entries, "text")
	if err != nil {
		t.Fatalf("Text format failed: %v", err)
	}
	if !strings.Contains(text, "kubernetes") || !strings.Contains(text, "k8s") {
		t.Errorf("Text output should list the term and synonyms, got:\n%s", text)
	}

	md, err := GlobalRegistry.Format(entries, "markdown")
	if err != nil {
		t.Fatalf("Markdown format failed: %v", err)
	}
	if !strings.Contains(md, "| 1 | kubernetes | 0.90 | tool | k8s |") {
		t.Errorf("Markdown output should render the table row, got:\n%s", md)
	}
}

func TestJSONFallbackForUnknownTypes(t *testing.T) {
	out, err := GlobalRegistry.Format(map[string]int{"a": 1}, "json")
	if err != nil {
		t.Fatalf("JSON format failed: %v", err)
	}
	if !strings.Contains(out, "\"a\": 1") {
		t.Error("JSON formatter should marshal arbitrary data")
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleResult(), "xml")
	if err == nil {
		t.Fatal("Expected error for unsupported format")
	}
}
