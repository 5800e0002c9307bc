package report

import (
	"strings"
	"testing"

	"resumeopt/internal/ats"
	"resumeopt/internal/keywords"
	"resumeopt/internal/latex"
	"resumeopt/internal/rewrite"
)

func TestBuildDiff(t *testing.T) {
	original := "line one\nline two\nline three\n"
	rewritten := "line one\nline two changed\nline three\n"

	diff, err := BuildDiff(original, rewritten)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(diff, "--- original.tex") || !strings.Contains(diff, "+++ optimized.tex") {
		t.Errorf("diff headers missing:\n%s", diff)
	}
	if !strings.Contains(diff, "-line two\n") || !strings.Contains(diff, "+line two changed\n") {
		t.Errorf("diff body missing change:\n%s", diff)
	}

	same, err := BuildDiff(original, original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if same != "" {
		t.Errorf("identical inputs should produce an empty diff, got:\n%s", same)
	}
}

func TestBuildKeywordMap(t *testing.T) {
	before, err := latex.Parse(`\section{Experience}
\item Built dashboards for sales team
`)
	if err != nil {
		t.Fatal(err)
	}
	after, err := latex.Parse(`\section{Experience}
\item Built dashboards for sales team (tableau)
`)
	if err != nil {
		t.Fatal(err)
	}

	m := BuildKeywordMap([]keywords.Entry{
		{Term: "tableau", Weight: 0.3},
		{Term: "dashboards", Weight: 0.5},
	}, before, after)

	if got := m["tableau"]; got.Before != 0 || got.After != 1 {
		t.Errorf(`keyword_map["tableau"] = %+v, want {before: 0, after: 1}`, got)
	}
	if got := m["dashboards"]; got.Before != 1 || got.After != 1 {
		t.Errorf(`keyword_map["dashboards"] = %+v, want {before: 1, after: 1}`, got)
	}
}

func TestBuildKeywordMapWordBoundaries(t *testing.T) {
	doc, err := latex.Parse(`\section{Skills}
\item Shipped javascript bundlers, java services, and go tooling
`)
	if err != nil {
		t.Fatal(err)
	}

	m := BuildKeywordMap([]keywords.Entry{
		{Term: "java", Weight: 1},
		{Term: "go", Weight: 0.5},
	}, doc, doc)

	if got := m["java"]; got.Before != 1 || got.After != 1 {
		t.Errorf(`keyword_map["java"] = %+v, want a single whole-word count`, got)
	}
	if got := m["go"]; got.Before != 1 || got.After != 1 {
		t.Errorf(`keyword_map["go"] = %+v, want a single whole-word count`, got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	in := Input{
		JobTitle: "Data Analyst",
		Company:  "Acme",
		Keywords: []keywords.Entry{
			{Term: "tableau", Weight: 1, Category: keywords.CategoryTool},
			{Term: "sql", Weight: 0.8, Category: keywords.CategorySkill},
		},
		Before:     ats.Result{Overall: 61.5, Coverage: 40, Format: 75, Quality: 80, Distribution: 60},
		After:      ats.Result{Overall: 78.25, Coverage: 90, Format: 75, Quality: 80, Distribution: 60},
		Plans:      []rewrite.Plan{{Block: 3, EditDelta: 10, Keywords: []string{"tableau"}}},
		Skipped:    []rewrite.SkippedGap{{Term: "sql", Reason: "no candidate satisfied the edit budget and structure constraints"}},
		KeywordMap: map[string]Usage{"tableau": {Before: 0, After: 1}, "sql": {}},
		Flags:      []string{"no eligible bullets"},
	}

	a := Build(in)
	b := Build(in)
	if a != b {
		t.Error("report output is not deterministic")
	}
	for _, want := range []string{
		"# Resume Optimization Report for Data Analyst at Acme",
		"- Before: 61.50",
		"- After: 78.25",
		"- tableau (weight 1.00, tool): 0 before, 1 after",
		"## Skipped Gaps",
		"## Flags",
	} {
		if !strings.Contains(a, want) {
			t.Errorf("report missing %q:\n%s", want, a)
		}
	}
}
