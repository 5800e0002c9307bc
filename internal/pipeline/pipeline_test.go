package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"resumeopt/internal/keywords"
	"resumeopt/internal/types"
)

const resume = `\documentclass{article}
\begin{document}
\section{Experience}
\item Built dashboards for sales team
\item Led migration of reporting pipelines
\section{Education}
\item BSc in Computer Science, 2019
\section{Skills}
\item Python, SQL, communication
\end{document}
`

func TestRunEndToEnd(t *testing.T) {
	job := types.JobPosting{
		Title:       "Data Analyst",
		Company:     "Acme",
		Description: "Tableau dashboards, SQL reporting, Python scripting. Tableau required.",
	}
	res, err := Run(context.Background(), resume, job, DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.After.Coverage < res.Before.Coverage {
		t.Errorf("coverage regressed: before %v, after %v", res.Before.Coverage, res.After.Coverage)
	}
	if res.Job.Title != "Data Analyst" || res.Job.Company != "Acme" {
		t.Errorf("job record not carried through: %+v", res.Job)
	}
	if res.RewrittenSource == "" {
		t.Error("rewritten source is empty")
	}
	if u := res.KeywordMap["tableau"]; u.Before != 0 || u.After < 1 {
		t.Errorf(`keyword_map["tableau"] = %+v, want before 0 and after >= 1`, u)
	}
	if !strings.Contains(res.Report, "# Resume Optimization Report for Data Analyst at Acme") {
		t.Error("report header missing job context")
	}
	if !strings.Contains(res.Diff, "+++ optimized.tex") {
		t.Error("diff missing")
	}
}

func TestRunMalformedResume(t *testing.T) {
	job := types.JobPosting{Description: "SQL"}
	_, err := Run(context.Background(), `\item Missing close brace \textbf{Skill`, job, DefaultOptions(), nil, nil)
	if err == nil {
		t.Fatal("expected MalformedDocument error")
	}
}

func TestRunEmptyJobDescription(t *testing.T) {
	res, err := Run(context.Background(), resume, types.JobPosting{}, DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Before.Coverage != 100 || res.After.Coverage != 100 {
		t.Errorf("empty keywords should give coverage 100, got before %v after %v",
			res.Before.Coverage, res.After.Coverage)
	}
	found := false
	for _, f := range res.Flags {
		if f == "no signal extracted" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q flag, got %v", "no signal extracted", res.Flags)
	}
	if len(res.Plans) != 0 {
		t.Errorf("expected zero rewrite plans, got %+v", res.Plans)
	}
}

func TestRunNoEligibleBullets(t *testing.T) {
	res, err := Run(context.Background(), `\section{Experience}
A paragraph resume without items.
`, types.JobPosting{Description: "Tableau"}, DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, f := range res.Flags {
		if f == FlagNoEligibleBullets {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q flag, got %v", FlagNoEligibleBullets, res.Flags)
	}
	if res.RewrittenSource != "\\section{Experience}\nA paragraph resume without items.\n" {
		t.Error("no-op rewrite should reproduce the source")
	}
}

func TestRunDeterministicWithoutAssist(t *testing.T) {
	job := types.JobPosting{Description: "Tableau dashboards and SQL reporting."}
	a, err := Run(context.Background(), resume, job, DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(context.Background(), resume, job, DefaultOptions(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("pipeline is not deterministic without the assist")
	}
}

type stubAssist struct {
	entries []keywords.Entry
	err     error
}

func (s *stubAssist) ExtractKeywords(context.Context, string, int) ([]keywords.Entry, error) {
	return s.entries, s.err
}

func (s *stubAssist) ProposeRewrite(context.Context, string, string, int) (string, error) {
	return "", errors.New("unavailable")
}

func TestRunAssistExtractionFallback(t *testing.T) {
	job := types.JobPosting{Description: "Tableau dashboards and SQL reporting."}
	opts := DefaultOptions()
	opts.UseAssist = true

	res, err := Run(context.Background(), resume, job, opts, &stubAssist{err: errors.New("timeout")}, nil)
	if err != nil {
		t.Fatalf("assist failure must not fail the run: %v", err)
	}
	if len(res.Keywords) == 0 {
		t.Error("rule-based fallback produced no keywords")
	}
}

func TestRunAssistEntriesNormalized(t *testing.T) {
	job := types.JobPosting{Description: "irrelevant"}
	opts := DefaultOptions()
	opts.UseAssist = true
	assist := &stubAssist{entries: []keywords.Entry{
		{Term: "  Tableau ", Weight: 2.5},
		{Term: "Tableau", Weight: 0.4},
	}}

	res, err := Run(context.Background(), resume, job, opts, assist, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Keywords) != 1 {
		t.Fatalf("expected duplicate assist terms collapsed, got %+v", res.Keywords)
	}
	if e := res.Keywords[0]; e.Term != "tableau" || e.Weight != 1 {
		t.Errorf("assist entry not normalized: %+v", e)
	}
}
