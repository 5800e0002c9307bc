package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resumeopt/internal/ats"
	"resumeopt/internal/keywords"
	"resumeopt/internal/latex"
)

func mustParse(t testing.TB, src string) *latex.Document {
	t.Helper()
	doc, err := latex.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func score(doc *latex.Document, entries []keywords.Entry) ats.Result {
	return ats.Score(doc, entries, ats.DefaultConfig())
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "equal", a: "abc", b: "abc", want: 0},
		{name: "empty to text", a: "", b: "abcd", want: 4},
		{name: "single substitution", a: "kitten", b: "mitten", want: 1},
		{name: "classic", a: "kitten", b: "sitting", want: 3},
		{name: "append", a: "bullet", b: "bullet (go)", want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRewriteTemplatedInsertion(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
\item Built dashboards for sales team
`)
	entries := []keywords.Entry{{Term: "tableau", Weight: 0.3}}
	res := Rewrite(context.Background(), doc, entries, score(doc, entries), nil, DefaultConfig())

	if len(res.Plans) != 1 {
		t.Fatalf("expected 1 plan, got %d (skipped: %+v)", len(res.Plans), res.Skipped)
	}
	plan := res.Plans[0]
	if !strings.Contains(strings.ToLower(plan.Replacement), "tableau") {
		t.Errorf("replacement does not contain keyword: %q", plan.Replacement)
	}
	if plan.EditDelta > 10 {
		t.Errorf("edit delta %d exceeds strict budget", plan.EditDelta)
	}

	rendered, err := doc.Render(res.Edits)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	redoc, err := latex.Parse(rendered)
	if err != nil {
		t.Fatalf("rewritten source no longer parses: %v", err)
	}
	after := score(redoc, entries)
	before := score(doc, entries)
	if after.Coverage <= before.Coverage {
		t.Errorf("coverage did not improve: before %v, after %v", before.Coverage, after.Coverage)
	}
}

func TestRewriteSynonymSwap(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
\item Maintained looker reports for the finance org every quarter
`)
	entries := []keywords.Entry{{Term: "tableau", Weight: 1, Synonyms: []string{"looker"}}}
	// The synonym already matches, so coverage sees the keyword; force the
	// gap by scoring against an empty evidence set.
	res := Rewrite(context.Background(), doc, entries, ats.Result{}, nil, DefaultConfig())

	if len(res.Plans) != 1 {
		t.Fatalf("expected 1 plan, got %d (skipped: %+v)", len(res.Plans), res.Skipped)
	}
	if got := res.Plans[0].Replacement; !strings.Contains(got, "tableau") || strings.Contains(got, "looker") {
		t.Errorf("synonym not swapped for canonical term: %q", got)
	}
	if res.Plans[0].EditDelta > 10 {
		t.Errorf("edit delta %d exceeds strict budget", res.Plans[0].EditDelta)
	}
}

func TestRewriteRespectsBudget(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
\item Shipped features
`)
	// Too long to parenthesize within ten characters.
	entries := []keywords.Entry{{Term: "continuous integration", Weight: 1}}
	res := Rewrite(context.Background(), doc, entries, score(doc, entries), nil, DefaultConfig())

	if len(res.Plans) != 0 {
		t.Fatalf("expected no plans, got %+v", res.Plans)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Term != "continuous integration" {
		t.Fatalf("expected a skipped gap for the keyword, got %+v", res.Skipped)
	}

	relaxed := DefaultConfig()
	relaxed.Strict = false
	res = Rewrite(context.Background(), doc, entries, score(doc, entries), nil, relaxed)
	if len(res.Plans) != 1 {
		t.Fatalf("relaxed mode should place the keyword, got skipped %+v", res.Skipped)
	}
}

func TestRewriteNoEligibleBullets(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
Just a paragraph, no items.
`)
	entries := []keywords.Entry{{Term: "tableau", Weight: 1}}
	res := Rewrite(context.Background(), doc, entries, score(doc, entries), nil, DefaultConfig())

	if !res.NoEligibleBullets {
		t.Error("expected NoEligibleBullets")
	}
	if len(res.Plans) != 0 {
		t.Errorf("expected no plans, got %+v", res.Plans)
	}
	if len(res.Skipped) != 1 {
		t.Errorf("expected the keyword recorded as skipped, got %+v", res.Skipped)
	}
}

func TestRewritePreservesCommandTokens(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
\item Led rollout of \textbf{reporting} stack org wide
`)
	entries := []keywords.Entry{{Term: "sql", Weight: 1}}
	res := Rewrite(context.Background(), doc, entries, score(doc, entries), nil, DefaultConfig())

	if len(res.Plans) != 1 {
		t.Fatalf("expected 1 plan, got %d", len(res.Plans))
	}
	orig := res.Plans[0].Original
	repl := res.Plans[0].Replacement
	ot := latex.CommandTokens(orig)
	rt := latex.CommandTokens(repl)
	if len(ot) != len(rt) {
		t.Fatalf("command tokens changed: %v vs %v", ot, rt)
	}
	for i := range ot {
		if ot[i] != rt[i] {
			t.Fatalf("command tokens changed: %v vs %v", ot, rt)
		}
	}
}

type fakeAssist struct {
	reply string
	err   error
	calls int
}

func (f *fakeAssist) ProposeRewrite(_ context.Context, bullet, keyword string, _ int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestRewriteAssistAccepted(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
\item Shipped features by continuously integrating
`)
	entries := []keywords.Entry{{Term: "continuous integration", Weight: 1}}
	// Parenthesized insertion cannot fit 25 extra characters in strict
	// mode; the assist proposal stays within budget by rephrasing.
	assist := &fakeAssist{reply: "Shipped features by continuous integration"}
	res := Rewrite(context.Background(), doc, entries, score(doc, entries), assist, DefaultConfig())

	if assist.calls == 0 {
		t.Fatal("assist was never consulted")
	}
	if len(res.Plans) != 1 {
		t.Fatalf("expected assist proposal accepted, skipped: %+v", res.Skipped)
	}
	if res.Plans[0].EditDelta > 10 {
		t.Errorf("accepted proposal exceeds budget: %d", res.Plans[0].EditDelta)
	}
}

func TestRewriteAssistRejected(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
\item Shipped features
`)
	entries := []keywords.Entry{{Term: "kubernetes orchestration", Weight: 1}}

	tests := []struct {
		name   string
		assist *fakeAssist
	}{
		{
			name:   "assist unavailable",
			assist: &fakeAssist{err: errors.New("timeout")},
		},
		{
			name: "proposal misses the keyword",
			assist: &fakeAssist{
				reply: "Shipped many features",
			},
		},
		{
			name: "proposal breaks structure",
			assist: &fakeAssist{
				reply: `Shipped \textbf{kubernetes orchestration`,
			},
		},
		{
			name: "proposal blows the budget",
			assist: &fakeAssist{
				reply: "Shipped features with kubernetes orchestration across every environment",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Rewrite(context.Background(), doc, entries, score(doc, entries), tt.assist, DefaultConfig())
			if len(res.Plans) != 0 {
				t.Errorf("invalid proposal was accepted: %+v", res.Plans)
			}
			if len(res.Skipped) != 1 {
				t.Errorf("expected skipped gap, got %+v", res.Skipped)
			}
		})
	}
}

func TestRewriteNeverDropsExistingKeyword(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
\item Tuned postgres indexes for analytics workloads
`)
	entries := []keywords.Entry{
		{Term: "postgres", Weight: 1},
		{Term: "postgresql", Weight: 0.9},
	}
	before := score(doc, entries)
	// The proposal closes the postgresql gap by overwriting the matched
	// postgres term. Accepting it would lower coverage, so it is rejected.
	assist := &fakeAssist{reply: "Tuned postgresql indexes for analytics workloads"}
	res := Rewrite(context.Background(), doc, entries, before, assist, DefaultConfig())

	if assist.calls == 0 {
		t.Fatal("assist was never consulted")
	}
	if len(res.Plans) != 0 {
		t.Fatalf("keyword-destroying proposal was accepted: %+v", res.Plans)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Term != "postgresql" {
		t.Fatalf("expected postgresql recorded as skipped, got %+v", res.Skipped)
	}

	rendered, err := doc.Render(res.Edits)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	redoc, err := latex.Parse(rendered)
	if err != nil {
		t.Fatalf("parse rewritten source: %v", err)
	}
	after := score(redoc, entries)
	if after.Coverage < before.Coverage {
		t.Errorf("coverage regressed: before %v, after %v", before.Coverage, after.Coverage)
	}
}

func TestRewriteUsageCap(t *testing.T) {
	src := `\section{Experience}
\item Built dashboards for sales team
\item Led migration of reporting pipelines
\item Automated weekly exports for finance
`
	entries := []keywords.Entry{{Term: "sql", Weight: 1}}

	tests := []struct {
		name      string
		cap       int
		wantPlans int
	}{
		{name: "cap of two fills two bullets", cap: 2, wantPlans: 2},
		{name: "cap of one fills one bullet", cap: 1, wantPlans: 1},
		{name: "zero cap treated as one", cap: 0, wantPlans: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, src)
			cfg := DefaultConfig()
			cfg.UsageCap = tt.cap
			res := Rewrite(context.Background(), doc, entries, score(doc, entries), nil, cfg)

			if len(res.Plans) != tt.wantPlans {
				t.Fatalf("expected %d plans, got %d (skipped: %+v)", tt.wantPlans, len(res.Plans), res.Skipped)
			}
			for _, p := range res.Plans {
				if !strings.Contains(p.Replacement, "sql") {
					t.Errorf("plan for block %d does not place the keyword: %q", p.Block, p.Replacement)
				}
			}
		})
	}
}

func TestRewriteDuplicateTermReportsUsageCap(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
\item Built dashboards for sales team
\item Led migration of reporting pipelines
`)
	// A duplicated term exhausts its cap on the first pass; the second
	// pass records the cap, not a spurious no-fit.
	entries := []keywords.Entry{
		{Term: "sql", Weight: 1},
		{Term: "sql", Weight: 1},
	}
	res := Rewrite(context.Background(), doc, entries, score(doc, entries), nil, DefaultConfig())

	if len(res.Skipped) != 1 {
		t.Fatalf("expected one skipped gap, got %+v", res.Skipped)
	}
	if got := res.Skipped[0]; got.Term != "sql" || got.Reason != reasonUsageCap {
		t.Errorf("skipped gap = %+v, want term sql with the usage cap reason", got)
	}
}

func TestSwapSynonymWordBoundary(t *testing.T) {
	e := keywords.Entry{Term: "typescript", Synonyms: []string{"java"}}

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			name: "mid-word occurrence left alone",
			text: "Migrated javascript build tooling",
		},
		{
			name: "identifier inside command argument left alone",
			text: `Linked \href{https://javadoc.example.com}{api docs} for the team`,
		},
		{
			name: "whole word swapped",
			text: "Migrated java build tooling",
			want: "Migrated typescript build tooling",
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := swapSynonym(tt.text, e)
			if ok != tt.ok || got != tt.want {
				t.Errorf("swapSynonym(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRewriteKeepsLeadingActionVerb(t *testing.T) {
	doc := mustParse(t, `\section{Experience}
\item Led weekly planning
`)
	entries := []keywords.Entry{{Term: "jira", Weight: 1}}
	assist := &fakeAssist{reply: "Ran jira planning"}
	res := Rewrite(context.Background(), doc, entries, score(doc, entries), assist, DefaultConfig())

	if len(res.Plans) != 1 {
		t.Fatalf("expected a plan, skipped: %+v", res.Skipped)
	}
	// A proposal replacing the established verb would be rejected; the
	// accepted candidate keeps it.
	if !strings.HasPrefix(res.Plans[0].Replacement, "Led") {
		t.Errorf("leading action verb was changed: %q", res.Plans[0].Replacement)
	}
}

func BenchmarkRewrite(b *testing.B) {
	doc := mustParse(b, `\section{Experience}
\item Built dashboards for sales team
\item Led migration of reporting pipelines
`)
	entries := []keywords.Entry{
		{Term: "tableau", Weight: 1},
		{Term: "sql", Weight: 0.8, Synonyms: []string{"postgres"}},
	}
	before := score(doc, entries)
	cfg := DefaultConfig()
	for b.Loop() {
		Rewrite(context.Background(), doc, entries, before, nil, cfg)
	}
}
