// Package report renders the pipeline outputs a human reads: the unified
// diff between original and rewritten source, the per-keyword usage map,
// and a markdown report. All output is deterministic for identical inputs.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"resumeopt/internal/ats"
	"resumeopt/internal/errors"
	"resumeopt/internal/keywords"
	"resumeopt/internal/latex"
	"resumeopt/internal/rewrite"
)

// Usage is the before/after occurrence count of one keyword.
type Usage struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// BuildDiff produces a standard unified diff from the original source to
// the rewritten source.
func BuildDiff(original, rewritten string) (string, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(rewritten),
		FromFile: "original.tex",
		ToFile:   "optimized.tex",
		Context:  3,
	})
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeInvalidFormat, "building unified diff", err)
	}
	return diff, nil
}

// BuildKeywordMap counts whole-word occurrences of every keyword in the
// normalized original and rewritten documents, under the same boundary
// rule scoring uses.
func BuildKeywordMap(entries []keywords.Entry, original, rewritten *latex.Document) map[string]Usage {
	m := make(map[string]Usage, len(entries))
	for _, e := range entries {
		m[e.Term] = Usage{
			Before: countOccurrences(original, e.Term),
			After:  countOccurrences(rewritten, e.Term),
		}
	}
	return m
}

func countOccurrences(doc *latex.Document, term string) int {
	total := 0
	for i := range doc.Blocks {
		total += ats.CountOccurrences(doc.Normalize(i).Text, term)
	}
	return total
}

// Input collects everything the report renders.
type Input struct {
	JobTitle   string
	Company    string
	Keywords   []keywords.Entry
	Before     ats.Result
	After      ats.Result
	Plans      []rewrite.Plan
	Skipped    []rewrite.SkippedGap
	KeywordMap map[string]Usage
	Flags      []string
}

// Build renders the markdown report. Identical inputs yield byte-identical
// output: map iteration goes through sorted keys and every list keeps its
// input order.
func Build(in Input) string {
	var b strings.Builder

	title := "# Resume Optimization Report"
	if in.JobTitle != "" {
		title += " for " + in.JobTitle
		if in.Company != "" {
			title += " at " + in.Company
		}
	}
	b.WriteString(title + "\n\n")

	b.WriteString("## ATS Scores\n")
	writeScore(&b, "Before", in.Before)
	writeScore(&b, "After", in.After)
	b.WriteString("\n")

	b.WriteString("## Keyword Usage\n")
	if len(in.Keywords) == 0 {
		b.WriteString("- none\n")
	}
	for _, e := range in.Keywords {
		u := in.KeywordMap[e.Term]
		fmt.Fprintf(&b, "- %s (weight %.2f, %s): %d before, %d after\n",
			e.Term, e.Weight, e.Category, u.Before, u.After)
	}
	b.WriteString("\n")

	if len(in.Plans) > 0 {
		b.WriteString("## Rewrites\n")
		for _, p := range in.Plans {
			fmt.Fprintf(&b, "- block %d (+%d chars of edit, keywords: %s)\n",
				p.Block, p.EditDelta, strings.Join(p.Keywords, ", "))
		}
		b.WriteString("\n")
	}

	if len(in.Skipped) > 0 {
		b.WriteString("## Skipped Gaps\n")
		for _, s := range in.Skipped {
			fmt.Fprintf(&b, "- %s: %s\n", s.Term, s.Reason)
		}
		b.WriteString("\n")
	}

	if len(in.Flags) > 0 {
		flags := append([]string(nil), in.Flags...)
		sort.Strings(flags)
		b.WriteString("## Flags\n")
		for _, f := range flags {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeScore(b *strings.Builder, label string, r ats.Result) {
	fmt.Fprintf(b, "- %s: %.2f (coverage %.2f, format %.2f, quality %.2f, distribution %.2f)\n",
		label, r.Overall, r.Coverage, r.Format, r.Quality, r.Distribution)
}
