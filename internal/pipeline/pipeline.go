// Package pipeline runs the full optimization pass: extract keywords, parse
// the resume, score, rewrite, re-score, report. The run is a pure function
// of its inputs plus the optional assist collaborator; it reads no ambient
// state and caches nothing across runs.
package pipeline

import (
	"context"

	"resumeopt/internal/ats"
	"resumeopt/internal/errors"
	"resumeopt/internal/keywords"
	"resumeopt/internal/latex"
	"resumeopt/internal/report"
	"resumeopt/internal/rewrite"
	"resumeopt/internal/types"
)

// Assist is the optional external collaborator for keyword extraction and
// bullet phrasing. Failures fall back to the rule-based paths; they never
// fail the run.
type Assist interface {
	ExtractKeywords(ctx context.Context, jobText string, topN int) ([]keywords.Entry, error)
	rewrite.Assist
}

// Options carries every tunable of a run. The pipeline never reads
// environment state; the orchestration layer resolves configuration and
// hands it over here.
type Options struct {
	TopN      int
	UseAssist bool
	Scoring   ats.Config
	Rewrite   rewrite.Config
	Lexicon   keywords.Lexicon
}

// DefaultOptions returns the standard tuning with strict rewriting.
func DefaultOptions() Options {
	return Options{
		TopN:    keywords.DefaultTopN,
		Scoring: ats.DefaultConfig(),
		Rewrite: rewrite.DefaultConfig(),
		Lexicon: keywords.DefaultLexicon(),
	}
}

// FlagNoEligibleBullets marks a run where the resume had no bullet items,
// so rewriting was a no-op.
const FlagNoEligibleBullets = "no eligible bullets"

// Result is everything a single run produces.
type Result struct {
	Job             types.JobPosting        `json:"job"`
	Keywords        []keywords.Entry        `json:"keywords"`
	RewrittenSource string                  `json:"rewrittenSource"`
	Before          ats.Result              `json:"before"`
	After           ats.Result              `json:"after"`
	Diff            string                  `json:"diff"`
	KeywordMap      map[string]report.Usage `json:"keywordMap"`
	Plans           []rewrite.Plan          `json:"plans,omitempty"`
	Skipped         []rewrite.SkippedGap    `json:"skipped,omitempty"`
	Report          string                  `json:"report"`
	Flags           []string                `json:"flags,omitempty"`
}

// ScoreOutput bundles what the score operation returns: the extracted
// keywords and the score of the unmodified resume.
type ScoreOutput struct {
	Job      types.JobPosting `json:"job"`
	Keywords []keywords.Entry `json:"keywords"`
	Score    ats.Result       `json:"score"`
}

// Run executes the pipeline for one resume against one job posting.
func Run(ctx context.Context, resumeSource string, job types.JobPosting, opts Options, assist Assist, logger *errors.Logger) (*Result, error) {
	entries := extractKeywords(ctx, job.Description, opts, assist, logger)

	doc, err := latex.Parse(resumeSource)
	if err != nil {
		return nil, err
	}
	before := ats.Score(doc, entries, opts.Scoring)

	var rwAssist rewrite.Assist
	if opts.UseAssist && assist != nil {
		rwAssist = assist
	}
	rw := rewrite.Rewrite(ctx, doc, entries, before, rwAssist, opts.Rewrite)

	rendered, err := doc.Render(rw.Edits)
	if err != nil {
		return nil, err
	}
	redoc, err := latex.Parse(rendered)
	if err != nil {
		// Accepted rewrites are validated as fragments, so a rendered
		// document that fails to parse is a bug, not bad input.
		return nil, errors.NewInternalError(errors.ErrCodeInvalidFormat,
			"rewritten source failed to re-parse", err)
	}
	after := ats.Score(redoc, entries, opts.Scoring)

	diff, err := report.BuildDiff(resumeSource, rendered)
	if err != nil {
		return nil, err
	}

	flags := mergeFlags(before.Flags, after.Flags)
	if rw.NoEligibleBullets {
		flags = append(flags, FlagNoEligibleBullets)
	}

	res := &Result{
		Job:             job,
		Keywords:        entries,
		RewrittenSource: rendered,
		Before:          before,
		After:           after,
		Diff:            diff,
		KeywordMap:      report.BuildKeywordMap(entries, doc, redoc),
		Plans:           rw.Plans,
		Skipped:         rw.Skipped,
		Flags:           flags,
	}
	res.Report = report.Build(report.Input{
		JobTitle:   job.Title,
		Company:    job.Company,
		Keywords:   entries,
		Before:     before,
		After:      after,
		Plans:      rw.Plans,
		Skipped:    rw.Skipped,
		KeywordMap: res.KeywordMap,
		Flags:      flags,
	})
	return res, nil
}

// Score parses and scores a resume without rewriting it.
func Score(ctx context.Context, resumeSource string, job types.JobPosting, opts Options, assist Assist, logger *errors.Logger) ([]keywords.Entry, ats.Result, error) {
	entries := extractKeywords(ctx, job.Description, opts, assist, logger)
	doc, err := latex.Parse(resumeSource)
	if err != nil {
		return nil, ats.Result{}, err
	}
	return entries, ats.Score(doc, entries, opts.Scoring), nil
}

// extractKeywords prefers the assist when enabled and falls back to the
// rule-based extractor on any failure or empty answer.
func extractKeywords(ctx context.Context, jobText string, opts Options, assist Assist, logger *errors.Logger) []keywords.Entry {
	if opts.UseAssist && assist != nil {
		entries, err := assist.ExtractKeywords(ctx, jobText, opts.TopN)
		if err == nil {
			if entries = keywords.NormalizeEntries(entries, opts.TopN); len(entries) > 0 {
				return entries
			}
		} else if logger != nil {
			logger.Warn("assist keyword extraction failed, using rule-based extractor", "error", err.Error())
		}
	}
	return keywords.ExtractWithLexicon(jobText, opts.TopN, opts.Lexicon)
}

func mergeFlags(before, after []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range append(append([]string(nil), before...), after...) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
