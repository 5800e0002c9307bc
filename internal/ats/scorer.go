// Package ats scores a parsed resume against a keyword set across four
// dimensions: coverage, format, quality, distribution. Scoring is pure and
// deterministic: identical inputs produce identical results, including the
// order of the match evidence.
package ats

import (
	"math"
	"sort"
	"strings"

	"resumeopt/internal/keywords"
	"resumeopt/internal/latex"
)

// MatchKind tells how a keyword matched.
type MatchKind string

const (
	MatchExact   MatchKind = "exact"
	MatchSynonym MatchKind = "synonym"
)

// Match is one piece of evidence: a keyword occurrence inside a block.
// Offset is relative to the block's span start.
type Match struct {
	Term   string    `json:"term"`
	Block  int       `json:"block"`
	Offset int       `json:"offset"`
	Kind   MatchKind `json:"kind"`
}

// Weights combines the four sub-scores into the overall score. They are
// configuration, fixed for a run, and expected to sum to 1.
type Weights struct {
	Coverage     float64 `json:"coverage"`
	Format       float64 `json:"format"`
	Quality      float64 `json:"quality"`
	Distribution float64 `json:"distribution"`
}

// Config carries the scoring tunables. The verb list and section names are
// tuning data; swap them per market, not per run.
type Config struct {
	Weights          Weights
	SynonymDiscount  float64
	RequiredSections []string
	ActionVerbs      map[string]bool
	MaxPages         int
	MinBulletChars   int
	MaxBulletChars   int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		Weights:          Weights{Coverage: 0.4, Format: 0.2, Quality: 0.2, Distribution: 0.2},
		SynonymDiscount:  0.7,
		RequiredSections: []string{"experience", "education", "skills"},
		ActionVerbs:      DefaultActionVerbs(),
		MaxPages:         2,
		MinBulletChars:   35,
		MaxBulletChars:   220,
	}
}

// DefaultActionVerbs is the built-in leading-verb list for the quality check.
func DefaultActionVerbs() map[string]bool {
	verbs := []string{
		"accelerated", "achieved", "built", "coordinated", "delivered",
		"designed", "developed", "drove", "enabled", "improved",
		"implemented", "launched", "led", "managed", "optimized", "owned",
		"reduced", "scaled", "spearheaded", "streamlined",
	}
	m := make(map[string]bool, len(verbs))
	for _, v := range verbs {
		m[v] = true
	}
	return m
}

// FlagNoSignal marks a run where the job description produced no keywords.
const FlagNoSignal = "no signal extracted"

// Result is a full score breakdown with the evidence behind it. Sub-scores
// and Overall are in [0, 100].
type Result struct {
	Coverage     float64  `json:"coverage"`
	Format       float64  `json:"format"`
	Quality      float64  `json:"quality"`
	Distribution float64  `json:"distribution"`
	Overall      float64  `json:"overall"`
	Evidence     []Match  `json:"evidence,omitempty"`
	Flags        []string `json:"flags,omitempty"`
}

// MatchedTerms returns the set of keyword terms with at least one match.
func (r Result) MatchedTerms() map[string]bool {
	m := make(map[string]bool)
	for _, ev := range r.Evidence {
		m[ev.Term] = true
	}
	return m
}

// Score evaluates doc against entries under cfg.
func Score(doc *latex.Document, entries []keywords.Entry, cfg Config) Result {
	norm := make([]latex.Normalized, len(doc.Blocks))
	for i := range doc.Blocks {
		norm[i] = doc.Normalize(i)
	}

	evidence, kinds := collectMatches(doc, norm, entries)

	r := Result{Evidence: evidence}
	r.Coverage = coverageScore(entries, kinds, cfg.SynonymDiscount)
	if len(entries) == 0 {
		r.Flags = append(r.Flags, FlagNoSignal)
	}
	r.Format = formatScore(doc, cfg)
	r.Quality = qualityScore(doc, norm, cfg.ActionVerbs)
	r.Distribution = distributionScore(doc, entries, evidence)

	overall := r.Coverage*cfg.Weights.Coverage +
		r.Format*cfg.Weights.Format +
		r.Quality*cfg.Weights.Quality +
		r.Distribution*cfg.Weights.Distribution
	r.Overall = round2(clamp(overall, 0, 100))
	return r
}

// collectMatches finds every keyword occurrence in every block. Longer terms
// are matched first and claim their spans, so a phrase shadows its
// constituent words over the same characters. The returned kinds map holds
// the best match kind per term.
func collectMatches(doc *latex.Document, norm []latex.Normalized, entries []keywords.Entry) ([]Match, map[string]MatchKind) {
	ordered := make([]keywords.Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Term) > len(ordered[j].Term)
	})

	kinds := make(map[string]MatchKind)
	var evidence []Match
	for bi := range doc.Blocks {
		text := norm[bi].Text
		if text == "" {
			continue
		}
		claimed := make([]bool, len(text))
		for _, e := range ordered {
			for _, m := range findTerm(text, e.Term, claimed) {
				evidence = append(evidence, Match{
					Term:   e.Term,
					Block:  bi,
					Offset: norm[bi].SourceOffset(m) - doc.Blocks[bi].Start,
					Kind:   MatchExact,
				})
				kinds[e.Term] = MatchExact
			}
			for _, syn := range e.Synonyms {
				for _, m := range findTerm(text, syn, claimed) {
					evidence = append(evidence, Match{
						Term:   e.Term,
						Block:  bi,
						Offset: norm[bi].SourceOffset(m) - doc.Blocks[bi].Start,
						Kind:   MatchSynonym,
					})
					if kinds[e.Term] != MatchExact {
						kinds[e.Term] = MatchSynonym
					}
				}
			}
		}
	}

	sort.Slice(evidence, func(i, j int) bool {
		if evidence[i].Block != evidence[j].Block {
			return evidence[i].Block < evidence[j].Block
		}
		if evidence[i].Offset != evidence[j].Offset {
			return evidence[i].Offset < evidence[j].Offset
		}
		return evidence[i].Term < evidence[j].Term
	})
	return evidence, kinds
}

// findTerm locates unclaimed occurrences of term in text and claims them.
// Matches must fall on word boundaries so "go" does not match "google".
func findTerm(text, term string, claimed []bool) []int {
	if term == "" {
		return nil
	}
	var hits []int
	for from := 0; ; {
		i := strings.Index(text[from:], term)
		if i < 0 {
			break
		}
		at := from + i
		from = at + 1
		if !boundary(text, at, len(term)) {
			continue
		}
		if spanClaimed(claimed, at, len(term)) {
			continue
		}
		for j := at; j < at+len(term); j++ {
			claimed[j] = true
		}
		hits = append(hits, at)
	}
	return hits
}

// CountOccurrences counts the word-boundary occurrences of term in text.
// Matches never overlap, and the boundary rule is the one scoring uses, so
// counts agree with the match evidence.
func CountOccurrences(text, term string) int {
	if term == "" {
		return 0
	}
	n := 0
	for from := 0; ; {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return n
		}
		at := from + i
		if boundary(text, at, len(term)) {
			n++
			from = at + len(term)
		} else {
			from = at + 1
		}
	}
}

func boundary(text string, at, n int) bool {
	if at > 0 && isWordByte(text[at-1]) {
		return false
	}
	if end := at + n; end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '+' || c == '#'
}

func spanClaimed(claimed []bool, at, n int) bool {
	for j := at; j < at+n; j++ {
		if claimed[j] {
			return true
		}
	}
	return false
}

// coverageScore is the matched share of total keyword weight. Synonym-only
// matches count at the configured discount.
func coverageScore(entries []keywords.Entry, kinds map[string]MatchKind, discount float64) float64 {
	if len(entries) == 0 {
		return 100
	}
	var total, matched float64
	for _, e := range entries {
		total += e.Weight
		switch kinds[e.Term] {
		case MatchExact:
			matched += e.Weight
		case MatchSynonym:
			matched += e.Weight * discount
		}
	}
	if total == 0 {
		return 100
	}
	return round2(clamp(matched/total*100, 0, 100))
}

// formatScore checks structural conventions, each worth a fixed quarter:
// required sections, page length, bullet punctuation consistency, and
// bullet length bounds.
func formatScore(doc *latex.Document, cfg Config) float64 {
	const share = 25.0

	present := make(map[string]bool)
	for _, s := range doc.Sections() {
		present[s] = true
	}
	var sections float64
	if len(cfg.RequiredSections) == 0 {
		sections = share
	} else {
		hits := 0
		for _, s := range cfg.RequiredSections {
			if present[s] {
				hits++
			}
		}
		sections = share * float64(hits) / float64(len(cfg.RequiredSections))
	}

	var pages float64
	if cfg.MaxPages <= 0 || doc.PageEstimate() <= cfg.MaxPages {
		pages = share
	}

	bullets := doc.BulletIndexes()
	punctuation, length := share, share
	if len(bullets) > 0 {
		terminated, inBounds := 0, 0
		for _, bi := range bullets {
			content := strings.TrimSpace(doc.BulletContent(bi))
			if strings.HasSuffix(content, ".") {
				terminated++
			}
			if len(content) >= cfg.MinBulletChars && len(content) <= cfg.MaxBulletChars &&
				len(strings.Fields(content)) > 1 {
				inBounds++
			}
		}
		// Consistency rewards whichever punctuation convention dominates.
		dominant := terminated
		if n := len(bullets) - terminated; n > dominant {
			dominant = n
		}
		punctuation = share * float64(dominant) / float64(len(bullets))
		length = share * float64(inBounds) / float64(len(bullets))
	}

	return round2(clamp(sections+pages+punctuation+length, 0, 100))
}

// qualityScore gives each bullet half credit for a leading action verb and
// half for a quantified result (digit or percent), averaged. No bullets
// scores a neutral 50.
func qualityScore(doc *latex.Document, norm []latex.Normalized, verbs map[string]bool) float64 {
	bullets := doc.BulletIndexes()
	if len(bullets) == 0 {
		return 50
	}
	var sum float64
	for _, bi := range bullets {
		text := norm[bi].Text
		credit := 0.0
		if fields := strings.Fields(text); len(fields) > 0 && verbs[strings.Trim(fields[0], ".,:;")] {
			credit += 0.5
		}
		if strings.ContainsAny(text, "0123456789%") {
			credit += 0.5
		}
		sum += credit
	}
	return round2(sum / float64(len(bullets)) * 100)
}

// distributionScore is the normalized entropy of match counts across the
// sections that carry bullets. One section cannot spread, so it scores 100;
// matches piled into one of several sections score low.
func distributionScore(doc *latex.Document, entries []keywords.Entry, evidence []Match) float64 {
	if len(entries) == 0 {
		return 100
	}
	sections := make(map[string]bool)
	for _, bi := range doc.BulletIndexes() {
		sections[doc.Blocks[bi].Section] = true
	}
	if len(sections) <= 1 {
		return 100
	}
	counts := make(map[string]float64)
	var total float64
	for _, ev := range evidence {
		sec := doc.Blocks[ev.Block].Section
		if !sections[sec] {
			continue
		}
		counts[sec]++
		total++
	}
	if total == 0 {
		return 0
	}
	var entropy float64
	for _, c := range counts {
		p := c / total
		entropy -= p * math.Log(p)
	}
	return round2(clamp(entropy/math.Log(float64(len(sections)))*100, 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
