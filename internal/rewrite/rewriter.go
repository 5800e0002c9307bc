// Package rewrite closes keyword gaps by editing bullet content under hard
// constraints: a per-bullet character edit budget, no change to LaTeX
// command structure, and no keyword stuffing. Everything it cannot place
// within those constraints becomes a recorded gap, never an error.
package rewrite

import (
	"context"
	"slices"
	"sort"
	"strings"

	"resumeopt/internal/ats"
	"resumeopt/internal/keywords"
	"resumeopt/internal/latex"
)

// Assist is the optional external phrasing collaborator. A nil Assist means
// rule-based rewriting only. Proposals are validated against the same
// constraints as rule-based candidates before acceptance.
type Assist interface {
	ProposeRewrite(ctx context.Context, bullet, keyword string, maxDelta int) (string, error)
}

// Config carries the rewrite tunables.
type Config struct {
	Strict        bool
	StrictBudget  int
	RelaxedBudget int
	UsageCap      int
	ActionVerbs   map[string]bool
}

// DefaultConfig returns the standard rewrite tuning: a ten character budget
// in strict mode and at most two placements per keyword.
func DefaultConfig() Config {
	return Config{
		Strict:        true,
		StrictBudget:  10,
		RelaxedBudget: 60,
		UsageCap:      2,
		ActionVerbs:   ats.DefaultActionVerbs(),
	}
}

// Budget is the active per-bullet edit budget.
func (c Config) Budget() int {
	if c.Strict {
		return c.StrictBudget
	}
	return c.RelaxedBudget
}

// Plan records one accepted bullet edit.
type Plan struct {
	Block       int      `json:"block"`
	Original    string   `json:"original"`
	Replacement string   `json:"replacement"`
	Keywords    []string `json:"keywords"`
	EditDelta   int      `json:"editDelta"`
}

// SkippedGap records a missing keyword the rewriter could not place.
type SkippedGap struct {
	Term   string `json:"term"`
	Reason string `json:"reason"`
}

// Result is the outcome of a rewrite pass. Edits maps block index to
// replacement bullet content, ready for Document.Render.
type Result struct {
	Edits             map[int]string
	Plans             []Plan
	Skipped           []SkippedGap
	NoEligibleBullets bool
}

const (
	reasonNoFit             = "no candidate satisfied the edit budget and structure constraints"
	reasonUsageCap          = "keyword already placed the maximum number of times"
	reasonNoEligibleBullets = "resume has no bullet items"
)

// Rewrite attempts to place every unmatched keyword from before into the
// bullets of doc, highest weight first, visiting bullets in document order.
// Each keyword is placed into at most UsageCap bullets. The original
// document is never mutated; the caller renders Edits into a fresh source.
func Rewrite(ctx context.Context, doc *latex.Document, entries []keywords.Entry, before ats.Result, assist Assist, cfg Config) Result {
	missing := missingKeywords(entries, before)
	bullets := doc.BulletIndexes()
	if len(bullets) == 0 {
		res := Result{NoEligibleBullets: true}
		for _, e := range missing {
			res.Skipped = append(res.Skipped, SkippedGap{Term: e.Term, Reason: reasonNoEligibleBullets})
		}
		return res
	}

	working := make(map[int]string, len(bullets))
	added := make(map[int][]string, len(bullets))
	for _, bi := range bullets {
		working[bi] = doc.BulletContent(bi)
	}

	limit := cfg.UsageCap
	if limit < 1 {
		limit = 1
	}
	usage := make(map[string]int)
	var skipped []SkippedGap
	for _, e := range missing {
		placed := 0
		for _, bi := range bullets {
			if usage[e.Term] >= limit {
				break
			}
			original := doc.BulletContent(bi)
			candidate, ok := propose(ctx, original, working[bi], e, entries, assist, cfg)
			if !ok {
				continue
			}
			working[bi] = candidate
			added[bi] = append(added[bi], e.Term)
			usage[e.Term]++
			placed++
		}
		if placed == 0 {
			reason := reasonNoFit
			if usage[e.Term] >= limit {
				reason = reasonUsageCap
			}
			skipped = append(skipped, SkippedGap{Term: e.Term, Reason: reason})
		}
	}

	res := Result{Edits: make(map[int]string), Skipped: skipped}
	for _, bi := range bullets {
		original := doc.BulletContent(bi)
		if working[bi] == original {
			continue
		}
		res.Edits[bi] = working[bi]
		res.Plans = append(res.Plans, Plan{
			Block:       bi,
			Original:    original,
			Replacement: working[bi],
			Keywords:    added[bi],
			EditDelta:   Distance(original, working[bi]),
		})
	}
	return res
}

// missingKeywords returns the entries with zero matches, ordered by weight
// descending with input order breaking ties.
func missingKeywords(entries []keywords.Entry, before ats.Result) []keywords.Entry {
	matched := before.MatchedTerms()
	var missing []keywords.Entry
	for _, e := range entries {
		if !matched[e.Term] {
			missing = append(missing, e)
		}
	}
	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].Weight > missing[j].Weight
	})
	return missing
}

// propose tries the strategies in order: synonym swap, templated insertion,
// then the external assist. The first candidate that validates wins.
func propose(ctx context.Context, original, current string, e keywords.Entry, entries []keywords.Entry, assist Assist, cfg Config) (string, bool) {
	if cand, ok := swapSynonym(current, e); ok {
		if validate(original, current, cand, e, entries, cfg) {
			return cand, true
		}
	}
	if cand := insertTemplated(current, e.Term); validate(original, current, cand, e, entries, cfg) {
		return cand, true
	}
	if assist != nil {
		cand, err := assist.ProposeRewrite(ctx, current, e.Term, cfg.Budget())
		// Assist failure falls back to the rule-based outcome for this
		// bullet; it never fails the run.
		if err == nil && cand != "" && validate(original, current, cand, e, entries, cfg) {
			return cand, true
		}
	}
	return "", false
}

// swapSynonym replaces the first whole-word occurrence of one of the
// entry's synonyms with the canonical term. A swap that would land
// mid-word or within two characters of a backslash is rejected so command
// tokens and embedded identifiers are never touched.
func swapSynonym(text string, e keywords.Entry) (string, bool) {
	lowered := strings.ToLower(text)
	for _, syn := range e.Synonyms {
		from := 0
		for {
			i := strings.Index(lowered[from:], syn)
			if i < 0 {
				break
			}
			at := from + i
			from = at + 1
			if !wordBoundary(lowered, at, len(syn)) {
				continue
			}
			lo := at - 2
			if lo < 0 {
				lo = 0
			}
			hi := at + len(syn) + 2
			if hi > len(text) {
				hi = len(text)
			}
			if strings.Contains(text[lo:hi], `\`) {
				continue
			}
			return text[:at] + e.Term + text[at+len(syn):], true
		}
	}
	return "", false
}

// insertTemplated appends the keyword parenthesized, keeping a terminal
// period terminal.
func insertTemplated(text, term string) string {
	if strings.HasSuffix(text, ".") {
		return text[:len(text)-1] + " (" + term + ")."
	}
	return text + " (" + term + ")"
}

// validate applies the acceptance constraints shared by every strategy:
// balanced braces, identical command tokens, keyword present, edit distance
// within budget, an established leading action verb left alone, and every
// keyword the bullet already matches still matching afterwards. The last
// rule is what keeps coverage from ever going down: a candidate may not
// close one gap by opening another.
func validate(original, current, candidate string, e keywords.Entry, entries []keywords.Entry, cfg Config) bool {
	if candidate == "" || candidate == original || candidate == current {
		return false
	}
	if latex.CheckFragment(candidate) != nil {
		return false
	}
	if !slices.Equal(latex.CommandTokens(original), latex.CommandTokens(candidate)) {
		return false
	}
	if Distance(original, candidate) > cfg.Budget() {
		return false
	}
	normCand := latex.NormalizeText(candidate)
	if !matchesEntry(normCand, e) {
		return false
	}
	normCur := latex.NormalizeText(current)
	for _, other := range entries {
		if matchesEntry(normCur, other) && !matchesEntry(normCand, other) {
			return false
		}
	}
	if verb := leadingVerb(original, cfg.ActionVerbs); verb != "" && leadingVerb(candidate, cfg.ActionVerbs) != verb {
		return false
	}
	return true
}

// matchesEntry reports whether the normalized text contains the entry's
// term or any of its synonyms as whole words.
func matchesEntry(norm string, e keywords.Entry) bool {
	if containsWord(norm, e.Term) {
		return true
	}
	for _, syn := range e.Synonyms {
		if containsWord(norm, syn) {
			return true
		}
	}
	return false
}

func containsWord(text, term string) bool {
	if term == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		at := from + i
		from = at + 1
		if wordBoundary(text, at, len(term)) {
			return true
		}
	}
}

func wordBoundary(text string, at, n int) bool {
	if at > 0 && isWordChar(text[at-1]) {
		return false
	}
	if end := at + n; end < len(text) && isWordChar(text[end]) {
		return false
	}
	return true
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '+' || c == '#'
}

func leadingVerb(text string, verbs map[string]bool) string {
	fields := strings.Fields(latex.NormalizeText(text))
	if len(fields) == 0 {
		return ""
	}
	word := strings.Trim(fields[0], ".,:;")
	if verbs[word] {
		return word
	}
	return ""
}
