// Package keywords turns job-description text into a ranked set of
// normalized keyword entries. The rule-based extractor works standalone;
// entries from any other producer pass through NormalizeEntries before the
// rest of the pipeline sees them.
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

// Category tags what kind of signal a keyword is.
type Category string

const (
	CategorySkill         Category = "skill"
	CategoryTool          Category = "tool"
	CategorySoftSkill     Category = "soft_skill"
	CategoryCertification Category = "certification"
	CategoryUnclassified  Category = "unclassified"
)

// Entry is one normalized keyword with its weight in (0, 1]. Terms are
// lowercase and whitespace-collapsed; a term appears at most once per set.
type Entry struct {
	Term     string   `json:"term"`
	Weight   float64  `json:"weight"`
	Category Category `json:"category"`
	Synonyms []string `json:"synonyms,omitempty"`
}

var tokenPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.#-]{2,}`)

// DefaultTopN bounds the extracted keyword set when the caller does not say
// otherwise.
const DefaultTopN = 20

// Extract runs the rule-based extractor: tokenize, drop stop-words, count
// unigrams and 2-3 token phrases, weight by frequency times a specificity
// bonus, keep the topN by weight with ties broken by first occurrence.
// Weights are scaled so the strongest entry has weight 1.
func Extract(jobText string, topN int) []Entry {
	return ExtractWithLexicon(jobText, topN, DefaultLexicon())
}

// ExtractWithLexicon is Extract with caller-supplied word lists.
func ExtractWithLexicon(jobText string, topN int, lex Lexicon) []Entry {
	if topN <= 0 {
		topN = DefaultTopN
	}

	raw := tokenPattern.FindAllString(jobText, -1)
	type token struct {
		lower string
		raw   string
	}
	var tokens []token
	for _, r := range raw {
		l := strings.ToLower(r)
		if lex.Stopwords[l] {
			continue
		}
		tokens = append(tokens, token{lower: l, raw: r})
	}
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]float64)
	bonus := make(map[string]float64)
	firstSeen := make(map[string]int)
	order := 0
	note := func(term string, score float64) {
		counts[term] += score
		if _, ok := firstSeen[term]; !ok {
			firstSeen[term] = order
		}
		order++
	}

	for _, t := range tokens {
		note(t.lower, 1)
		if b := specificity(t.raw); b > bonus[t.lower] {
			bonus[t.lower] = b
		}
	}
	// Phrases of 2-3 tokens get a flat bonus so a repeated phrase outranks
	// its constituent words.
	for n := 2; n <= 3; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			parts := make([]string, n)
			for j := range n {
				parts[j] = tokens[i+j].lower
			}
			note(strings.Join(parts, " "), 1)
		}
	}

	type scored struct {
		term  string
		score float64
	}
	var all []scored
	for term, count := range counts {
		b := bonus[term]
		if b == 0 {
			b = 1
		}
		score := count * b
		if strings.Contains(term, " ") {
			score += 0.5
		}
		all = append(all, scored{term: term, score: score})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return firstSeen[all[i].term] < firstSeen[all[j].term]
	})
	if len(all) > topN {
		all = all[:topN]
	}

	max := all[0].score
	entries := make([]Entry, 0, len(all))
	for _, s := range all {
		entries = append(entries, Entry{
			Term:     s.term,
			Weight:   s.score / max,
			Category: lex.categorize(s.term),
			Synonyms: lex.Synonyms[s.term],
		})
	}
	return entries
}

// specificity rewards tokens that look like proper nouns: all-caps acronyms
// score highest, title-cased tool names slightly above plain words.
func specificity(raw string) float64 {
	upper, lower, letters := 0, 0, 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'A' && c <= 'Z':
			upper++
			letters++
		case c >= 'a' && c <= 'z':
			lower++
			letters++
		}
	}
	switch {
	case letters >= 2 && upper == letters && len(raw) <= 6:
		return 1.5
	case upper == 1 && raw[0] >= 'A' && raw[0] <= 'Z' && lower > 0:
		return 1.25
	default:
		return 1
	}
}

func (lex Lexicon) categorize(term string) Category {
	head := term
	if i := strings.IndexByte(term, ' '); i >= 0 {
		head = term[:i]
	}
	switch {
	case lex.Certifications[term] || strings.Contains(term, "certif"):
		return CategoryCertification
	case lex.Tools[term] || lex.Tools[head]:
		return CategoryTool
	case lex.SoftSkills[term] || lex.SoftSkills[head]:
		return CategorySoftSkill
	case lex.Skills[term] || lex.Skills[head]:
		return CategorySkill
	default:
		return CategoryUnclassified
	}
}

// NormalizeEntries validates entries from an external producer: casing and
// whitespace are re-normalized, empty and duplicate terms dropped, weights
// clamped into (0, 1], and the set capped at topN. Order is preserved.
func NormalizeEntries(entries []Entry, topN int) []Entry {
	if topN <= 0 {
		topN = DefaultTopN
	}
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		term := collapse(e.Term)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true

		w := e.Weight
		if w <= 0 {
			w = 0.1
		}
		if w > 1 {
			w = 1
		}
		cat := e.Category
		switch cat {
		case CategorySkill, CategoryTool, CategorySoftSkill, CategoryCertification:
		default:
			cat = CategoryUnclassified
		}
		var syns []string
		for _, s := range e.Synonyms {
			if s = collapse(s); s != "" && s != term {
				syns = append(syns, s)
			}
		}
		out = append(out, Entry{Term: term, Weight: w, Category: cat, Synonyms: syns})
		if len(out) == topN {
			break
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
