package latex

import "strings"

// Normalized is the plain-text form of a block span used for keyword
// matching, together with a map from every normalized byte back to its
// source offset. Matching happens on Text; splicing back into the document
// happens through Map.
type Normalized struct {
	Text string
	Map  []int
}

// SourceOffset translates an offset into the normalized text back to the
// absolute source offset it came from.
func (n Normalized) SourceOffset(i int) int {
	if len(n.Map) == 0 {
		return 0
	}
	if i < 0 {
		i = 0
	}
	if i >= len(n.Map) {
		i = len(n.Map) - 1
	}
	return n.Map[i]
}

// Formatting wrappers whose argument text survives normalization without a
// word break, so pre\textbf{fix} still matches "prefix".
var transparentCommands = map[string]bool{
	"textbf":    true,
	"textit":    true,
	"emph":      true,
	"underline": true,
	"texttt":    true,
	"textsc":    true,
}

// Normalize produces the matching text for the block at index i: commands
// stripped, lowercase, whitespace collapsed. For bullets only the editable
// content span is normalized.
func (d *Document) Normalize(i int) Normalized {
	b := d.Blocks[i]
	start, end := b.Start, b.End
	if b.Kind == BlockBulletItem {
		start, end = b.ContentStart, b.ContentEnd
	}
	return normalizeSpan(d.Source, start, end)
}

// NormalizeText normalizes a standalone fragment the same way blocks are
// normalized, for matching against candidate rewrites.
func NormalizeText(fragment string) string {
	return normalizeSpan(fragment, 0, len(fragment)).Text
}

func normalizeSpan(src string, start, end int) Normalized {
	var b strings.Builder
	m := make([]int, 0, end-start)
	pendingSpace := -1

	emit := func(c byte, off int) {
		if pendingSpace >= 0 && b.Len() > 0 {
			b.WriteByte(' ')
			m = append(m, pendingSpace)
		}
		pendingSpace = -1
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
		m = append(m, off)
	}
	space := func(off int) {
		if pendingSpace < 0 {
			pendingSpace = off
		}
	}

	for i := start; i < end; {
		c := src[i]
		switch {
		case c == '%':
			for i < end && src[i] != '\n' {
				i++
			}
		case c == '{' || c == '}':
			i++
		case c == '\\':
			if i+1 < end && !isLetter(src[i+1]) {
				if src[i+1] == '\\' {
					space(i)
				} else {
					emit(src[i+1], i+1)
				}
				i += 2
				continue
			}
			j := i + 1
			for j < end && isLetter(src[j]) {
				j++
			}
			name := src[i+1 : j]
			i = j
			if transparentCommands[name] {
				continue
			}
			// Other commands break the word; their brace-group argument
			// text still flows through via the brace handling above.
			space(j - 1)
			if i < end && src[i] == '[' {
				for i < end && src[i] != ']' {
					i++
				}
				if i < end {
					i++
				}
			}
		case isSpace(c):
			space(i)
			i++
		default:
			emit(c, i)
			i++
		}
	}
	return Normalized{Text: b.String(), Map: m}
}
