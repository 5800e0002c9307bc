// Package latex parses a LaTeX resume into an ordered sequence of typed
// blocks. Each block records its exact byte span in the source, so the
// sequence reconstructs the input losslessly and rewrites can splice new
// bullet content into the original bytes without disturbing anything else.
package latex

import (
	"strings"

	"resumeopt/internal/errors"
)

// BlockKind classifies a parsed block.
type BlockKind string

const (
	BlockPreamble      BlockKind = "preamble"
	BlockSectionHeader BlockKind = "section_header"
	BlockBulletItem    BlockKind = "bullet_item"
	BlockRawText       BlockKind = "raw_text"
)

// Block is a contiguous span of the source document. Start/End are byte
// offsets into the source; concatenating all block spans in order yields the
// source byte-for-byte. ContentStart/ContentEnd delimit the editable text of
// a bullet item (the \item token, its optional label, and trailing
// whitespace stay outside the editable span).
type Block struct {
	Kind  BlockKind `json:"kind"`
	Start int       `json:"start"`
	End   int       `json:"end"`

	// Name is the section title for section headers.
	Name string `json:"name,omitempty"`

	// Section is the lowered title of the enclosing section, empty before
	// the first header.
	Section string `json:"section,omitempty"`

	ContentStart int `json:"contentStart,omitempty"`
	ContentEnd   int `json:"contentEnd,omitempty"`
}

// Document is the parsed form of a resume source.
type Document struct {
	Source string
	Blocks []Block
}

// Parse scans source into a Document. It fails with a MALFORMED_DOCUMENT
// error on unbalanced brace nesting or an unterminated command argument;
// it never repairs the input.
func Parse(source string) (*Document, error) {
	p := &parser{src: source}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &Document{Source: source, Blocks: p.blocks}, nil
}

type parser struct {
	src   string
	pos   int
	depth int

	blocks      []Block
	regionStart int
	section     string
	seenSection bool

	bulletOpen   bool
	bulletStart  int
	contentStart int
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == '%':
			p.skipComment()
		case c == '{':
			p.depth++
			p.pos++
		case c == '}':
			if p.depth == 0 {
				return malformed("unbalanced closing brace", p.pos)
			}
			p.depth--
			p.pos++
		case c == '\\':
			if err := p.command(); err != nil {
				return err
			}
		default:
			p.pos++
		}
	}
	if p.depth != 0 {
		return malformed("unclosed brace group at end of input", len(p.src))
	}
	p.flushBefore(len(p.src))
	return nil
}

func malformed(msg string, offset int) error {
	return errors.NewValidationError(errors.ErrCodeMalformedDocument, msg, nil).
		WithContext("offset", offset)
}

// command handles a backslash at p.pos. Escaped symbols (\{, \}, \\, \%, …)
// are literal characters, never structure.
func (p *parser) command() error {
	start := p.pos
	if p.pos+1 >= len(p.src) {
		p.pos++
		return nil
	}
	if !isLetter(p.src[p.pos+1]) {
		p.pos += 2
		return nil
	}
	j := p.pos + 1
	for j < len(p.src) && isLetter(p.src[j]) {
		j++
	}
	name := p.src[p.pos+1 : j]
	p.pos = j

	// Structure is only recognized at top-level brace depth; a \section
	// buried in a command argument is somebody else's argument text.
	if p.depth != 0 {
		return nil
	}

	switch name {
	case "section", "subsection":
		return p.sectionHeader(start)
	case "item":
		return p.beginBullet(start)
	case "newcommand", "renewcommand", "providecommand", "def":
		return p.definition(start, name)
	case "end":
		if p.bulletOpen {
			p.closeBulletAt(start)
		}
	}
	return nil
}

func (p *parser) sectionHeader(start int) error {
	if p.pos < len(p.src) && p.src[p.pos] == '*' {
		p.pos++
	}
	p.skipInlineSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '{' {
		// A bare sectioning command without an argument stays raw text.
		return nil
	}
	nameStart := p.pos + 1
	end, err := p.scanGroup('{', '}')
	if err != nil {
		return err
	}
	p.flushBefore(start)
	title := strings.TrimSpace(p.src[nameStart : end-1])
	p.blocks = append(p.blocks, Block{
		Kind:    BlockSectionHeader,
		Start:   start,
		End:     end,
		Name:    title,
		Section: p.section,
	})
	p.section = strings.ToLower(title)
	p.seenSection = true
	p.regionStart = end
	p.pos = end
	return nil
}

func (p *parser) beginBullet(start int) error {
	p.flushBefore(start)
	if p.pos < len(p.src) && p.src[p.pos] == '[' {
		end, err := p.scanGroup('[', ']')
		if err != nil {
			return err
		}
		p.pos = end
	}
	p.skipInlineSpace()
	p.bulletOpen = true
	p.bulletStart = start
	p.contentStart = p.pos
	return nil
}

// definition consumes a macro definition and emits it as a preamble block,
// wherever it appears. Definitions inside a bullet stay bullet content.
func (p *parser) definition(start int, cmd string) error {
	if p.bulletOpen {
		return nil
	}
	if cmd == "def" {
		// \def\name<params>{body}: the body is the first brace group on
		// the logical line.
		for p.pos < len(p.src) && p.src[p.pos] != '{' && p.src[p.pos] != '\n' {
			p.pos++
		}
		if p.pos >= len(p.src) || p.src[p.pos] != '{' {
			return nil
		}
	} else {
		p.skipInlineSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '*' {
			p.pos++
		}
		p.skipInlineSpace()
		switch {
		case p.pos < len(p.src) && p.src[p.pos] == '{':
			end, err := p.scanGroup('{', '}')
			if err != nil {
				return err
			}
			p.pos = end
		case p.pos+1 < len(p.src) && p.src[p.pos] == '\\' && isLetter(p.src[p.pos+1]):
			p.pos++
			for p.pos < len(p.src) && isLetter(p.src[p.pos]) {
				p.pos++
			}
		default:
			return nil
		}
		p.skipInlineSpace()
		for p.pos < len(p.src) && p.src[p.pos] == '[' {
			end, err := p.scanGroup('[', ']')
			if err != nil {
				return err
			}
			p.pos = end
			p.skipInlineSpace()
		}
		if p.pos >= len(p.src) || p.src[p.pos] != '{' {
			return nil
		}
	}
	end, err := p.scanGroup('{', '}')
	if err != nil {
		return err
	}
	p.flushBefore(start)
	p.blocks = append(p.blocks, Block{
		Kind:    BlockPreamble,
		Start:   start,
		End:     end,
		Section: p.section,
	})
	p.regionStart = end
	p.pos = end
	return nil
}

// flushBefore closes the open bullet, or emits the pending raw region, so
// that a new structural block can start at offset at.
func (p *parser) flushBefore(at int) {
	if p.bulletOpen {
		p.closeBulletAt(at)
		return
	}
	if at > p.regionStart {
		kind := BlockRawText
		if !p.seenSection {
			kind = BlockPreamble
		}
		p.blocks = append(p.blocks, Block{
			Kind:    kind,
			Start:   p.regionStart,
			End:     at,
			Section: p.section,
		})
	}
	p.regionStart = at
}

func (p *parser) closeBulletAt(at int) {
	ce := at
	for ce > p.contentStart && isSpace(p.src[ce-1]) {
		ce--
	}
	p.blocks = append(p.blocks, Block{
		Kind:         BlockBulletItem,
		Start:        p.bulletStart,
		End:          at,
		Section:      p.section,
		ContentStart: p.contentStart,
		ContentEnd:   ce,
	})
	p.bulletOpen = false
	p.regionStart = at
}

// scanGroup consumes a balanced group starting at p.pos (which must hold the
// open delimiter) and returns the offset just past the matching close.
func (p *parser) scanGroup(open, close byte) (int, error) {
	depth := 0
	i := p.pos
	for i < len(p.src) {
		switch c := p.src[i]; c {
		case '\\':
			if i+1 < len(p.src) && !isLetter(p.src[i+1]) {
				i += 2
				continue
			}
			i++
		case '%':
			for i < len(p.src) && p.src[i] != '\n' {
				i++
			}
		case open:
			depth++
			i++
		case close:
			depth--
			i++
			if depth == 0 {
				return i, nil
			}
		default:
			i++
		}
	}
	return 0, malformed("unterminated command argument", p.pos)
}

func (p *parser) skipComment() {
	for p.pos < len(p.src) && p.src[p.pos] != '\n' {
		p.pos++
	}
}

func (p *parser) skipInlineSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// CommandTokens lists the command names of a fragment in order of
// appearance. Escaped symbols are not commands. The rewriter compares the
// token lists of an original bullet and a candidate replacement to reject
// edits that add or remove LaTeX structure.
func CommandTokens(fragment string) []string {
	var tokens []string
	for i := 0; i < len(fragment); {
		if fragment[i] != '\\' {
			i++
			continue
		}
		if i+1 >= len(fragment) || !isLetter(fragment[i+1]) {
			i += 2
			continue
		}
		j := i + 1
		for j < len(fragment) && isLetter(fragment[j]) {
			j++
		}
		tokens = append(tokens, fragment[i+1:j])
		i = j
	}
	return tokens
}

// CheckFragment reports whether a standalone text fragment has balanced,
// properly nested brace groups.
func CheckFragment(fragment string) error {
	depth := 0
	for i := 0; i < len(fragment); {
		switch c := fragment[i]; c {
		case '\\':
			if i+1 < len(fragment) && !isLetter(fragment[i+1]) {
				i += 2
				continue
			}
			i++
		case '{':
			depth++
			i++
		case '}':
			if depth == 0 {
				return malformed("unbalanced closing brace", i)
			}
			depth--
			i++
		default:
			i++
		}
	}
	if depth != 0 {
		return malformed("unclosed brace group at end of input", len(fragment))
	}
	return nil
}
