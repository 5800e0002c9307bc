package latex

import (
	"strings"

	"resumeopt/internal/errors"
)

// Text returns the verbatim span of b.
func (d *Document) Text(b Block) string {
	return d.Source[b.Start:b.End]
}

// BulletContent returns the editable content of the bullet block at index i.
func (d *Document) BulletContent(i int) string {
	b := d.Blocks[i]
	return d.Source[b.ContentStart:b.ContentEnd]
}

// BulletIndexes returns the indexes of all bullet blocks in document order.
func (d *Document) BulletIndexes() []int {
	var idx []int
	for i, b := range d.Blocks {
		if b.Kind == BlockBulletItem {
			idx = append(idx, i)
		}
	}
	return idx
}

// Sections returns the lowered section titles in document order.
func (d *Document) Sections() []string {
	var names []string
	for _, b := range d.Blocks {
		if b.Kind == BlockSectionHeader {
			names = append(names, strings.ToLower(b.Name))
		}
	}
	return names
}

// Render reassembles the source, substituting replacement content for the
// bullet blocks named in edits. Rendering with no edits reproduces the
// source byte-for-byte.
func (d *Document) Render(edits map[int]string) (string, error) {
	var b strings.Builder
	b.Grow(len(d.Source))
	for i, blk := range d.Blocks {
		replacement, ok := edits[i]
		if !ok {
			b.WriteString(d.Source[blk.Start:blk.End])
			continue
		}
		if blk.Kind != BlockBulletItem {
			return "", errors.NewInternalError(errors.ErrCodeInvalidRequest,
				"edit targets a non-bullet block", nil).WithContext("block", i)
		}
		b.WriteString(d.Source[blk.Start:blk.ContentStart])
		b.WriteString(replacement)
		b.WriteString(d.Source[blk.ContentEnd:blk.End])
	}
	return b.String(), nil
}

// PageEstimate approximates the rendered page count from explicit page
// breaks and total line count, at roughly 55 source lines per page.
func (d *Document) PageEstimate() int {
	const linesPerPage = 55
	lines := strings.Count(d.Source, "\n") + 1
	breaks := strings.Count(d.Source, `\newpage`) + strings.Count(d.Source, `\pagebreak`)
	byLength := (lines + linesPerPage - 1) / linesPerPage
	if byLength < 1 {
		byLength = 1
	}
	if breaks+1 > byLength {
		return breaks + 1
	}
	return byLength
}
