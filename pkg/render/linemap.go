package render

import (
	"bytes"
	"regexp"
	"strconv"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

const dataLineAttr = "data-line"

// Block kinds reported in Result.Blocks.
const (
	BlockParagraph = "paragraph"
	BlockHeading   = "heading"
	BlockCode      = "code"
	BlockQuote     = "blockquote"
	BlockTable     = "table"
	BlockRule      = "hr"
	BlockListItem  = "list-item"
)

// Raw constructs searched for when a node carries no source segment.
var (
	thematicBreakPattern = regexp.MustCompile(`(?m)^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	fenceOpenPattern     = regexp.MustCompile("(?m)^[ \t>]*(?:`{3,}|~{3,})")
	listMarkerPattern    = regexp.MustCompile(`(?m)^[ \t>]*(?:[-*+]|\d{1,9}[.)])(?:[ \t]|$)`)
	headingPattern       = regexp.MustCompile(`(?m)^[ \t>]*#{1,6}(?:[ \t]|$)`)
)

// mappedBlock is one taggable element in emission order.
type mappedBlock struct {
	node   ast.Node
	kind   string
	line   int // absolute line, -1 when unknown
	filled bool
}

// lineMapper assigns source lines to block nodes. Offsets come from goldmark
// segments in the prepared text; nodes without segments are found by a
// forward search that resumes where the previous match ended.
type lineMapper struct {
	prepared   []byte
	offsets    *offsetMap
	lines      *mdast.Lines
	lineOffset int

	cursor int
	last   int
}

func newLineMapper(prepared []byte, offsets *offsetMap, lines *mdast.Lines, lineOffset int) *lineMapper {
	return &lineMapper{
		prepared:   prepared,
		offsets:    offsets,
		lines:      lines,
		lineOffset: lineOffset,
		last:       -1,
	}
}

func blockKind(n ast.Node) (string, bool) {
	switch n.Kind() {
	case ast.KindParagraph:
		return BlockParagraph, true
	case ast.KindHeading:
		return BlockHeading, true
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		return BlockCode, true
	case ast.KindBlockquote:
		return BlockQuote, true
	case east.KindTable:
		return BlockTable, true
	case ast.KindThematicBreak:
		return BlockRule, true
	case ast.KindListItem:
		return BlockListItem, true
	default:
		return "", false
	}
}

// mapDocument walks the block nodes in document order and tags each one whose
// line can be found without going backwards.
func (m *lineMapper) mapDocument(doc ast.Node) []*mappedBlock {
	var blocks []*mappedBlock

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		kind, ok := blockKind(n)
		if !ok {
			m.advance(n, -1)
			return ast.WalkContinue, nil
		}

		b := &mappedBlock{node: n, kind: kind, line: -1}
		blocks = append(blocks, b)

		offset := m.locate(n)
		m.tag(b, offset)
		m.advance(n, offset)
		return ast.WalkContinue, nil
	})

	return blocks
}

func (m *lineMapper) tag(b *mappedBlock, offset int) {
	if offset < 0 {
		return
	}
	local := m.lines.LineAt(m.offsets.original(offset))
	if local < m.last {
		return
	}
	m.last = local
	m.cursor = max(m.cursor, offset)
	b.line = m.lineOffset + local
	setLine(b.node, b.line)
}

// advance moves the cursor past the source of a leaf block so that later
// searches cannot match inside it. Containers are skipped; their children
// move the cursor as they are walked.
func (m *lineMapper) advance(n ast.Node, offset int) {
	if c := n.FirstChild(); c != nil && c.Type() == ast.TypeBlock {
		return
	}

	end := -1
	stop, ok := lastSegment(n)
	switch {
	case n.Kind() == ast.KindFencedCodeBlock:
		end = m.fenceEnd(n, offset)
	case ok:
		end = m.lineEnd(stop - 1)
		if n.Kind() == ast.KindHeading && !m.atxHeading(n) {
			end = m.lineEnd(end) // setext underline
		}
	case offset >= 0:
		end = m.lineEnd(offset)
	}
	m.cursor = max(m.cursor, min(end, len(m.prepared)))
}

// fenceEnd returns the offset just past the closing fence of a fenced code
// block, or past its last line when the fence is unclosed.
func (m *lineMapper) fenceEnd(n ast.Node, offset int) int {
	var pos int
	switch {
	case n.Lines().Len() > 0:
		pos = m.lineEnd(n.Lines().At(n.Lines().Len()-1).Stop - 1)
	case offset >= 0:
		pos = m.lineEnd(offset)
	default:
		return -1
	}
	if pos < len(m.prepared) {
		if loc := fenceOpenPattern.FindIndex(m.prepared[pos:]); loc != nil && loc[0] == 0 {
			pos = m.lineEnd(pos)
		}
	}
	return pos
}

// atxHeading reports whether heading n starts with a '#' marker.
func (m *lineMapper) atxHeading(n ast.Node) bool {
	start, ok := firstSegment(n)
	if !ok {
		return true
	}
	for start > 0 && m.prepared[start-1] != '\n' {
		start--
	}
	for start < len(m.prepared) {
		switch m.prepared[start] {
		case ' ', '\t', '>':
			start++
		case '#':
			return true
		default:
			return false
		}
	}
	return false
}

// lineEnd returns the offset just past the newline ending the line that
// holds offset, or the end of the text.
func (m *lineMapper) lineEnd(offset int) int {
	offset = max(offset, 0)
	if offset >= len(m.prepared) {
		return len(m.prepared)
	}
	if i := bytes.IndexByte(m.prepared[offset:], '\n'); i >= 0 {
		return offset + i + 1
	}
	return len(m.prepared)
}

// locate returns the prepared-text offset where n starts, or -1.
func (m *lineMapper) locate(n ast.Node) int {
	switch n.Kind() {
	case ast.KindThematicBreak:
		return m.search(thematicBreakPattern)
	case ast.KindFencedCodeBlock:
		if n.Lines().Len() > 0 {
			return m.previousLineStart(n.Lines().At(0).Start)
		}
		return m.search(fenceOpenPattern)
	}

	if offset, ok := firstSegment(n); ok {
		return offset
	}

	switch n.Kind() {
	case ast.KindListItem:
		return m.search(listMarkerPattern)
	case ast.KindHeading:
		return m.search(headingPattern)
	default:
		return -1
	}
}

// search finds pattern at or after the cursor.
func (m *lineMapper) search(pattern *regexp.Regexp) int {
	if m.cursor >= len(m.prepared) {
		return -1
	}
	loc := pattern.FindIndex(m.prepared[m.cursor:])
	if loc == nil {
		return -1
	}
	return m.cursor + loc[0]
}

// previousLineStart returns the start of the line before the one holding
// offset: the opening fence of a fenced code block with content.
func (m *lineMapper) previousLineStart(offset int) int {
	lineStart := offset
	for lineStart > 0 && m.prepared[lineStart-1] != '\n' {
		lineStart--
	}
	if lineStart == 0 {
		return 0
	}
	prev := lineStart - 1
	for prev > 0 && m.prepared[prev-1] != '\n' {
		prev--
	}
	return prev
}

// firstSegment returns the earliest source offset held by n or its first
// descendant that has one.
func firstSegment(n ast.Node) (int, bool) {
	switch n.Type() {
	case ast.TypeBlock:
		if n.Lines().Len() > 0 {
			return n.Lines().At(0).Start, true
		}
	case ast.TypeInline:
		switch t := n.(type) {
		case *ast.Text:
			return t.Segment.Start, true
		case *ast.RawHTML:
			if t.Segments.Len() > 0 {
				return t.Segments.At(0).Start, true
			}
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if offset, ok := firstSegment(c); ok {
			return offset, true
		}
	}
	return 0, false
}

// lastSegment returns the end offset of the last source segment held by n
// or its descendants.
func lastSegment(n ast.Node) (int, bool) {
	switch n.Type() {
	case ast.TypeBlock:
		if n.Lines().Len() > 0 {
			return n.Lines().At(n.Lines().Len() - 1).Stop, true
		}
	case ast.TypeInline:
		switch t := n.(type) {
		case *ast.Text:
			return t.Segment.Stop, true
		case *ast.RawHTML:
			if t.Segments.Len() > 0 {
				return t.Segments.At(t.Segments.Len() - 1).Stop, true
			}
		}
	}
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if stop, ok := lastSegment(c); ok {
			return stop, true
		}
	}
	return 0, false
}

func setLine(n ast.Node, line int) {
	n.SetAttributeString(dataLineAttr, []byte(strconv.Itoa(line)))
}

// fillLines gives untagged blocks evenly spaced lines between first and last
// when the chunk has no tagged block at all. With gaps set it also fills
// untagged runs between tagged neighbors by interpolation. Existing tags are
// never changed and the result stays non-decreasing.
func fillLines(blocks []*mappedBlock, first, last int, gaps bool) {
	if len(blocks) == 0 {
		return
	}

	tagged := 0
	for _, b := range blocks {
		if b.line >= 0 {
			tagged++
		}
	}

	if tagged == 0 {
		span := last - first + 1
		for i, b := range blocks {
			assign(b, first+i*span/len(blocks))
		}
		return
	}
	if !gaps || tagged == len(blocks) {
		return
	}

	prev := first
	for i := 0; i < len(blocks); {
		if blocks[i].line >= 0 {
			prev = blocks[i].line
			i++
			continue
		}
		j := i
		for j < len(blocks) && blocks[j].line < 0 {
			j++
		}
		next := last
		if j < len(blocks) {
			next = blocks[j].line
		}
		run := j - i
		for k := range run {
			assign(blocks[i+k], prev+(next-prev)*(k+1)/(run+1))
		}
		i = j
	}
}

func assign(b *mappedBlock, line int) {
	b.line = line
	b.filled = true
	setLine(b.node, line)
}
