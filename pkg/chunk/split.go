// Package chunk splits markdown documents into contiguous line ranges and
// keeps their rendered HTML current as the document changes.
package chunk

import (
	"regexp"
	"strings"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

// Default split parameters.
const (
	DefaultSingleChunkThreshold = 1000
	DefaultTargetLines          = 500
)

// Chunk is a contiguous range of 0-based source lines. Text holds the lines
// with their terminators, so the texts of all chunks concatenate to the
// source.
type Chunk struct {
	StartLine int
	EndLine   int
	Text      string
}

// Lines returns the number of lines covered by the chunk.
func (c Chunk) Lines() int {
	return c.EndLine - c.StartLine + 1
}

// SplitOptions control where chunk boundaries go.
type SplitOptions struct {
	// SingleChunkThreshold is the line count below which the whole document
	// is one chunk.
	SingleChunkThreshold int

	// TargetLines is the preferred chunk length. A boundary is placed at the
	// first safe line at or after this length.
	TargetLines int
}

// DefaultSplitOptions returns the default split parameters.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{
		SingleChunkThreshold: DefaultSingleChunkThreshold,
		TargetLines:          DefaultTargetLines,
	}
}

var (
	splitFencePattern   = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
	splitHeadingPattern = regexp.MustCompile(`^ {0,3}#{1,6}(?:[ \t]|$)`)
)

// blockState tracks constructs a boundary must not cut through.
type blockState struct {
	fence  string
	inMath bool
}

func (s *blockState) inside() bool {
	return s.fence != "" || s.inMath
}

// advance updates the state with one line.
func (s *blockState) advance(line string) {
	if m := splitFencePattern.FindStringSubmatch(line); m != nil {
		switch {
		case s.fence == "":
			if !s.inMath {
				s.fence = m[1]
			}
		case m[1][0] == s.fence[0] && len(m[1]) >= len(s.fence) &&
			strings.TrimSpace(line[len(m[0]):]) == "":
			s.fence = ""
		}
		return
	}
	if s.fence != "" {
		return
	}
	if strings.Count(line, "$$")%2 == 1 {
		s.inMath = !s.inMath
	}
}

// Split partitions text into chunks. Boundaries fall after a blank line or
// before a heading, never inside a fenced code block or a $$ math block.
// Documents shorter than the threshold yield exactly one chunk.
func Split(text string, opts SplitOptions) []Chunk {
	if opts.SingleChunkThreshold <= 0 {
		opts.SingleChunkThreshold = DefaultSingleChunkThreshold
	}
	if opts.TargetLines <= 0 {
		opts.TargetLines = DefaultTargetLines
	}

	lines := mdast.BuildLines(text)
	total := lines.Count()
	if total < opts.SingleChunkThreshold {
		return []Chunk{{StartLine: 0, EndLine: total - 1, Text: text}}
	}

	var chunks []Chunk
	emit := func(start, end int) {
		from := lines.Info(start).StartOffset
		to := lines.Info(end).EndOffset
		chunks = append(chunks, Chunk{StartLine: start, EndLine: end, Text: text[from:to]})
	}

	var state blockState
	start := 0
	for i := range total {
		// Line i may open the next chunk when the state before it is clear.
		if i > start && i-start >= opts.TargetLines && !state.inside() {
			prev := lines.Text(i - 1)
			if strings.TrimSpace(prev) == "" || splitHeadingPattern.MatchString(lines.Text(i)) {
				emit(start, i-1)
				start = i
			}
		}
		state.advance(lines.Text(i))
	}
	emit(start, total-1)

	return chunks
}
