package edit

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

// Format is a formatting operation requested from the preview.
type Format string

const (
	FormatBold         Format = "bold"
	FormatHighlight    Format = "highlight"
	FormatRedHighlight Format = "red-highlight"
	FormatDelete       Format = "delete"
)

// Markers and the red highlight span.
const (
	BoldMarker      = "**"
	HighlightMarker = "=="
	RedMarker       = "::"
	RedOpen         = `<mark style="background:#ff6b6b;color:#fff">`
	MarkClose       = "</mark>"
)

var (
	// ErrUnknownFormat is returned for a format name this package does not handle.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrStaleRange is returned when the range no longer holds the selected
	// text, usually because the document changed after resolution.
	ErrStaleRange = errors.New("range does not match the selected text")
)

var (
	redOpenBefore = regexp.MustCompile(`<mark[^>]*style="[^"]*#ff6b6b[^"]*"[^>]*>$`)
	anyMarkBefore = regexp.MustCompile(`<mark[^>]*>$`)
)

// ParseFormat converts a wire format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatBold, FormatHighlight, FormatRedHighlight, FormatDelete:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Source gives read access to document lines.
type Source interface {
	Count() int
	Text(line int) string
	Start(line int) int
	Info(line int) mdast.LineInfo
}

// ApplyFormat computes the single edit that applies format to the selected
// text at span. Bold and highlight toggle their marker pair, red-highlight
// toggles the red mark span, and delete removes the text together with any
// markers that immediately bracket it.
func ApplyFormat(src Source, format Format, span mdast.LineSpan, selected string) ([]TextEdit, error) {
	if span.Line < 0 || span.Line >= src.Count() {
		return nil, fmt.Errorf("%w: line %d out of range", ErrStaleRange, span.Line)
	}
	text := src.Text(span.Line)
	if span.Start < 0 || span.End < span.Start || span.End > len(text) {
		return nil, fmt.Errorf("%w: columns %d..%d on line %d", ErrStaleRange, span.Start, span.End, span.Line)
	}
	if text[span.Start:span.End] != selected {
		return nil, ErrStaleRange
	}

	base := src.Start(span.Line)
	b := NewBuilder()

	switch format {
	case FormatBold:
		toggleMarker(b, text, base, span, BoldMarker)
	case FormatHighlight:
		toggleMarker(b, text, base, span, HighlightMarker)
	case FormatRedHighlight:
		toggleRed(b, text, base, span)
	case FormatDelete:
		start, end := expandDelete(text, span.Start, span.End)
		b.Delete(base+start, base+end)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return b.Edits, nil
}

func toggleMarker(b *Builder, text string, base int, span mdast.LineSpan, marker string) {
	n := len(marker)
	if span.Start >= n && span.End+n <= len(text) &&
		text[span.Start-n:span.Start] == marker && text[span.End:span.End+n] == marker {
		b.ReplaceRange(base+span.Start-n, base+span.End+n, text[span.Start:span.End])
		return
	}
	b.ReplaceRange(base+span.Start, base+span.End, marker+text[span.Start:span.End]+marker)
}

func toggleRed(b *Builder, text string, base int, span mdast.LineSpan) {
	before := text[:span.Start]
	after := text[span.End:]
	if loc := redOpenBefore.FindStringIndex(before); loc != nil && strings.HasPrefix(after, MarkClose) {
		b.ReplaceRange(base+loc[0], base+span.End+len(MarkClose), text[span.Start:span.End])
		return
	}
	// The shorthand form renders the same span.
	if strings.HasSuffix(before, RedMarker) && strings.HasPrefix(after, RedMarker) {
		b.ReplaceRange(base+span.Start-len(RedMarker), base+span.End+len(RedMarker), text[span.Start:span.End])
		return
	}
	b.ReplaceRange(base+span.Start, base+span.End, RedOpen+text[span.Start:span.End]+MarkClose)
}

// expandDelete widens [start, end) over adjacent marker pairs: highlight,
// bold, highlight again for doubly wrapped runs, the red shorthand, then a
// mark span.
func expandDelete(text string, start, end int) (int, int) {
	for _, marker := range []string{HighlightMarker, BoldMarker, HighlightMarker, RedMarker} {
		n := len(marker)
		if start >= n && end+n <= len(text) &&
			text[start-n:start] == marker && text[end:end+n] == marker {
			start -= n
			end += n
		}
	}
	if loc := anyMarkBefore.FindStringIndex(text[:start]); loc != nil && strings.HasPrefix(text[end:], MarkClose) {
		start = loc[0]
		end += len(MarkClose)
	}
	return start, end
}

// DeleteLines removes whole lines. Consecutive lines collapse into a single
// edit and edits are returned bottom to top, so each one leaves the offsets of
// the ones after it valid when applied in order.
func DeleteLines(src Source, lines []int) []TextEdit {
	count := src.Count()
	sorted := slices.Clone(lines)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	sorted = slices.DeleteFunc(sorted, func(l int) bool { return l < 0 || l >= count })
	if len(sorted) == 0 {
		return nil
	}

	type run struct{ first, last int }
	runs := []run{{sorted[0], sorted[0]}}
	for _, l := range sorted[1:] {
		if l == runs[len(runs)-1].last+1 {
			runs[len(runs)-1].last = l
			continue
		}
		runs = append(runs, run{l, l})
	}

	edits := make([]TextEdit, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		var start, end int
		switch {
		case r.last < count-1:
			start = src.Start(r.first)
			end = src.Start(r.last + 1)
		case r.first > 0:
			// Trailing run: take the newline before it instead.
			start = src.Info(r.first - 1).NewlineStart
			end = src.Info(r.last).EndOffset
		default:
			start = 0
			end = src.Info(r.last).EndOffset
		}
		edits = append(edits, TextEdit{StartOffset: start, EndOffset: end})
	}
	return edits
}
