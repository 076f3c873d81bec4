// Package selection maps text selected in the rendered preview back to an
// exact byte range in the markdown source.
//
// Resolution is a pure function of the source lines, the selected string and
// positional hints gathered from the rendered document, so it can be tested
// without a browser.
package selection

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/yaklabco/mdsync/pkg/edit"
	"github.com/yaklabco/mdsync/pkg/mdast"
)

var (
	// ErrNotFound is returned when the selected text does not occur in the source.
	ErrNotFound = errors.New("selected text not found in source")

	// ErrEmptySelection is returned for an empty selection.
	ErrEmptySelection = errors.New("empty selection")
)

// minBlockContext is the shortest block context, in runes, worth matching on.
const minBlockContext = 6

// contextPrefix is how many normalized runes of the block context are looked
// for inside a source line when the block spans several lines.
const contextPrefix = 20

// Wrapper names the marker pair surrounding an occurrence. Empty for bare text.
type Wrapper string

const (
	WrapNone      Wrapper = ""
	WrapHighlight Wrapper = edit.HighlightMarker
	WrapBold      Wrapper = edit.BoldMarker
	WrapRed       Wrapper = edit.RedMarker
	WrapRedMark   Wrapper = "mark"
)

type markerPair struct {
	wrapper Wrapper
	open    string
	close   string
}

var markerPairs = []markerPair{
	{WrapHighlight, edit.HighlightMarker, edit.HighlightMarker},
	{WrapBold, edit.BoldMarker, edit.BoldMarker},
	{WrapRed, edit.RedMarker, edit.RedMarker},
	{WrapRedMark, edit.RedOpen, edit.MarkClose},
}

// Source gives read access to document lines.
type Source interface {
	Count() int
	Text(line int) string
}

// Occurrence is one literal appearance of the selected text. Start is the byte
// column of the text itself, inside any wrapper.
type Occurrence struct {
	Line    int
	Start   int
	Wrapper Wrapper
}

// Span returns the source span the occurrence covers for a selection of n bytes.
func (o Occurrence) Span(n int) mdast.LineSpan {
	return mdast.LineSpan{Line: o.Line, Start: o.Start, End: o.Start + n}
}

// Hints are positional clues gathered from the rendered document. Nil fields
// are unknown.
type Hints struct {
	// SourceLine is the line tag of the nearest tagged ancestor.
	SourceLine *int

	// BlockContext is the visible text of the tightest enclosing block.
	BlockContext string

	// BlockOccurrenceIndex counts preceding sibling blocks holding the same text.
	BlockOccurrenceIndex *int

	// GlobalOccurrenceIndex counts earlier appearances of the text in the
	// rendered document's visible text.
	GlobalOccurrenceIndex *int
}

// Occurrences lists every appearance of selected in src, ordered by line then
// column. Wrapped appearances are reported once with their wrapper; a bare
// appearance directly bracketed by a known marker pair is not reported again.
// Within a line the scan does not overlap matches, the same way the preview
// counts occurrences in visible text.
func Occurrences(src Source, selected string) []Occurrence {
	if selected == "" {
		return nil
	}

	var out []Occurrence
	for line := range src.Count() {
		text := src.Text(line)
		if !strings.Contains(text, selected) {
			continue
		}

		for pos := 0; ; {
			idx := strings.Index(text[pos:], selected)
			if idx < 0 {
				break
			}
			start := pos + idx
			out = append(out, Occurrence{
				Line:    line,
				Start:   start,
				Wrapper: wrapperAt(text, start, start+len(selected)),
			})
			pos = start + len(selected)
		}
	}

	return lo.UniqBy(out, func(o Occurrence) mdast.Position {
		return mdast.Position{Line: o.Line, Column: o.Start}
	})
}

func wrapperAt(text string, start, end int) Wrapper {
	for _, p := range markerPairs {
		if strings.HasSuffix(text[:start], p.open) && strings.HasPrefix(text[end:], p.close) {
			return p.wrapper
		}
	}
	return WrapNone
}

// Resolve picks the single occurrence of selected the user meant. Hints are
// consulted in order, stopping at the first that settles the choice: the
// global occurrence index when in range, the block context (sub-disambiguated
// by line then by block occurrence index when several lines match), the
// source line, and finally the block occurrence index clamped to the
// candidates.
func Resolve(src Source, selected string, hints Hints) (mdast.LineSpan, error) {
	if selected == "" {
		return mdast.LineSpan{}, ErrEmptySelection
	}

	occs := Occurrences(src, selected)
	if len(occs) == 0 {
		return mdast.LineSpan{}, ErrNotFound
	}

	return pick(src, occs, hints).Span(len(selected)), nil
}

func pick(src Source, occs []Occurrence, hints Hints) Occurrence {
	if g := hints.GlobalOccurrenceIndex; g != nil && *g >= 0 && *g < len(occs) {
		return occs[*g]
	}

	if ctx := normalize(hints.BlockContext); utf8.RuneCountInString(ctx) >= minBlockContext {
		matches := lo.Filter(occs, func(o Occurrence, _ int) bool {
			return contextMatches(ctx, normalize(src.Text(o.Line)))
		})
		switch {
		case len(matches) == 1:
			return matches[0]
		case len(matches) > 1:
			if o, ok := onLine(matches, hints.SourceLine); ok {
				return o
			}
			return clampIndex(matches, hints.BlockOccurrenceIndex)
		}
	}

	if o, ok := onLine(occs, hints.SourceLine); ok {
		return o
	}
	return clampIndex(occs, hints.BlockOccurrenceIndex)
}

func onLine(occs []Occurrence, line *int) (Occurrence, bool) {
	if line == nil {
		return Occurrence{}, false
	}
	return lo.Find(occs, func(o Occurrence) bool { return o.Line == *line })
}

func clampIndex(occs []Occurrence, idx *int) Occurrence {
	i := 0
	if idx != nil {
		i = *idx
	}
	return occs[lo.Clamp(i, 0, len(occs)-1)]
}

func contextMatches(ctx, line string) bool {
	if line == "" {
		return false
	}
	if strings.Contains(ctx, line) {
		return true
	}
	prefix := ctx
	if r := []rune(ctx); len(r) > contextPrefix {
		prefix = string(r[:contextPrefix])
	}
	return strings.Contains(line, prefix)
}

// ResolveLoose is the fallback for deletes whose exact text was not found,
// for instance because rendering reflowed whitespace. Each non-blank line of
// the selection is matched, normalized, against the first source line in
// document order that contains it and has not been matched yet. The result
// lists the matched source lines in ascending order.
func ResolveLoose(src Source, selected string) ([]int, error) {
	used := make(map[int]bool)
	var matched []int

	for _, part := range strings.Split(selected, "\n") {
		want := normalize(part)
		if want == "" {
			continue
		}
		for line := range src.Count() {
			if used[line] {
				continue
			}
			if strings.Contains(normalize(src.Text(line)), want) {
				used[line] = true
				matched = append(matched, line)
				break
			}
		}
	}

	if len(matched) == 0 {
		return nil, ErrNotFound
	}
	slices.Sort(matched)
	return matched, nil
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	blockPrefix       = regexp.MustCompile(`^\s*(?:>\s*)*(?:#{1,6}\s+|[-*+]\s+(?:\[[ xX]\]\s+)?|\d+[.)]\s+)?`)
	inlineMarkupChars = strings.NewReplacer("**", "", "==", "", "::", "", "~~", "", "`", "", "|", "")
)

// normalize reduces text to what the preview would show, without whitespace,
// case folded, so source lines and rendered text compare equal.
func normalize(s string) string {
	s = blockPrefix.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, "")
	s = inlineMarkupChars.Replace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
