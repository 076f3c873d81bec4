package render

import (
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	mathBlockPrefix  = "%%MATHBLOCK"
	inlineMathPrefix = "%%INLINEMATH"
	placeholderEnd   = "%%"
)

// codeParser finds code in unprepared text. It has no extensions so that
// only code constructs matter.
var codeParser = goldmark.DefaultParser()

var (
	displayMathPattern = regexp.MustCompile(`\$\$([^$]+)\$\$`)
	inlineMathPattern  = regexp.MustCompile(`\$([^$\n]+)\$`)

	// A display placeholder alone in a paragraph replaces the paragraph.
	mathParagraphPattern = regexp.MustCompile(`<p([^>]*)>` + mathBlockPrefix + `(\d+)` + placeholderEnd + `</p>`)
	mathBlockRestore     = regexp.MustCompile(mathBlockPrefix + `(\d+)` + placeholderEnd)
	inlineMathRestore    = regexp.MustCompile(inlineMathPrefix + `(\d+)` + placeholderEnd)
)

type mathSpan struct {
	display bool
	tex     string
}

// substitution records one placeholder: the byte ranges it occupies in the
// prepared text and in the original text.
type substitution struct {
	prepStart, prepEnd int
	origStart, origEnd int
}

// offsetMap translates offsets in prepared text back to the original.
type offsetMap struct {
	subs []substitution
}

// original maps a prepared-text offset to the original text. Offsets inside a
// placeholder map to the start of the formula it replaced.
func (m *offsetMap) original(offset int) int {
	delta := 0
	for _, s := range m.subs {
		if offset < s.prepStart {
			break
		}
		if offset < s.prepEnd {
			return s.origStart
		}
		delta = s.origEnd - s.prepEnd
	}
	return offset + delta
}

type span struct{ start, end int }

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

// protectMath swaps $$display$$ and $inline$ formulas for opaque placeholders
// so the markdown parser does not interpret their contents. Formulas inside
// code blocks and code spans are left alone.
func protectMath(src string) (string, *offsetMap, []mathSpan) {
	if !strings.Contains(src, "$") {
		return src, &offsetMap{}, nil
	}

	skip := codeRegions(src)

	type match struct {
		span
		display bool
		tex     string
	}
	var found []match

	for _, loc := range displayMathPattern.FindAllStringSubmatchIndex(src, -1) {
		if overlaps(skip, loc[0], loc[1]) {
			continue
		}
		found = append(found, match{span{loc[0], loc[1]}, true, src[loc[2]:loc[3]]})
	}
	taken := make([]span, 0, len(skip)+len(found))
	taken = append(taken, skip...)
	for _, f := range found {
		taken = append(taken, f.span)
	}
	for _, loc := range inlineMathPattern.FindAllStringSubmatchIndex(src, -1) {
		if overlaps(taken, loc[0], loc[1]) {
			continue
		}
		found = append(found, match{span{loc[0], loc[1]}, false, src[loc[2]:loc[3]]})
	}
	if len(found) == 0 {
		return src, &offsetMap{}, nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })

	var sb strings.Builder
	sb.Grow(len(src))
	m := &offsetMap{subs: make([]substitution, 0, len(found))}
	maths := make([]mathSpan, 0, len(found))
	displayN, inlineN := 0, 0
	cursor := 0

	for _, f := range found {
		sb.WriteString(src[cursor:f.start])

		var ph string
		if f.display {
			ph = mathBlockPrefix + strconv.Itoa(displayN) + placeholderEnd
			displayN++
		} else {
			ph = inlineMathPrefix + strconv.Itoa(inlineN) + placeholderEnd
			inlineN++
		}
		start := sb.Len()
		sb.WriteString(ph)
		m.subs = append(m.subs, substitution{
			prepStart: start,
			prepEnd:   sb.Len(),
			origStart: f.start,
			origEnd:   f.end,
		})
		maths = append(maths, mathSpan{display: f.display, tex: f.tex})
		cursor = f.end
	}
	sb.WriteString(src[cursor:])

	return sb.String(), m, maths
}

// restoreMath puts formulas back into rendered HTML as escaped TeX inside
// elements a client-side typesetter picks up.
func restoreMath(out string, maths []mathSpan) string {
	if len(maths) == 0 {
		return out
	}

	var display, inline []string
	for _, m := range maths {
		if m.display {
			display = append(display, m.tex)
		} else {
			inline = append(inline, m.tex)
		}
	}

	lookup := func(list []string, idx string) (string, bool) {
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(list) {
			return "", false
		}
		return html.EscapeString(strings.TrimSpace(list[i])), true
	}

	out = mathParagraphPattern.ReplaceAllStringFunc(out, func(s string) string {
		sub := mathParagraphPattern.FindStringSubmatch(s)
		tex, ok := lookup(display, sub[2])
		if !ok {
			return s
		}
		return `<div class="math display"` + sub[1] + `>\[` + tex + `\]</div>`
	})
	out = mathBlockRestore.ReplaceAllStringFunc(out, func(s string) string {
		tex, ok := lookup(display, mathBlockRestore.FindStringSubmatch(s)[1])
		if !ok {
			return s
		}
		return `<span class="math display">\[` + tex + `\]</span>`
	})
	out = inlineMathRestore.ReplaceAllStringFunc(out, func(s string) string {
		tex, ok := lookup(inline, inlineMathRestore.FindStringSubmatch(s)[1])
		if !ok {
			return s
		}
		return `<span class="math inline">\(` + tex + `\)</span>`
	})
	return out
}

// codeRegions returns the byte ranges of code blocks and code spans, as a
// plain CommonMark parse of src sees them.
func codeRegions(src string) []span {
	var regions []span

	doc := codeParser.Parse(text.NewReader([]byte(src)))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			if lines := n.Lines(); lines.Len() > 0 {
				regions = append(regions, span{lines.At(0).Start, lines.At(lines.Len() - 1).Stop})
			}
			return ast.WalkSkipChildren, nil
		case ast.KindCodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					regions = append(regions, span{t.Segment.Start, t.Segment.Stop})
				}
			}
			return ast.WalkSkipChildren, nil
		default:
			return ast.WalkContinue, nil
		}
	})
	return regions
}
