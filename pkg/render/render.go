// Package render turns markdown chunks into HTML whose block elements carry
// the source line they came from.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/yaklabco/mdsync/pkg/mdast"
)

// Options configure a Renderer.
type Options struct {
	// Style is the chroma style for code blocks.
	Style string

	// DetectLanguage guesses the language of code blocks without one.
	DetectLanguage bool

	// HardWraps renders single newlines inside paragraphs as line breaks.
	HardWraps bool

	// FillGaps gives interpolated lines to untagged blocks between tagged ones.
	FillGaps bool
}

// DefaultOptions returns the default renderer options.
func DefaultOptions() Options {
	return Options{
		Style:          DefaultStyle,
		DetectLanguage: true,
		HardWraps:      true,
	}
}

// Block describes one rendered block element.
type Block struct {
	Kind string

	// Line is the absolute source line, or -1 when the element is untagged.
	Line int

	// Filled is set when Line came from the fallback pass rather than from
	// the source.
	Filled bool
}

// Result is a rendered chunk.
type Result struct {
	HTML   string
	Blocks []Block

	// Failures lists per-block problems that degraded to escaped text.
	Failures []error

	// Degraded is set when the whole chunk failed and HTML is an escaped
	// copy of the source.
	Degraded bool
}

// Tagged returns the lines of the tagged blocks in emission order.
func (r *Result) Tagged() []int {
	lines := make([]int, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		if b.Line >= 0 {
			lines = append(lines, b.Line)
		}
	}
	return lines
}

// Renderer renders markdown chunks. It is safe for concurrent use.
type Renderer struct {
	opts      Options
	highlight highlightFunc
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	if opts.Style == "" {
		opts.Style = DefaultStyle
	}
	return &Renderer{
		opts:      opts,
		highlight: chromaHighlighter(opts.Style),
	}
}

// Options returns the renderer options.
func (r *Renderer) Options() Options {
	return r.opts
}

// newMarkdown builds the goldmark instance for one render. Failures of
// individual code blocks are appended to failures.
//
//nolint:ireturn // goldmark.Markdown is an external interface type
func (r *Renderer) newMarkdown(failures *[]error) goldmark.Markdown {
	htmlOpts := []renderer.Option{gmhtml.WithUnsafe()}
	if r.opts.HardWraps {
		htmlOpts = append(htmlOpts, gmhtml.WithHardWraps())
	}

	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, MarkExtension),
		goldmark.WithRendererOptions(htmlOpts...),
		goldmark.WithRendererOptions(renderer.WithNodeRenderers(
			util.Prioritized(&codeRenderer{
				detect:    r.opts.DetectLanguage,
				highlight: r.highlight,
				failures:  failures,
			}, 100),
			util.Prioritized(&blockquoteRenderer{}, 100),
		)),
	)
}

// Render converts chunkText to HTML. lineOffset is the absolute line of the
// chunk's first line and is added to every tag.
//
// Render does not panic: a failure of the whole chunk yields an escaped
// <pre> of the source with Degraded set. The only error returned is the
// context's.
func (r *Renderer) Render(ctx context.Context, chunkText string, lineOffset int) (res *Result, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			res = degraded(chunkText, lineOffset, fmt.Errorf("render panic: %v", p))
			err = nil
		}
	}()

	prepared, offsets, maths := protectMath(chunkText)
	src := []byte(prepared)
	lines := mdast.BuildLines(chunkText)

	var failures []error
	md := r.newMarkdown(&failures)
	doc := md.Parser().Parse(text.NewReader(src))

	markAlerts(doc, src)

	mapper := newLineMapper(src, offsets, lines, lineOffset)
	blocks := mapper.mapDocument(doc)
	fillLines(blocks, lineOffset, lineOffset+lines.Count()-1, r.opts.FillGaps)

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, doc); err != nil {
		return degraded(chunkText, lineOffset, fmt.Errorf("render chunk: %w", err)), nil
	}

	res = &Result{
		HTML:     restoreMath(buf.String(), maths),
		Blocks:   make([]Block, 0, len(blocks)),
		Failures: failures,
	}
	for _, b := range blocks {
		res.Blocks = append(res.Blocks, Block{Kind: b.kind, Line: b.line, Filled: b.filled})
	}
	return res, nil
}

func degraded(chunkText string, lineOffset int, cause error) *Result {
	return &Result{
		HTML: fmt.Sprintf("<pre class=\"render-error\" data-line=\"%d\">%s</pre>\n",
			lineOffset, html.EscapeString(chunkText)),
		Blocks:   []Block{{Kind: BlockCode, Line: lineOffset}},
		Failures: []error{cause},
		Degraded: true,
	}
}
