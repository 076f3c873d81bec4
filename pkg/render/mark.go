package render

import (
	"strconv"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMark is the node kind of Mark.
var KindMark = gast.NewNodeKind("Mark")

// Mark is an inline highlight: ==text== or, when Red is set, ::text::.
type Mark struct {
	gast.BaseInline
	Red bool
}

// Kind implements ast.Node.
func (n *Mark) Kind() gast.NodeKind {
	return KindMark
}

// Dump implements ast.Node.
func (n *Mark) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Red": strconv.FormatBool(n.Red)}, nil)
}

// markDelimiters handles one delimiter character. Each character gets its own
// processor so a match knows which kind of mark it closes.
type markDelimiters struct {
	char byte
	red  bool
}

func (p *markDelimiters) IsDelimiter(b byte) bool {
	return b == p.char
}

func (p *markDelimiters) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *markDelimiters) OnMatch(int) gast.Node {
	return &Mark{Red: p.red}
}

type markParser struct {
	delims *markDelimiters
}

func (s *markParser) Trigger() []byte {
	return []byte{s.delims.char}
}

// Parse accepts exactly two delimiter characters; runs of one or three and
// more stay literal text.
func (s *markParser) Parse(_ gast.Node, block text.Reader, pc parser.Context) gast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 2, s.delims)
	if node == nil || node.OriginalLength != 2 || before == rune(s.delims.char) {
		return nil
	}

	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

func (s *markParser) CloseBlock(gast.Node, parser.Context) {}

type markRenderer struct{}

func (r *markRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMark, r.renderMark)
}

func (r *markRenderer) renderMark(w util.BufWriter, _ []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</mark>")
		return gast.WalkContinue, nil
	}

	_, _ = w.WriteString("<mark")
	if n.(*Mark).Red {
		_, _ = w.WriteString(` class="red-highlight"`)
	}
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, html.GlobalAttributeFilter)
	}
	_ = w.WriteByte('>')
	return gast.WalkContinue, nil
}

type markExtension struct{}

// MarkExtension enables ==highlight== and ::red highlight:: syntax.
var MarkExtension goldmark.Extender = &markExtension{}

func (e *markExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&markParser{delims: &markDelimiters{char: '='}}, 500),
		util.Prioritized(&markParser{delims: &markDelimiters{char: ':', red: true}}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&markRenderer{}, 500),
	))
}
