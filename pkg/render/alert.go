package render

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

const alertAttr = "data-alert"

var alertPattern = regexp.MustCompile(`(?i)^\s*\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\]\s*$`)

// markAlerts finds blockquotes opening with a [!KIND] line, records the kind
// on the blockquote and drops the marker line from its first paragraph.
func markAlerts(doc ast.Node, source []byte) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindBlockquote {
			return ast.WalkContinue, nil
		}
		para, ok := n.FirstChild().(*ast.Paragraph)
		if !ok || para.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		first := para.Lines().At(0)
		m := alertPattern.FindSubmatch(first.Value(source))
		if m == nil {
			return ast.WalkContinue, nil
		}

		n.SetAttributeString(alertAttr, []byte(strings.ToLower(string(m[1]))))
		dropFirstLine(para, first.Stop)
		if para.FirstChild() == nil {
			n.RemoveChild(n, para)
		}
		return ast.WalkContinue, nil
	})
}

// dropFirstLine removes the inline nodes that start before stop, the end of
// the paragraph's first line.
func dropFirstLine(para ast.Node, stop int) {
	for c := para.FirstChild(); c != nil; {
		next := c.NextSibling()
		if offset, ok := firstSegment(c); ok && offset >= stop {
			return
		}
		para.RemoveChild(para, c)
		c = next
	}
}

type blockquoteRenderer struct{}

func (r *blockquoteRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindBlockquote, r.render)
}

func (r *blockquoteRenderer) render(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	v, isAlert := n.AttributeString(alertAttr)
	kind, _ := v.([]byte)

	if !isAlert {
		if entering {
			_, _ = w.WriteString("<blockquote")
			if n.Attributes() != nil {
				html.RenderAttributes(w, n, html.BlockquoteAttributeFilter)
			}
			_, _ = w.WriteString(">\n")
		} else {
			_, _ = w.WriteString("</blockquote>\n")
		}
		return ast.WalkContinue, nil
	}

	if !entering {
		_, _ = w.WriteString("</div>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="markdown-alert markdown-alert-`)
	_, _ = w.Write(kind)
	_ = w.WriteByte('"')
	writeDataLine(w, n)
	_, _ = w.WriteString(">\n")
	_, _ = w.WriteString(`<p class="markdown-alert-title">`)
	_, _ = w.WriteString(alertTitle(string(kind)))
	_, _ = w.WriteString("</p>\n")
	return ast.WalkContinue, nil
}

func alertTitle(kind string) string {
	if kind == "" {
		return ""
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}
