package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// ErrHighlight wraps failures of the syntax highlighter.
var ErrHighlight = errors.New("highlight failed")

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

type highlightFunc func(lang, code string) (string, error)

// codeRenderer renders code blocks through chroma. A block that fails to
// highlight is emitted as escaped text and the failure is recorded.
type codeRenderer struct {
	detect    bool
	highlight highlightFunc
	failures  *[]error
}

func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFenced)
	reg.Register(ast.KindCodeBlock, r.renderIndented)
}

func (r *codeRenderer) renderFenced(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	code := codeText(n, source)
	lang := strings.ToLower(string(n.Language(source)))

	switch lang {
	case "math", "latex", "tex":
		_, _ = w.WriteString(`<div class="math display"`)
		writeDataLine(w, n)
		_, _ = w.WriteString(`>\[`)
		_, _ = w.WriteString(html.EscapeString(strings.TrimSpace(code)))
		_, _ = w.WriteString("\\]</div>\n")
		return ast.WalkSkipChildren, nil
	case "mermaid":
		_, _ = w.WriteString(`<pre class="mermaid"`)
		writeDataLine(w, n)
		_ = w.WriteByte('>')
		_, _ = w.WriteString(html.EscapeString(code))
		_, _ = w.WriteString("</pre>\n")
		return ast.WalkSkipChildren, nil
	}

	if lang == "" && r.detect {
		lang = DetectLanguage([]byte(code))
	}
	r.write(w, n, lang, code)
	return ast.WalkSkipChildren, nil
}

func (r *codeRenderer) renderIndented(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	code := codeText(n, source)
	lang := ""
	if r.detect {
		lang = DetectLanguage([]byte(code))
	}
	r.write(w, n, lang, code)
	return ast.WalkSkipChildren, nil
}

func (r *codeRenderer) write(w util.BufWriter, n ast.Node, lang, code string) {
	body, err := r.safeHighlight(lang, code)
	if err != nil {
		if r.failures != nil {
			*r.failures = append(*r.failures, err)
		}
		body = html.EscapeString(code)
	}

	_, _ = w.WriteString(`<pre class="chroma"`)
	writeDataLine(w, n)
	_, _ = w.WriteString("><code")
	if lang != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.WriteString(html.EscapeString(lang))
		_ = w.WriteByte('"')
	}
	_ = w.WriteByte('>')
	_, _ = w.WriteString(body)
	_, _ = w.WriteString("</code></pre>\n")
}

func (r *codeRenderer) safeHighlight(lang, code string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: %v", ErrHighlight, lang, p)
		}
	}()
	return r.highlight(lang, code)
}

// chromaHighlighter returns a highlightFunc for the named style.
func chromaHighlighter(styleName string) highlightFunc {
	style := styles.Get(styleName)
	formatter := chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true))

	return func(lang, code string) (string, error) {
		var lexer chroma.Lexer
		if lang != "" {
			lexer = lexers.Get(lang)
		}
		if lexer == nil {
			return html.EscapeString(code), nil
		}

		it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrHighlight, lang, err)
		}
		var buf bytes.Buffer
		if err := formatter.Format(&buf, style, it); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrHighlight, lang, err)
		}
		return buf.String(), nil
	}
}

// HighlightCSS returns the stylesheet for the classes chroma emits.
func HighlightCSS(styleName string) string {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(styleName)); err != nil {
		return ""
	}
	return buf.String()
}

func codeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

func writeDataLine(w util.BufWriter, n ast.Node) {
	v, ok := n.AttributeString(dataLineAttr)
	if !ok {
		return
	}
	if b, ok := v.([]byte); ok {
		_, _ = w.WriteString(` data-line="`)
		_, _ = w.Write(b)
		_ = w.WriteByte('"')
	}
}
