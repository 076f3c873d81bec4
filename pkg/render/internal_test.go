package render

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
)

func TestCodeBlockFailureDegradesOnlyThatBlock(t *testing.T) {
	t.Parallel()

	r := New(DefaultOptions())
	r.highlight = func(lang, _ string) (string, error) {
		if lang == "html" {
			panic("lexer exploded")
		}
		return "ok", nil
	}

	src := "before\n\n```html\n<b>x</b>\n```\n\n```go\nx\n```\n"
	res, err := r.Render(context.Background(), src, 0)
	require.NoError(t, err)

	assert.False(t, res.Degraded)
	require.Len(t, res.Failures, 1)
	require.ErrorIs(t, res.Failures[0], ErrHighlight)
	assert.Contains(t, res.HTML, `<p data-line="0">before</p>`)
	assert.Contains(t, res.HTML, `<pre class="chroma" data-line="2"><code class="language-html">&lt;b&gt;x&lt;/b&gt;`)
	assert.Contains(t, res.HTML, `<pre class="chroma" data-line="6"><code class="language-go">ok</code></pre>`)
}

func TestHighlightErrorDegrades(t *testing.T) {
	t.Parallel()

	r := New(DefaultOptions())
	r.highlight = func(string, string) (string, error) {
		return "", errors.New("bad token")
	}

	res, err := r.Render(context.Background(), "    a < b\n", 0)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.HTML, "a &lt; b")
}

func TestDegradedResult(t *testing.T) {
	t.Parallel()

	res := degraded("<x>\n", 7, errors.New("boom"))
	assert.True(t, res.Degraded)
	assert.Equal(t, "<pre class=\"render-error\" data-line=\"7\">&lt;x&gt;\n</pre>\n", res.HTML)
	assert.Equal(t, []Block{{Kind: BlockCode, Line: 7}}, res.Blocks)
}

func TestOffsetMap(t *testing.T) {
	t.Parallel()

	src := "a $x$ b\n$$\ny\n$$\nc"
	prepared, m, maths := protectMath(src)

	assert.Equal(t, "a %%INLINEMATH0%% b\n%%MATHBLOCK0%%\nc", prepared)
	require.Len(t, maths, 2)
	assert.Equal(t, mathSpan{display: false, tex: "x"}, maths[0])
	assert.Equal(t, mathSpan{display: true, tex: "\ny\n"}, maths[1])

	// Before, inside and after each placeholder.
	assert.Equal(t, 0, m.original(0))
	assert.Equal(t, 2, m.original(5))
	assert.Equal(t, len("a $x$ "), m.original(len("a %%INLINEMATH0%% ")))
	assert.Equal(t, len(src)-1, m.original(len(prepared)-1))
}

func TestProtectMathSkipsCode(t *testing.T) {
	t.Parallel()

	src := "```sh\necho $HOME $PATH\n```\nuse `$x$` here"
	prepared, _, maths := protectMath(src)
	assert.Equal(t, src, prepared)
	assert.Empty(t, maths)
}

func TestProtectMathSkipsIndentedCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"after paragraph", "text\n\n    price $5 and $10\n"},
		{"tab indent", "\tcost $1 or $2\n"},
		{"inside quote", "> text\n>\n>     a $b$ c\n"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			prepared, _, maths := protectMath(testCase.src)
			assert.Equal(t, testCase.src, prepared)
			assert.Empty(t, maths)
		})
	}

	// Indentation that continues a paragraph is not code.
	prepared, _, maths := protectMath("text\n    $x$\n")
	assert.NotEqual(t, "text\n    $x$\n", prepared)
	assert.Len(t, maths, 1)
}

func newBlocks(lines ...int) []*mappedBlock {
	out := make([]*mappedBlock, len(lines))
	for i, l := range lines {
		out[i] = &mappedBlock{node: ast.NewParagraph(), kind: BlockParagraph, line: l}
	}
	return out
}

func linesOf(blocks []*mappedBlock) []int {
	out := make([]int, len(blocks))
	for i, b := range blocks {
		out[i] = b.line
	}
	return out
}

func TestFillLines(t *testing.T) {
	t.Parallel()

	t.Run("no tags spreads evenly", func(t *testing.T) {
		t.Parallel()
		blocks := newBlocks(-1, -1, -1, -1)
		fillLines(blocks, 100, 107, false)
		assert.Equal(t, []int{100, 102, 104, 106}, linesOf(blocks))
		assert.True(t, blocks[0].filled)
	})

	t.Run("tagged chunk without gap fill is untouched", func(t *testing.T) {
		t.Parallel()
		blocks := newBlocks(-1, 5, -1)
		fillLines(blocks, 0, 10, false)
		assert.Equal(t, []int{-1, 5, -1}, linesOf(blocks))
	})

	t.Run("gap fill interpolates and keeps order", func(t *testing.T) {
		t.Parallel()
		blocks := newBlocks(-1, 4, -1, -1, 10, -1)
		fillLines(blocks, 0, 12, true)
		assert.Equal(t, []int{2, 4, 6, 8, 10, 11}, linesOf(blocks))
		assert.False(t, blocks[1].filled)
	})
}
