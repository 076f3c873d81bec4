package pretty_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/internal/ui/pretty"
	"github.com/yaklabco/mdsync/pkg/edit"
)

func TestFormatNotice(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)

	assert.Equal(t, "warning  selected text not found\n",
		styles.FormatNotice(pretty.LevelWarning, "selected text not found"))
	assert.Equal(t, "error  export failed\n    no browser\n",
		styles.FormatNotice(pretty.LevelError, "export failed\nno browser\n"))
	assert.Equal(t, "debug", styles.FormatLevel("debug"))
}

func TestFormatLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "doc.md:3", pretty.NewStyles(false).FormatLocation("doc.md", 2))
}

func TestFormatDiff(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	diff := edit.GenerateDiff("doc.md", "a\nb\nc\n", "a\n**b**\nc\n")

	out := styles.FormatDiff(diff)
	assert.True(t, strings.HasPrefix(out, "diff --git a/doc.md b/doc.md\n--- a/doc.md\n+++ b/doc.md\n@@ -"), out)
	assert.Contains(t, out, "\n-b\n")
	assert.Contains(t, out, "\n+**b**\n")
	assert.Contains(t, out, "\n a\n")

	assert.Equal(t, "1 file changed, 1 insertion(+), 1 deletion(-)", styles.FormatDiffStat(diff))
}

func TestFormatDiff_NoChanges(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	diff := edit.GenerateDiff("doc.md", "same\n", "same\n")

	assert.Empty(t, styles.FormatDiff(diff))
	assert.Empty(t, styles.FormatDiff(nil))
	assert.Equal(t, "no changes", styles.FormatDiffStat(diff, nil))
}

func TestFormatServeBanner(t *testing.T) {
	t.Parallel()

	out := pretty.NewStyles(false).FormatServeBanner(pretty.ServeSummary{
		URL:    "http://127.0.0.1:7878/",
		Path:   "README.md",
		Lines:  1234,
		Chunks: 3,
	})

	assert.Contains(t, out, "Preview:   http://127.0.0.1:7878/")
	assert.Contains(t, out, "README.md (1,234 lines, 3 chunks)")
	assert.NotContains(t, out, "State:")
}

func TestFormatRenderSummary(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)

	clean := styles.FormatRenderSummary(pretty.RenderSummary{Lines: 10, Chunks: 1, Blocks: 4, Bytes: 2048})
	assert.Contains(t, clean, "HTML size:     2.0 kB")
	assert.NotContains(t, clean, "Untagged")
	assert.True(t, strings.HasSuffix(clean, "Rendered\n"))

	degraded := styles.FormatRenderSummary(pretty.RenderSummary{Blocks: 4, Untagged: 1, Filled: 2, Failures: 1})
	assert.Contains(t, degraded, "Filled:      2")
	assert.Contains(t, degraded, "Untagged:    1")
	assert.Contains(t, degraded, "Rendered with 1 block degraded")

	same := styles.FormatRenderSummary(pretty.RenderSummary{Blocks: 1, Unchanged: true})
	assert.True(t, strings.HasSuffix(same, "Rendered (output unchanged)\n"))
}

func TestFormatExportSummary(t *testing.T) {
	t.Parallel()

	out := pretty.NewStyles(false).FormatExportSummary("doc.pdf", 1500, 1500*time.Millisecond)
	assert.Equal(t, "Exported doc.pdf (1.5 kB in 1.5s)\n", out)
}

func TestFormatBlockTable(t *testing.T) {
	t.Parallel()

	table := pretty.NewTableFormatter(pretty.NewStyles(false), 80)
	out := table.FormatBlockTable([]pretty.BlockRow{
		{Line: 0, Kind: "heading", Source: "# Title"},
		{Line: 4, Kind: "paragraph", Source: "filled", Filled: true},
		{Line: -1, Kind: "list-item", Source: "lost"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "LINE")
	assert.Contains(t, lines[2], "    1  heading")
	assert.Contains(t, lines[3], "   ~5  paragraph")
	assert.Contains(t, lines[4], "    -  list-item")
}

func TestFormatBlockTable_TruncatesSource(t *testing.T) {
	t.Parallel()

	table := pretty.NewTableFormatter(pretty.NewStyles(false), 60)
	out := table.FormatBlockTable([]pretty.BlockRow{
		{Line: 0, Kind: "paragraph", Source: strings.Repeat("x", 200)},
	})

	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("x", 100))
}

func TestFormatBlockTable_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no blocks\n", pretty.NewTableFormatter(pretty.NewStyles(false), 0).FormatBlockTable(nil))
}
