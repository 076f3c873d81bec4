package chunk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/pkg/chunk"
)

var smallSplit = chunk.SplitOptions{SingleChunkThreshold: 5, TargetLines: 4}

func requirePartition(t *testing.T, text string, chunks []chunk.Chunk) {
	t.Helper()

	require.NotEmpty(t, chunks)
	assert.Equal(t, 0, chunks[0].StartLine)
	assert.Equal(t, strings.Count(text, "\n"), chunks[len(chunks)-1].EndLine)

	var sb strings.Builder
	for i, c := range chunks {
		require.LessOrEqual(t, c.StartLine, c.EndLine, "chunk %d", i)
		if i > 0 {
			require.Equal(t, chunks[i-1].EndLine+1, c.StartLine, "chunk %d", i)
		}
		sb.WriteString(c.Text)
	}
	require.Equal(t, text, sb.String())
}

func startLines(chunks []chunk.Chunk) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = c.StartLine
	}
	return out
}

func TestSplitSmallDocumentIsOneChunk(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("line\n\n", 100)
	chunks := chunk.Split(text, chunk.DefaultSplitOptions())

	require.Len(t, chunks, 1)
	assert.Equal(t, chunk.Chunk{StartLine: 0, EndLine: 200, Text: text}, chunks[0])
}

func TestSplitEmptyDocument(t *testing.T) {
	t.Parallel()

	chunks := chunk.Split("", chunk.DefaultSplitOptions())
	assert.Equal(t, []chunk.Chunk{{StartLine: 0, EndLine: 0, Text: ""}}, chunks)
}

func TestSplitLargeDocument(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := range 400 {
		sb.WriteString("# Section\n\nSome text for the section.\nMore text.\n\n")
		if i%7 == 0 {
			sb.WriteString("```go\nfunc f() {}\n\n// blank above\n```\n\n")
		}
	}
	text := sb.String()

	chunks := chunk.Split(text, chunk.DefaultSplitOptions())
	requirePartition(t, text, chunks)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks[:len(chunks)-1] {
		assert.GreaterOrEqual(t, c.Lines(), chunk.DefaultTargetLines)
		assert.Equal(t, 0, strings.Count(c.Text, "```")%2, "fence cut at line %d", c.EndLine)
	}
}

func TestSplitBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []string
		want  []int
	}{
		{
			name:  "after blank lines",
			lines: []string{"A1", "A2", "A3", "A4", "", "B1", "B2", "B3", "B4", "", "C1", "C2", "C3", "C4", ""},
			want:  []int{0, 5, 10},
		},
		{
			name:  "before a heading",
			lines: []string{"a", "b", "c", "d", "# H", "e", "f"},
			want:  []int{0, 4},
		},
		{
			name:  "not inside a fence",
			lines: []string{"a", "b", "c", "```", "x", "", "y", "", "```", "", "d", "e", "", "# H", "f"},
			want:  []int{0, 10},
		},
		{
			name:  "not inside display math",
			lines: []string{"a", "b", "c", "$$", "x", "", "# y", "$$", "", "d"},
			want:  []int{0, 9},
		},
		{
			name:  "one-line math does not open a block",
			lines: []string{"a", "$$x$$", "c", "d", "", "e", "f"},
			want:  []int{0, 5},
		},
		{
			name:  "no safe line keeps one chunk",
			lines: []string{"a", "b", "c", "d", "e", "f", "g"},
			want:  []int{0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			text := strings.Join(tc.lines, "\n")
			chunks := chunk.Split(text, smallSplit)
			requirePartition(t, text, chunks)
			assert.Equal(t, tc.want, startLines(chunks))
		})
	}
}

func FuzzSplitPartition(f *testing.F) {
	f.Add("a\n\nb\n\n# c\nd\n\n```\n\n```\n\n$$\n\n$$\n")
	f.Add(strings.Repeat("para A\n\n", 10))
	f.Add("\r\n\r\n# x\r\n\r\n")
	f.Add("~~~\n```\n~~~\n\n")

	f.Fuzz(func(t *testing.T, text string) {
		chunks := chunk.Split(text, chunk.SplitOptions{SingleChunkThreshold: 2, TargetLines: 3})
		requirePartition(t, text, chunks)
	})
}
