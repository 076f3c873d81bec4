package logging

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// SnippetWidth is the display width selected text is cut to in log lines.
const SnippetWidth = 40

// Snippet flattens s to one line and truncates it to SnippetWidth display
// cells, so wide characters and long selections keep log lines readable.
func Snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, SnippetWidth, "…")
}
