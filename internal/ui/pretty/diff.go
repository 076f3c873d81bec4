package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/mdsync/pkg/edit"
)

// FormatDiff renders a unified diff in git style with colored lines.
// A diff without changes renders as an empty string.
func (s *Styles) FormatDiff(diff *edit.Diff) string {
	if diff == nil || !diff.HasChanges() {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(s.DiffHeader.Render(fmt.Sprintf("diff --git a/%s b/%s", diff.Path, diff.Path)) + "\n")
	builder.WriteString(s.DiffRemove.Render("--- a/"+diff.Path) + "\n")
	builder.WriteString(s.DiffAdd.Render("+++ b/"+diff.Path) + "\n")

	for _, hunk := range diff.Hunks {
		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@",
			hunk.OriginalStart, hunk.OriginalCount, hunk.ModifiedStart, hunk.ModifiedCount)
		builder.WriteString(s.DiffHunk.Render(header) + "\n")

		for _, line := range hunk.Lines {
			text := line.Kind.Prefix() + line.Content
			switch line.Kind {
			case edit.DiffAdd:
				text = s.DiffAdd.Render(text)
			case edit.DiffRemove:
				text = s.DiffRemove.Render(text)
			default:
				text = s.DiffContext.Render(text)
			}
			builder.WriteString(text + "\n")
		}
	}

	return builder.String()
}

// FormatDiffStat formats the one-line change count for a diff,
// e.g. "1 file changed, 2 insertions(+), 1 deletion(-)".
func (s *Styles) FormatDiffStat(diffs ...*edit.Diff) string {
	var files, additions, deletions int
	for _, d := range diffs {
		if d == nil || !d.HasChanges() {
			continue
		}
		files++
		additions += d.Additions
		deletions += d.Deletions
	}
	if files == 0 {
		return s.Dim.Render("no changes")
	}

	parts := []string{plural(files, "file") + " changed"}
	if additions > 0 {
		parts = append(parts, s.DiffAdd.Render(plural(additions, "insertion")+"(+)"))
	}
	if deletions > 0 {
		parts = append(parts, s.DiffRemove.Render(plural(deletions, "deletion")+"(-)"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
