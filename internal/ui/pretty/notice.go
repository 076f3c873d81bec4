package pretty

import (
	"fmt"
	"strings"
)

// Notice levels, matching the preview protocol.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// FormatLevel returns a styled level name.
func (s *Styles) FormatLevel(level string) string {
	switch level {
	case LevelError:
		return s.Error.Render("error")
	case LevelWarning:
		return s.Warning.Render("warning")
	case LevelInfo:
		return s.Info.Render("info")
	default:
		return level
	}
}

// FormatNotice formats a notice for terminal output.
// Multi-line text is indented under the first line.
func (s *Styles) FormatNotice(level, text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s  %s\n", s.FormatLevel(level), s.Message.Render(lines[0])))
	for _, line := range lines[1:] {
		builder.WriteString("    " + s.Dim.Render(line) + "\n")
	}
	return builder.String()
}

// FormatLocation formats path:line with a 1-based line number.
func (s *Styles) FormatLocation(path string, line int) string {
	return s.FilePath.Render(path) + s.Location.Render(fmt.Sprintf(":%d", line+1))
}
