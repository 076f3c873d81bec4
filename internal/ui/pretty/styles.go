// Package pretty provides Lipgloss-based styled output for the mdsync CLI:
// banners, summaries, diffs and the block table.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles contains all styled renderers for CLI output.
type Styles struct {
	// Notice levels
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	FilePath lipgloss.Style
	Location lipgloss.Style
	Message  lipgloss.Style
	URL      lipgloss.Style

	DiffHeader  lipgloss.Style
	DiffHunk    lipgloss.Style
	DiffAdd     lipgloss.Style
	DiffRemove  lipgloss.Style
	DiffContext lipgloss.Style

	SummaryTitle lipgloss.Style
	SummaryValue lipgloss.Style
	Success      lipgloss.Style
	Failure      lipgloss.Style

	TableHeader    lipgloss.Style
	TableFilled    lipgloss.Style // interpolated line
	TableUntagged  lipgloss.Style
	TableSeparator lipgloss.Style

	Dim  lipgloss.Style
	Bold lipgloss.Style
}

// palette holds the ANSI colors the styles are built from.
type palette struct {
	red, green, yellow, blue, cyan, grey, white lipgloss.Color
}

//nolint:gochecknoglobals // fixed color table
var ansiPalette = palette{
	red:    "9",
	green:  "10",
	yellow: "11",
	blue:   "12",
	cyan:   "14",
	grey:   "8",
	white:  "7",
}

// NewStyles creates a new Styles with the given color mode.
func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		return buildStyles(nil)
	}
	return buildStyles(&ansiPalette)
}

// buildStyles derives every style from p. A nil palette yields plain styles
// that render text unchanged.
func buildStyles(p *palette) *Styles {
	plain := lipgloss.NewStyle()
	fg := func(c func(*palette) lipgloss.Color) lipgloss.Style {
		if p == nil {
			return plain
		}
		return plain.Foreground(c(p))
	}
	bold := plain
	if p != nil {
		bold = plain.Bold(true)
	}

	red := func(p *palette) lipgloss.Color { return p.red }
	green := func(p *palette) lipgloss.Color { return p.green }
	yellow := func(p *palette) lipgloss.Color { return p.yellow }
	blue := func(p *palette) lipgloss.Color { return p.blue }
	cyan := func(p *palette) lipgloss.Color { return p.cyan }
	grey := func(p *palette) lipgloss.Color { return p.grey }
	white := func(p *palette) lipgloss.Color { return p.white }

	s := &Styles{
		Error:   fg(red).Inherit(bold),
		Warning: fg(yellow).Inherit(bold),
		Info:    fg(blue).Inherit(bold),

		FilePath: bold,
		Location: fg(grey),
		Message:  plain,
		URL:      fg(cyan),

		DiffHeader:  bold,
		DiffHunk:    fg(cyan),
		DiffAdd:     fg(green),
		DiffRemove:  fg(red),
		DiffContext: fg(grey),

		SummaryTitle: bold,
		SummaryValue: plain,
		Success:      fg(green).Inherit(bold),
		Failure:      fg(red).Inherit(bold),

		TableHeader:    fg(white).Inherit(bold),
		TableFilled:    fg(yellow),
		TableUntagged:  fg(red),
		TableSeparator: fg(grey),

		Dim:  fg(grey),
		Bold: bold,
	}
	if p != nil {
		s.URL = s.URL.Underline(true)
	}
	return s
}

// IsColorEnabled reports whether output to writer should be colored.
// Mode is "always", "never", or "auto": a terminal writer with NO_COLOR unset.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}

	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
