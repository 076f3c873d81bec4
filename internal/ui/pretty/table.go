package pretty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Table formatting constants.
const (
	tablePadding     = 2
	tableColumnCount = 3 // LINE, KIND, SOURCE
	filledSymbol     = "~"
	minLineWidth     = 5
	minKindWidth     = 10
	minSourceWidth   = 30
	lightSeparator   = "-"
	defaultTermWidth = 100
)

// BlockRow is one rendered block in the line map table.
type BlockRow struct {
	// Line is 0-based, or -1 when the block carries no line.
	Line   int
	Kind   string
	Source string
	Filled bool
}

// TableFormatter formats the line map of a rendered document.
type TableFormatter struct {
	styles    *Styles
	termWidth int
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(styles *Styles, termWidth int) *TableFormatter {
	if termWidth <= 0 {
		termWidth = defaultTermWidth
	}
	return &TableFormatter{
		styles:    styles,
		termWidth: termWidth,
	}
}

type columnWidths struct {
	line   int
	kind   int
	source int
}

// FormatBlockTable formats rows as a table of LINE, KIND and SOURCE columns.
// Lines are shown 1-based; filled lines are marked and untagged blocks show "-".
func (t *TableFormatter) FormatBlockTable(rows []BlockRow) string {
	if len(rows) == 0 {
		return t.styles.Dim.Render("no blocks") + "\n"
	}

	widths := t.calculateColumnWidths(rows)

	var builder strings.Builder
	builder.WriteString(t.formatHeader(widths) + "\n")
	builder.WriteString(t.formatSeparator(widths) + "\n")
	for _, row := range rows {
		builder.WriteString(t.formatRow(row, widths) + "\n")
	}
	builder.WriteString(t.formatSeparator(widths) + "\n")
	builder.WriteString(t.styles.Dim.Render(filledSymbol+" line interpolated, - no line") + "\n")

	return builder.String()
}

func (t *TableFormatter) calculateColumnWidths(rows []BlockRow) columnWidths {
	widths := columnWidths{
		line:   minLineWidth,
		kind:   minKindWidth,
		source: minSourceWidth,
	}

	for _, row := range rows {
		widths.line = max(widths.line, len(lineLabel(row)))
		widths.kind = max(widths.kind, runewidth.StringWidth(row.Kind))
		widths.source = max(widths.source, runewidth.StringWidth(row.Source))
	}

	total := widths.line + widths.kind + widths.source + tablePadding*tableColumnCount
	if total > t.termWidth {
		widths.source = max(minSourceWidth, widths.source-(total-t.termWidth))
	}
	return widths
}

func (t *TableFormatter) formatHeader(widths columnWidths) string {
	header := fmt.Sprintf(" %*s  %-*s  %-*s",
		widths.line, "LINE",
		widths.kind, "KIND",
		widths.source, "SOURCE",
	)
	return t.styles.TableHeader.Render(header)
}

func (t *TableFormatter) formatSeparator(widths columnWidths) string {
	total := widths.line + widths.kind + widths.source + tablePadding*tableColumnCount
	return t.styles.TableSeparator.Render(strings.Repeat(lightSeparator, total))
}

func (t *TableFormatter) formatRow(row BlockRow, widths columnWidths) string {
	source := runewidth.FillRight(runewidth.Truncate(row.Source, widths.source, "…"), widths.source)
	content := fmt.Sprintf(" %*s  %-*s  %s",
		widths.line, lineLabel(row),
		widths.kind, row.Kind,
		source,
	)
	return t.rowStyle(row).Render(content)
}

func (t *TableFormatter) rowStyle(row BlockRow) lipgloss.Style {
	switch {
	case row.Line < 0:
		return t.styles.TableUntagged
	case row.Filled:
		return t.styles.TableFilled
	default:
		return t.styles.Message
	}
}

func lineLabel(row BlockRow) string {
	if row.Line < 0 {
		return "-"
	}
	label := strconv.Itoa(row.Line + 1)
	if row.Filled {
		label = filledSymbol + label
	}
	return label
}
