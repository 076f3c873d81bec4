package pretty

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const summaryDividerWidth = 40

// ServeSummary describes a running preview server.
type ServeSummary struct {
	URL    string
	Path   string
	Lines  int
	Chunks int
	Store  string // empty when persistence is off
}

// FormatServeBanner formats the banner printed when the server starts.
func (s *Styles) FormatServeBanner(sum ServeSummary) string {
	var builder strings.Builder

	builder.WriteString(s.SummaryTitle.Render("mdsync preview") + "\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth) + "\n")
	builder.WriteString("  Preview:   " + s.URL.Render(sum.URL) + "\n")
	builder.WriteString("  Document:  " + s.FilePath.Render(sum.Path) + s.Dim.Render(
		fmt.Sprintf(" (%s lines, %s)", humanize.Comma(int64(sum.Lines)), plural(sum.Chunks, "chunk"))) + "\n")
	if sum.Store != "" {
		builder.WriteString("  State:     " + s.Dim.Render(sum.Store) + "\n")
	}
	builder.WriteString("\n" + s.Dim.Render("Press Ctrl+C to stop.") + "\n")

	return builder.String()
}

// RenderSummary describes a one-shot render.
type RenderSummary struct {
	Path     string
	Lines    int
	Chunks   int
	Blocks   int
	Untagged int
	Filled   int
	Failures int
	Bytes    int
	Duration time.Duration

	// Unchanged is set when the output file already held the result.
	Unchanged bool
}

// FormatRenderSummary formats render statistics as a short block.
func (s *Styles) FormatRenderSummary(sum RenderSummary) string {
	var builder strings.Builder

	builder.WriteString(s.SummaryTitle.Render("Summary") + "\n")
	builder.WriteString(strings.Repeat("-", summaryDividerWidth) + "\n")
	builder.WriteString("  Source lines:  " + s.SummaryValue.Render(humanize.Comma(int64(sum.Lines))) + "\n")
	builder.WriteString("  Chunks:        " + s.SummaryValue.Render(strconv.Itoa(sum.Chunks)) + "\n")
	builder.WriteString("  Blocks:        " + s.SummaryValue.Render(strconv.Itoa(sum.Blocks)) + "\n")
	if sum.Filled > 0 {
		builder.WriteString("    Filled:      " + s.Warning.Render(strconv.Itoa(sum.Filled)) + "\n")
	}
	if sum.Untagged > 0 {
		builder.WriteString("    Untagged:    " + s.Failure.Render(strconv.Itoa(sum.Untagged)) + "\n")
	}
	builder.WriteString("  HTML size:     " + s.SummaryValue.Render(humanize.Bytes(uint64(max(sum.Bytes, 0)))) + "\n")
	if sum.Duration > 0 {
		builder.WriteString("  Took:          " + s.SummaryValue.Render(sum.Duration.Round(time.Millisecond).String()) + "\n")
	}

	builder.WriteString("\n")
	if sum.Failures > 0 {
		builder.WriteString(s.Warning.Render(fmt.Sprintf("Rendered with %s degraded", plural(sum.Failures, "block"))))
	} else {
		builder.WriteString(s.Success.Render("Rendered"))
	}
	if sum.Unchanged {
		builder.WriteString(s.Dim.Render(" (output unchanged)"))
	}
	builder.WriteString("\n")

	return builder.String()
}

// FormatExportSummary formats the line printed after a PDF export.
func (s *Styles) FormatExportSummary(output string, size int64, took time.Duration) string {
	return s.Success.Render("Exported") + " " + s.FilePath.Render(output) +
		s.Dim.Render(fmt.Sprintf(" (%s in %s)", humanize.Bytes(uint64(max(size, 0))), took.Round(time.Millisecond))) + "\n"
}
