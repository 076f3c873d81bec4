package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/mdsync/internal/export"
	"github.com/yaklabco/mdsync/internal/ui/pretty"
	"github.com/yaklabco/mdsync/pkg/chunk"
	"github.com/yaklabco/mdsync/pkg/config"
	"github.com/yaklabco/mdsync/pkg/fsutil"
	"github.com/yaklabco/mdsync/pkg/mdast"
	"github.com/yaklabco/mdsync/pkg/render"
)

type renderFlags struct {
	output string
	blocks bool
	page   bool
	style  string
}

func newRenderCommand() *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a markdown file to line-tagged HTML",
		Long: `Render a markdown file the way the preview does, chunk by chunk, and write
the HTML to stdout or a file. Block elements carry data-line attributes with
their 0-based source line.

Examples:
  mdsync render README.md > body.html
  mdsync render --page -o README.html README.md
  mdsync render --blocks README.md     # show the line map`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write HTML to this file instead of stdout")
	cmd.Flags().BoolVar(&flags.blocks, "blocks", false, "print the block line map instead of HTML")
	cmd.Flags().BoolVar(&flags.page, "page", false, "wrap the HTML in a standalone page")
	cmd.Flags().StringVar(&flags.style, "style", "", "chroma style for code blocks")

	return cmd
}

// renderedDocument is a whole document rendered chunk by chunk.
type renderedDocument struct {
	html     string
	blocks   []render.Block
	chunks   int
	failures int
}

func renderDocument(cmd *cobra.Command, r *render.Renderer, text string, opts chunk.SplitOptions) (*renderedDocument, error) {
	ctx := commandContext(cmd)
	doc := &renderedDocument{}

	var body strings.Builder
	for _, ch := range chunk.Split(text, opts) {
		res, err := r.Render(ctx, ch.Text, ch.StartLine)
		if err != nil {
			return nil, fmt.Errorf("render lines %d-%d: %w", ch.StartLine+1, ch.EndLine+1, err)
		}
		body.WriteString(res.HTML)
		doc.blocks = append(doc.blocks, res.Blocks...)
		doc.failures += len(res.Failures)
		if res.Degraded {
			doc.failures++
		}
		doc.chunks++
	}
	doc.html = body.String()
	return doc, nil
}

func runRender(cmd *cobra.Command, path string, flags *renderFlags) error {
	cliCfg := &config.Config{}
	cliCfg.Render.Style = flags.style

	cfg, err := loadConfig(cmd, cliCfg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	content, _, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return err
	}
	text := string(content)
	lines := mdast.BuildLines(text)
	renderOpts := renderOptions(cfg)

	start := time.Now()
	doc, err := renderDocument(cmd, render.New(renderOpts), text, chunkOptions(cfg).Split)
	if err != nil {
		return err
	}
	took := time.Since(start)

	styles := outputStyles(cmd)
	if flags.blocks {
		rows := make([]pretty.BlockRow, len(doc.blocks))
		for i, b := range doc.blocks {
			rows[i] = pretty.BlockRow{Line: b.Line, Kind: b.Kind, Source: lines.Text(b.Line), Filled: b.Filled}
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, pretty.NewTableFormatter(styles, terminalWidth(out)).FormatBlockTable(rows))
		return nil
	}

	html := doc.html
	if flags.page {
		html, err = export.RenderPage(export.Page{
			Title:   filepath.Base(path),
			Body:    doc.html,
			CSS:     render.HighlightCSS(renderOpts.Style),
			BaseDir: absDir(path),
		}, cfg.Export.Paper)
		if err != nil {
			return err
		}
	}

	if flags.output == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), html)
		return err
	}
	written, err := fsutil.WriteAtomicIfChanged(ctx, flags.output, []byte(html), fsutil.DefaultFileMode)
	if err != nil {
		return err
	}

	summary := pretty.RenderSummary{
		Path:      path,
		Lines:     lines.Count(),
		Chunks:    doc.chunks,
		Blocks:    len(doc.blocks),
		Failures:  doc.failures,
		Bytes:     len(html),
		Duration:  took,
		Unchanged: !written,
	}
	for _, b := range doc.blocks {
		switch {
		case b.Line < 0:
			summary.Untagged++
		case b.Filled:
			summary.Filled++
		}
	}
	fmt.Fprint(cmd.ErrOrStderr(), styles.FormatRenderSummary(summary))
	return nil
}

func absDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Dir(path)
	}
	return filepath.Dir(abs)
}

// terminalWidth returns the width of w when it is a terminal, or 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
