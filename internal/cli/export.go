package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/export"
	"github.com/yaklabco/mdsync/pkg/config"
	"github.com/yaklabco/mdsync/pkg/fsutil"
	"github.com/yaklabco/mdsync/pkg/render"
)

type exportFlags struct {
	output  string
	paper   string
	browser string
	timeout time.Duration
}

func newExportCommand() *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a markdown file to PDF",
		Long: `Render a markdown file and print it to PDF with a local Chrome, Chromium
or Edge running headless. Math is typeset and collapsed sections are
expanded before printing.

The browser is found in the usual install locations or on PATH; set
export.browser in the config file, MDSYNC_BROWSER, or --browser to use
another.

Examples:
  mdsync export README.md              # writes README.pdf
  mdsync export --paper letter -o out.pdf README.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "PDF path (default: next to the source)")
	cmd.Flags().StringVar(&flags.paper, "paper", "", "paper size: a4 or letter")
	cmd.Flags().StringVar(&flags.browser, "browser", "", "browser executable")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "time limit for the export")

	return cmd
}

func runExport(cmd *cobra.Command, path string, flags *exportFlags) error {
	cfg, err := loadConfig(cmd, &config.Config{
		Export: config.ExportConfig{
			Browser: flags.browser,
			Timeout: flags.timeout,
			Paper:   flags.paper,
		},
	})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	content, _, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return err
	}

	renderOpts := renderOptions(cfg)
	doc, err := renderDocument(cmd, render.New(renderOpts), string(content), chunkOptions(cfg).Split)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	output := flags.output
	if output == "" {
		output = export.DefaultOutput(abs)
	}

	res, err := export.New(exportOptions(cfg)).Export(ctx, export.Page{
		Title:   filepath.Base(path),
		Body:    doc.html,
		CSS:     render.HighlightCSS(renderOpts.Style),
		BaseDir: filepath.Dir(abs),
	}, output)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), outputStyles(cmd).FormatExportSummary(res.Path, res.Size, res.Duration))
	return nil
}
