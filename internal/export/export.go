// Package export prints rendered documents to PDF through a headless
// Chrome, Chromium or Edge.
package export

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/pkg/fsutil"
)

// DefaultTimeout bounds one export, browser start-up included.
const DefaultTimeout = 60 * time.Second

// Options configure an Exporter.
type Options struct {
	// Browser is an explicit browser executable. Empty searches the usual
	// locations.
	Browser string

	Timeout time.Duration

	// Paper is PaperA4 or PaperLetter.
	Paper string
}

// Result describes a finished export.
type Result struct {
	Path     string
	Size     int64
	Duration time.Duration
}

// printFunc turns an HTML file into PDF bytes.
type printFunc func(ctx context.Context, browser, htmlPath string, size pageSize) ([]byte, error)

// Exporter writes PDFs. It is safe for concurrent use.
type Exporter struct {
	opts  Options
	find  func(string) (string, error)
	print printFunc
}

// New creates an Exporter.
func New(opts Options) *Exporter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Paper == "" {
		opts.Paper = PaperA4
	}
	return &Exporter{opts: opts, find: FindBrowser, print: chromePrint}
}

// DefaultOutput returns the PDF path next to a document: doc.md -> doc.pdf.
func DefaultOutput(docPath string) string {
	return strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".pdf"
}

// Export prints p to output. The page is written to a temporary HTML file,
// loaded by the browser and printed; the PDF replaces output atomically.
func (e *Exporter) Export(ctx context.Context, p Page, output string) (*Result, error) {
	start := time.Now()
	logger := logging.Component(ctx, "export")

	size, err := paper(e.opts.Paper)
	if err != nil {
		return nil, err
	}

	browser, err := e.find(e.opts.Browser)
	if err != nil {
		return nil, err
	}

	doc, err := RenderPage(p, e.opts.Paper)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "mdsync-export-*.html")
	if err != nil {
		return nil, fmt.Errorf("create export page: %w", err)
	}
	htmlPath := tmp.Name()
	defer os.Remove(htmlPath)

	_, err = tmp.WriteString(doc)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write export page: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	logger.Debug("printing", logging.FieldBrowser, browser, logging.FieldPath, htmlPath)
	pdf, err := e.print(ctx, browser, htmlPath, size)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("print to PDF: timed out after %s: %w", e.opts.Timeout, err)
		}
		return nil, fmt.Errorf("print to PDF: %w", err)
	}

	if err := fsutil.WriteAtomic(ctx, output, pdf, 0); err != nil {
		return nil, fmt.Errorf("write %s: %w", output, err)
	}

	return &Result{Path: output, Size: int64(len(pdf)), Duration: time.Since(start)}, nil
}

// chromePrint drives a fresh headless browser through the DevTools protocol.
func chromePrint(ctx context.Context, browser, htmlPath string, size pageSize) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.DisableGPU,
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	pageURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(htmlPath)}).String()

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(`body[data-ready="1"]`, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				WithPaperWidth(size.width).
				WithPaperHeight(size.height).
				WithMarginTop(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithMarginRight(marginInches).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("PrintToPDF: %w", err)
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
