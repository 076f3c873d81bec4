package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// Page is a rendered document ready to be printed.
type Page struct {
	Title string

	// Body is the rendered document HTML.
	Body string

	// CSS is extra style sheet text, typically the code highlighting styles.
	CSS string

	// BaseDir resolves relative links and images. Usually the document's
	// directory.
	BaseDir string
}

// pageSize is a paper format in inches, the unit PrintToPDF expects.
type pageSize struct {
	name   string
	width  float64
	height float64
}

var paperSizes = map[string]pageSize{
	PaperA4:     {name: "A4", width: 8.27, height: 11.69},
	PaperLetter: {name: "letter", width: 8.5, height: 11},
}

// Paper formats.
const (
	PaperA4     = "a4"
	PaperLetter = "letter"
)

// marginInches is 15mm.
const marginInches = 0.59

func paper(name string) (pageSize, error) {
	size, ok := paperSizes[name]
	if !ok {
		return pageSize{}, fmt.Errorf("unknown paper size %q", name)
	}
	return size, nil
}

// RenderPage produces the self-contained HTML document that is printed.
func RenderPage(p Page, paperName string) (string, error) {
	size, err := paper(paperName)
	if err != nil {
		return "", err
	}

	base := ""
	if p.BaseDir != "" {
		abs, err := filepath.Abs(p.BaseDir)
		if err != nil {
			return "", fmt.Errorf("resolve base directory: %w", err)
		}
		base = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs) + "/"}).String()
	}

	title := p.Title
	if title == "" {
		title = "Markdown Export"
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, map[string]any{
		"Title": title,
		"Base":  template.URL(base), //nolint:gosec // file URL built from a local path
		"Paper": size.name,
		//nolint:gosec // rendered by our own renderer, raw HTML in markdown is intended
		"Body": template.HTML(p.Body),
		//nolint:gosec // generated by chroma
		"CSS": template.CSS(p.CSS),
	})
	if err != nil {
		return "", fmt.Errorf("render export page: %w", err)
	}
	return buf.String(), nil
}
