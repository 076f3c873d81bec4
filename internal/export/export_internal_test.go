package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidates(t *testing.T) {
	t.Parallel()

	env := map[string]string{"LOCALAPPDATA": `C:\Users\me\AppData\Local`}
	getenv := func(k string) string { return env[k] }

	win := candidates("windows", getenv, "")
	assert.Equal(t, `C:\Program Files\Google\Chrome\Application\chrome.exe`, win[0])
	assert.Contains(t, win, `C:\Users\me\AppData\Local\Google\Chrome\Application\chrome.exe`)
	assert.True(t, strings.HasSuffix(win[len(win)-1], `msedge.exe`))

	mac := candidates("darwin", getenv, "/Users/me")
	assert.Equal(t, "/Users/me/Applications/Google Chrome.app/Contents/MacOS/Google Chrome", mac[len(mac)-1])

	assert.Contains(t, candidates("linux", getenv, ""), "/usr/bin/chromium")
}

func TestFindBrowserConfigured(t *testing.T) {
	t.Parallel()

	fake := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o700))

	got, err := FindBrowser(fake)
	require.NoError(t, err)
	assert.Equal(t, fake, got)

	_, err = FindBrowser(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, ErrNoBrowser)
}

func TestExport(t *testing.T) {
	t.Parallel()

	var printed string
	e := New(Options{Paper: PaperLetter})
	e.find = func(string) (string, error) { return "/fake/chrome", nil }
	e.print = func(_ context.Context, browser, htmlPath string, size pageSize) ([]byte, error) {
		assert.Equal(t, "/fake/chrome", browser)
		assert.InDelta(t, 8.5, size.width, 1e-9)
		data, err := os.ReadFile(htmlPath)
		require.NoError(t, err)
		printed = string(data)
		return []byte("%PDF-1.7 fake"), nil
	}

	output := filepath.Join(t.TempDir(), "doc.pdf")
	res, err := e.Export(context.Background(), Page{Title: "Doc", Body: `<p data-line="0">hello</p>`}, output)
	require.NoError(t, err)

	assert.Equal(t, output, res.Path)
	assert.Equal(t, int64(13), res.Size)
	assert.Contains(t, printed, `<p data-line="0">hello</p>`)
	assert.Contains(t, printed, "size: letter")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake", string(data))
}

func TestExportErrors(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "doc.pdf")

	noBrowser := New(Options{})
	noBrowser.find = func(string) (string, error) { return "", ErrNoBrowser }
	_, err := noBrowser.Export(context.Background(), Page{}, output)
	require.ErrorIs(t, err, ErrNoBrowser)

	slow := New(Options{Timeout: 10 * time.Millisecond})
	slow.find = func(string) (string, error) { return "/fake/chrome", nil }
	slow.print = func(ctx context.Context, _, _ string, _ pageSize) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	_, err = slow.Export(context.Background(), Page{}, output)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoFileExists(t, output)

	failing := New(Options{})
	failing.find = func(string) (string, error) { return "/fake/chrome", nil }
	failing.print = func(context.Context, string, string, pageSize) ([]byte, error) {
		return nil, errors.New("crashed")
	}
	_, err = failing.Export(context.Background(), Page{}, output)
	require.ErrorContains(t, err, "crashed")

	badPaper := New(Options{Paper: "a3"})
	_, err = badPaper.Export(context.Background(), Page{}, output)
	require.ErrorContains(t, err, "unknown paper size")
}

func TestRenderPage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out, err := RenderPage(Page{
		Title:   "<Notes>",
		Body:    `<div class="math display" data-line="2">\[x^2\]</div>`,
		CSS:     ".chroma { color: red }",
		BaseDir: dir,
	}, PaperA4)
	require.NoError(t, err)

	assert.Contains(t, out, "<title>&lt;Notes&gt;</title>")
	assert.Contains(t, out, `<div class="math display" data-line="2">\[x^2\]</div>`)
	assert.Contains(t, out, ".chroma { color: red }")
	assert.Contains(t, out, `<base href="file://`)
	assert.Contains(t, out, "size: A4")
	assert.NotContains(t, out, "ZgotmplZ")
}

func TestDefaultOutput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("docs", "guide.pdf"), DefaultOutput(filepath.Join("docs", "guide.md")))
	assert.Equal(t, "README.pdf", DefaultOutput("README"))
}
