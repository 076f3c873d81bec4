package pretty_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/internal/ui/pretty"
)

func TestNoColorStylesRenderPlainText(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)
	require.NotNil(t, styles)

	for name, style := range map[string]interface{ Render(...string) string }{
		"Error":       styles.Error,
		"Warning":     styles.Warning,
		"URL":         styles.URL,
		"DiffAdd":     styles.DiffAdd,
		"DiffRemove":  styles.DiffRemove,
		"Success":     styles.Success,
		"TableHeader": styles.TableHeader,
		"Dim":         styles.Dim,
		"Bold":        styles.Bold,
	} {
		assert.Equal(t, "x", style.Render("x"), name)
	}
}

func TestColorStylesKeepText(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(true)
	require.NotNil(t, styles)

	// Lipgloss may drop ANSI codes when stdout is not a terminal, so only
	// the text itself is checked.
	for name, style := range map[string]interface{ Render(...string) string }{
		"Error":         styles.Error,
		"Info":          styles.Info,
		"FilePath":      styles.FilePath,
		"Location":      styles.Location,
		"DiffHeader":    styles.DiffHeader,
		"DiffHunk":      styles.DiffHunk,
		"DiffContext":   styles.DiffContext,
		"Failure":       styles.Failure,
		"TableFilled":   styles.TableFilled,
		"TableUntagged": styles.TableUntagged,
	} {
		assert.Contains(t, style.Render("x"), "x", name)
	}
}

func TestIsColorEnabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	var buf bytes.Buffer
	assert.True(t, pretty.IsColorEnabled("always", &buf))
	assert.False(t, pretty.IsColorEnabled("never", os.Stdout))
	assert.False(t, pretty.IsColorEnabled("auto", &buf), "a buffer is not a terminal")
	assert.False(t, pretty.IsColorEnabled("", &buf))
	assert.False(t, pretty.IsColorEnabled("unknown", &buf))
}

func TestIsColorEnabledRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	assert.False(t, pretty.IsColorEnabled("auto", os.Stdout))
	assert.True(t, pretty.IsColorEnabled("always", os.Stdout))
}
