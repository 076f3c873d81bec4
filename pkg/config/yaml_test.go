package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/pkg/config"
)

func TestConfigClone(t *testing.T) {
	t.Run("nil config returns nil", func(t *testing.T) {
		var c *config.Config
		assert.Nil(t, c.Clone())
	})

	t.Run("deep copies optional flags", func(t *testing.T) {
		original := config.NewConfig()
		clone := original.Clone()
		require.NotNil(t, clone)
		assert.NotSame(t, original, clone)
		assert.NotSame(t, original.Render.HardWraps, clone.Render.HardWraps)

		*clone.Render.HardWraps = false
		assert.True(t, *original.Render.HardWraps)
	})

	t.Run("preserves CLI fields", func(t *testing.T) {
		original := config.NewConfig()
		original.Verbose = true
		assert.True(t, original.Clone().Verbose)
	})
}

func TestYAMLRoundTrip(t *testing.T) {
	original := config.NewConfig()
	original.Server.Addr = "localhost:9000"
	original.Scroll.Suppress = 350 * time.Millisecond
	original.Export.Browser = "/opt/chrome"

	data, err := original.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "suppress: 350ms")

	parsed, err := config.FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestFromYAMLLeavesUnsetFieldsZero(t *testing.T) {
	cfg, err := config.FromYAML([]byte("render:\n  style: monokai\n"))
	require.NoError(t, err)

	assert.Equal(t, "monokai", cfg.Render.Style)
	assert.Nil(t, cfg.Render.HardWraps)
	assert.Empty(t, cfg.Server.Addr)
	assert.Zero(t, cfg.Scroll.Suppress)
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := config.FromYAML([]byte("scroll:\n  suppress: soon\n"))
	require.Error(t, err)
}

func TestToYAMLWithHeader(t *testing.T) {
	data, err := config.NewConfig().ToYAMLWithHeader("# header")
	require.NoError(t, err)
	assert.Contains(t, string(data), "# header\n\nserver:")

	var nilCfg *config.Config
	data, err = nilCfg.ToYAML()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestGenerateTemplate(t *testing.T) {
	minimal, err := config.GenerateTemplate(config.TemplateOptions{})
	require.NoError(t, err)
	cfg, err := config.FromYAML(minimal)
	require.NoError(t, err)
	assert.Equal(t, "github", cfg.Render.Style)

	full, err := config.GenerateTemplate(config.TemplateOptions{Full: true})
	require.NoError(t, err)
	cfg, err = config.FromYAML(full)
	require.NoError(t, err)
	assert.Equal(t, config.NewConfig(), cfg)
}

func TestEnabled(t *testing.T) {
	yes, no := true, false
	assert.True(t, config.Enabled(&yes))
	assert.False(t, config.Enabled(&no))
	assert.False(t, config.Enabled(nil))
}

func TestFromYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := config.FromYAML([]byte("render:\n  stlye: monokai\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stlye")
}

func TestFromYAMLEmpty(t *testing.T) {
	cfg, err := config.FromYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, &config.Config{}, cfg)
}
