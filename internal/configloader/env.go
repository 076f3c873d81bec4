package configloader

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/yaklabco/mdsync/pkg/config"
)

// envVarPrefix is the prefix for all mdsync environment variables.
const envVarPrefix = "MDSYNC_"

// envMapping binds one variable to the config field it sets.
type envMapping struct {
	field string
	help  string
	set   func(cfg *config.Config, value string) error
}

func stringVar(field func(*config.Config) *string) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		*field(cfg) = value
		return nil
	}
}

func flagVar(field func(*config.Config) **bool) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q (expected true/false/1/0)", value)
		}
		*field(cfg) = &b
		return nil
	}
}

func intVar(field func(*config.Config) *int) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		*field(cfg) = i
		return nil
	}
}

func durationVar(field func(*config.Config) *time.Duration) func(*config.Config, string) error {
	return func(cfg *config.Config, value string) error {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q (expected e.g. 250ms or 1m)", value)
		}
		*field(cfg) = d
		return nil
	}
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"ADDR": {"server.addr", "Preview listen address (host:port)",
		stringVar(func(c *config.Config) *string { return &c.Server.Addr })},
	"OPEN": {"server.open", "Open the preview in a browser: true or false",
		flagVar(func(c *config.Config) **bool { return &c.Server.Open })},
	"STYLE": {"render.style", "Chroma style for code blocks",
		stringVar(func(c *config.Config) *string { return &c.Render.Style })},
	"DETECT_LANGUAGE": {"render.detect_language", "Guess languages of unlabeled code blocks",
		flagVar(func(c *config.Config) **bool { return &c.Render.DetectLanguage })},
	"HARD_WRAPS": {"render.hard_wraps", "Render single newlines as line breaks",
		flagVar(func(c *config.Config) **bool { return &c.Render.HardWraps })},
	"FILL_GAPS": {"render.fill_gaps", "Interpolate lines for untagged blocks",
		flagVar(func(c *config.Config) **bool { return &c.Render.FillGaps })},
	"SINGLE_CHUNK_THRESHOLD": {"chunks.single_chunk_threshold", "Line count below which a document is one chunk",
		intVar(func(c *config.Config) *int { return &c.Chunks.SingleChunkThreshold })},
	"TARGET_LINES": {"chunks.target_lines", "Preferred chunk length in lines",
		intVar(func(c *config.Config) *int { return &c.Chunks.TargetLines })},
	"EAGER_CHUNKS": {"chunks.eager", "Chunks rendered before the first paint",
		intVar(func(c *config.Config) *int { return &c.Chunks.Eager })},
	"IDLE_BATCH": {"chunks.idle_batch", "Chunks rendered per idle step",
		intVar(func(c *config.Config) *int { return &c.Chunks.IdleBatch })},
	"EDGE_LINES": {"scroll.edge_lines", "Lines at each end that snap the preview",
		intVar(func(c *config.Config) *int { return &c.Scroll.EdgeLines })},
	"SUPPRESS": {"scroll.suppress", "Echo suppression window (e.g. 200ms)",
		durationVar(func(c *config.Config) *time.Duration { return &c.Scroll.Suppress })},
	"SETTLE": {"scroll.settle", "Quiet time before a scroll counts as settled",
		durationVar(func(c *config.Config) *time.Duration { return &c.Scroll.Settle })},
	"SCROLL_INTERVAL": {"scroll.interval", "Preview scroll polling interval",
		durationVar(func(c *config.Config) *time.Duration { return &c.Scroll.Interval })},
	"BROWSER": {"export.browser", "Chrome/Chromium/Edge executable for PDF export",
		stringVar(func(c *config.Config) *string { return &c.Export.Browser })},
	"EXPORT_TIMEOUT": {"export.timeout", "Time limit for one PDF export",
		durationVar(func(c *config.Config) *time.Duration { return &c.Export.Timeout })},
	"PAPER": {"export.paper", "PDF paper size: a4 or letter",
		stringVar(func(c *config.Config) *string { return &c.Export.Paper })},
	"STORE_PATH": {"store.path", "SQLite file for persisted scroll offsets",
		stringVar(func(c *config.Config) *string { return &c.Store.Path })},
	"NO_STORE": {"store.disabled", "Disable scroll offset persistence",
		flagVar(func(c *config.Config) **bool { return &c.Store.Disabled })},
	"VERBOSE": {"verbose", "Enable debug logging",
		func(c *config.Config, value string) error {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid boolean %q (expected true/false/1/0)", value)
			}
			c.Verbose = b
			return nil
		}},
}

// LoadFromEnv applies MDSYNC_* environment variables to cfg. Empty
// variables are ignored.
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	for suffix, mapping := range envMappings {
		name := envVarPrefix + suffix
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if err := mapping.set(cfg, value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// GetEnvVarName returns the full environment variable name for a config field.
func GetEnvVarName(field string) string {
	for suffix, mapping := range envMappings {
		if mapping.field == field {
			return envVarPrefix + suffix
		}
	}
	return ""
}

// EnvVar describes one supported environment variable.
type EnvVar struct {
	Name        string
	Field       string
	Description string
}

// ListEnvVars returns all supported environment variables sorted by name.
func ListEnvVars() []EnvVar {
	vars := make([]EnvVar, 0, len(envMappings))
	for suffix, mapping := range envMappings {
		vars = append(vars, EnvVar{Name: envVarPrefix + suffix, Field: mapping.field, Description: mapping.help})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}
