// Package config defines core configuration types for mdsync.
// These types are pure data structures; discovery and merging live in the
// configloader package.
package config

import "time"

// ServerConfig controls the preview server.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr"`

	// Open launches the system browser on the preview URL.
	Open *bool `yaml:"open"`
}

// RenderConfig controls markdown rendering.
type RenderConfig struct {
	// Style is the chroma style for code blocks.
	Style string `yaml:"style"`

	// DetectLanguage guesses the language of unlabeled code blocks.
	DetectLanguage *bool `yaml:"detect_language"`

	// HardWraps renders single newlines as line breaks.
	HardWraps *bool `yaml:"hard_wraps"`

	// FillGaps gives untagged blocks interpolated lines.
	FillGaps *bool `yaml:"fill_gaps"`
}

// ChunkConfig controls document chunking.
type ChunkConfig struct {
	// SingleChunkThreshold is the line count below which a document is one chunk.
	SingleChunkThreshold int `yaml:"single_chunk_threshold"`

	// TargetLines is the preferred chunk length.
	TargetLines int `yaml:"target_lines"`

	// Eager is the number of chunks rendered before the first patch is sent.
	Eager int `yaml:"eager"`

	// IdleBatch is the number of chunks rendered per idle turn.
	IdleBatch int `yaml:"idle_batch"`
}

// ScrollConfig controls scroll synchronization.
type ScrollConfig struct {
	// EdgeLines snaps the preview to the top or bottom near document ends.
	EdgeLines int `yaml:"edge_lines"`

	// Suppress is the echo suppression window after a programmatic scroll.
	Suppress time.Duration `yaml:"suppress"`

	// Settle is how long preview scrolling must pause before the editor follows.
	Settle time.Duration `yaml:"settle"`

	// Interval is the minimum time between two reveals sent to the editor.
	Interval time.Duration `yaml:"interval"`
}

// ExportConfig controls PDF export.
type ExportConfig struct {
	// Browser is an explicit Chrome, Chromium or Edge executable.
	Browser string `yaml:"browser"`

	// Timeout bounds one export.
	Timeout time.Duration `yaml:"timeout"`

	// Paper is "a4" or "letter".
	Paper string `yaml:"paper"`
}

// StoreConfig controls the persisted preview state.
type StoreConfig struct {
	// Path is the SQLite database file. Empty means the user state directory.
	Path string `yaml:"path"`

	// Disabled turns persistence off.
	Disabled *bool `yaml:"disabled"`
}

// Paper sizes.
const (
	PaperA4     = "a4"
	PaperLetter = "letter"
)

// Config is the root configuration structure for mdsync.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Render RenderConfig `yaml:"render"`
	Chunks ChunkConfig  `yaml:"chunks"`
	Scroll ScrollConfig `yaml:"scroll"`
	Export ExportConfig `yaml:"export"`
	Store  StoreConfig  `yaml:"store"`

	// CLI-level options (not persisted to config files).

	// Verbose enables debug logging.
	Verbose bool `yaml:"-"`
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:7878",
			Open: boolPtr(true),
		},
		Render: RenderConfig{
			Style:          "github",
			DetectLanguage: boolPtr(true),
			HardWraps:      boolPtr(true),
			FillGaps:       boolPtr(false),
		},
		Chunks: ChunkConfig{
			SingleChunkThreshold: 1000,
			TargetLines:          500,
			Eager:                2,
			IdleBatch:            1,
		},
		Scroll: ScrollConfig{
			EdgeLines: 5,
			Suppress:  200 * time.Millisecond,
			Settle:    90 * time.Millisecond,
			Interval:  60 * time.Millisecond,
		},
		Export: ExportConfig{
			Timeout: 60 * time.Second,
			Paper:   PaperA4,
		},
		Store: StoreConfig{
			Disabled: boolPtr(false),
		},
	}
}

// Enabled dereferences an optional flag, treating nil as false.
func Enabled(b *bool) bool {
	return b != nil && *b
}

func boolPtr(b bool) *bool {
	return &b
}
