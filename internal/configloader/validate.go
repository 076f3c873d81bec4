package configloader

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"

	"github.com/yaklabco/mdsync/pkg/config"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "scroll.suppress").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	if e.Field != "" {
		parts = append(parts, e.Field)
	}

	parts = append(parts, e.Message)

	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) fail(field string, value any, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warn(field string, value any, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

// knownPapers lists valid export paper sizes.
//
//nolint:gochecknoglobals // Read-only lookup table.
var knownPapers = map[string]bool{
	config.PaperA4:     true,
	config.PaperLetter: true,
}

// maxSuppress bounds the suppression window; longer windows make the
// preview feel stuck.
const maxSuppress = 5 * time.Second

// Validate checks a configuration for errors and warnings. Zero values are
// accepted because file layers leave unset fields zero.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	if addr := cfg.Server.Addr; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			result.fail("server.addr", addr, "invalid listen address %q: %v", addr, err)
		}
	}

	if style := cfg.Render.Style; style != "" {
		if _, ok := styles.Registry[strings.ToLower(style)]; !ok {
			result.warn("render.style", style, "unknown style %q; falling back to %s", style, styles.Fallback.Name)
		}
	}

	for field, v := range map[string]int{
		"chunks.single_chunk_threshold": cfg.Chunks.SingleChunkThreshold,
		"chunks.target_lines":           cfg.Chunks.TargetLines,
		"chunks.eager":                  cfg.Chunks.Eager,
		"chunks.idle_batch":             cfg.Chunks.IdleBatch,
		"scroll.edge_lines":             cfg.Scroll.EdgeLines,
	} {
		if v < 0 {
			result.fail(field, v, "must be >= 0")
		}
	}
	if t, s := cfg.Chunks.TargetLines, cfg.Chunks.SingleChunkThreshold; t > 0 && s > 0 && t > s {
		result.warn("chunks.target_lines", t, "target_lines %d exceeds single_chunk_threshold %d", t, s)
	}

	for field, d := range map[string]time.Duration{
		"scroll.suppress": cfg.Scroll.Suppress,
		"scroll.settle":   cfg.Scroll.Settle,
		"scroll.interval": cfg.Scroll.Interval,
		"export.timeout":  cfg.Export.Timeout,
	} {
		if d < 0 {
			result.fail(field, d, "duration must not be negative")
		}
	}
	if cfg.Scroll.Suppress > maxSuppress {
		result.warn("scroll.suppress", cfg.Scroll.Suppress, "suppression window %s is unusually long", cfg.Scroll.Suppress)
	}

	if paper := cfg.Export.Paper; paper != "" && !knownPapers[paper] {
		result.fail("export.paper", paper, "invalid paper %q; must be one of: a4, letter", paper)
	}

	return result
}

// ValidateWithFile validates configuration and includes file path in errors.
func ValidateWithFile(cfg *config.Config, filePath string) *ValidationResult {
	result := Validate(cfg)

	for i := range result.Errors {
		result.Errors[i].FilePath = filePath
	}
	for i := range result.Warnings {
		result.Warnings[i].FilePath = filePath
	}

	return result
}
