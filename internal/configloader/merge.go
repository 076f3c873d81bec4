package configloader

import "github.com/yaklabco/mdsync/pkg/config"

// merge combines two configurations, with override taking precedence over base.
// The merge follows these rules:
//   - Scalar values: override overwrites base if override is non-zero
//   - Optional flags: override overwrites base if override is non-nil
//   - Nil/unset values in override do not override values in base
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := base.Clone()

	// Server
	setNonZero(&result.Server.Addr, override.Server.Addr)
	setFlag(&result.Server.Open, override.Server.Open)

	// Render
	setNonZero(&result.Render.Style, override.Render.Style)
	setFlag(&result.Render.DetectLanguage, override.Render.DetectLanguage)
	setFlag(&result.Render.HardWraps, override.Render.HardWraps)
	setFlag(&result.Render.FillGaps, override.Render.FillGaps)

	// Chunks
	setNonZero(&result.Chunks.SingleChunkThreshold, override.Chunks.SingleChunkThreshold)
	setNonZero(&result.Chunks.TargetLines, override.Chunks.TargetLines)
	setNonZero(&result.Chunks.Eager, override.Chunks.Eager)
	setNonZero(&result.Chunks.IdleBatch, override.Chunks.IdleBatch)

	// Scroll
	setNonZero(&result.Scroll.EdgeLines, override.Scroll.EdgeLines)
	setNonZero(&result.Scroll.Suppress, override.Scroll.Suppress)
	setNonZero(&result.Scroll.Settle, override.Scroll.Settle)
	setNonZero(&result.Scroll.Interval, override.Scroll.Interval)

	// Export
	setNonZero(&result.Export.Browser, override.Export.Browser)
	setNonZero(&result.Export.Timeout, override.Export.Timeout)
	setNonZero(&result.Export.Paper, override.Export.Paper)

	// Store
	setNonZero(&result.Store.Path, override.Store.Path)
	setFlag(&result.Store.Disabled, override.Store.Disabled)

	// CLI-only booleans can only be switched on.
	if override.Verbose {
		result.Verbose = true
	}

	return result
}

func setNonZero[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func setFlag(dst **bool, v *bool) {
	if v != nil {
		b := *v
		*dst = &b
	}
}

// MergeAll merges multiple configurations in order, with later configs taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		result = merge(result, configs[i])
	}
	return result
}
