// Package configloader resolves the mdsync configuration: XDG discovery of
// config files, layered merging, MDSYNC_* environment variables and
// validation.
package configloader

import (
	"context"
	"fmt"
	"os"

	"github.com/yaklabco/mdsync/pkg/config"
)

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	// WorkingDir is where the project config search starts. The CLI passes
	// the document's directory; empty means the current directory.
	WorkingDir string

	// ExplicitPath is a config file given with --config.
	ExplicitPath string

	IgnoreSystemConfig  bool
	IgnoreUserConfig    bool
	IgnoreProjectConfig bool
	IgnoreEnv           bool

	// CLIConfig holds flag values. They take highest precedence.
	CLIConfig *config.Config
}

// LoadResult contains the resolved configuration and metadata.
type LoadResult struct {
	Config *config.Config
	Paths  *ConfigPaths

	// LoadedFrom lists the files that were read, in merge order.
	LoadedFrom []string

	// Warnings are non-fatal findings, such as an unknown chroma style.
	Warnings []string
}

// Load resolves the final configuration by merging all sources.
// Precedence (highest to lowest):
//  1. CLI flags (opts.CLIConfig)
//  2. Environment variables (MDSYNC_*)
//  3. Explicit config file (opts.ExplicitPath)
//  4. Project config (.mdsync.yml upward search)
//  5. User config ($XDG_CONFIG_HOME/mdsync/config.yaml)
//  6. System config (/etc/mdsync/config.yaml)
//  7. Defaults
func Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	paths, err := DiscoverPaths(ctx, opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("discover paths: %w", err)
	}
	paths.Explicit = opts.ExplicitPath

	result := &LoadResult{Paths: paths}
	cfg := config.NewConfig()

	for _, l := range paths.layers(opts) {
		fileCfg, err := loadLayer(l)
		if err != nil {
			return nil, err
		}
		validation := ValidateWithFile(fileCfg, l.path)
		if err := firstError(validation); err != nil {
			return nil, err
		}
		for _, w := range validation.Warnings {
			result.Warnings = append(result.Warnings, w.Error())
		}
		cfg = merge(cfg, fileCfg)
		result.LoadedFrom = append(result.LoadedFrom, l.path)
	}

	if !opts.IgnoreEnv {
		if err := LoadFromEnv(cfg); err != nil {
			return nil, fmt.Errorf("load environment: %w", err)
		}
	}
	cfg = merge(cfg, opts.CLIConfig)

	final := Validate(cfg)
	if err := firstError(final); err != nil {
		return nil, err
	}
	for _, w := range final.Warnings {
		result.Warnings = append(result.Warnings, w.Message)
	}

	result.Config = cfg
	return result, nil
}

func loadLayer(l layer) (*config.Config, error) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("load %s config: %w", l.name, err)
	}
	cfg, err := config.FromYAML(content)
	if err != nil {
		return nil, fmt.Errorf("load %s config: %s: %w", l.name, l.path, err)
	}
	return cfg, nil
}

// firstError returns the first validation error, or nil.
func firstError(r *ValidationResult) error {
	if r.Valid() {
		return nil
	}
	return &r.Errors[0]
}
