package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/configloader"
	"github.com/yaklabco/mdsync/internal/export"
	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/internal/session"
	"github.com/yaklabco/mdsync/internal/store"
	"github.com/yaklabco/mdsync/internal/ui/pretty"
	"github.com/yaklabco/mdsync/pkg/chunk"
	"github.com/yaklabco/mdsync/pkg/config"
	"github.com/yaklabco/mdsync/pkg/render"
	"github.com/yaklabco/mdsync/pkg/scroll"
)

// ErrUsage marks invalid flag combinations.
var ErrUsage = errors.New("invalid usage")

// loadConfig merges the configuration files, the environment and the flags
// in cliCfg.
func loadConfig(cmd *cobra.Command, cliCfg *config.Config) (*config.Config, error) {
	logger := logging.Default()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}

	// Project config is searched for next to the document, not the shell.
	var workDir string
	if args := cmd.Flags().Args(); len(args) > 0 {
		workDir = absDir(args[0])
	}

	result, err := configloader.Load(commandContext(cmd), configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return nil, errors.Join(ErrConfig, err)
	}

	for _, warning := range result.Warnings {
		logger.Warn(warning)
	}
	if len(result.LoadedFrom) > 0 {
		logger.Debug("loaded configuration from", "files", result.LoadedFrom)
	}

	return result.Config, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func outputStyles(cmd *cobra.Command) *pretty.Styles {
	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		colorMode = "auto"
	}
	return pretty.NewStyles(pretty.IsColorEnabled(colorMode, cmd.OutOrStdout()))
}

func renderOptions(cfg *config.Config) render.Options {
	return render.Options{
		Style:          cfg.Render.Style,
		DetectLanguage: config.Enabled(cfg.Render.DetectLanguage),
		HardWraps:      config.Enabled(cfg.Render.HardWraps),
		FillGaps:       config.Enabled(cfg.Render.FillGaps),
	}
}

func chunkOptions(cfg *config.Config) chunk.Options {
	return chunk.Options{
		Split: chunk.SplitOptions{
			SingleChunkThreshold: cfg.Chunks.SingleChunkThreshold,
			TargetLines:          cfg.Chunks.TargetLines,
		},
		EagerChunks: cfg.Chunks.Eager,
	}
}

func sessionOptions(cfg *config.Config, highlightCSS string) session.Options {
	opts := session.DefaultOptions()
	opts.Chunks = chunkOptions(cfg)
	opts.IdleBatch = cfg.Chunks.IdleBatch
	opts.HighlightCSS = highlightCSS

	corr := scroll.DefaultOptions()
	corr.EdgeLines = cfg.Scroll.EdgeLines
	opts.Scroll = scroll.SyncOptions{
		Correlator: corr,
		Suppress:   cfg.Scroll.Suppress,
		Settle:     cfg.Scroll.Settle,
		Interval:   cfg.Scroll.Interval,
	}
	return opts
}

func exportOptions(cfg *config.Config) export.Options {
	return export.Options{
		Browser: cfg.Export.Browser,
		Timeout: cfg.Export.Timeout,
		Paper:   cfg.Export.Paper,
	}
}

// openStore opens the scroll state database, or returns nil when
// persistence is disabled.
// storeRetention is how long an untouched document keeps its scroll offset.
const storeRetention = 90 * 24 * time.Hour

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if config.Enabled(cfg.Store.Disabled) {
		return nil, nil
	}
	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultPath()
	}
	st, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	pruned, err := st.Prune(ctx, time.Now().Add(-storeRetention))
	if err != nil {
		logging.FromContext(ctx).Warn("prune state store", logging.FieldError, err)
	} else if pruned > 0 {
		logging.FromContext(ctx).Debug("pruned stale scroll offsets", "count", pruned)
	}
	return st, nil
}

func boolPtr(b bool) *bool {
	return &b
}
