// Package cli provides the Cobra command structure for mdsync.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/configloader"
	"github.com/yaklabco/mdsync/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root mdsync command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "mdsync",
		Short: "Live markdown preview with scroll sync and in-preview editing",
		Long: `mdsync previews a markdown document in the browser and keeps the preview
and the source in step: scrolling either side follows the other, and text
selected in the preview can be bolded, highlighted or deleted in the source
without leaving the page.

Large documents are rendered in chunks so the first screen appears at once.
Documents can also be rendered to HTML, edited from the command line, and
exported to PDF through a local Chrome, Chromium or Edge.` + environmentHelp(),
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newFormatCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	helpFormatter := NewHelpFormatter(color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}

// environmentHelp lists the MDSYNC_* variables for the root help text.
func environmentHelp() string {
	vars := configloader.ListEnvVars()
	width := 0
	for _, v := range vars {
		width = max(width, len(v.Name))
	}

	var b strings.Builder
	b.WriteString("\n\nEnvironment:\n")
	for _, v := range vars {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, v.Name, v.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
