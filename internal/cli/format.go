package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/internal/ui/pretty"
	"github.com/yaklabco/mdsync/pkg/edit"
	"github.com/yaklabco/mdsync/pkg/fsutil"
	"github.com/yaklabco/mdsync/pkg/mdast"
	"github.com/yaklabco/mdsync/pkg/selection"
)

type formatFlags struct {
	format     string
	text       string
	line       int
	occurrence int
	dryRun     bool
	backup     bool
	restore    bool
}

func newFormatCommand() *cobra.Command {
	flags := &formatFlags{}

	cmd := &cobra.Command{
		Use:   "format <file>",
		Short: "Bold, highlight or delete text in a markdown file",
		Long: `Apply a format edit to text in a markdown file, the same edit the preview
toolbar makes. Bold and highlight toggle: running them twice restores the
original. When the text appears more than once, --line or --occurrence
picks which one.

Formats: bold, highlight, red-highlight, delete.

Examples:
  mdsync format -f bold -t "important" README.md
  mdsync format -f delete -t "draft note" --line 12 README.md
  mdsync format -f highlight -t "TODO" --occurrence 2 --dry-run README.md
  mdsync format --restore README.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "format to apply: bold, highlight, red-highlight, delete")
	cmd.Flags().StringVarP(&flags.text, "text", "t", "", "text to format, as shown in the rendered document")
	cmd.Flags().IntVar(&flags.line, "line", 0, "1-based source line holding the text")
	cmd.Flags().IntVar(&flags.occurrence, "occurrence", 0, "1-based occurrence of the text in the document")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "show the change as a diff without writing it")
	cmd.Flags().BoolVar(&flags.backup, "backup", false, "keep a copy of the original next to the file")
	cmd.Flags().BoolVar(&flags.restore, "restore", false, "restore the file from its backup")

	return cmd
}

func runFormat(cmd *cobra.Command, path string, flags *formatFlags) error {
	ctx := commandContext(cmd)
	logger := logging.Default()
	styles := outputStyles(cmd)
	out := cmd.OutOrStdout()

	if flags.restore {
		restored, err := fsutil.RestoreBackup(ctx, path)
		if err != nil {
			return err
		}
		if !restored {
			return fmt.Errorf("%w: no backup at %s", fsutil.ErrNotFound, fsutil.BackupPath(path))
		}
		fmt.Fprintln(out, styles.Success.Render("Restored")+" "+styles.FilePath.Render(path))
		return nil
	}

	if flags.format == "" || flags.text == "" {
		return fmt.Errorf("%w: --format and --text are required", ErrUsage)
	}
	format, err := edit.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	content, _, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return err
	}
	original := string(content)

	var hints selection.Hints
	if flags.line > 0 {
		line := flags.line - 1
		hints.SourceLine = &line
	}
	if flags.occurrence > 0 {
		index := flags.occurrence - 1
		hints.GlobalOccurrenceIndex = &index
	}

	lines := mdast.BuildLines(original)
	edits, err := selection.Edits(lines, format, flags.text, hints)
	if err != nil {
		return fmt.Errorf("%s %q: %w", format, logging.Snippet(flags.text), err)
	}
	updated, err := edit.Apply(original, edits)
	if err != nil {
		return fmt.Errorf("apply %s: %w", format, err)
	}

	diff := edit.GenerateDiff(path, original, updated)
	if flags.dryRun {
		fmt.Fprint(out, styles.FormatDiff(diff))
		fmt.Fprintln(out, styles.FormatDiffStat(diff))
		return nil
	}

	if flags.backup {
		created, err := fsutil.CreateBackup(ctx, path)
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprint(cmd.ErrOrStderr(), styles.FormatNotice(pretty.LevelWarning,
				"keeping existing backup\n"+fsutil.BackupPath(path)))
		}
	}

	if err := fsutil.WriteAtomic(ctx, path, []byte(updated), 0); err != nil {
		return err
	}

	logger.Debug("format applied", logging.FieldFormat, format, logging.FieldPath, path)
	if len(edits) == 0 {
		fmt.Fprintln(out, styles.FormatDiffStat(diff))
		return nil
	}
	first := edits[0].StartOffset
	for _, e := range edits[1:] {
		first = min(first, e.StartOffset)
	}
	fmt.Fprintln(out, styles.FormatLocation(path, lines.LineAt(first))+"  "+styles.FormatDiffStat(diff))
	return nil
}
