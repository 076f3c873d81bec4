package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/mdsync/internal/export"
	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/internal/server"
	"github.com/yaklabco/mdsync/internal/session"
	"github.com/yaklabco/mdsync/internal/ui/pretty"
	"github.com/yaklabco/mdsync/internal/workspace"
	"github.com/yaklabco/mdsync/pkg/chunk"
	"github.com/yaklabco/mdsync/pkg/config"
	"github.com/yaklabco/mdsync/pkg/mdast"
	"github.com/yaklabco/mdsync/pkg/protocol"
	"github.com/yaklabco/mdsync/pkg/render"
)

type serveFlags struct {
	addr        string
	noOpen      bool
	noStore     bool
	resetScroll bool
}

func newServeCommand() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve <file>",
		Short: "Preview a markdown file in the browser",
		Long: `Serve a live preview of a markdown file.

The preview follows changes to the file on disk. Editors connect to
/ws/editor to stream unsaved content and scroll positions, and receive the
line the preview is showing when the user scrolls it.

Select text in the preview to bold, highlight or delete it in the source.
Ctrl+Z and Ctrl+Shift+Z undo and redo those edits.

Examples:
  mdsync serve README.md
  mdsync serve --addr 127.0.0.1:0 --no-open notes.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address, host:port (port 0 picks one)")
	cmd.Flags().BoolVar(&flags.noOpen, "no-open", false, "do not open the preview in a browser")
	cmd.Flags().BoolVar(&flags.noStore, "no-store", false, "do not persist the preview scroll position")
	cmd.Flags().BoolVar(&flags.resetScroll, "reset-scroll", false, "forget the saved scroll position and start at the top")

	return cmd
}

func runServe(cmd *cobra.Command, path string, flags *serveFlags) error {
	cliCfg := &config.Config{}
	if flags.addr != "" {
		cliCfg.Server.Addr = flags.addr
	}
	if flags.noOpen {
		cliCfg.Server.Open = boolPtr(false)
	}
	if flags.noStore {
		cliCfg.Store.Disabled = boolPtr(true)
	}

	cfg, err := loadConfig(cmd, cliCfg)
	if err != nil {
		return err
	}

	level := "info"
	if debug, _ := cmd.Flags().GetBool("debug"); debug || cfg.Verbose {
		level = "debug"
	}
	logger := logging.NewServer(level)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	doc, err := workspace.Open(ctx, path)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}

	renderOpts := renderOptions(cfg)
	css := render.HighlightCSS(renderOpts.Style)

	opts := sessionOptions(cfg, css)
	opts.Exporter = export.New(exportOptions(cfg))
	storePath := ""
	if st != nil {
		defer st.Close()
		if flags.resetScroll {
			if err := st.Forget(ctx, doc.Path()); err != nil {
				logger.Warn("could not reset scroll position", logging.FieldError, err)
			}
		}
		opts.Store = st
		storePath = st.Path()
	}

	sess := session.New(doc, render.New(renderOpts), opts)
	srv := server.New(sess, server.Options{Addr: cfg.Server.Addr, HighlightCSS: css})
	if err := srv.Listen(ctx); err != nil {
		return err
	}

	text := doc.Text()
	fmt.Fprint(cmd.OutOrStdout(), outputStyles(cmd).FormatServeBanner(pretty.ServeSummary{
		URL:    srv.URL(),
		Path:   doc.Path(),
		Lines:  mdast.BuildLines(text).Count(),
		Chunks: len(chunk.Split(text, opts.Chunks.Split)),
		Store:  storePath,
	}))

	group, gctx := errgroup.WithContext(ctx)
	changes := make(chan string, 1)

	group.Go(func() error { return sess.Run(gctx) })
	group.Go(func() error { return srv.Serve(gctx) })
	group.Go(func() error { return doc.Watch(gctx, workspace.DefaultWatchSettle, changes) })
	group.Go(func() error { return forwardChanges(gctx, sess, changes) })

	if config.Enabled(cfg.Server.Open) {
		if err := openBrowser(ctx, srv.URL()); err != nil {
			logger.Warn("could not open browser", logging.FieldURL, srv.URL(), logging.FieldError, err)
		}
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// forwardChanges posts file contents changed on disk to the session.
func forwardChanges(ctx context.Context, sess *session.Session, changes <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case text := <-changes:
			logging.FromContext(ctx).Debug("file changed on disk")
			err := sess.Post(ctx, "", &protocol.UpdateContent{Content: text})
			if err != nil && !errors.Is(err, session.ErrClosed) && ctx.Err() == nil {
				return err
			}
		}
	}
}
