// Package server exposes a session over HTTP: the preview page and its
// assets, and websocket endpoints for previews and editors.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gobwas/ws"
	"golang.org/x/sync/errgroup"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/internal/session"
)

// Routes.
const (
	PathRoot      = "/"
	PathHighlight = "/highlight.css"
	PathAssets    = "/assets/"
	PathPreview   = "/ws/preview"
	PathEditor    = "/ws/editor"
)

// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
const ShutdownTimeout = 3 * time.Second

//go:embed assets
var assets embed.FS

// Options configure a Server.
type Options struct {
	// Addr is the listen address, host:port. Port 0 picks a free port.
	Addr string

	// HighlightCSS is served at /highlight.css for code blocks.
	HighlightCSS string
}

// Server serves one session.
type Server struct {
	sess   *session.Session
	opts   Options
	logger *log.Logger
	ln     net.Listener
}

// New creates a Server for sess.
func New(sess *session.Session, opts Options) *Server {
	return &Server{sess: sess, opts: opts, logger: logging.Default()}
}

// Listen binds the listen address. It must be called before Serve.
func (s *Server) Listen(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	s.ln = ln
	return nil
}

// URL is the preview page address. Valid after Listen.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String() + PathRoot
}

// Serve handles connections until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("server: Serve called before Listen")
	}
	s.logger = logging.Component(ctx, "server")

	srv := &http.Server{
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	s.logger.Info("serving", logging.FieldURL, s.URL())
	return g.Wait()
}

// Handler returns the HTTP routes. Websocket connections live until ctx is
// cancelled or the peer goes away.
func (s *Server) Handler(ctx context.Context) http.Handler {
	static, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathRoot+"{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "index.html")
	})
	mux.Handle("GET "+PathAssets, http.StripPrefix(PathAssets, http.FileServerFS(static)))
	mux.HandleFunc("GET "+PathHighlight, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		_, _ = w.Write([]byte(s.opts.HighlightCSS))
	})
	mux.HandleFunc("GET "+PathPreview, s.upgrade(ctx, session.RolePreview))
	mux.HandleFunc("GET "+PathEditor, s.upgrade(ctx, session.RoleEditor))
	return mux
}

func (s *Server) upgrade(ctx context.Context, role session.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			s.logger.Debug("websocket upgrade failed", logging.FieldError, err)
			return
		}

		peer := newPeer(conn, role, s.logger)
		go peer.writeLoop()
		s.handlePeer(ctx, peer)
	}
}

// handlePeer attaches peer to the session and reads from it until either
// side goes away.
func (s *Server) handlePeer(ctx context.Context, peer *wsPeer) {
	defer peer.close()

	if err := s.sess.Attach(ctx, peer.role, peer); err != nil {
		peer.logger.Debug("attach failed", logging.FieldError, err)
		return
	}
	peer.logger.Debug("connected")

	stop := context.AfterFunc(ctx, peer.close)
	defer stop()

	if err := peer.readLoop(ctx, s.sess); err != nil {
		peer.logger.Debug("connection ended", logging.FieldError, err)
	}
	if err := s.sess.Detach(context.WithoutCancel(ctx), peer.id); err != nil && !errors.Is(err, session.ErrClosed) {
		peer.logger.Debug("detach failed", logging.FieldError, err)
	}
}
