// Package session runs one preview session: the document, its chunked
// rendering, the connected preview and editor peers, and scroll sync
// between them. All session state is owned by a single event loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/yaklabco/mdsync/internal/export"
	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/pkg/chunk"
	"github.com/yaklabco/mdsync/pkg/edit"
	"github.com/yaklabco/mdsync/pkg/protocol"
	"github.com/yaklabco/mdsync/pkg/scroll"
)

// Defaults for Options.
const (
	DefaultIdleBatch = 1
	DefaultInboxSize = 256
)

// ErrClosed is returned when posting to a session whose loop has ended.
var ErrClosed = errors.New("session closed")

// Document is the editor collaborator that owns the source text.
type Document interface {
	Path() string
	Text() string
	SetText(content string) bool
	Apply(ctx context.Context, edits []edit.TextEdit) (string, error)
	Undo(ctx context.Context) (string, bool, error)
	Redo(ctx context.Context) (string, bool, error)
}

// ScrollStore persists preview scroll offsets per document.
type ScrollStore interface {
	Offset(ctx context.Context, doc string) (float64, bool, error)
	SaveOffset(ctx context.Context, doc string, offset float64) error
}

// Exporter prints a rendered page to PDF.
type Exporter interface {
	Export(ctx context.Context, page export.Page, output string) (*export.Result, error)
}

// Options configure a Session.
type Options struct {
	Chunks chunk.Options
	Scroll scroll.SyncOptions

	// IdleBatch is how many pending chunks are rendered each time the
	// inbox is empty.
	IdleBatch int

	InboxSize int

	// HighlightCSS is included in exported pages.
	HighlightCSS string

	// Store and Exporter are optional.
	Store    ScrollStore
	Exporter Exporter
}

// DefaultOptions returns the default session options.
func DefaultOptions() Options {
	return Options{
		Chunks:    chunk.DefaultOptions(),
		Scroll:    scroll.DefaultSyncOptions(),
		IdleBatch: DefaultIdleBatch,
		InboxSize: DefaultInboxSize,
	}
}

type eventKind int

const (
	evMessage eventKind = iota
	evAttach
	evDetach
	evExportDone
)

type event struct {
	kind eventKind
	peer string
	role Role
	conn Peer
	msg  protocol.Message

	result *export.Result
	err    error
}

// Session is one document being previewed. Create it with New and drive it
// with Run; other goroutines talk to it through Post, Attach and Detach.
type Session struct {
	id     string
	opts   Options
	doc    Document
	logger *log.Logger
	now    func() time.Time

	inbox chan event
	done  chan struct{}

	// Owned by the loop.
	manager      *chunk.Manager
	sync         *scroll.Sync
	peers        map[string]*peerState
	anchors      []scroll.Anchor
	viewport     scroll.Viewport
	haveGeometry bool
	pendingTo    *scroll.Request
	exporting    bool
	savedTop     float64
}

// New creates a session for doc.
func New(doc Document, renderer chunk.Renderer, opts Options) *Session {
	if opts.IdleBatch <= 0 {
		opts.IdleBatch = DefaultIdleBatch
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}

	return &Session{
		id:      uuid.NewString(),
		opts:    opts,
		doc:     doc,
		logger:  logging.Default(),
		now:     time.Now,
		inbox:   make(chan event, opts.InboxSize),
		done:    make(chan struct{}),
		manager: chunk.NewManager(renderer, opts.Chunks),
		sync:    scroll.NewSync(opts.Scroll),
		peers:   make(map[string]*peerState),
	}
}

// ID returns the session's unique ID.
func (s *Session) ID() string {
	return s.id
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Post delivers a message from peer. It blocks while the inbox is full.
// peer is empty for messages that originate locally, such as file reloads.
func (s *Session) Post(ctx context.Context, peer string, msg protocol.Message) error {
	return s.enqueue(ctx, event{kind: evMessage, peer: peer, msg: msg})
}

// Attach registers a peer. Preview peers receive the document once they
// send ready.
func (s *Session) Attach(ctx context.Context, role Role, conn Peer) error {
	return s.enqueue(ctx, event{kind: evAttach, peer: conn.ID(), role: role, conn: conn})
}

// Detach removes a peer.
func (s *Session) Detach(ctx context.Context, peer string) error {
	return s.enqueue(ctx, event{kind: evDetach, peer: peer})
}

func (s *Session) enqueue(ctx context.Context, ev event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.inbox <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return fmt.Errorf("post to session: %w", ctx.Err())
	}
}

// Run renders the document and handles events until ctx is cancelled.
// Cancellation is a normal stop and returns nil, even during the initial
// render.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	s.logger = logging.FromContext(ctx).With(logging.FieldSession, s.id)
	ctx = logging.WithLogger(ctx, s.logger)

	patch, err := s.manager.Initial(ctx, s.doc.Text())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("initial render: %w", err)
	}
	s.logFailures(patch)
	s.logger.Debug("session started",
		logging.FieldPath, s.doc.Path(),
		logging.FieldChunks, len(s.manager.Chunks()),
		logging.FieldPending, s.manager.Pending())

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		var wake <-chan time.Time
		if due, ok := s.sync.Due(); ok {
			timer.Reset(max(due.Sub(s.now()), 0))
			wake = timer.C
		}

		if s.idleWork() {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-s.inbox:
				s.handleBatch(ctx, s.drain(ev))
			case <-wake:
				s.pollScroll(ctx)
			default:
				s.renderIdle(ctx)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.inbox:
			s.handleBatch(ctx, s.drain(ev))
		case <-wake:
			s.pollScroll(ctx)
		}
	}
}

// idleWork reports whether there are chunks to render for a preview.
func (s *Session) idleWork() bool {
	return s.manager.Pending() > 0 && s.count(RolePreview) > 0
}

// drain collects the events already waiting behind first.
func (s *Session) drain(first event) []event {
	batch := []event{first}
	for len(batch) < s.opts.InboxSize {
		select {
		case ev := <-s.inbox:
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

// coalesce drops superseded scroll requests, preview scrolls and geometry
// reports from a batch. The surviving scroll events run last, after any
// content change in the same batch.
func coalesce(batch []event) []event {
	last := make(map[protocol.Type]int)
	for i, ev := range batch {
		if ev.kind == evMessage && coalescable(ev.msg.MessageType()) {
			last[ev.msg.MessageType()] = i
		}
	}

	out := make([]event, 0, len(batch))
	var deferred []event
	for i, ev := range batch {
		if ev.kind == evMessage && coalescable(ev.msg.MessageType()) {
			typ := ev.msg.MessageType()
			if last[typ] != i {
				continue
			}
			if typ == protocol.TypeScrollTo || typ == protocol.TypeScroll {
				deferred = append(deferred, ev)
				continue
			}
		}
		out = append(out, ev)
	}
	return append(out, deferred...)
}

func coalescable(t protocol.Type) bool {
	switch t {
	case protocol.TypeScrollTo, protocol.TypeScroll, protocol.TypeGeometry:
		return true
	default:
		return false
	}
}

func (s *Session) handleBatch(ctx context.Context, batch []event) {
	for _, ev := range coalesce(batch) {
		s.handle(ctx, ev)
	}
}

// handle dispatches one event. A panic in a handler is logged and reported
// to the peers; the loop keeps running.
func (s *Session) handle(ctx context.Context, ev event) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("handler panic", "panic", p, logging.FieldPeer, ev.peer)
			s.notice(protocol.LevelError, fmt.Sprintf("Internal error: %v", p))
		}
	}()

	switch ev.kind {
	case evAttach:
		s.attach(ev)
	case evDetach:
		s.detach(ev.peer)
	case evExportDone:
		s.exportDone(ev.result, ev.err)
	case evMessage:
		s.dispatch(ctx, ev.peer, ev.msg)
	}
}

func (s *Session) dispatch(ctx context.Context, peer string, msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.Ready:
		s.onReady(ctx, peer)
	case *protocol.Geometry:
		s.onGeometry(m)
	case *protocol.Scroll:
		s.onScroll(m)
	case *protocol.ScrollTo:
		s.onScrollTo(m)
	case *protocol.UpdateContent:
		s.onUpdateContent(ctx, peer, m)
	case *protocol.ApplyFormat:
		s.onApplyFormat(ctx, m)
	case *protocol.ExportRequested:
		s.onExport(ctx, m)
	case *protocol.Undo:
		s.onHistory(ctx, peer, msg, s.doc.Undo, "undo")
	case *protocol.Redo:
		s.onHistory(ctx, peer, msg, s.doc.Redo, "redo")
	default:
		s.logger.Debug("ignoring message", logging.FieldMessage, msg.MessageType(), logging.FieldPeer, peer)
	}
}

func (s *Session) renderIdle(ctx context.Context) {
	patch, err := s.manager.RenderPending(ctx, s.opts.IdleBatch)
	if err != nil {
		s.logger.Warn("idle render failed", logging.FieldError, err)
		return
	}
	s.sendPatch(patch, nil)
}

func (s *Session) logFailures(patch chunk.Patch) {
	for _, err := range patch.Failures {
		s.logger.Warn("block degraded", logging.FieldError, err)
	}
}
