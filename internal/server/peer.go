package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/internal/session"
	"github.com/yaklabco/mdsync/pkg/protocol"
)

// DefaultOutbox is the number of messages queued for a slow peer before it
// is disconnected.
const DefaultOutbox = 256

// closeGrace is how long the reader waits for its close reply to be written.
const closeGrace = time.Second

var (
	// ErrSlowPeer is returned by Send when the peer's outbox is full.
	ErrSlowPeer = errors.New("peer is not reading")

	// ErrPeerClosed is returned by Send after the connection has closed.
	ErrPeerClosed = errors.New("peer connection closed")
)

// frame is one queued websocket frame.
type frame struct {
	op   ws.OpCode
	data []byte
}

// wsPeer adapts one websocket connection to session.Peer. Every frame,
// including pong and close replies, is queued and written by writeLoop, so
// the connection has a single writer and the session loop never blocks on
// the network.
type wsPeer struct {
	id     string
	role   session.Role
	conn   net.Conn
	out    chan frame
	done   chan struct{}
	once   sync.Once
	logger *log.Logger
}

func newPeer(conn net.Conn, role session.Role, logger *log.Logger) *wsPeer {
	id := uuid.NewString()
	return &wsPeer{
		id:     id,
		role:   role,
		conn:   conn,
		out:    make(chan frame, DefaultOutbox),
		done:   make(chan struct{}),
		logger: logger.With(logging.FieldPeer, id, "role", role),
	}
}

func (p *wsPeer) ID() string {
	return p.id
}

// Send queues msg for writing.
func (p *wsPeer) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return p.queue(frame{op: ws.OpText, data: data})
}

func (p *wsPeer) queue(f frame) error {
	select {
	case <-p.done:
		return ErrPeerClosed
	default:
	}

	select {
	case p.out <- f:
		return nil
	default:
		p.close()
		return ErrSlowPeer
	}
}

func (p *wsPeer) close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

// writeLoop drains the outbox until the peer closes. Writing a close frame
// ends the connection.
func (p *wsPeer) writeLoop() {
	for {
		select {
		case <-p.done:
			return
		case f := <-p.out:
			if err := wsutil.WriteServerMessage(p.conn, f.op, f.data); err != nil {
				p.logger.Debug("write failed", logging.FieldError, err)
				p.close()
				return
			}
			if f.op == ws.OpClose {
				p.close()
				return
			}
		}
	}
}

// readLoop posts every message from the peer to sess until the connection
// ends. Undecodable messages are logged and skipped. Control frames are
// answered through the outbox.
func (p *wsPeer) readLoop(ctx context.Context, sess *session.Session) error {
	rd := &wsutil.Reader{
		Source:         p.conn,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		OnIntermediate: p.control,
	}

	for {
		data, err := p.next(rd)
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read %s: %w", p.role, err)
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			p.logger.Warn("bad message", logging.FieldError, err)
			continue
		}
		if err := sess.Post(ctx, p.id, msg); err != nil {
			return err
		}
	}
}

// next returns the payload of the next text message, handling control
// frames and skipping binary messages on the way.
func (p *wsPeer) next(rd *wsutil.Reader) ([]byte, error) {
	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return nil, err
		}
		if hdr.OpCode.IsControl() {
			if err := p.control(hdr, rd); err != nil {
				return nil, err
			}
			continue
		}
		if hdr.OpCode != ws.OpText {
			if err := rd.Discard(); err != nil {
				return nil, err
			}
			continue
		}
		return io.ReadAll(rd)
	}
}

// control answers a ping with a pong and a close with a close. It returns
// wsutil.ClosedError once the peer has closed.
func (p *wsPeer) control(hdr ws.Header, r io.Reader) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	switch hdr.OpCode {
	case ws.OpPing:
		return p.queue(frame{op: ws.OpPong, data: payload})
	case ws.OpClose:
		code, reason := ws.ParseCloseFrameData(payload)
		var body []byte
		if !code.Empty() {
			reply := code
			if ws.CheckCloseFrameData(code, reason) != nil {
				reply = ws.StatusProtocolError
			}
			body = ws.NewCloseFrameBody(reply, "")
		}
		if p.queue(frame{op: ws.OpClose, data: body}) == nil {
			select {
			case <-p.done:
			case <-time.After(closeGrace):
			}
		}
		return wsutil.ClosedError{Code: code, Reason: reason}
	default:
		return nil
	}
}
