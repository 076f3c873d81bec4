package session

import (
	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/pkg/protocol"
)

// Role is what a peer is to the session.
type Role int

const (
	// RolePreview is a browser page rendering the document.
	RolePreview Role = iota
	// RoleEditor is an editor integration that owns the text being shown.
	RoleEditor
)

func (r Role) String() string {
	switch r {
	case RolePreview:
		return "preview"
	case RoleEditor:
		return "editor"
	default:
		return "unknown"
	}
}

// Peer is a connected preview or editor. Send must not block; a peer that
// cannot take a message returns an error and is dropped.
type Peer interface {
	ID() string
	Send(msg protocol.Message) error
}

type peerState struct {
	role Role
	conn Peer

	// ready is set once a preview has loaded and received the document.
	ready bool
}

func (s *Session) attach(ev event) {
	s.peers[ev.peer] = &peerState{role: ev.role, conn: ev.conn}
	s.logger.Debug("peer attached", logging.FieldPeer, ev.peer, "role", ev.role)
}

func (s *Session) detach(id string) {
	if _, ok := s.peers[id]; !ok {
		return
	}
	delete(s.peers, id)
	s.logger.Debug("peer detached", logging.FieldPeer, id)

	if s.count(RolePreview) == 0 {
		s.haveGeometry = false
		s.anchors = nil
	}
}

// count returns the number of peers with role. Previews count once ready.
func (s *Session) count(role Role) int {
	n := 0
	for _, p := range s.peers {
		if p.role == role && (role != RolePreview || p.ready) {
			n++
		}
	}
	return n
}

func (s *Session) send(id string, msg protocol.Message) {
	p, ok := s.peers[id]
	if !ok {
		return
	}
	if err := p.conn.Send(msg); err != nil {
		s.logger.Debug("dropping peer", logging.FieldPeer, id, logging.FieldError, err)
		delete(s.peers, id)
	}
}

// broadcast sends msg to every peer with role; previews only once ready.
func (s *Session) broadcast(role Role, msg protocol.Message) {
	for id, p := range s.peers {
		if p.role != role || (role == RolePreview && !p.ready) {
			continue
		}
		s.send(id, msg)
	}
}

// notice shows text on every preview and editor.
func (s *Session) notice(level, text string) {
	msg := &protocol.Notice{Level: level, Text: text}
	s.broadcast(RolePreview, msg)
	s.broadcast(RoleEditor, msg)
}
