package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/internal/logging"
	"github.com/yaklabco/mdsync/internal/session"
	"github.com/yaklabco/mdsync/pkg/protocol"
)

func TestPeerOutbox(t *testing.T) {
	t.Parallel()

	conn, client := net.Pipe()
	defer client.Close()

	peer := newPeer(conn, session.RolePreview, logging.Default())
	assert.NotEmpty(t, peer.ID())

	// Nothing drains the outbox, so it fills and the peer is cut off.
	for range DefaultOutbox {
		require.NoError(t, peer.Send(&protocol.Ready{}))
	}
	require.ErrorIs(t, peer.Send(&protocol.Ready{}), ErrSlowPeer)
	require.ErrorIs(t, peer.Send(&protocol.Ready{}), ErrPeerClosed)
}

func TestPeerCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	conn, client := net.Pipe()
	defer client.Close()

	peer := newPeer(conn, session.RoleEditor, logging.Default())
	peer.close()
	peer.close()

	require.ErrorIs(t, peer.Send(&protocol.Notice{Level: protocol.LevelInfo, Text: "x"}), ErrPeerClosed)
}

func TestPeerAnswersControlFramesThroughOutbox(t *testing.T) {
	t.Parallel()

	conn, client := net.Pipe()
	defer client.Close()

	peer := newPeer(conn, session.RolePreview, logging.Default())
	defer peer.close()

	// Queued before the ping, so it must reach the client first.
	require.NoError(t, peer.Send(&protocol.Ready{}))

	go peer.writeLoop()
	errc := make(chan error, 1)
	go func() { errc <- peer.readLoop(context.Background(), nil) }()

	require.NoError(t, wsutil.WriteClientMessage(client, ws.OpPing, []byte("hi")))

	first, err := ws.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, ws.OpText, first.Header.OpCode)

	pong, err := ws.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, ws.OpPong, pong.Header.OpCode)
	assert.Equal(t, []byte("hi"), pong.Payload)

	require.NoError(t, wsutil.WriteClientMessage(client, ws.OpClose,
		ws.NewCloseFrameBody(ws.StatusNormalClosure, "bye")))

	reply, err := ws.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, ws.OpClose, reply.Header.OpCode)
	code, _ := ws.ParseCloseFrameData(reply.Payload)
	assert.Equal(t, ws.StatusNormalClosure, code)

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("read loop did not stop after close")
	}
}
