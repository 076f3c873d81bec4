package scroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/pkg/scroll"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func TestGate(t *testing.T) {
	t.Parallel()

	var g scroll.Gate
	assert.Equal(t, scroll.Armed, g.State(at(0)))

	g.Suppress(at(0), 200*time.Millisecond)
	assert.Equal(t, scroll.Suppressed, g.State(at(199)))
	assert.Equal(t, scroll.Armed, g.State(at(200)))

	// A shorter window does not cut an existing one.
	g.Suppress(at(10), 50*time.Millisecond)
	assert.False(t, g.Allows(at(150)))
	assert.Equal(t, at(200), g.Until())
	assert.Equal(t, "suppressed", scroll.Suppressed.String())
}

func TestThrottleKeepsLatest(t *testing.T) {
	t.Parallel()

	th := scroll.NewThrottle[int](90*time.Millisecond, 60*time.Millisecond)

	th.Observe(at(0), 1)
	th.Observe(at(30), 2)
	th.Observe(at(60), 3)

	_, ok := th.Poll(at(100))
	assert.False(t, ok, "still settling")

	v, ok := th.Poll(at(150))
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = th.Poll(at(400))
	assert.False(t, ok, "nothing pending")
}

func TestThrottleRateLimit(t *testing.T) {
	t.Parallel()

	th := scroll.NewThrottle[int](10*time.Millisecond, 100*time.Millisecond)

	th.Observe(at(0), 1)
	_, ok := th.Poll(at(10))
	require.True(t, ok)

	th.Observe(at(20), 2)
	due, ok := th.Due()
	require.True(t, ok)
	assert.Equal(t, at(110), due)

	_, ok = th.Poll(at(50))
	assert.False(t, ok)
	v, ok := th.Poll(at(110))
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestSyncSuppressesEcho(t *testing.T) {
	t.Parallel()

	s := scroll.NewSync(scroll.DefaultSyncOptions())
	anchors := evenAnchors(100, 10)
	vp := scroll.Viewport{ScrollTop: 0, ViewHeight: 400, ScrollHeight: 2000}

	_, ok := s.ScrollTo(at(0), anchors, vp, scroll.Request{Line: 40, TotalLines: 100})
	require.True(t, ok)

	// The preview scroll caused by the request is ignored.
	assert.False(t, s.ObserveScroll(at(50), scroll.Viewport{ScrollTop: 200, ViewHeight: 400, ScrollHeight: 2000}))
	_, pending := s.Due()
	assert.False(t, pending)

	// A user scroll after the window goes through and suppresses the editor echo.
	require.True(t, s.ObserveScroll(at(300), scroll.Viewport{ScrollTop: 600, ViewHeight: 400, ScrollHeight: 2000}))
	line, ok := s.Poll(at(400), anchors)
	require.True(t, ok)
	assert.Equal(t, 80, line)

	_, ok = s.ScrollTo(at(450), anchors, vp, scroll.Request{Line: 80, TotalLines: 100})
	assert.False(t, ok, "editor echo of our reveal")

	toEditor, toPreview := s.States(at(450))
	assert.Equal(t, scroll.Armed, toEditor)
	assert.Equal(t, scroll.Suppressed, toPreview)
}

func TestSyncNoteEdit(t *testing.T) {
	t.Parallel()

	s := scroll.NewSync(scroll.DefaultSyncOptions())
	require.True(t, s.ObserveScroll(at(0), viewport))
	s.NoteEdit(at(10))

	_, ok := s.Poll(at(500), evenAnchors(100, 10))
	assert.False(t, ok, "pending scroll dropped by the edit")
	assert.False(t, s.ObserveScroll(at(100), viewport))
	assert.True(t, s.ObserveScroll(at(210), viewport))
}
