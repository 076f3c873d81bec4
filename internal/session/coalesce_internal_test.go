package session

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yaklabco/mdsync/pkg/protocol"
	"github.com/yaklabco/mdsync/pkg/scroll"
)

func msgEvent(msg protocol.Message) event {
	return event{kind: evMessage, msg: msg}
}

func TestCoalesce(t *testing.T) {
	t.Parallel()

	batch := []event{
		msgEvent(&protocol.ScrollTo{Line: 1}),
		msgEvent(&protocol.Scroll{Viewport: scroll.Viewport{ScrollTop: 10}}),
		msgEvent(&protocol.Geometry{}),
		msgEvent(&protocol.ScrollTo{Line: 2}),
		msgEvent(&protocol.UpdateContent{Content: "a"}),
		{kind: evDetach, peer: "p1"},
		msgEvent(&protocol.Scroll{Viewport: scroll.Viewport{ScrollTop: 20}}),
		msgEvent(&protocol.Geometry{Anchors: []scroll.Anchor{{Line: 3}}}),
		msgEvent(&protocol.ScrollTo{Line: 3}),
	}

	got := make([]string, 0)
	for _, ev := range coalesce(batch) {
		switch m := ev.msg.(type) {
		case *protocol.ScrollTo:
			got = append(got, "scrollTo:"+string(rune('0'+m.Line)))
		case *protocol.Scroll:
			got = append(got, "scroll")
			if m.Viewport.ScrollTop != 20 {
				t.Errorf("kept stale scroll %v", m.Viewport.ScrollTop)
			}
		case *protocol.Geometry:
			got = append(got, "geometry")
			if len(m.Anchors) != 1 {
				t.Errorf("kept stale geometry")
			}
		case *protocol.UpdateContent:
			got = append(got, "update")
		case nil:
			got = append(got, "detach")
		}
	}

	want := []string{"update", "detach", "geometry", "scroll", "scrollTo:3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("coalesce() mismatch (-want +got):\n%s", diff)
	}
}

func TestCoalesceKeepsOrderWithoutScrolls(t *testing.T) {
	t.Parallel()

	batch := []event{
		msgEvent(&protocol.UpdateContent{Content: "a"}),
		msgEvent(&protocol.Undo{}),
		msgEvent(&protocol.UpdateContent{Content: "b"}),
	}
	got := coalesce(batch)
	if len(got) != 3 {
		t.Fatalf("coalesce() kept %d events, want 3", len(got))
	}
	if got[2].msg.(*protocol.UpdateContent).Content != "b" {
		t.Errorf("last event changed")
	}
}
