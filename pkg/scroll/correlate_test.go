package scroll_test

import (
	"math"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdsync/pkg/scroll"
)

// evenAnchors places one 20px anchor every step lines, 100px apart.
func evenAnchors(total, step int) []scroll.Anchor {
	var out []scroll.Anchor
	for line := 0; line < total; line += step {
		out = append(out, scroll.Anchor{Line: line, Top: float64(line / step * 100), Height: 20})
	}
	return out
}

var viewport = scroll.Viewport{ScrollTop: 0, ViewHeight: 400, ScrollHeight: 2000}

func TestOffsetEdges(t *testing.T) {
	t.Parallel()

	c := scroll.NewCorrelator(scroll.DefaultOptions())
	densities := map[string][]scroll.Anchor{
		"none":   nil,
		"sparse": evenAnchors(100, 50),
		"dense":  evenAnchors(100, 1),
	}

	for name, anchors := range densities {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			top, ok := c.Offset(anchors, viewport, scroll.Request{Line: 0, TotalLines: 100})
			require.True(t, ok)
			assert.InDelta(t, 0.0, top, 0)

			bottom, ok := c.Offset(anchors, viewport, scroll.Request{Line: 97, TotalLines: 100})
			require.True(t, ok)
			assert.InDelta(t, viewport.ScrollHeight-viewport.ViewHeight, bottom, 0)
		})
	}
}

func TestOffsetEndLineReachesBottom(t *testing.T) {
	t.Parallel()

	c := scroll.NewCorrelator(scroll.DefaultOptions())
	got, ok := c.Offset(evenAnchors(100, 10), viewport, scroll.Request{Line: 60, TotalLines: 100, EndLine: lo.ToPtr(99)})
	require.True(t, ok)
	assert.InDelta(t, viewport.MaxScroll(), got, 0)
}

func TestOffsetInterior(t *testing.T) {
	t.Parallel()

	c := scroll.NewCorrelator(scroll.DefaultOptions())
	anchors := evenAnchors(100, 10) // line 10 at 100px, line 20 at 200px, ...
	half := viewport.ViewHeight / 2

	tests := []struct {
		name string
		req  scroll.Request
		want float64
	}{
		{"exact anchor is centered", scroll.Request{Line: 30, TotalLines: 100}, 300 - half + 10},
		{"interpolated between anchors", scroll.Request{Line: 35, TotalLines: 100}, 350 - half},
		{"clamped at zero", scroll.Request{Line: 12, TotalLines: 100}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := c.Offset(anchors, viewport, tc.req)
			require.True(t, ok)
			assert.InDelta(t, tc.want, got, 0.001)
		})
	}
}

func TestOffsetExtrapolatesPastLastAnchor(t *testing.T) {
	t.Parallel()

	c := scroll.NewCorrelator(scroll.DefaultOptions())
	anchors := []scroll.Anchor{{Line: 10, Top: 200, Height: 20}, {Line: 20, Top: 400, Height: 20}}
	vp := scroll.Viewport{ViewHeight: 200, ScrollHeight: 4000}

	// Halfway from line 20 to line 220 is halfway from 400px to the 4000px end.
	got, ok := c.Offset(anchors, vp, scroll.Request{Line: 120, TotalLines: 220})
	require.True(t, ok)
	assert.InDelta(t, 2200.0-100, got, 0.001)
}

func TestOffsetWithoutAnchorsIsProportional(t *testing.T) {
	t.Parallel()

	c := scroll.NewCorrelator(scroll.DefaultOptions())
	got, ok := c.Offset(nil, viewport, scroll.Request{Line: 50, TotalLines: 100})
	require.True(t, ok)
	assert.InDelta(t, 1000.0-200, got, 0.001)
}

func TestOffsetDropsNonFiniteGeometry(t *testing.T) {
	t.Parallel()

	c := scroll.NewCorrelator(scroll.DefaultOptions())
	bad := scroll.Viewport{ScrollTop: 0, ViewHeight: math.NaN(), ScrollHeight: 100}
	_, ok := c.Offset(nil, bad, scroll.Request{Line: 50, TotalLines: 100})
	assert.False(t, ok)

	// A NaN anchor is ignored rather than poisoning the result.
	anchors := []scroll.Anchor{{Line: 40, Top: math.NaN()}, {Line: 60, Top: 600}}
	got, ok := c.Offset(anchors, viewport, scroll.Request{Line: 60, TotalLines: 100})
	require.True(t, ok)
	assert.InDelta(t, 600-viewport.ViewHeight/2, got, 0.001)
}

func TestSourceLine(t *testing.T) {
	t.Parallel()

	c := scroll.NewCorrelator(scroll.DefaultOptions())
	anchors := []scroll.Anchor{
		{Line: 4, Top: 300},
		{Line: 10, Top: 500},
		{Line: 30, Top: 900},
	}

	tests := []struct {
		name      string
		scrollTop float64
		want      int
	}{
		{"at top", 0, 0},
		{"center above first anchor", 50, 0},
		{"on first anchor", 100, 4},
		{"interpolated", 500, 20},
		{"at bottom", 1600, 30},
		{"past last anchor", 900, 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			vp := scroll.Viewport{ScrollTop: tc.scrollTop, ViewHeight: 400, ScrollHeight: 2000}
			got, ok := c.SourceLine(anchors, vp)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSourceLineWithoutAnchors(t *testing.T) {
	t.Parallel()

	c := scroll.NewCorrelator(scroll.DefaultOptions())
	_, ok := c.SourceLine(nil, scroll.Viewport{ScrollTop: 300, ViewHeight: 400, ScrollHeight: 2000})
	assert.False(t, ok)
}

// The preview direction never reports lines out of order relative to the
// anchors it was given.
func TestSourceLineMonotonic(t *testing.T) {
	t.Parallel()

	c := scroll.NewCorrelator(scroll.DefaultOptions())
	anchors := evenAnchors(200, 7)
	prev := -1
	for top := 0.0; top <= 3000; top += 13 {
		got, ok := c.SourceLine(anchors, scroll.Viewport{ScrollTop: top, ViewHeight: 400, ScrollHeight: 3400})
		require.True(t, ok)
		require.GreaterOrEqual(t, got, prev, "scrollTop %v", top)
		prev = got
	}
}
