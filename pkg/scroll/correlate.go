// Package scroll correlates rendered vertical offsets in the preview with
// source lines, in both directions, and keeps the two directions from
// echoing each other.
package scroll

import (
	"cmp"
	"math"
	"slices"
)

// Anchor is a line-tagged element of the rendered document as measured by the
// preview. Top is the element's offset from the top of the scroll content.
type Anchor struct {
	Line   int     `json:"line"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Viewport is the preview's scroll geometry.
type Viewport struct {
	ScrollTop    float64 `json:"scrollTop"`
	ViewHeight   float64 `json:"viewHeight"`
	ScrollHeight float64 `json:"scrollHeight"`
}

// MaxScroll is the largest reachable ScrollTop.
func (v Viewport) MaxScroll() float64 {
	return math.Max(0, v.ScrollHeight-v.ViewHeight)
}

// Center is the content offset at the middle of the viewport.
func (v Viewport) Center() float64 {
	return v.ScrollTop + v.ViewHeight/2
}

func (v Viewport) finite() bool {
	return isFinite(v.ScrollTop) && isFinite(v.ViewHeight) && isFinite(v.ScrollHeight)
}

// Request asks the preview to show a source line. EndLine, when set, is the
// last line visible in the editor.
type Request struct {
	Line       int
	TotalLines int
	EndLine    *int
}

// Options tune the correlator.
type Options struct {
	// EdgeLines is how many lines at each end of the document snap the
	// preview to the top or bottom.
	EdgeLines int

	// TopTolerance and BottomTolerance are the pixel distances from the
	// scroll extremes treated as being at the extreme.
	TopTolerance    float64
	BottomTolerance float64
}

// DefaultOptions returns the default correlator options.
func DefaultOptions() Options {
	return Options{
		EdgeLines:       5,
		TopTolerance:    4,
		BottomTolerance: 4,
	}
}

// Correlator maps between source lines and preview offsets using anchors.
type Correlator struct {
	opts Options
}

// NewCorrelator creates a Correlator.
func NewCorrelator(opts Options) *Correlator {
	return &Correlator{opts: opts}
}

// SourceLine maps the preview viewport to the source line at its center.
// The result is 0 at the top of the document and the last anchor's line at
// the bottom; between anchors the line is interpolated by position. It
// returns false when the geometry is unusable.
func (c *Correlator) SourceLine(anchors []Anchor, vp Viewport) (int, bool) {
	if !vp.finite() {
		return 0, false
	}
	if vp.ScrollTop <= c.opts.TopTolerance {
		return 0, true
	}

	sorted := usable(anchors)
	if len(sorted) == 0 {
		return 0, false
	}
	slices.SortStableFunc(sorted, func(a, b Anchor) int {
		return cmp.Compare(a.Top, b.Top)
	})

	center := vp.Center()
	first, last := sorted[0], sorted[len(sorted)-1]
	switch {
	case center < first.Top:
		return 0, true
	case vp.MaxScroll() > 0 && vp.ScrollTop >= vp.MaxScroll()-c.opts.BottomTolerance:
		return last.Line, true
	case center >= last.Top:
		return last.Line, true
	}

	for i := 0; i+1 < len(sorted); i++ {
		lo, hi := sorted[i], sorted[i+1]
		if center < lo.Top || center >= hi.Top {
			continue
		}
		if hi.Top == lo.Top || hi.Line <= lo.Line {
			return lo.Line, true
		}
		ratio := (center - lo.Top) / (hi.Top - lo.Top)
		return lo.Line + int(math.Floor(ratio*float64(hi.Line-lo.Line))), true
	}
	return last.Line, true
}

// Offset maps a source line to the preview ScrollTop that shows it. Lines in
// the first EdgeLines go to the top and lines in the last EdgeLines go to the
// bottom. Otherwise an anchor on the exact line is centered, or the offset is
// interpolated between the bracketing anchors, extrapolated towards the
// document end past the last anchor, or taken proportionally before the first.
// The result is clamped to the scroll range; false means the computation did
// not produce a finite number and the request should be dropped.
func (c *Correlator) Offset(anchors []Anchor, vp Viewport, req Request) (float64, bool) {
	if !vp.finite() {
		return 0, false
	}
	maxScroll := vp.MaxScroll()

	if req.Line < c.opts.EdgeLines {
		return 0, true
	}
	if req.TotalLines > 0 {
		last := req.Line
		if req.EndLine != nil && *req.EndLine > last {
			last = *req.EndLine
		}
		if last >= req.TotalLines-c.opts.EdgeLines {
			return maxScroll, true
		}
	}

	target := c.rawOffset(anchors, vp, req)
	if !isFinite(target) {
		return 0, false
	}
	return math.Min(math.Max(target, 0), maxScroll), true
}

func (c *Correlator) rawOffset(anchors []Anchor, vp Viewport, req Request) float64 {
	half := vp.ViewHeight / 2
	line := float64(req.Line)

	sorted := usable(anchors)
	if len(sorted) == 0 {
		if req.TotalLines <= 0 {
			return 0
		}
		return line/float64(req.TotalLines)*vp.ScrollHeight - half
	}
	slices.SortStableFunc(sorted, func(a, b Anchor) int {
		return a.Line - b.Line
	})

	var before, after *Anchor
	for i := range sorted {
		a := &sorted[i]
		if a.Line == req.Line {
			return a.Top - half + a.Height/2
		}
		if a.Line < req.Line {
			before = a
			continue
		}
		after = a
		break
	}

	switch {
	case before != nil && after != nil:
		ratio := (line - float64(before.Line)) / float64(after.Line-before.Line)
		return before.Top + (after.Top-before.Top)*ratio - half
	case after != nil:
		if after.Line <= 0 {
			return 0
		}
		return line/float64(after.Line)*after.Top - half
	default:
		if req.TotalLines <= before.Line {
			return before.Top - half
		}
		ratio := (line - float64(before.Line)) / float64(req.TotalLines-before.Line)
		return before.Top + (vp.ScrollHeight-before.Top)*ratio - half
	}
}

// usable copies the anchors that have a line and finite geometry.
func usable(anchors []Anchor) []Anchor {
	out := make([]Anchor, 0, len(anchors))
	for _, a := range anchors {
		if a.Line >= 0 && isFinite(a.Top) && isFinite(a.Height) {
			out = append(out, a)
		}
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
