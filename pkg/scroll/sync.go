package scroll

import "time"

// SyncOptions configure a Sync.
type SyncOptions struct {
	Correlator Options

	// Suppress is the echo window armed by programmatic scrolls and edits.
	Suppress time.Duration

	// Settle is how long preview scrolling must pause before it is reported.
	Settle time.Duration

	// Interval is the minimum time between two reports to the editor.
	Interval time.Duration
}

// DefaultSyncOptions returns the default timings.
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		Correlator: DefaultOptions(),
		Suppress:   200 * time.Millisecond,
		Settle:     90 * time.Millisecond,
		Interval:   60 * time.Millisecond,
	}
}

// Sync holds the per-session scroll state for both directions: a gate for
// editor-to-preview requests, a gate for preview scroll events, and the
// throttle on preview scrolling. It is not safe for concurrent use; a session
// owns one and touches it from its event loop only.
type Sync struct {
	opts SyncOptions
	corr *Correlator

	// toEditor gates preview scroll events on their way to the editor.
	toEditor Gate
	// toPreview gates editor scroll requests on their way to the preview.
	toPreview Gate

	throttle *Throttle[Viewport]
}

// NewSync creates a Sync.
func NewSync(opts SyncOptions) *Sync {
	return &Sync{
		opts:     opts,
		corr:     NewCorrelator(opts.Correlator),
		throttle: NewThrottle[Viewport](opts.Settle, opts.Interval),
	}
}

// Correlator returns the correlator used by s.
func (s *Sync) Correlator() *Correlator {
	return s.corr
}

// ScrollTo handles an editor request. It returns the preview offset to
// apply, or false when the request is an echo of our own reveal or maps to
// no finite offset. Applying the offset scrolls the preview, so the preview
// direction is suppressed and any throttled preview scroll is dropped.
func (s *Sync) ScrollTo(now time.Time, anchors []Anchor, vp Viewport, req Request) (float64, bool) {
	if !s.toPreview.Allows(now) {
		return 0, false
	}
	offset, ok := s.corr.Offset(anchors, vp, req)
	if !ok {
		return 0, false
	}
	s.toEditor.Suppress(now, s.opts.Suppress)
	s.throttle.Reset()
	return offset, true
}

// ObserveScroll records a preview scroll. It reports false when the event
// falls inside a suppression window and was ignored.
func (s *Sync) ObserveScroll(now time.Time, vp Viewport) bool {
	if !s.toEditor.Allows(now) {
		return false
	}
	s.throttle.Observe(now, vp)
	return true
}

// Poll releases a settled preview scroll as a source line for the editor.
// Revealing the line scrolls the editor, so editor requests are suppressed.
func (s *Sync) Poll(now time.Time, anchors []Anchor) (int, bool) {
	vp, ok := s.throttle.Poll(now)
	if !ok {
		return 0, false
	}
	line, ok := s.corr.SourceLine(anchors, vp)
	if !ok {
		return 0, false
	}
	s.toPreview.Suppress(now, s.opts.Suppress)
	return line, true
}

// Due returns when Poll should next be called.
func (s *Sync) Due() (time.Time, bool) {
	return s.throttle.Due()
}

// NoteEdit suppresses both directions after an edit so the re-render and
// the editor's cursor move are not taken for user scrolling.
func (s *Sync) NoteEdit(now time.Time) {
	s.toEditor.Suppress(now, s.opts.Suppress)
	s.toPreview.Suppress(now, s.opts.Suppress)
	s.throttle.Reset()
}

// States reports the gate states at now, editor-bound first.
func (s *Sync) States(now time.Time) (toEditor, toPreview GateState) {
	return s.toEditor.State(now), s.toPreview.State(now)
}
