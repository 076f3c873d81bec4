package scroll

import "time"

// Throttle debounces a stream of observations and rate limits what it lets
// out. Only the latest observation is kept: a value is released once no new
// observation arrived for the settle period and at least the minimum interval
// passed since the previous release.
type Throttle[T any] struct {
	settle   time.Duration
	interval time.Duration

	pending  T
	has      bool
	lastSeen time.Time
	lastOut  time.Time
}

// NewThrottle creates a Throttle.
func NewThrottle[T any](settle, interval time.Duration) *Throttle[T] {
	return &Throttle[T]{settle: settle, interval: interval}
}

// Observe records v as the latest observation, replacing any pending one.
func (t *Throttle[T]) Observe(now time.Time, v T) {
	t.pending = v
	t.has = true
	t.lastSeen = now
}

// Pending reports whether an observation is waiting.
func (t *Throttle[T]) Pending() bool {
	return t.has
}

// Due returns when the pending observation can be released.
func (t *Throttle[T]) Due() (time.Time, bool) {
	if !t.has {
		return time.Time{}, false
	}
	due := t.lastSeen.Add(t.settle)
	if next := t.lastOut.Add(t.interval); next.After(due) {
		due = next
	}
	return due, true
}

// Poll releases the pending observation if it is due at now.
func (t *Throttle[T]) Poll(now time.Time) (T, bool) {
	var zero T
	due, ok := t.Due()
	if !ok || now.Before(due) {
		return zero, false
	}
	v := t.pending
	t.pending = zero
	t.has = false
	t.lastOut = now
	return v, true
}

// Reset drops any pending observation.
func (t *Throttle[T]) Reset() {
	var zero T
	t.pending = zero
	t.has = false
}
