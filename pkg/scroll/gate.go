package scroll

import "time"

// GateState is the state of a suppression gate.
type GateState int

const (
	// Armed gates let events through.
	Armed GateState = iota
	// Suppressed gates drop events until their deadline.
	Suppressed
)

func (s GateState) String() string {
	if s == Suppressed {
		return "suppressed"
	}
	return "armed"
}

// Gate suppresses one direction of scroll feedback for a short window after a
// programmatic scroll or an edit. The zero Gate is armed.
type Gate struct {
	until time.Time
}

// Suppress drops events until now+d. An existing longer window is kept.
func (g *Gate) Suppress(now time.Time, d time.Duration) {
	if t := now.Add(d); t.After(g.until) {
		g.until = t
	}
}

// State reports the gate state at now.
func (g *Gate) State(now time.Time) GateState {
	if now.Before(g.until) {
		return Suppressed
	}
	return Armed
}

// Allows reports whether an event at now may pass.
func (g *Gate) Allows(now time.Time) bool {
	return g.State(now) == Armed
}

// Until returns the end of the current suppression window, or the zero time.
func (g *Gate) Until() time.Time {
	return g.until
}
