// Package ui resolves raw hardware, GUI and MIDI signals into single
// authoritative control values and discrete gestures, and notifies the
// parameters and display layers bound to them.
package ui

// DebounceState is the four-state output of the debouncer.
type DebounceState int

const (
	// Opened is the stable released level.
	Opened DebounceState = iota
	// Closed is the stable pressed level.
	Closed
	// JustOpened holds the previous stable output while an open
	// transition persists.
	JustOpened
	// JustClosed holds the previous stable output while a close
	// transition persists.
	JustClosed
)

// Raw signal levels. Switch inputs idle high and pull low when closed.
const (
	LevelLow  = 0
	LevelHigh = 1
)

// Debouncer stabilizes a raw digital input. A logical level change is
// reported only once a raw transition has persisted for debounceUnits
// consecutive Update calls; shorter glitches are rejected.
type Debouncer struct {
	state         DebounceState
	debounceUnits int
	counter       int
}

// NewDebouncer creates a debouncer starting in the given stable state.
// Passing a JUST* state falls back to Opened.
func NewDebouncer(debounceUnits int, initial DebounceState) *Debouncer {
	if initial != Opened && initial != Closed {
		initial = Opened
	}
	return &Debouncer{state: initial, debounceUnits: debounceUnits}
}

// Update consumes one new raw sample and returns the committed logical
// level: LevelHigh while (just)opened, LevelLow while (just)closed counts
// down, flipping only after the countdown expires.
func (d *Debouncer) Update(raw int) int {
	switch d.state {
	case Opened:
		if raw == LevelLow {
			d.state = JustClosed
			d.counter = d.debounceUnits
		}
	case Closed:
		if raw == LevelHigh {
			d.state = JustOpened
			d.counter = d.debounceUnits
		}
	case JustClosed:
		if raw == LevelHigh {
			// Bounced back before the countdown expired.
			d.state = Opened
			break
		}
		d.counter--
		if d.counter <= 0 {
			d.state = Closed
		}
	case JustOpened:
		if raw == LevelLow {
			d.state = Closed
			break
		}
		d.counter--
		if d.counter <= 0 {
			d.state = Opened
		}
	}
	return d.Level()
}

// Level returns the committed logical level without consuming a sample.
func (d *Debouncer) Level() int {
	switch d.state {
	case Closed, JustOpened:
		return LevelLow
	default:
		return LevelHigh
	}
}

// State returns the current debounce state.
func (d *Debouncer) State() DebounceState {
	return d.state
}
