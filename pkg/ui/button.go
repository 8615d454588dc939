package ui

// Gesture is a discrete event detected on a button line.
type Gesture int

const (
	// GestureClick is a short press and release.
	GestureClick Gesture = iota
	// GesturePress is a hold that reached the long-press threshold.
	GesturePress
	// GestureRelease is the release after a long press.
	GestureRelease
)

// String returns the gesture name.
func (g Gesture) String() string {
	switch g {
	case GestureClick:
		return "click"
	case GesturePress:
		return "press"
	case GestureRelease:
		return "release"
	default:
		return "unknown"
	}
}

// gestureState is the internal detection state.
type gestureState int

const (
	noAction gestureState = iota
	justChanged
	awaitingLongPress
)

// DefaultLongPressUnits is the hold length, in UI ticks, that turns a hold
// into a long press.
const DefaultLongPressUnits = 50

// GestureListener observes all gestures of a button.
type GestureListener interface {
	ButtonGesture(b *Button, g Gesture)
}

// Button combines a debounced physical line with a GUI line and detects
// click, long-press and release-after-press gestures from the single
// binary input.
type Button struct {
	index int
	name  string

	debouncer *Debouncer
	phase     int // debounced logical level, LevelHigh = released
	lastPhase int

	state          gestureState
	longPressUnits int
	countdown      int
	pressFired     bool

	onClick   []func(*Button)
	onPress   []func(*Button)
	onRelease []func(*Button)
	subs      []GestureListener
}

// NewButton creates a button. debounceUnits stabilizes the analog line;
// longPressUnits is the hold threshold in UI ticks.
func NewButton(index int, name string, debounceUnits, longPressUnits int) *Button {
	return &Button{
		index:          index,
		name:           name,
		debouncer:      NewDebouncer(debounceUnits, Opened),
		phase:          LevelHigh,
		lastPhase:      LevelHigh,
		longPressUnits: longPressUnits,
	}
}

// Index returns the hardware position of the button.
func (b *Button) Index() int { return b.index }

// Name returns the button name.
func (b *Button) Name() string { return b.name }

// Phase returns the debounced logical level (LevelHigh = released).
func (b *Button) Phase() int { return b.phase }

// IsPressed returns true while the line is held low.
func (b *Button) IsPressed() bool { return b.phase == LevelLow }

// OnClick registers a click callback. Setup-time only.
func (b *Button) OnClick(fn func(*Button)) { b.onClick = append(b.onClick, fn) }

// OnPress registers a long-press callback. Setup-time only.
func (b *Button) OnPress(fn func(*Button)) { b.onPress = append(b.onPress, fn) }

// OnRelease registers a release-after-press callback. Setup-time only.
func (b *Button) OnRelease(fn func(*Button)) { b.onRelease = append(b.onRelease, fn) }

// AddListener registers a generic gesture listener. Setup-time only.
func (b *Button) AddListener(l GestureListener) { b.subs = append(b.subs, l) }

// Update consumes one UI tick of raw GUI and analog levels. Either line
// pulling low counts as pressed.
func (b *Button) Update(guiRaw, analogRaw int) {
	debounced := b.debouncer.Update(analogRaw)
	phase := LevelHigh
	if guiRaw == LevelLow || debounced == LevelLow {
		phase = LevelLow
	}
	b.lastPhase = b.phase
	b.phase = phase

	switch b.state {
	case noAction:
		if b.phase != b.lastPhase {
			b.state = justChanged
		}
	case justChanged:
		if b.phase == LevelHigh {
			if b.pressFired {
				b.emit(GestureRelease)
				b.pressFired = false
			} else {
				b.emit(GestureClick)
			}
			b.state = noAction
		} else {
			b.countdown = b.longPressUnits
			b.state = awaitingLongPress
		}
	case awaitingLongPress:
		if b.phase != b.lastPhase {
			b.state = justChanged
			break
		}
		b.countdown--
		if b.countdown <= 0 {
			b.emit(GesturePress)
			b.pressFired = true
			// The hold keeps registering as pressed without re-firing.
			b.state = noAction
		}
	}
}

func (b *Button) emit(g Gesture) {
	switch g {
	case GestureClick:
		for _, fn := range b.onClick {
			fn(b)
		}
	case GesturePress:
		for _, fn := range b.onPress {
			fn(b)
		}
	case GestureRelease:
		for _, fn := range b.onRelease {
			fn(b)
		}
	}
	for _, l := range b.subs {
		l.ButtonGesture(b, g)
	}
}
