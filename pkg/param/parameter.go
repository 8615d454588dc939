// Package param provides the typed, observable control values of the
// effects unit: continuous slides, discrete choices and button toggles,
// grouped per effect into ordered, name-indexed collections.
package param

import (
	"math"
	"sync/atomic"

	"github.com/herrausgefuchst/grainmother/pkg/ramp"
)

// Type identifies the parameter variant.
type Type int

const (
	// TypeSlide is a continuous value driven through a ramp.
	TypeSlide Type = iota
	// TypeChoice is a discrete index into a fixed name table.
	TypeChoice
	// TypeButton is a two-state value with toggle/momentary semantics.
	TypeButton
)

// Listener is notified once per logical parameter change, never once per
// interpolation step.
type Listener interface {
	ParameterChanged(p Parameter)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(p Parameter)

// ParameterChanged implements Listener.
func (f ListenerFunc) ParameterChanged(p Parameter) { f(p) }

// Parameter is the common surface of all control values.
type Parameter interface {
	ID() string
	Name() string
	Type() Type

	// Value returns the current value in engineering units (Slide), the
	// current index (Choice), or 0/1 (Button).
	Value() float64
	// Normalized returns the current value mapped to [0,1].
	Normalized() float64
	// PrintValue returns the value formatted for a display.
	PrintValue() string

	SetValue(v float64)
	SetNormalized(n float64)
	// Nudge moves the value by direction steps (+1/-1).
	Nudge(direction int)

	AddListener(l Listener)
}

// listeners is the shared subscription registry. Lists are populated at
// setup and only read at steady state, so notification iterates without
// synchronization.
type listeners struct {
	subs []Listener
}

// AddListener registers a listener. Setup-time only.
func (ls *listeners) AddListener(l Listener) {
	ls.subs = append(ls.subs, l)
}

func (ls *listeners) notify(p Parameter) {
	for _, l := range ls.subs {
		l.ParameterChanged(p)
	}
}

// Scale selects the mapping between normalized [0,1] and engineering units.
type Scale int

const (
	// ScaleLinear maps normalized values linearly across [min,max].
	ScaleLinear Scale = iota
	// ScaleFrequency maps normalized values logarithmically, for
	// frequency-like ranges.
	ScaleFrequency
)

// Slide is a continuous parameter. Value changes glide through a ramp so
// downstream audio never hears a step.
type Slide struct {
	listeners
	id, name   string
	min, max   float64
	step       float64
	unit       string
	scale      Scale
	rampTimeMs float64
	ramp       *ramp.Ramp
	format     func(float64) string
}

// NewSlide creates a continuous parameter. rampTimeMs is the glide time
// applied to every value change; tickRate is the rate at which Process is
// called (the audio rate divided by the ramp stride).
func NewSlide(id, name string, min, max, initial float64, tickRate float64) *Slide {
	s := &Slide{
		id:         id,
		name:       name,
		min:        min,
		max:        max,
		step:       0,
		rampTimeMs: 50,
		ramp:       ramp.New(initial, tickRate),
	}
	return s
}

// WithUnit sets the display unit.
func (s *Slide) WithUnit(unit string) *Slide {
	s.unit = unit
	return s
}

// WithStep sets the nudge increment. Zero means 1% of the range.
func (s *Slide) WithStep(step float64) *Slide {
	s.step = step
	return s
}

// WithScale selects the normalized mapping.
func (s *Slide) WithScale(scale Scale) *Slide {
	s.scale = scale
	return s
}

// WithRampTime sets the glide time in milliseconds.
func (s *Slide) WithRampTime(ms float64) *Slide {
	s.rampTimeMs = ms
	return s
}

// WithFormatter sets custom value formatting.
func (s *Slide) WithFormatter(format func(float64) string) *Slide {
	s.format = format
	return s
}

// ID returns the parameter id.
func (s *Slide) ID() string { return s.id }

// Name returns the display name.
func (s *Slide) Name() string { return s.name }

// Type returns TypeSlide.
func (s *Slide) Type() Type { return TypeSlide }

// Value returns the ramp goal in engineering units. Audio code that needs
// the live interpolated value reads Current instead.
func (s *Slide) Value() float64 { return s.ramp.Goal() }

// Current returns the live interpolated value.
func (s *Slide) Current() float64 { return s.ramp.Current() }

// Normalized returns the goal mapped to [0,1].
func (s *Slide) Normalized() float64 { return s.normalize(s.ramp.Goal()) }

// PrintValue returns the goal formatted for a display.
func (s *Slide) PrintValue() string {
	if s.format != nil {
		return s.format(s.ramp.Goal())
	}
	return defaultFormat(s.ramp.Goal(), s.unit)
}

// SetValue ramps toward v. The change is notified once, on ramp
// completion; a zero ramp time notifies immediately.
func (s *Slide) SetValue(v float64) {
	v = s.clamp(v)
	if v == s.ramp.Goal() {
		return
	}
	if s.rampTimeMs == 0 {
		s.ramp.SetValue(v)
		s.notify(s)
		return
	}
	s.ramp.SetRampTo(v, s.rampTimeMs)
}

// SetNormalized ramps toward the denormalized value of n.
func (s *Slide) SetNormalized(n float64) {
	s.SetValue(s.denormalize(n))
}

// Nudge moves the goal by direction steps.
func (s *Slide) Nudge(direction int) {
	step := s.step
	if step == 0 {
		step = (s.max - s.min) / 100
	}
	s.SetValue(s.ramp.Goal() + float64(direction)*step)
}

// Process advances the ramp one tick. It notifies listeners exactly when
// the ramp completes, so a ramped change is reported once per logical
// change. Returns true while the value is still moving.
func (s *Slide) Process() bool {
	stepped := s.ramp.Process()
	if stepped && !s.ramp.IsRamping() {
		s.notify(s)
	}
	return stepped
}

// Min returns the lower bound in engineering units.
func (s *Slide) Min() float64 { return s.min }

// Max returns the upper bound in engineering units.
func (s *Slide) Max() float64 { return s.max }

func (s *Slide) clamp(v float64) float64 {
	if v < s.min {
		return s.min
	}
	if v > s.max {
		return s.max
	}
	return v
}

func (s *Slide) normalize(v float64) float64 {
	if s.max <= s.min {
		return 0
	}
	if s.scale == ScaleFrequency && s.min > 0 {
		return math.Log(v/s.min) / math.Log(s.max/s.min)
	}
	return (v - s.min) / (s.max - s.min)
}

func (s *Slide) denormalize(n float64) float64 {
	if n < 0 {
		n = 0
	} else if n > 1 {
		n = 1
	}
	if s.scale == ScaleFrequency && s.min > 0 {
		return s.min * math.Pow(s.max/s.min, n)
	}
	return s.min + n*(s.max-s.min)
}

// Choice is a discrete parameter: an index into a fixed, immutable name
// table. The index is published atomically so display readers can
// observe it while a control thread writes.
type Choice struct {
	listeners
	id, name string
	names    []string
	index    atomic.Int32
}

// NewChoice creates a discrete parameter over the given names.
func NewChoice(id, name string, names []string) *Choice {
	owned := make([]string, len(names))
	copy(owned, names)
	return &Choice{id: id, name: name, names: owned}
}

// ID returns the parameter id.
func (c *Choice) ID() string { return c.id }

// Name returns the display name.
func (c *Choice) Name() string { return c.name }

// Type returns TypeChoice.
func (c *Choice) Type() Type { return TypeChoice }

// Value returns the current index.
func (c *Choice) Value() float64 { return float64(c.index.Load()) }

// Index returns the current index.
func (c *Choice) Index() int { return int(c.index.Load()) }

// Normalized maps the index to [0,1].
func (c *Choice) Normalized() float64 {
	if len(c.names) < 2 {
		return 0
	}
	return float64(c.index.Load()) / float64(len(c.names)-1)
}

// PrintValue returns the current choice name.
func (c *Choice) PrintValue() string {
	idx := int(c.index.Load())
	if idx >= 0 && idx < len(c.names) {
		return c.names[idx]
	}
	return "?"
}

// Names returns the immutable name table.
func (c *Choice) Names() []string { return c.names }

// SetValue selects the index nearest v, clamped to the table.
func (c *Choice) SetValue(v float64) {
	idx := int(math.Round(v))
	if idx < 0 {
		idx = 0
	}
	if idx > len(c.names)-1 {
		idx = len(c.names) - 1
	}
	c.setIndex(idx)
}

// SetNormalized selects the index nearest n scaled across the table.
func (c *Choice) SetNormalized(n float64) {
	if len(c.names) < 2 {
		return
	}
	c.SetValue(n * float64(len(c.names)-1))
}

// Nudge steps through the table, wrapping modulo its size.
func (c *Choice) Nudge(direction int) {
	n := len(c.names)
	if n == 0 {
		return
	}
	c.setIndex(((c.Index()+direction)%n + n) % n)
}

func (c *Choice) setIndex(idx int) {
	if int32(idx) == c.index.Load() {
		return
	}
	c.index.Store(int32(idx))
	c.notify(c)
}

// ButtonMode selects the behavior of a Button parameter.
type ButtonMode int

const (
	// Toggle flips the value on every click.
	Toggle ButtonMode = iota
	// Momentary holds 1 while pressed and 0 otherwise, with no persisted
	// state.
	Momentary
	// Coupled keeps both semantics active simultaneously.
	Coupled
)

// Button is a two-state parameter driven by click/press/release gestures.
type Button struct {
	listeners
	id, name string
	mode     ButtonMode
	value    atomic.Int32
	// toggled tracks the persisted state separately from the held state
	// so Coupled mode can restore it on release. Only the gesture
	// goroutine touches it.
	toggled int32
}

// NewButton creates a button parameter.
func NewButton(id, name string, mode ButtonMode) *Button {
	return &Button{id: id, name: name, mode: mode}
}

// ID returns the parameter id.
func (b *Button) ID() string { return b.id }

// Name returns the display name.
func (b *Button) Name() string { return b.name }

// Type returns TypeButton.
func (b *Button) Type() Type { return TypeButton }

// Value returns 0 or 1.
func (b *Button) Value() float64 { return float64(b.value.Load()) }

// Normalized returns 0 or 1.
func (b *Button) Normalized() float64 { return float64(b.value.Load()) }

// PrintValue returns "on" or "off".
func (b *Button) PrintValue() string {
	if b.value.Load() != 0 {
		return "on"
	}
	return "off"
}

// SetValue sets the state directly; nonzero means on.
func (b *Button) SetValue(v float64) {
	var next int32
	if v != 0 {
		next = 1
	}
	b.toggled = next
	b.set(next)
}

// SetNormalized sets the state directly; nonzero means on.
func (b *Button) SetNormalized(n float64) { b.SetValue(n) }

// Nudge flips the state.
func (b *Button) Nudge(int) { b.Click() }

// Click handles a click gesture. Toggle and Coupled modes flip the
// persisted state; Momentary ignores clicks.
func (b *Button) Click() {
	if b.mode == Momentary {
		return
	}
	b.toggled = 1 - b.toggled
	b.set(b.toggled)
}

// Press handles a long-press gesture. Momentary and Coupled modes hold 1
// while pressed.
func (b *Button) Press() {
	if b.mode == Toggle {
		return
	}
	b.set(1)
}

// Release handles a release after a long press. Momentary returns to 0;
// Coupled returns to the persisted toggle state.
func (b *Button) Release() {
	switch b.mode {
	case Momentary:
		b.set(0)
	case Coupled:
		b.set(b.toggled)
	}
}

func (b *Button) set(v int32) {
	if v == b.value.Load() {
		return
	}
	b.value.Store(v)
	b.notify(b)
}
