package ui

import (
	"github.com/herrausgefuchst/grainmother/pkg/rtlog"
)

// Source identifies which raw input currently drives a potentiometer.
type Source int

const (
	// SourceNone means no source has taken control yet.
	SourceNone Source = iota
	// SourceGUI is the on-screen control.
	SourceGUI
	// SourceAnalog is the physical potentiometer.
	SourceAnalog
	// SourceMIDI is an incoming control change.
	SourceMIDI
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceGUI:
		return "gui"
	case SourceAnalog:
		return "analog"
	case SourceMIDI:
		return "midi"
	default:
		return "none"
	}
}

// Policy is the global rule for how a non-active source takes over a
// control.
type Policy int

const (
	// PolicyCatch requires a newly touched source to first match the live
	// value within CatchingTolerance before taking control.
	PolicyCatch Policy = iota
	// PolicyJump lets any touched source take over instantly once some
	// source is active.
	PolicyJump
)

const (
	// CatchingTolerance is how close a new raw value must be to the live
	// value to catch it regardless of policy.
	CatchingTolerance = 0.02
	// PotNoise is the minimum averaged analog movement treated as a real
	// change rather than ADC noise.
	PotNoise = 0.003
	// analogAverageTaps is the length of the analog moving average.
	analogAverageTaps = 8
)

// PotListener observes accepted potentiometer changes.
type PotListener interface {
	PotChanged(p *Potentiometer)
}

// PotListenerFunc adapts a function to the PotListener interface.
type PotListenerFunc func(p *Potentiometer)

// PotChanged implements PotListener.
func (f PotListenerFunc) PotChanged(p *Potentiometer) { f(p) }

// Potentiometer arbitrates three independent raw sources (GUI, analog
// hardware, MIDI) into one authoritative control value in [0,1].
type Potentiometer struct {
	index int
	name  string

	current float64
	last    float64

	guiCache    float64
	analogCache float64
	midiCache   float64
	listen      Source

	// policy points at the unit-wide catch/jump setting so a menu change
	// applies to every pot at once.
	policy *Policy

	avgBuf       [analogAverageTaps]float64
	avgIdx       int
	avgSum       float64
	avgCount     int
	analogSeeded bool

	subs []PotListener
	diag *rtlog.Ring
}

// NewPotentiometer creates a potentiometer resting at initial. policy is
// shared across the whole control surface; diag receives real-time range
// diagnostics and may be nil in tests.
func NewPotentiometer(index int, name string, initial float64, policy *Policy, diag *rtlog.Ring) *Potentiometer {
	return &Potentiometer{
		index:       index,
		name:        name,
		current:     initial,
		last:        initial,
		guiCache:    initial,
		analogCache: initial,
		midiCache:   initial,
		policy:      policy,
		diag:        diag,
	}
}

// Index returns the hardware position of the pot.
func (p *Potentiometer) Index() int { return p.index }

// Name returns the pot name.
func (p *Potentiometer) Name() string { return p.name }

// Current returns the authoritative value.
func (p *Potentiometer) Current() float64 { return p.current }

// Last returns the value before the most recent accepted change.
func (p *Potentiometer) Last() float64 { return p.last }

// ActiveSource returns which source currently drives the control.
func (p *Potentiometer) ActiveSource() Source { return p.listen }

// AddListener registers a listener. Setup-time only.
func (p *Potentiometer) AddListener(l PotListener) {
	p.subs = append(p.subs, l)
}

// Update consumes one UI tick of raw GUI and analog values. The analog
// value passes through a moving average before comparison so ADC noise
// does not fight other sources for control. A touch is movement of the
// averaged value against its own history: the first observed sample only
// seeds the cache, so an untouched line resting anywhere never counts as
// a change.
func (p *Potentiometer) Update(guiValue, analogValue float64) {
	if guiValue != p.guiCache {
		p.guiCache = guiValue
		p.consider(SourceGUI, guiValue)
	}

	averaged := p.average(analogValue)
	if !p.analogSeeded {
		p.analogSeeded = true
		p.analogCache = averaged
		return
	}
	diff := averaged - p.analogCache
	if diff > PotNoise || diff < -PotNoise {
		p.analogCache = averaged
		p.consider(SourceAnalog, averaged)
	}
}

// SetNewMIDIMessage feeds an asynchronous MIDI control value.
func (p *Potentiometer) SetNewMIDIMessage(value float64) {
	if value != p.midiCache {
		p.midiCache = value
		p.consider(SourceMIDI, value)
	}
}

// consider applies the source arbitration rules: the active source is
// always accepted; under JUMP any source takes over once one is active;
// any source catches the live value when within tolerance. Everything
// else is cached but ignored.
func (p *Potentiometer) consider(source Source, value float64) {
	switch {
	case p.listen == source:
	case *p.policy == PolicyJump && p.listen != SourceNone:
	case within(value, p.current, CatchingTolerance):
	default:
		return
	}
	if p.setValue(value) {
		p.listen = source
	}
}

// setValue commits an accepted value and synchronously notifies listeners.
// A value outside [0,1] is a range violation: reported, not clamped, so
// upstream bugs surface instead of being masked. A rejected value must
// not confer source ownership either, so the result feeds back to
// consider.
func (p *Potentiometer) setValue(value float64) bool {
	if value < 0 || value > 1 {
		if p.diag != nil {
			p.diag.Push(rtlog.Record{
				Kind:  rtlog.KindRangeViolation,
				Where: "potentiometer",
				Value: value,
				Index: p.index,
			})
		}
		return false
	}
	if value == p.current {
		return true
	}
	p.last = p.current
	p.current = value
	for _, l := range p.subs {
		l.PotChanged(p)
	}
	return true
}

func (p *Potentiometer) average(v float64) float64 {
	if p.avgCount < analogAverageTaps {
		p.avgCount++
	} else {
		p.avgSum -= p.avgBuf[p.avgIdx]
	}
	p.avgBuf[p.avgIdx] = v
	p.avgSum += v
	p.avgIdx = (p.avgIdx + 1) % analogAverageTaps
	return p.avgSum / float64(p.avgCount)
}

func within(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
