package engine

import (
	"sync/atomic"

	"github.com/herrausgefuchst/grainmother/pkg/param"
	"github.com/herrausgefuchst/grainmother/pkg/ramp"
)

// StereoProcessor is a stateless-per-block stereo transform. Concrete
// algorithms (reverb, granular, ring modulator) live behind this
// interface; the effect base never branches on which one it holds.
type StereoProcessor interface {
	// ProcessStereo processes stereo audio in-place
	ProcessStereo(left, right []float32)

	// Reset resets the processor state
	Reset()
}

// StereoProcessorFunc allows using a function as a StereoProcessor.
type StereoProcessorFunc func(left, right []float32)

func (f StereoProcessorFunc) ProcessStereo(left, right []float32) { f(left, right) }

func (f StereoProcessorFunc) Reset() {}

// EngageRampMs is how long engage and bypass take to cross-fade.
const EngageRampMs = 100.0

// RampStride is the per-sample interval at which smoothing ramps tick.
const RampStride = 8

// Effect wraps a StereoProcessor with a parameter group and glitch-free
// engage/bypass. Bypass is not a branch: input gain and wet mix ramp to
// zero, so audio keeps flowing through the same code path and a bypass
// triggered mid-block can never click.
type Effect struct {
	name    string
	proc    StereoProcessor
	params  *param.Group
	gain    *ramp.Ramp
	wet     *ramp.Ramp
	engaged atomic.Bool

	wetBuf   []float32
	dryBuf   []float32
	scratchL []float32
	scratchR []float32
}

// NewEffect creates an engaged effect. sampleRate is the audio rate; the
// gain and wet ramps tick once per RampStride samples.
func NewEffect(name string, proc StereoProcessor, params *param.Group, sampleRate float64, maxBlockSize int) *Effect {
	tickRate := sampleRate / RampStride
	e := &Effect{
		name:     name,
		proc:     proc,
		params:   params,
		gain:     ramp.New(1, tickRate),
		wet:      ramp.New(1, tickRate),
		wetBuf:   make([]float32, maxBlockSize),
		dryBuf:   make([]float32, maxBlockSize),
		scratchL: make([]float32, maxBlockSize),
		scratchR: make([]float32, maxBlockSize),
	}
	e.engaged.Store(true)
	return e
}

func (e *Effect) Name() string { return e.name }

func (e *Effect) Params() *param.Group { return e.params }

func (e *Effect) IsEngaged() bool { return e.engaged.Load() }

// Engage ramps input gain and wet mix back up over EngageRampMs.
func (e *Effect) Engage() {
	e.engaged.Store(true)
	e.gain.SetRampTo(1, EngageRampMs)
	e.wet.SetRampTo(1, EngageRampMs)
}

// Bypass ramps input gain and wet mix down over EngageRampMs.
func (e *Effect) Bypass() {
	e.engaged.Store(false)
	e.gain.SetRampTo(0, EngageRampMs)
	e.wet.SetRampTo(0, EngageRampMs)
}

// Toggle flips between engaged and bypassed.
func (e *Effect) Toggle() {
	if e.engaged.Load() {
		e.Bypass()
	} else {
		e.Engage()
	}
}

// ProcessStereo runs one block: gain-scaled input through the processor,
// then a wet/dry cross-fade against the unprocessed input. dry = 1 - wet
// is computed once per ramp tick, not per sample. No allocation.
func (e *Effect) ProcessStereo(left, right []float32) {
	n := len(left)
	g := float32(e.gain.Current())
	w := float32(e.wet.Current())
	d := 1 - w

	for i := 0; i < n; i++ {
		if i%RampStride == 0 {
			e.gain.Process()
			e.wet.Process()
			g = float32(e.gain.Current())
			w = float32(e.wet.Current())
			d = 1 - w
		}
		e.scratchL[i] = left[i] * g
		e.scratchR[i] = right[i] * g
		e.wetBuf[i] = w
		e.dryBuf[i] = d
	}

	e.proc.ProcessStereo(e.scratchL[:n], e.scratchR[:n])

	for i := 0; i < n; i++ {
		left[i] = e.wetBuf[i]*e.scratchL[i] + e.dryBuf[i]*left[i]
		right[i] = e.wetBuf[i]*e.scratchR[i] + e.dryBuf[i]*right[i]
	}
}

// Reset resets the wrapped processor and snaps both ramps to their goals.
func (e *Effect) Reset() {
	e.proc.Reset()
	e.gain.SetValue(e.gain.Goal())
	e.wet.SetValue(e.wet.Goal())
}

// Chain runs effects in series. Each stage sees the previous stage's
// output as its dry signal, so per-stage bypass composes correctly.
type Chain struct {
	effects []*Effect
}

func NewChain() *Chain {
	return &Chain{}
}

// Add appends an effect to the chain.
func (c *Chain) Add(e *Effect) *Chain {
	c.effects = append(c.effects, e)
	return c
}

// Effects returns the stages in processing order.
func (c *Chain) Effects() []*Effect {
	return c.effects
}

// ByName returns the named effect, or nil.
func (c *Chain) ByName(name string) *Effect {
	for _, e := range c.effects {
		if e.name == name {
			return e
		}
	}
	return nil
}

// ProcessStereo processes the block through every stage in order.
func (c *Chain) ProcessStereo(left, right []float32) {
	for _, e := range c.effects {
		e.ProcessStereo(left, right)
	}
}

// Reset resets all stages.
func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}
