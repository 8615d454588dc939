// Package ramp provides a linear value interpolator for click-free control changes.
package ramp

import (
	"math"
	"sync/atomic"
)

// Ramp drives a value from its current position to a goal over a fixed
// number of discrete steps. The final step lands exactly on the goal.
// Mutation belongs to a single writer; current and goal are published
// atomically so display readers on other goroutines can observe them.
type Ramp struct {
	current        atomic.Uint64 // float64 bits
	goal           atomic.Uint64 // float64 bits
	step           float64
	remainingSteps int
	sampleRate     float64
}

// New creates a ramp resting at initial.
func New(initial, sampleRate float64) *Ramp {
	r := &Ramp{}
	r.Setup(initial, sampleRate)
	return r
}

// Setup initializes the ramp at rest: current == goal == initial, no steps pending.
func (r *Ramp) Setup(initial, sampleRate float64) {
	r.setCurrent(initial)
	r.setGoal(initial)
	r.step = 0
	r.remainingSteps = 0
	r.sampleRate = sampleRate
}

// SetRampTo starts a ramp toward goal over durationMs milliseconds of ramp
// ticks. A zero duration snaps immediately. Calling again with the goal
// already in flight is a no-op, so redundant control events never restart
// a ramp mid-flight.
func (r *Ramp) SetRampTo(goal, durationMs float64) {
	if goal == r.Goal() {
		return
	}
	if durationMs == 0 {
		r.SetValue(goal)
		return
	}

	r.setGoal(goal)
	r.remainingSteps = int(r.sampleRate * durationMs / 1000.0)
	if r.remainingSteps < 1 {
		r.remainingSteps = 1
	}
	r.step = (goal - r.Current()) / float64(r.remainingSteps)
}

// SetValue snaps to value instantly and clears any in-flight ramp.
func (r *Ramp) SetValue(value float64) {
	r.setCurrent(value)
	r.setGoal(value)
	r.step = 0
	r.remainingSteps = 0
}

// Process advances the ramp by one tick. It reports whether a step was
// applied; callers use this to gate listener notification.
func (r *Ramp) Process() bool {
	if r.remainingSteps == 0 {
		return false
	}

	r.remainingSteps--
	if r.remainingSteps == 0 {
		// Land exactly on the goal, not merely close to it.
		r.setCurrent(r.Goal())
	} else {
		r.setCurrent(r.Current() + r.step)
	}
	return true
}

// Current returns the live value.
func (r *Ramp) Current() float64 {
	return math.Float64frombits(r.current.Load())
}

// Goal returns the value the ramp is heading for.
func (r *Ramp) Goal() float64 {
	return math.Float64frombits(r.goal.Load())
}

// RemainingSteps returns the number of ticks left until the goal is reached.
func (r *Ramp) RemainingSteps() int {
	return r.remainingSteps
}

// IsRamping returns true while a ramp is in flight.
func (r *Ramp) IsRamping() bool {
	return r.remainingSteps > 0
}

func (r *Ramp) setCurrent(v float64) {
	r.current.Store(math.Float64bits(v))
}

func (r *Ramp) setGoal(v float64) {
	r.goal.Store(math.Float64bits(v))
}
