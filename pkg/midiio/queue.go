// Package midiio carries asynchronous control input (MIDI, GUI, OSC) to
// the audio thread through a fixed-capacity queue that the audio side can
// drain without blocking or allocating.
package midiio

import "sync/atomic"

// EventKind classifies a control event.
type EventKind int

const (
	// KindControlChange carries a normalized controller value.
	KindControlChange EventKind = iota
	// KindProgramChange selects a preset.
	KindProgramChange
	// KindNote carries a note on/off, used for footswitch-style control.
	KindNote
)

// Event is one control event. Fixed-size fields only, so queue traffic
// never allocates.
type Event struct {
	Kind       EventKind
	Channel    uint8
	Controller uint8
	Program    uint8
	Note       uint8
	On         bool
	Value      float64 // normalized [0,1]
}

// Queue is a single-producer single-consumer event queue. The transport
// goroutine pushes; the audio thread drains once per block. Overflow
// drops the newest event and counts it.
type Queue struct {
	events  []Event
	mask    uint64
	head    atomic.Uint64
	tail    atomic.Uint64
	dropped atomic.Uint64
}

// NewQueue creates a queue with capacity rounded up to a power of two.
func NewQueue(capacity int) *Queue {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Queue{
		events: make([]Event, size),
		mask:   uint64(size - 1),
	}
}

// Push appends an event from the transport side. Returns false on
// overflow.
func (q *Queue) Push(e Event) bool {
	head := q.head.Load()
	if head-q.tail.Load() >= uint64(len(q.events)) {
		q.dropped.Add(1)
		return false
	}
	q.events[head&q.mask] = e
	q.head.Store(head + 1)
	return true
}

// Drain consumes all pending events in arrival order. Audio thread only:
// never blocks, never allocates.
func (q *Queue) Drain(fn func(Event)) {
	for {
		tail := q.tail.Load()
		if tail == q.head.Load() {
			return
		}
		e := q.events[tail&q.mask]
		q.tail.Store(tail + 1)
		fn(e)
	}
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return int(q.head.Load() - q.tail.Load())
}

// Dropped returns how many events were lost to overflow.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
