package rtlog

import (
	"fmt"
	"sync/atomic"
)

// Kind classifies a real-time diagnostic record.
type Kind int

const (
	// KindRangeViolation reports a value presented outside its declared domain.
	KindRangeViolation Kind = iota
	// KindUnderrun reports a buffer refill that was not finished when needed.
	KindUnderrun
	// KindLookupMiss reports a parameter requested by an unknown id.
	KindLookupMiss
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindRangeViolation:
		return "range violation"
	case KindUnderrun:
		return "underrun"
	case KindLookupMiss:
		return "lookup miss"
	default:
		return "unknown"
	}
}

// Record is one diagnostic event. All fields are fixed-size values so that
// producing a record never allocates.
type Record struct {
	Kind  Kind
	Where string // static string identifying the site
	Value float64
	Index int
}

// String formats the record for the drain side.
func (r Record) String() string {
	return fmt.Sprintf("%s at %s (value=%g index=%d)", r.Kind, r.Where, r.Value, r.Index)
}

// Ring is a single-producer single-consumer diagnostic ring. The producer
// side (Push) is wait-free and never allocates, so it is safe to call from
// the audio callback. When the ring is full records are dropped and
// counted rather than blocking.
type Ring struct {
	records []Record
	mask    uint64
	head    atomic.Uint64 // next write position, producer only
	tail    atomic.Uint64 // next read position, consumer only
	dropped atomic.Uint64
}

// NewRing creates a ring with the given capacity, rounded up to a power of two.
func NewRing(capacity int) *Ring {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring{
		records: make([]Record, size),
		mask:    uint64(size - 1),
	}
}

// Push appends a record. Audio-thread safe: no locks, no allocation, no
// blocking. Returns false if the ring was full and the record was dropped.
func (r *Ring) Push(rec Record) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail >= uint64(len(r.records)) {
		r.dropped.Add(1)
		return false
	}
	r.records[head&r.mask] = rec
	r.head.Store(head + 1)
	return true
}

// Pop removes the oldest record. Consumer side only.
func (r *Ring) Pop() (Record, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return Record{}, false
	}
	rec := r.records[tail&r.mask]
	r.tail.Store(tail + 1)
	return rec, true
}

// Len returns the number of pending records.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Dropped returns how many records were lost to overflow.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}

// Drain pops all pending records and logs them through logger. Meant to be
// called from a low-rate scheduler slot or a background goroutine.
func (r *Ring) Drain(logger *Logger) {
	for {
		rec, ok := r.Pop()
		if !ok {
			return
		}
		switch rec.Kind {
		case KindUnderrun:
			logger.Warn("%s", rec.String())
		default:
			logger.Error("%s", rec.String())
		}
	}
}
