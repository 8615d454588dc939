package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/herrausgefuchst/grainmother/pkg/rtlog"
)

// DefaultBufferFrames is the length of each double-buffer half.
const DefaultBufferFrames = 32768

// TrackInfo is display metadata for the loaded track.
type TrackInfo struct {
	Name       string
	Frames     int64
	SampleRate int
}

// half is one side of the double buffer. The done flag is the only
// synchronization between the refill task and the audio thread: the task
// stores it after writing, the audio thread loads it before swapping.
type half struct {
	left, right []float32
	done        atomic.Bool
}

type refillRequest struct {
	gen  uint64
	half int
}

// Source streams a track through two fixed-length stereo buffers. The
// audio thread only ever reads the active half and is the only scheduler
// of refills, so the background task only ever writes the standby half.
// Refill requests carry a generation counter: a refill outliving a track
// switch is discarded instead of overwriting newer data.
type Source struct {
	halves    [2]half
	active    int
	readPtr   int
	numFrames int

	gen      atomic.Uint64
	pending  atomic.Bool
	requests chan refillRequest

	mu     sync.Mutex // guards reader and info against SetTrack
	reader Reader
	info   TrackInfo

	diag      *rtlog.Ring
	underruns atomic.Uint64
}

// NewSource creates a source over reader with bufferFrames per half
// (DefaultBufferFrames when 0). The track must be longer than the double
// buffer; anything shorter is a startup configuration error.
func NewSource(reader Reader, bufferFrames int, diag *rtlog.Ring) (*Source, error) {
	if bufferFrames <= 0 {
		bufferFrames = DefaultBufferFrames
	}
	if reader.Frames() < int64(2*bufferFrames) {
		return nil, fmt.Errorf("%w: %s has %d frames, need at least %d",
			ErrTooShort, reader.Name(), reader.Frames(), 2*bufferFrames)
	}

	s := &Source{
		numFrames: bufferFrames,
		requests:  make(chan refillRequest, 4),
		reader:    reader,
		info: TrackInfo{
			Name:       reader.Name(),
			Frames:     reader.Frames(),
			SampleRate: reader.SampleRate(),
		},
		diag: diag,
	}
	for i := range s.halves {
		s.halves[i].left = make([]float32, bufferFrames)
		s.halves[i].right = make([]float32, bufferFrames)
	}
	return s, nil
}

// Prime loads both halves synchronously. Must be called before the
// real-time loop starts.
func (s *Source) Prime() error {
	gen := s.gen.Load()
	for i := range s.halves {
		if err := s.fill(refillRequest{gen: gen, half: i}); err != nil {
			return err
		}
	}
	// The active half is consumed directly; only the standby half keeps
	// its done flag until the first swap.
	s.halves[s.active].done.Store(false)
	return nil
}

// Start runs the background refill task until ctx is canceled. Read
// errors are reported through the logger; the affected half stays
// unpublished, which surfaces as an underrun rather than corrupt audio.
func (s *Source) Start(ctx context.Context, logger *rtlog.Logger) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-s.requests:
				err := s.fill(req)
				s.pending.Store(false)
				if err != nil && logger != nil {
					logger.Error("refill failed: %v", err)
				}
			}
		}
	}()
}

// NextFrame returns one stereo frame. Audio thread only: never blocks,
// never allocates. On wraparound it swaps halves and schedules a refill
// of the half it just finished; if the standby half was not ready in time
// it reports an underrun and replays the stale active half instead.
func (s *Source) NextFrame() (left, right float32) {
	h := &s.halves[s.active]
	left = h.left[s.readPtr]
	right = h.right[s.readPtr]
	s.readPtr++
	if s.readPtr >= s.numFrames {
		s.swap()
	}
	return left, right
}

// ReadBlock fills one block of stereo output. Audio thread only.
func (s *Source) ReadBlock(left, right []float32) {
	for i := range left {
		left[i], right[i] = s.NextFrame()
	}
}

func (s *Source) swap() {
	standby := 1 - s.active
	if !s.halves[standby].done.Load() {
		// Underrun: report and continue with the stale active half.
		// Correctness under deadline pressure beats completeness.
		s.underruns.Add(1)
		if s.diag != nil {
			s.diag.Push(rtlog.Record{Kind: rtlog.KindUnderrun, Where: "stream", Index: s.active})
		}
		s.readPtr = 0
		// A discarded stale refill leaves the standby half orphaned;
		// reissue unless a refill is genuinely still in flight.
		s.schedule(standby)
		return
	}

	finished := s.active
	s.active = standby
	s.readPtr = 0
	s.halves[standby].done.Store(false)
	s.schedule(finished)
}

// schedule asks the background task to fill a half. Only the audio thread
// calls this, and only for a half it is not reading; the pending flag
// keeps at most one request in flight.
func (s *Source) schedule(half int) {
	if !s.pending.CompareAndSwap(false, true) {
		return
	}
	select {
	case s.requests <- refillRequest{gen: s.gen.Load(), half: half}:
	default:
		s.pending.Store(false)
	}
}

// fill loads one half from the reader, zero-padding past end-of-track and
// wrapping the cursor for the following refill. Stale generations are
// discarded before reading and the result is published only if the
// generation still holds.
func (s *Source) fill(req refillRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.gen != s.gen.Load() {
		return nil
	}

	h := &s.halves[req.half]
	filled := 0
	rewound := false
	for filled < s.numFrames {
		n, err := s.reader.ReadFrames(h.left[filled:], h.right[filled:])
		if err != nil {
			return err
		}
		if n == 0 {
			// Cursor sat exactly on end-of-track: wrap and keep
			// filling, no padding.
			if rewound {
				return fmt.Errorf("%w: %s delivered no frames after rewind",
					ErrBadFile, s.info.Name)
			}
			rewound = true
			if err := s.reader.Rewind(); err != nil {
				return err
			}
			continue
		}
		filled += n
		if filled < s.numFrames {
			// The slice ran past end-of-track: zero-pad the remainder
			// and wrap for the following refill.
			for i := filled; i < s.numFrames; i++ {
				h.left[i], h.right[i] = 0, 0
			}
			if err := s.reader.Rewind(); err != nil {
				return err
			}
			break
		}
	}

	if req.gen == s.gen.Load() {
		h.done.Store(true)
	}
	return nil
}

// SetTrack switches to a new track. It does not wait for in-flight
// refills and schedules nothing itself; bumping the generation makes any
// in-flight refill dead on arrival, and the audio thread pulls in the new
// track at its next buffer swap. A rapid double switch therefore cannot
// have a stale refill overwrite a newer one's result.
func (s *Source) SetTrack(reader Reader) error {
	if reader.Frames() < int64(2*s.numFrames) {
		return fmt.Errorf("%w: %s has %d frames, need at least %d",
			ErrTooShort, reader.Name(), reader.Frames(), 2*s.numFrames)
	}

	s.gen.Add(1)

	s.mu.Lock()
	old := s.reader
	s.reader = reader
	s.info = TrackInfo{
		Name:       reader.Name(),
		Frames:     reader.Frames(),
		SampleRate: reader.SampleRate(),
	}
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Info returns the loaded track's metadata.
func (s *Source) Info() TrackInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Underruns returns how many times the refill missed its deadline.
func (s *Source) Underruns() uint64 {
	return s.underruns.Load()
}

// BufferFrames returns the per-half length.
func (s *Source) BufferFrames() int {
	return s.numFrames
}
