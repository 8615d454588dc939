package stream

import (
	"testing"

	"github.com/herrausgefuchst/grainmother/pkg/rtlog"
)

// fakeReader serves a deterministic ramp of frames from memory so tests
// can see exactly which track slice ended up in which half.
type fakeReader struct {
	name   string
	frames int64
	cursor int64
	mark   float32 // added to every sample to tell tracks apart
	reads  int
}

func (f *fakeReader) ReadFrames(left, right []float32) (int, error) {
	f.reads++
	n := 0
	for n < len(left) && f.cursor < f.frames {
		v := float32(f.cursor) + f.mark
		left[n], right[n] = v, -v
		f.cursor++
		n++
	}
	return n, nil
}

func (f *fakeReader) Rewind() error   { f.cursor = 0; return nil }
func (f *fakeReader) Name() string    { return f.name }
func (f *fakeReader) Frames() int64   { return f.frames }
func (f *fakeReader) SampleRate() int { return 44100 }
func (f *fakeReader) Close() error    { return nil }

// pump services all queued refill requests synchronously.
func pump(t *testing.T, s *Source) int {
	t.Helper()
	served := 0
	for {
		select {
		case req := <-s.requests:
			if err := s.fill(req); err != nil {
				t.Fatalf("fill: %v", err)
			}
			s.pending.Store(false)
			served++
		default:
			return served
		}
	}
}

func newTestSource(t *testing.T, frames int64, bufferFrames int) (*Source, *fakeReader, *rtlog.Ring) {
	t.Helper()
	r := &fakeReader{name: "test", frames: frames}
	ring := rtlog.NewRing(16)
	s, err := NewSource(r, bufferFrames, ring)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if err := s.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}
	return s, r, ring
}

func TestSourceSteadyState(t *testing.T) {
	const buf = 64
	s, _, _ := newTestSource(t, 10*buf, buf)

	// Reading 2*bufferLength-1 samples triggers exactly one refill
	// schedule and no underrun, the refill completing before it is needed.
	for i := 0; i < buf; i++ {
		l, r := s.NextFrame()
		if l != float32(i) || r != -float32(i) {
			t.Fatalf("frame %d: got %v/%v", i, l, r)
		}
	}
	if served := pump(t, s); served != 1 {
		t.Errorf("expected exactly 1 refill after first wrap, got %d", served)
	}
	for i := 0; i < buf-1; i++ {
		l, _ := s.NextFrame()
		if l != float32(buf+i) {
			t.Fatalf("frame %d of second half: got %v, want %v", i, l, float32(buf+i))
		}
	}
	if s.Underruns() != 0 {
		t.Errorf("expected no underruns, got %d", s.Underruns())
	}
}

func TestSourceUnderrun(t *testing.T) {
	const buf = 32
	s, _, ring := newTestSource(t, 10*buf, buf)

	// Consume the active half; do not service the refill queue.
	for i := 0; i < buf; i++ {
		s.NextFrame()
	}
	// Second half is ready (primed); consume it too. Its refill was
	// scheduled but never ran, so the next wrap underruns.
	for i := 0; i < buf; i++ {
		s.NextFrame()
	}

	if s.Underruns() != 1 {
		t.Fatalf("expected 1 underrun, got %d", s.Underruns())
	}
	rec, ok := ring.Pop()
	if !ok || rec.Kind != rtlog.KindUnderrun {
		t.Errorf("expected underrun record, got %v ok=%v", rec, ok)
	}

	// The reader continues with stale data instead of blocking.
	l, _ := s.NextFrame()
	if l != float32(buf) {
		t.Errorf("expected stale replay of second half, got %v", l)
	}

	// Once the refill is serviced, playback recovers at the next wrap.
	pump(t, s)
	for i := 1; i < buf; i++ {
		s.NextFrame()
	}
	l, _ = s.NextFrame()
	if l != float32(2*buf) {
		t.Errorf("expected recovery at frame %v, got %v", float32(2*buf), l)
	}
}

func TestSourceEndOfTrackZeroPadsAndWraps(t *testing.T) {
	const buf = 16
	// Track is 2.5 buffers long: the second refill hits end-of-track.
	r := &fakeReader{name: "short", frames: 2*buf + buf/2}
	s, err := NewSource(r, buf, rtlog.NewRing(4))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if err := s.Prime(); err != nil {
		t.Fatalf("Prime: %v", err)
	}

	// Drain both primed halves, servicing refills as they are scheduled.
	for i := 0; i < 2*buf; i++ {
		s.NextFrame()
		pump(t, s)
	}

	// Third half: the track tail, then zero padding.
	for i := 0; i < buf/2; i++ {
		l, _ := s.NextFrame()
		if l != float32(2*buf+i) {
			t.Fatalf("tail frame %d: got %v", i, l)
		}
	}
	for i := 0; i < buf/2; i++ {
		l, r := s.NextFrame()
		if l != 0 || r != 0 {
			t.Fatalf("padding frame %d not zero: %v/%v", i, l, r)
		}
	}
	pump(t, s)

	// Cursor wrapped: playback restarts from frame 0.
	l, _ := s.NextFrame()
	if l != 0 {
		t.Errorf("expected wrap to frame 0, got %v", l)
	}
}

func TestSourceExactMultipleLoopsWithoutSilence(t *testing.T) {
	const buf = 64
	// Track length is an exact multiple of the buffer: the refill that
	// starts on end-of-track must wrap and deliver real frames, not a
	// padded half of silence.
	s, _, _ := newTestSource(t, 3*buf, buf)

	for i := 0; i < 3*buf; i++ {
		l, _ := s.NextFrame()
		if l != float32(i%(3*buf)) {
			t.Fatalf("frame %d: got %v, want %v", i, l, i%(3*buf))
		}
		pump(t, s)
	}

	// Loop point: playback restarts from frame 0 with no gap.
	if l, _ := s.NextFrame(); l != 0 {
		t.Fatalf("loop frame 0: got %v, want 0", l)
	}
	pump(t, s)
	if l, _ := s.NextFrame(); l != 1 {
		t.Fatalf("loop frame 1: got %v, want 1", l)
	}
	if s.Underruns() != 0 {
		t.Errorf("underruns = %d, want 0", s.Underruns())
	}
}

func TestSourceTooShortRejected(t *testing.T) {
	r := &fakeReader{name: "blip", frames: 10}
	if _, err := NewSource(r, 64, nil); err == nil {
		t.Error("track shorter than the double buffer must be rejected")
	}
}

func TestSourceSetTrackDiscardsStaleRefill(t *testing.T) {
	const buf = 32
	s, _, _ := newTestSource(t, 10*buf, buf)

	// Wrap once so a refill request for the finished half is queued.
	for i := 0; i < buf; i++ {
		s.NextFrame()
	}

	// Switch tracks twice in rapid succession before the refill runs.
	mid := &fakeReader{name: "mid", frames: 10 * buf, mark: 1000}
	if err := s.SetTrack(mid); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}
	final := &fakeReader{name: "final", frames: 10 * buf, mark: 5000}
	if err := s.SetTrack(final); err != nil {
		t.Fatalf("SetTrack: %v", err)
	}

	// The queued request carries a dead generation: it must not publish,
	// and it must not consume frames from any reader.
	pump(t, s)
	if mid.reads != 0 || final.reads != 0 {
		t.Errorf("stale refill touched a reader: mid=%d final=%d", mid.reads, final.reads)
	}

	// Drain the standby half (old track), then the discarded refill shows
	// up as an underrun, gets reissued with the live generation, and the
	// new track streams in.
	for i := 0; i < buf; i++ {
		s.NextFrame()
	}
	if s.Underruns() != 1 {
		t.Fatalf("expected underrun after discarded refill, got %d", s.Underruns())
	}
	pump(t, s)
	for i := 0; i < buf; i++ {
		s.NextFrame()
	}
	l, _ := s.NextFrame()
	if l != 5000 {
		t.Errorf("expected frames from the final track (5000), got %v", l)
	}
	if s.Info().Name != "final" {
		t.Errorf("expected info for final track, got %q", s.Info().Name)
	}
}

func TestSourceReadBlockMatchesNextFrame(t *testing.T) {
	const buf = 64
	s1, _, _ := newTestSource(t, 10*buf, buf)
	s2, _, _ := newTestSource(t, 10*buf, buf)

	left := make([]float32, 48)
	right := make([]float32, 48)
	s1.ReadBlock(left, right)

	for i := 0; i < 48; i++ {
		l, r := s2.NextFrame()
		if left[i] != l || right[i] != r {
			t.Fatalf("block/frame mismatch at %d: %v/%v vs %v/%v", i, left[i], right[i], l, r)
		}
	}
}

func BenchmarkSourceNextFrame(b *testing.B) {
	r := &fakeReader{name: "bench", frames: 1 << 30}
	s, err := NewSource(r, 4096, nil)
	if err != nil {
		b.Fatalf("NewSource: %v", err)
	}
	if err := s.Prime(); err != nil {
		b.Fatalf("Prime: %v", err)
	}
	go func() {
		for req := range s.requests {
			s.fill(req)
			s.pending.Store(false)
		}
	}()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.NextFrame()
	}
}
