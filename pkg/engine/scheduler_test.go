package engine

import "testing"

func TestSchedulerPeriod(t *testing.T) {
	s := NewScheduler()
	var fired []int
	block := 0
	if err := s.Add("display", 44100, 128, 12, func() {
		fired = append(fired, block)
	}); err != nil {
		t.Fatal(err)
	}
	if got := s.BlocksPerFrame("display"); got != 28 {
		t.Fatalf("BlocksPerFrame = %d, want 28", got)
	}

	for block = 1; block <= 90; block++ {
		s.Tick()
	}
	want := []int{28, 56, 84}
	if len(fired) != len(want) {
		t.Fatalf("fired on blocks %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("fire %d on block %d, want %d", i, fired[i], want[i])
		}
	}
}

func TestSchedulerIndependentCounters(t *testing.T) {
	s := NewScheduler()
	var fast, slow int
	s.Add("fast", 48000, 64, 100, func() { fast++ }) // every 7 blocks
	s.Add("slow", 48000, 64, 25, func() { slow++ })  // every 30 blocks
	for i := 0; i < 210; i++ {
		s.Tick()
	}
	if fast != 30 {
		t.Errorf("fast fired %d times, want 30", fast)
	}
	if slow != 7 {
		t.Errorf("slow fired %d times, want 7", slow)
	}
}

func TestSchedulerRejectsTooFastConsumer(t *testing.T) {
	s := NewScheduler()
	// block rate is 44100/128 ≈ 344.5 Hz
	if err := s.Add("bad", 44100, 128, 400, func() {}); err == nil {
		t.Error("consumer faster than the block rate should be rejected")
	}
	if err := s.Add("zero", 44100, 128, 0, func() {}); err == nil {
		t.Error("zero consumer rate should be rejected")
	}
}
