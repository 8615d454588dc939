package ui

import (
	"testing"

	"github.com/herrausgefuchst/grainmother/pkg/rtlog"
)

func newTestPot(policy Policy) (*Potentiometer, *Policy, *rtlog.Ring) {
	p := policy
	ring := rtlog.NewRing(16)
	pot := NewPotentiometer(0, "size", 0.5, &p, ring)
	return pot, &p, ring
}

func TestPotentiometerCatch(t *testing.T) {
	t.Run("FarSourceIgnoredUntilCaught", func(t *testing.T) {
		pot, _, _ := newTestPot(PolicyCatch)

		pot.SetNewMIDIMessage(0.9)
		if pot.Current() != 0.5 {
			t.Errorf("far MIDI value must not jump the control, got %v", pot.Current())
		}
		if pot.ActiveSource() != SourceNone {
			t.Errorf("no source should be active, got %v", pot.ActiveSource())
		}

		// Catching: the source reaches the live value first.
		pot.SetNewMIDIMessage(0.51)
		if pot.Current() != 0.51 {
			t.Errorf("in-tolerance value should catch, got %v", pot.Current())
		}
		if pot.ActiveSource() != SourceMIDI {
			t.Errorf("MIDI should be active after catching, got %v", pot.ActiveSource())
		}

		// Once active, the source is authoritative anywhere in range.
		pot.SetNewMIDIMessage(0.9)
		if pot.Current() != 0.9 {
			t.Errorf("active source should always be accepted, got %v", pot.Current())
		}
	})

	t.Run("SecondSourceMustCatchToo", func(t *testing.T) {
		pot, _, _ := newTestPot(PolicyCatch)
		pot.SetNewMIDIMessage(0.5) // cache equals initial, no change
		pot.SetNewMIDIMessage(0.49)
		if pot.ActiveSource() != SourceMIDI {
			t.Fatalf("setup: MIDI should be active")
		}

		pot.Update(0.9, 0.49) // GUI far away
		if pot.Current() != 0.49 {
			t.Errorf("far GUI value must be ignored under catch policy, got %v", pot.Current())
		}

		pot.Update(0.48, 0.49) // GUI within tolerance
		if pot.Current() != 0.48 || pot.ActiveSource() != SourceGUI {
			t.Errorf("GUI should take over after catching, got %v from %v", pot.Current(), pot.ActiveSource())
		}
	})
}

func TestPotentiometerJump(t *testing.T) {
	pot, _, _ := newTestPot(PolicyJump)

	// Activate MIDI by catching first.
	pot.SetNewMIDIMessage(0.51)
	if pot.ActiveSource() != SourceMIDI {
		t.Fatalf("setup: MIDI should be active")
	}

	// Under JUMP any touched source takes over instantly, however far.
	pot.Update(0.95, 0.0)
	if pot.Current() != 0.95 || pot.ActiveSource() != SourceGUI {
		t.Errorf("GUI should jump-take the control, got %v from %v", pot.Current(), pot.ActiveSource())
	}
}

func TestPotentiometerAnalogNoise(t *testing.T) {
	pot, _, _ := newTestPot(PolicyCatch)

	// The first sample only seeds the average; moving the line into
	// tolerance afterwards catches the live value.
	pot.Update(0.5, 0.4)
	for i := 0; i < 2*analogAverageTaps; i++ {
		pot.Update(0.5, 0.51)
	}
	if pot.ActiveSource() != SourceAnalog {
		t.Fatalf("moving analog line should have caught the live value, got %v", pot.ActiveSource())
	}
	base := pot.Current()

	// Sub-noise wiggle must not register as a change.
	pot.Update(0.5, 0.51+PotNoise/4)
	if pot.Current() != base {
		t.Errorf("ADC noise moved the control: %v -> %v", base, pot.Current())
	}

	// A real movement does.
	for i := 0; i < 2*analogAverageTaps; i++ {
		pot.Update(0.5, 0.7)
	}
	if pot.Current() == base {
		t.Error("sustained analog movement should move the control")
	}
}

func TestPotentiometerIdleAnalogDoesNotTakeOver(t *testing.T) {
	pot, _, _ := newTestPot(PolicyJump)
	pot.SetNewMIDIMessage(0.51)
	if pot.ActiveSource() != SourceMIDI {
		t.Fatalf("setup: MIDI should be active")
	}

	// An untouched analog line resting far from the live value must stay
	// invisible while its average warms up, even under JUMP.
	for i := 0; i < 2*analogAverageTaps; i++ {
		pot.Update(0.5, 0.1)
	}
	if pot.ActiveSource() != SourceMIDI {
		t.Errorf("idle analog line stole the control: active source %v", pot.ActiveSource())
	}
	if pot.Current() != 0.51 {
		t.Errorf("idle analog line moved the control to %v", pot.Current())
	}
}

func TestPotentiometerRangeViolation(t *testing.T) {
	pot, _, ring := newTestPot(PolicyJump)
	pot.SetNewMIDIMessage(0.51) // activate

	before := pot.Current()
	pot.SetNewMIDIMessage(1.5)
	if pot.Current() != before {
		t.Errorf("out-of-range value must be rejected, got %v", pot.Current())
	}

	rec, ok := ring.Pop()
	if !ok || rec.Kind != rtlog.KindRangeViolation {
		t.Errorf("expected a range violation record, got %v ok=%v", rec, ok)
	}
	if rec.Value != 1.5 {
		t.Errorf("record should carry the offending value, got %v", rec.Value)
	}
}

func TestPotentiometerRejectedValueKeepsSource(t *testing.T) {
	pot, _, ring := newTestPot(PolicyJump)
	pot.SetNewMIDIMessage(0.51)

	// A GUI value that fails range validation must not confer source
	// ownership even though JUMP would have let it take over.
	pot.Update(1.5, 0.51)
	if pot.ActiveSource() != SourceMIDI {
		t.Errorf("rejected value stole the control: active source %v", pot.ActiveSource())
	}
	if pot.Current() != 0.51 {
		t.Errorf("rejected value moved the control to %v", pot.Current())
	}
	if rec, ok := ring.Pop(); !ok || rec.Kind != rtlog.KindRangeViolation {
		t.Errorf("expected a range violation record, got %v ok=%v", rec, ok)
	}
}

func TestPotentiometerNotifiesListeners(t *testing.T) {
	pot, _, _ := newTestPot(PolicyCatch)

	var got []float64
	pot.AddListener(PotListenerFunc(func(p *Potentiometer) {
		got = append(got, p.Current())
	}))

	pot.SetNewMIDIMessage(0.51)
	pot.SetNewMIDIMessage(0.51) // unchanged, no notification
	pot.SetNewMIDIMessage(0.6)

	if len(got) != 2 || got[0] != 0.51 || got[1] != 0.6 {
		t.Errorf("expected notifications [0.51 0.6], got %v", got)
	}
	if pot.Last() != 0.51 {
		t.Errorf("expected last value 0.51, got %v", pot.Last())
	}
}
