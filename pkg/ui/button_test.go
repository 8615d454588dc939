package ui

import "testing"

// tickButton runs one UI tick with only the GUI line driven.
func tickButton(b *Button, gui int) {
	b.Update(gui, LevelHigh)
}

func collectGestures(b *Button) *[]Gesture {
	var got []Gesture
	b.AddListener(gestureRecorder(func(g Gesture) { got = append(got, g) }))
	return &got
}

type gestureRecorder func(Gesture)

func (r gestureRecorder) ButtonGesture(_ *Button, g Gesture) { r(g) }

func TestButtonClick(t *testing.T) {
	b := NewButton(0, "engage", 2, 5)
	got := collectGestures(b)

	// LOW then HIGH within one tick yields CLICK only.
	tickButton(b, LevelLow)
	tickButton(b, LevelHigh)
	tickButton(b, LevelHigh)

	if len(*got) != 1 || (*got)[0] != GestureClick {
		t.Errorf("expected [click], got %v", *got)
	}
}

func TestButtonLongPress(t *testing.T) {
	b := NewButton(0, "engage", 2, 5)
	got := collectGestures(b)

	tickButton(b, LevelLow) // change observed
	tickButton(b, LevelLow) // arms the countdown
	for i := 0; i < 5; i++ {
		tickButton(b, LevelLow)
	}
	if len(*got) != 1 || (*got)[0] != GesturePress {
		t.Fatalf("expected [press] after hold, got %v", *got)
	}
	if !b.IsPressed() {
		t.Error("hold should keep registering as pressed")
	}

	// Holding further must not re-fire.
	for i := 0; i < 20; i++ {
		tickButton(b, LevelLow)
	}
	if len(*got) != 1 {
		t.Errorf("press re-fired during hold: %v", *got)
	}

	tickButton(b, LevelHigh)
	tickButton(b, LevelHigh)
	if len(*got) != 2 || (*got)[1] != GestureRelease {
		t.Errorf("expected [press release], got %v", *got)
	}
}

func TestButtonReleaseBeforeThresholdIsClick(t *testing.T) {
	b := NewButton(0, "engage", 2, 10)
	got := collectGestures(b)

	tickButton(b, LevelLow)
	tickButton(b, LevelLow) // awaiting long press
	for i := 0; i < 4; i++ {
		tickButton(b, LevelLow)
	}
	tickButton(b, LevelHigh) // released before countdown expired
	tickButton(b, LevelHigh)

	if len(*got) != 1 || (*got)[0] != GestureClick {
		t.Errorf("expected [click], got %v", *got)
	}
}

func TestButtonAnalogLineDebounced(t *testing.T) {
	b := NewButton(0, "engage", 3, 5)
	got := collectGestures(b)

	// A two-tick analog glitch is shorter than debounceUnits: no gesture.
	b.Update(LevelHigh, LevelLow)
	b.Update(LevelHigh, LevelLow)
	b.Update(LevelHigh, LevelHigh)
	b.Update(LevelHigh, LevelHigh)

	if len(*got) != 0 {
		t.Errorf("glitch produced gestures: %v", *got)
	}
}

func TestButtonPerGestureCallbacks(t *testing.T) {
	b := NewButton(0, "engage", 2, 3)
	clicks, presses, releases := 0, 0, 0
	b.OnClick(func(*Button) { clicks++ })
	b.OnPress(func(*Button) { presses++ })
	b.OnRelease(func(*Button) { releases++ })

	// Click.
	tickButton(b, LevelLow)
	tickButton(b, LevelHigh)

	// Long press and release.
	tickButton(b, LevelLow)
	tickButton(b, LevelLow)
	for i := 0; i < 3; i++ {
		tickButton(b, LevelLow)
	}
	tickButton(b, LevelHigh)
	tickButton(b, LevelHigh)

	if clicks != 1 || presses != 1 || releases != 1 {
		t.Errorf("expected 1/1/1, got %d/%d/%d", clicks, presses, releases)
	}
}
