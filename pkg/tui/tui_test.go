package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Track: "loop.wav",
		Effects: []EffectView{
			{Name: "granular", Engaged: true},
			{Name: "reverb", Engaged: false},
		},
		Params: []ParamView{
			{Name: "density", Value: "62 %", Normalized: 0.62},
			{Name: "size", Value: "120 ms", Normalized: 0.3},
		},
		Underruns: 0,
		Blocks:    441,
	}
}

func testFrames() chan struct{} {
	return make(chan struct{}, 1)
}

func TestViewShowsState(t *testing.T) {
	m := New(testSnapshot, Controls{}, testFrames())
	out := m.View()
	for _, want := range []string{"loop.wav", "granular", "engaged", "reverb", "bypassed", "density", "62 %", "blocks 441"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(out, "underruns") {
		t.Error("underrun warning shown with zero underruns")
	}
}

func TestViewWarnsOnUnderruns(t *testing.T) {
	snap := testSnapshot()
	snap.Underruns = 2
	m := New(func() Snapshot { return snap }, Controls{}, testFrames())
	if !strings.Contains(m.View(), "underruns 2") {
		t.Error("view should warn about underruns")
	}
}

func TestFrameRefreshesSnapshot(t *testing.T) {
	calls := 0
	fetch := func() Snapshot {
		calls++
		s := testSnapshot()
		s.Blocks = uint64(calls)
		return s
	}
	m := New(fetch, Controls{}, testFrames())

	next, cmd := m.Update(frameMsg{})
	if cmd == nil {
		t.Error("frame should re-arm the wait for the next frame")
	}
	if got := next.(Model).snap.Blocks; got != 2 {
		t.Errorf("snapshot blocks = %d, want refetched 2", got)
	}
}

func TestInitWaitsForFrame(t *testing.T) {
	frames := testFrames()
	m := New(testSnapshot, Controls{}, frames)

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("init should wait on the frame channel")
	}
	frames <- struct{}{}
	if _, ok := cmd().(frameMsg); !ok {
		t.Error("delivered frame token should surface as a frame message")
	}
}

func TestKeysTriggerControls(t *testing.T) {
	var toggled []int
	saved := false
	m := New(testSnapshot, Controls{
		ToggleEffect: func(i int) { toggled = append(toggled, i) },
		Save:         func() { saved = true },
	}, testFrames())

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'9'}}) // out of range
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	if len(toggled) != 1 || toggled[0] != 1 {
		t.Errorf("toggled %v, want [1]", toggled)
	}
	if !saved {
		t.Error("s should trigger save")
	}
}

func TestQuitKey(t *testing.T) {
	m := New(testSnapshot, Controls{}, testFrames())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q produced %v, want quit", cmd())
	}
}
