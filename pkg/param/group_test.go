package param

import "testing"

func testGroup(t *testing.T) *Group {
	t.Helper()
	g := NewGroup("reverb")
	err := g.Add(
		NewSlide("decay", "Decay", 0, 10, 2, 1000).WithUnit("s"),
		NewSlide("mix", "Mix", 0, 100, 50, 1000).WithFormatter(PercentFormatter),
		NewChoice("type", "Type", []string{"Church", "Room"}),
		NewButton("engage", "Engage", Toggle),
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return g
}

func TestGroup(t *testing.T) {
	t.Run("StableOrder", func(t *testing.T) {
		g := testGroup(t)
		want := []string{"decay", "mix", "type", "engage"}
		for i, id := range want {
			p := g.ByIndex(i)
			if p == nil || p.ID() != id {
				t.Errorf("index %d: expected %q, got %v", i, id, p)
			}
		}
		if g.ByIndex(4) != nil || g.ByIndex(-1) != nil {
			t.Error("out-of-range index should return nil")
		}
	})

	t.Run("DuplicateIDRejected", func(t *testing.T) {
		g := testGroup(t)
		if err := g.Add(NewButton("engage", "Engage Again", Toggle)); err == nil {
			t.Error("duplicate id should be rejected")
		}
		if g.Count() != 4 {
			t.Errorf("failed add must not grow the group, got %d", g.Count())
		}
	})

	t.Run("LookupMissReported", func(t *testing.T) {
		g := testGroup(t)
		var missed []string
		g.OnMiss(func(id string) { missed = append(missed, id) })

		if p := g.Get("nope"); p != nil {
			t.Error("unknown id should return nil")
		}
		if _, ok := g.Lookup("maybe", true); ok {
			t.Error("unknown id should report not found")
		}
		if len(missed) != 1 || missed[0] != "nope" {
			t.Errorf("expected one reported miss for %q, got %v", "nope", missed)
		}
	})

	t.Run("ProcessRampsDrivesSlides", func(t *testing.T) {
		g := testGroup(t)
		decay := g.Get("decay").(*Slide)
		decay.WithRampTime(10)
		decay.SetValue(5)

		for i := 0; i < 10; i++ {
			g.ProcessRamps()
		}
		if decay.Current() != 5 {
			t.Errorf("expected ramp completed at 5, got %v", decay.Current())
		}
	})

	t.Run("All", func(t *testing.T) {
		g := testGroup(t)
		all := g.All()
		if len(all) != 4 {
			t.Fatalf("expected 4 parameters, got %d", len(all))
		}
		if all[1].PrintValue() != "50%" {
			t.Errorf("expected formatted mix value, got %q", all[1].PrintValue())
		}
	})
}
