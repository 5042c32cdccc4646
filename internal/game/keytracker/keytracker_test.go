package keytracker

import "testing"

func TestTrackerEdges(t *testing.T) {
	var tr Tracker
	steps := []struct {
		pressed  bool
		down, up bool
	}{
		{false, false, false},
		{true, true, false},
		{true, false, false},
		{false, false, true},
		{false, false, false},
		{true, true, false},
	}
	for i, s := range steps {
		down, up := tr.Update(s.pressed)
		if down != s.down || up != s.up {
			t.Errorf("step %d: got (%v,%v), want (%v,%v)", i, down, up, s.down, s.up)
		}
		if tr.Held() != s.pressed {
			t.Errorf("step %d: Held = %v", i, tr.Held())
		}
	}
}
