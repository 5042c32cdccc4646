package world

import "testing"

func TestPaintCircle(t *testing.T) {
	g, _ := NewGrid(9, 9, 1)
	v := g.Version()

	n := PaintCircle(g, 4, 4, 1, 2)
	if n != 5 {
		t.Errorf("radius 1 painted %d cells, want 5", n)
	}
	if g.Count(2) != 5 {
		t.Errorf("count = %d, want 5", g.Count(2))
	}
	if g.Version() != v+1 {
		t.Errorf("a stroke should be one mutation, version %d -> %d", v, g.Version())
	}

	if again := PaintCircle(g, 4, 4, 1, 2); again != 0 {
		t.Errorf("repainting changed %d cells", again)
	}
}

func TestPaintCircleClipsAtBorder(t *testing.T) {
	g, _ := NewGrid(4, 4, 1)
	n := PaintCircle(g, 0, 0, 1.5, 3)
	if n != 4 {
		t.Errorf("corner stroke painted %d cells, want 4", n)
	}
	if PaintCircle(g, -10, -10, 2, 3) != 0 {
		t.Error("a stroke far off the grid should paint nothing")
	}
}

func TestBrushRadius(t *testing.T) {
	if BrushRadius(5) != 4.5 || BrushRadius(0.2) != 0 {
		t.Errorf("BrushRadius = %v, %v", BrushRadius(5), BrushRadius(0.2))
	}
}
