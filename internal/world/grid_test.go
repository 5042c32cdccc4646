package world

import (
	"errors"
	"testing"
)

func TestNewGridRejectsBadSize(t *testing.T) {
	for _, dims := range [][2]int{{0, 3}, {3, 0}, {-1, 2}} {
		if _, err := NewGrid(dims[0], dims[1], Unspecified); err == nil {
			t.Errorf("NewGrid(%d, %d) should fail", dims[0], dims[1])
		}
	}
}

func TestGridGetSet(t *testing.T) {
	g, err := NewGrid(3, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := g.Get(2, 3); c != 2 {
		t.Errorf("fill value = %d, want 2", c)
	}

	v := g.Version()
	if err := g.Set(1, 2, 5); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if c, _ := g.Get(1, 2); c != 5 {
		t.Errorf("Get after Set = %d, want 5", c)
	}
	if g.Version() == v {
		t.Error("Set should bump the version")
	}
	if g.Count(5) != 1 || g.Count(2) != 11 {
		t.Errorf("counts = %d, %d", g.Count(5), g.Count(2))
	}
}

func TestGridOutOfBounds(t *testing.T) {
	g, _ := NewGrid(2, 2, 1)
	for _, rc := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if _, err := g.Get(rc[0], rc[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Get(%d, %d): expected ErrOutOfBounds, got %v", rc[0], rc[1], err)
		}
		if err := g.Set(rc[0], rc[1], 3); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Set(%d, %d): expected ErrOutOfBounds, got %v", rc[0], rc[1], err)
		}
	}
	if g.Count(3) != 0 {
		t.Error("out of bounds Set must not clamp into the grid")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	g, _ := NewGrid(2, 2, 1)
	snap := g.Snapshot()
	_ = g.Set(0, 0, 4)

	if c, _ := snap.Get(0, 0); c != 1 {
		t.Errorf("snapshot saw a later edit: %d", c)
	}
	if snap.Version() == g.Version() {
		t.Error("versions should diverge after an edit")
	}
}

func TestGridMirrorHorizontal(t *testing.T) {
	g, _ := NewGrid(2, 3, 0)
	_ = g.Set(0, 0, 1)
	_ = g.Set(1, 1, 2)

	m := g.MirrorHorizontal()
	if c, _ := m.Get(0, 2); c != 1 {
		t.Errorf("(0,2) = %d, want 1", c)
	}
	if c, _ := m.Get(1, 1); c != 2 {
		t.Errorf("(1,1) = %d, want 2", c)
	}
	if c, _ := g.Get(0, 0); c != 1 {
		t.Error("mirroring must not change the source grid")
	}
}
