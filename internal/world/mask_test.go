package world

import (
	"math/rand"
	"testing"
)

func TestComputeMaskCenter(t *testing.T) {
	g, _ := NewGrid(3, 3, 1)
	m, err := ComputeMask(g, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if m != MaskAll {
		t.Errorf("mask = %s, want all", m)
	}

	_ = g.Set(2, 1, 2) // south
	_ = g.Set(1, 2, 2) // east
	m, _ = ComputeMask(g, 1, 1)
	if want := MaskAll.Without(South).Without(East); m != want {
		t.Errorf("mask = %s, want %s", m, want)
	}
}

func TestComputeMaskBitOrder(t *testing.T) {
	for i, d := range AllDirections {
		if d.Bit() != Mask(1)<<i {
			t.Errorf("%s bit = %08b, want bit %d", d, d.Bit(), i)
		}
	}
	if North.Bit() != 1 || NorthWest.Bit() != 0x80 {
		t.Error("north must be bit 0 and north-west bit 7")
	}
}

func TestRowZeroOpenBorder(t *testing.T) {
	g, _ := NewGrid(4, 4, 1)
	for col := 0; col < 4; col++ {
		m, err := ComputeMask(g, 0, col)
		if err != nil {
			t.Fatal(err)
		}
		if m.Has(North) || m.Has(NorthEast) || m.Has(NorthWest) {
			t.Errorf("(0,%d) mask %s has a northern bit", col, m)
		}
	}
	corner, _ := ComputeMask(g, 0, 0)
	if want := MaskOf(East, SouthEast, South); corner != want {
		t.Errorf("corner mask = %s, want %s", corner, want)
	}
}

func TestComputeMaskWrap(t *testing.T) {
	g, _ := NewGrid(3, 3, 1)
	g.SetEdgePolicy(EdgeWrap)
	m, _ := ComputeMask(g, 0, 0)
	if m != MaskAll {
		t.Errorf("wrapped uniform grid mask = %s, want all", m)
	}

	_ = g.Set(2, 2, 2) // north-west of (0,0) after wrapping
	m, _ = ComputeMask(g, 0, 0)
	if m.Has(NorthWest) || m.Count() != 7 {
		t.Errorf("mask = %s, expected only NW cleared", m)
	}
}

func TestComputeMaskOutOfBounds(t *testing.T) {
	g, _ := NewGrid(2, 2, 1)
	if _, err := ComputeMask(g, 5, 0); err == nil {
		t.Error("expected an error for an off-grid origin")
	}
}

func TestMaskMirrorSymmetry(t *testing.T) {
	g, _ := NewGrid(7, 9, 1)
	rng := rand.New(rand.NewSource(11))
	for r := 0; r < 7; r++ {
		for c := 0; c < 9; c++ {
			_ = g.Set(r, c, Category(1+rng.Intn(3)))
		}
	}
	mirrored := g.MirrorHorizontal()
	for r := 0; r < 7; r++ {
		for c := 0; c < 9; c++ {
			m, _ := ComputeMask(g, r, c)
			mm, _ := ComputeMask(mirrored, r, 8-c)
			if mm != m.MirrorHorizontal() {
				t.Fatalf("(%d,%d): mirrored mask %s, want %s", r, c, mm, m.MirrorHorizontal())
			}
		}
	}
}

func TestMaskHelpers(t *testing.T) {
	m := MaskOf(North, East, SouthEast)
	if m.String() != "N|E|SE" {
		t.Errorf("String = %q", m.String())
	}
	if Mask(0).String() != "none" {
		t.Errorf("empty mask String = %q", Mask(0).String())
	}
	if got := m.MirrorHorizontal(); got != MaskOf(North, West, SouthWest) {
		t.Errorf("mirror = %s", got)
	}
	if m.MirrorHorizontal().MirrorHorizontal() != m {
		t.Error("mirroring twice should be the identity")
	}
}

func TestParseEdgePolicy(t *testing.T) {
	if p, err := ParseEdgePolicy("wrap"); err != nil || p != EdgeWrap {
		t.Errorf("wrap -> %s, %v", p, err)
	}
	if p, err := ParseEdgePolicy(""); err != nil || p != EdgeOpen {
		t.Errorf("empty -> %s, %v", p, err)
	}
	if _, err := ParseEdgePolicy("torus"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestDirectionOpposite(t *testing.T) {
	for _, d := range AllDirections {
		dr, dc := d.Offset()
		or, oc := d.Opposite().Offset()
		if dr != -or || dc != -oc {
			t.Errorf("%s opposite %s offsets do not cancel", d, d.Opposite())
		}
		if d.Mirror().Mirror() != d {
			t.Errorf("%s mirror is not an involution", d)
		}
	}
}
