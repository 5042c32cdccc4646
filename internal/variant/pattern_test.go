package variant

import (
	"errors"
	"testing"

	"autotile/internal/world"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in   string
		want Pattern
	}{
		{"", Wildcard},
		{"*", Wildcard},
		{"n-", Pattern{Care: world.MaskOf(world.North)}},
		{"n+ e+ ne-", Pattern{
			Care: world.MaskOf(world.North, world.East, world.NorthEast),
			Want: world.MaskOf(world.North, world.East),
		}},
		{"S-,W-", Pattern{Care: world.MaskOf(world.South, world.West)}},
	}
	for _, tt := range tests {
		got, err := ParsePattern(tt.in)
		if err != nil {
			t.Fatalf("ParsePattern(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParsePattern(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParsePatternErrors(t *testing.T) {
	for _, in := range []string{"n", "x+", "n+ n-", "north+", "ne?"} {
		if _, err := ParsePattern(in); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("ParsePattern(%q): expected ErrInvalidPattern, got %v", in, err)
		}
	}
}

func TestPatternStringRoundTrip(t *testing.T) {
	for _, s := range []string{"*", "n-", "n+ ne- e+", "s- w-", "n- ne+ e- se+ s- sw+ w- nw+"} {
		p := MustParsePattern(s)
		again, err := ParsePattern(p.String())
		if err != nil || again != p {
			t.Errorf("%q -> %q -> %+v (%v)", s, p.String(), again, err)
		}
	}
}

func TestPatternMatchesAndSpecificity(t *testing.T) {
	p := MustParsePattern("s- e-")
	if p.Specificity() != 2 {
		t.Fatalf("specificity = %d, want 2", p.Specificity())
	}

	m := world.MaskAll.Without(world.South).Without(world.East)
	if !p.Matches(m) {
		t.Errorf("expected %s to match %s", p, m)
	}
	if p.Matches(m.With(world.East)) {
		t.Errorf("expected %s not to match with east set", p)
	}
	if !Wildcard.Matches(0) || !Wildcard.Matches(world.MaskAll) {
		t.Error("wildcard must match everything")
	}
}

func TestPatternMirror(t *testing.T) {
	got := MustParsePattern("n+ e+ ne-").Mirror()
	if want := MustParsePattern("n+ w+ nw-"); got != want {
		t.Errorf("mirror = %s, want %s", got, want)
	}
}
