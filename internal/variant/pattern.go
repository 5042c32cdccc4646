package variant

import (
	"fmt"
	"math/bits"
	"strings"

	"autotile/internal/world"
)

// Pattern is a partial adjacency mask. Care selects the pinned bits and Want
// holds their required values; bits outside Care are ignored.
type Pattern struct {
	Care world.Mask
	Want world.Mask
}

// Wildcard matches every mask.
var Wildcard = Pattern{}

// Matches reports whether every pinned bit of p agrees with m.
func (p Pattern) Matches(m world.Mask) bool {
	return m&p.Care == p.Want
}

// Specificity is the number of pinned bits.
func (p Pattern) Specificity() int {
	return bits.OnesCount8(uint8(p.Care))
}

func (p Pattern) IsWildcard() bool { return p.Care == 0 }

// Pin returns p with direction d pinned to matching or differing.
func (p Pattern) Pin(d world.Direction, matching bool) Pattern {
	p.Care |= d.Bit()
	if matching {
		p.Want |= d.Bit()
	} else {
		p.Want &^= d.Bit()
	}
	return p
}

// Mirror reflects the pattern east to west.
func (p Pattern) Mirror() Pattern {
	return Pattern{Care: p.Care.MirrorHorizontal(), Want: p.Want.MirrorHorizontal()}
}

// String renders the pattern in the syntax ParsePattern accepts.
func (p Pattern) String() string {
	if p.IsWildcard() {
		return "*"
	}
	parts := make([]string, 0, p.Specificity())
	for _, d := range world.AllDirections {
		if p.Care&d.Bit() == 0 {
			continue
		}
		sign := "-"
		if p.Want&d.Bit() != 0 {
			sign = "+"
		}
		parts = append(parts, strings.ToLower(d.String())+sign)
	}
	return strings.Join(parts, " ")
}

var patternDirections = map[string]world.Direction{
	"n": world.North, "ne": world.NorthEast, "e": world.East, "se": world.SouthEast,
	"s": world.South, "sw": world.SouthWest, "w": world.West, "nw": world.NorthWest,
}

// ParsePattern reads a pattern such as "n+ e+ ne-". Items are separated by
// spaces or commas; "+" means the neighbor matches, "-" that it differs.
// An empty string or "*" is the wildcard.
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Wildcard, nil
	}

	var p Pattern
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
	for _, f := range fields {
		if len(f) < 2 {
			return Wildcard, fmt.Errorf("pattern %q: item %q: %w", s, f, ErrInvalidPattern)
		}
		name, sign := strings.ToLower(f[:len(f)-1]), f[len(f)-1]
		d, ok := patternDirections[name]
		if !ok || (sign != '+' && sign != '-') {
			return Wildcard, fmt.Errorf("pattern %q: item %q: %w", s, f, ErrInvalidPattern)
		}
		if p.Care&d.Bit() != 0 {
			return Wildcard, fmt.Errorf("pattern %q: direction %s pinned twice: %w", s, d, ErrInvalidPattern)
		}
		p = p.Pin(d, sign == '+')
	}
	return p, nil
}

// MustParsePattern is ParsePattern for literals; it panics on error.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}
