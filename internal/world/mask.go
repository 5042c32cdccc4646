package world

import (
	"fmt"
	"math/bits"
	"strings"

	"autotile/internal/mathutil"
)

// Mask has one bit per compass direction, set when the neighbor in that
// direction exists and shares the origin cell's category.
type Mask uint8

// MaskAll has every neighbor matching.
const MaskAll Mask = 0xFF

// EdgePolicy decides what lies beyond the grid border.
type EdgePolicy uint8

const (
	// EdgeOpen treats off-grid neighbors as not matching.
	EdgeOpen EdgePolicy = iota
	// EdgeWrap wraps coordinates around both axes, as for a tiling map.
	EdgeWrap
)

func (p EdgePolicy) String() string {
	switch p {
	case EdgeOpen:
		return "open"
	case EdgeWrap:
		return "wrap"
	default:
		return fmt.Sprintf("edge(%d)", uint8(p))
	}
}

// ParseEdgePolicy converts a config value into an EdgePolicy.
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return EdgeOpen, nil
	case "wrap":
		return EdgeWrap, nil
	default:
		return EdgeOpen, fmt.Errorf("unknown edge policy %q (want open or wrap)", s)
	}
}

// ComputeMask derives the adjacency mask of the cell at (row, col).
// It only reads the grid and may be called concurrently with other readers.
func ComputeMask(g *Grid, row, col int) (Mask, error) {
	if !g.Contains(row, col) {
		return 0, g.boundsError(row, col)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.maskAt(row, col), nil
}

// ComputeCell returns the category at (row, col) together with its mask,
// both read under the same lock.
func ComputeCell(g *Grid, row, col int) (Category, Mask, error) {
	if !g.Contains(row, col) {
		return Unspecified, 0, g.boundsError(row, col)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.at(row, col), g.maskAt(row, col), nil
}

// maskAt computes a mask with the read lock already held.
func (g *Grid) maskAt(row, col int) Mask {
	origin := g.at(row, col)
	var m Mask
	for _, d := range AllDirections {
		dr, dc := d.Offset()
		r, c := row+dr, col+dc
		if !g.Contains(r, c) {
			if g.edge != EdgeWrap {
				continue
			}
			r = mathutil.Wrap(r, g.rows)
			c = mathutil.Wrap(c, g.cols)
		}
		if g.at(r, c) == origin {
			m |= d.Bit()
		}
	}
	return m
}

// Has reports whether the neighbor in direction d matches.
func (m Mask) Has(d Direction) bool {
	return m&d.Bit() != 0
}

// With returns m with d's bit set.
func (m Mask) With(d Direction) Mask {
	return m | d.Bit()
}

// Without returns m with d's bit cleared.
func (m Mask) Without(d Direction) Mask {
	return m &^ d.Bit()
}

// Count returns the number of matching neighbors.
func (m Mask) Count() int {
	return bits.OnesCount8(uint8(m))
}

// MirrorHorizontal swaps the east and west halves of the mask (E/W, NE/NW, SE/SW).
func (m Mask) MirrorHorizontal() Mask {
	var out Mask
	for _, d := range AllDirections {
		if m.Has(d) {
			out |= d.Mirror().Bit()
		}
	}
	return out
}

// MaskOf builds a mask with the given directions set.
func MaskOf(dirs ...Direction) Mask {
	var m Mask
	for _, d := range dirs {
		m |= d.Bit()
	}
	return m
}

func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	parts := make([]string, 0, 8)
	for _, d := range AllDirections {
		if m.Has(d) {
			parts = append(parts, d.String())
		}
	}
	return strings.Join(parts, "|")
}
