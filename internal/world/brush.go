package world

import "math"

// PaintCircle sets every in-bounds cell whose center lies within radius of
// (row, col) to c and returns how many cells changed. The center itself may
// lie outside the grid. The whole stroke is one mutation.
func PaintCircle(g *Grid, row, col int, radius float64, c Category) int {
	if radius < 0 {
		return 0
	}
	reach := int(math.Floor(radius))
	r2 := radius * radius

	g.mu.Lock()
	defer g.mu.Unlock()

	changed := 0
	for dr := -reach; dr <= reach; dr++ {
		for dc := -reach; dc <= reach; dc++ {
			if float64(dr*dr+dc*dc) > r2 {
				continue
			}
			r, cc := row+dr, col+dc
			if !g.Contains(r, cc) {
				continue
			}
			i := r*g.cols + cc
			if g.cells[i] != c {
				g.cells[i] = c
				changed++
			}
		}
	}
	if changed > 0 {
		g.version++
	}
	return changed
}

// BrushRadius converts an editor brush size to a radius in cells.
func BrushRadius(size float64) float64 {
	return math.Max(0, size-0.5)
}
