package world

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfBounds is returned for any grid access outside the declared dimensions.
var ErrOutOfBounds = errors.New("grid coordinates out of bounds")

// Grid holds the authoritative terrain category of every cell.
// Cells are stored row-major; row 0 is the northern edge.
// Dimensions are fixed for the lifetime of the grid.
type Grid struct {
	mu      sync.RWMutex
	rows    int
	cols    int
	cells   []Category
	edge    EdgePolicy
	version uint64
}

// NewGrid creates a rows x cols grid with every cell set to fill
func NewGrid(rows, cols int, fill Category) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d", rows, cols)
	}

	cells := make([]Category, rows*cols)
	if fill != Unspecified {
		for i := range cells {
			cells[i] = fill
		}
	}

	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: cells,
		edge:  EdgeOpen,
	}, nil
}

// Rows returns the number of rows
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns
func (g *Grid) Cols() int { return g.cols }

// Len returns the number of cells.
func (g *Grid) Len() int { return g.rows * g.cols }

// EdgePolicy returns how neighbors beyond the border are treated.
func (g *Grid) EdgePolicy() EdgePolicy {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edge
}

// SetEdgePolicy changes the border policy. It counts as a mutation.
func (g *Grid) SetEdgePolicy(p EdgePolicy) {
	g.mu.Lock()
	g.edge = p
	g.version++
	g.mu.Unlock()
}

// Version increases on every mutation. Two reads returning the same version
// observed identical contents.
func (g *Grid) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Contains reports whether (row, col) lies inside the grid.
func (g *Grid) Contains(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// Get returns the category at (row, col).
func (g *Grid) Get(row, col int) (Category, error) {
	if !g.Contains(row, col) {
		return Unspecified, g.boundsError(row, col)
	}
	g.mu.RLock()
	c := g.cells[row*g.cols+col]
	g.mu.RUnlock()
	return c, nil
}

// Set overwrites the category at (row, col).
func (g *Grid) Set(row, col int, c Category) error {
	if !g.Contains(row, col) {
		return g.boundsError(row, col)
	}
	g.mu.Lock()
	g.cells[row*g.cols+col] = c
	g.version++
	g.mu.Unlock()
	return nil
}

// Fill sets every cell to c.
func (g *Grid) Fill(c Category) {
	g.mu.Lock()
	for i := range g.cells {
		g.cells[i] = c
	}
	g.version++
	g.mu.Unlock()
}

// Count returns how many cells hold c.
func (g *Grid) Count(c Category) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, cell := range g.cells {
		if cell == c {
			n++
		}
	}
	return n
}

// Snapshot returns an independent copy of the grid taken at a single version.
// Later edits to g are not visible through the snapshot.
func (g *Grid) Snapshot() *Grid {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cells := make([]Category, len(g.cells))
	copy(cells, g.cells)
	return &Grid{
		rows:    g.rows,
		cols:    g.cols,
		cells:   cells,
		edge:    g.edge,
		version: g.version,
	}
}

// MirrorHorizontal returns a copy of the grid flipped east to west.
func (g *Grid) MirrorHorizontal() *Grid {
	s := g.Snapshot()
	for r := 0; r < s.rows; r++ {
		row := s.cells[r*s.cols : (r+1)*s.cols]
		for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
	return s
}

// Cells returns a copy of the row-major cell buffer.
func (g *Grid) Cells() []Category {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Category, len(g.cells))
	copy(out, g.cells)
	return out
}

// at reads a cell without locking or bounds checks; callers hold the read lock.
func (g *Grid) at(row, col int) Category {
	return g.cells[row*g.cols+col]
}

// setRowUnlocked writes a whole row; used while the grid is still private to its builder.
func (g *Grid) setRowUnlocked(row int, values []Category) {
	copy(g.cells[row*g.cols:(row+1)*g.cols], values)
}

func (g *Grid) boundsError(row, col int) error {
	return fmt.Errorf("(%d, %d) outside %dx%d grid: %w", row, col, g.rows, g.cols, ErrOutOfBounds)
}
