package server

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"autotile/internal/resolver"
	"autotile/internal/variant"
	"autotile/internal/world"
)

// Mode selects how resolved cells are printed.
type Mode uint8

const (
	// ModeGlyph prints one legend character per cell, upper-cased where a
	// transition tile was chosen.
	ModeGlyph Mode = iota
	// ModeTiles prints the chosen tile id of every cell.
	ModeTiles
	// ModeLabels prints one line per cell with its label and atlas position.
	ModeLabels
)

func (m Mode) String() string {
	switch m {
	case ModeGlyph:
		return "glyph"
	case ModeTiles:
		return "tiles"
	case ModeLabels:
		return "labels"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode reads a mode name; the empty string means ModeGlyph.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "glyph":
		return ModeGlyph, nil
	case "tiles", "ids":
		return ModeTiles, nil
	case "labels":
		return ModeLabels, nil
	default:
		return ModeGlyph, fmt.Errorf("unknown view mode %q (want glyph, tiles or labels)", s)
	}
}

// Viewport is the window of the grid shown on screen.
type Viewport struct {
	Row, Col   int // top-left grid cell
	Rows, Cols int // viewport size in cells
}

// FullViewport shows the whole grid.
func FullViewport(rows, cols int) Viewport {
	return Viewport{Rows: rows, Cols: cols}
}

// NewViewport centers the view on (row, col), clamped to the grid.
// hudRows are reserved at the bottom of the terminal.
func NewViewport(row, col, termW, termH, gridRows, gridCols, hudRows int) Viewport {
	v := Viewport{Rows: max(1, termH-hudRows), Cols: max(1, termW)}
	v.Row = clampOrigin(row-v.Rows/2, v.Rows, gridRows)
	v.Col = clampOrigin(col-v.Cols/2, v.Cols, gridCols)
	return v
}

func clampOrigin(start, size, limit int) int {
	if start+size > limit {
		start = limit - size
	}
	return max(0, start)
}

// Contains reports whether the grid cell is on screen.
func (v Viewport) Contains(row, col int) bool {
	return row >= v.Row && row < v.Row+v.Rows && col >= v.Col && col < v.Col+v.Cols
}

// Renderer formats resolved cells as text.
type Renderer struct {
	palette *world.Palette
	legend  world.Legend
}

func NewRenderer(p *world.Palette, legend world.Legend) *Renderer {
	return &Renderer{palette: p, legend: legend}
}

// Glyph is the character drawn for one cell: the legend character of its
// category, upper-cased for transition tiles, '!' for substituted cells and
// '?' for categories without a legend entry.
func (rd *Renderer) Glyph(c resolver.Cell) rune {
	if c.Substituted {
		return '!'
	}
	ch, ok := rd.legend.Char(c.Category)
	if !ok {
		return '?'
	}
	if c.Kind == variant.KindTransition {
		return unicode.ToUpper(ch)
	}
	return ch
}

// Render writes the cells inside vp. cells must be the row-major result of
// a full pass over a grid with cols columns.
func (rd *Renderer) Render(w io.Writer, cells []resolver.Cell, cols int, mode Mode, vp Viewport) error {
	bw := bufio.NewWriter(w)
	rows := 0
	if cols > 0 {
		rows = len(cells) / cols
	}

	for row := vp.Row; row < min(rows, vp.Row+vp.Rows); row++ {
		cellsInRow := cells[row*cols : (row+1)*cols]
		for col := vp.Col; col < min(cols, vp.Col+vp.Cols); col++ {
			c := cellsInRow[col]
			switch mode {
			case ModeGlyph:
				bw.WriteRune(rd.Glyph(c))
			case ModeTiles:
				if col > vp.Col {
					bw.WriteByte(' ')
				}
				fmt.Fprintf(bw, "%3d", c.Tile.Tile)
			case ModeLabels:
				fmt.Fprintf(bw, "%d %d %s %s\n", c.Row, c.Col, c.Label, c.Tile)
			}
		}
		if mode != ModeLabels {
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// Describe summarizes one cell for the status line.
func (rd *Renderer) Describe(c resolver.Cell) string {
	s := fmt.Sprintf("(%d,%d) %s [%s] -> %s %s", c.Row, c.Col, rd.palette.Name(c.Category), c.Mask, c.Label, c.Tile)
	if c.Substituted {
		s += " substituted: " + c.Fault.Error()
	}
	return s
}
