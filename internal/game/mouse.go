package game

import (
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"autotile/internal/game/keytracker"
	"autotile/internal/graphics"
	"autotile/internal/world"
)

// mouseState remembers the last painted cell so a held button does not
// repaint the same stroke every frame.
type mouseState struct {
	left, right      keytracker.Tracker
	lastRow, lastCol int
}

func (e *Editor) handleMouse() {
	x, y := ebiten.CursorPosition()
	row, col, ok := e.cellAt(x, y)

	started, _ := e.mouse.left.Update(ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
	if e.mouse.left.Held() && ok {
		if started || row != e.mouse.lastRow || col != e.mouse.lastCol {
			e.paintAt(row, col)
		}
		e.mouse.lastRow, e.mouse.lastCol = row, col
	}

	if e.mouse.right.MouseJustPressed(ebiten.MouseButtonRight) && ok {
		e.inspectAt(row, col)
	}
}

// cellAt maps a screen position to the grid cell drawn there.
func (e *Editor) cellAt(x, y int) (row, col int, ok bool) {
	tw, th := e.sprites.TileSize()
	return graphics.ScreenToCell(x, y, 0, 0, float64(e.cfg.Viewer.Zoom), tw, th, e.grid.Rows(), e.grid.Cols())
}

// paintAt paints a brush stroke centered on (row, col) and returns the
// number of cells that changed.
func (e *Editor) paintAt(row, col int) int {
	n := world.PaintCircle(e.grid, row, col, world.BrushRadius(e.brushSize), e.Brush())
	if n > 0 {
		e.log.Debug("brush stroke",
			zap.Int("row", row), zap.Int("col", col),
			zap.Float64("size", e.brushSize), zap.Int("changed", n))
	}
	return n
}

// inspectAt records the resolution details of (row, col) for the HUD.
func (e *Editor) inspectAt(row, col int) {
	cell, err := e.resolver.Inspect(e.grid, row, col)
	if err != nil {
		e.status = "inspect: " + err.Error()
		e.hovered = nil
		return
	}
	e.hovered = &cell
}
