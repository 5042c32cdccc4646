// Package game is the interactive tile editor: it draws a resolved grid with
// atlas tiles and lets the user paint terrain and regenerate the map.
package game

import (
	"context"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"autotile/internal/config"
	"autotile/internal/graphics"
	"autotile/internal/resolver"
	"autotile/internal/threading/core"
	"autotile/internal/tileset"
	"autotile/internal/world"
)

const (
	hudX = 8
	hudY = 8
)

// Editor holds the grid being edited and the last resolved pass over it.
type Editor struct {
	cfg      *config.Config
	bundle   *tileset.Bundle
	resolver *resolver.Resolver
	pool     *core.WorkerPool
	sprites  *graphics.TileSprites
	log      *zap.Logger

	grid     *world.Grid
	params   world.GenerateParams
	cells    []resolver.Cell
	version  uint64
	resolved bool

	brush     int // index into the palette categories
	brushSize float64
	showHUD   bool
	status    string
	hovered   *resolver.Cell

	mouse mouseState
	perf  perfState
}

// NewEditor creates an editor for grid. The pool must already be started.
func NewEditor(cfg *config.Config, b *tileset.Bundle, r *resolver.Resolver, pool *core.WorkerPool, sprites *graphics.TileSprites, grid *world.Grid, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	edge, _ := world.ParseEdgePolicy(cfg.Resolve.Edge)
	return &Editor{
		cfg:       cfg,
		bundle:    b,
		resolver:  r,
		pool:      pool,
		sprites:   sprites,
		log:       log,
		grid:      grid,
		params:    b.GenerateParams(cfg.Generate, edge),
		brushSize: cfg.Generate.BrushSize,
		showHUD:   cfg.Viewer.ShowHUD,
	}
}

// Run opens the window and blocks until it is closed.
func (e *Editor) Run() error {
	ebiten.SetWindowSize(e.cfg.Viewer.ScreenWidth, e.cfg.Viewer.ScreenHeight)
	ebiten.SetWindowTitle(e.cfg.Viewer.WindowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(e)
}

// Grid returns the grid being edited.
func (e *Editor) Grid() *world.Grid { return e.grid }

// Brush returns the category painted by the mouse.
func (e *Editor) Brush() world.Category {
	return e.bundle.Palette.Categories()[e.brush]
}

func (e *Editor) Update() error {
	if err := e.handleKeys(); err != nil {
		return err
	}
	e.handleMouse()
	if err := e.refresh(context.Background()); err != nil {
		return err
	}
	e.maybeLogPerfDrop()
	return nil
}

func (e *Editor) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{15, 15, 22, 255})
	if !e.resolved {
		graphics.DrawText(screen, "resolving...", hudX, hudY, color.White)
		return
	}

	scale := float64(e.cfg.Viewer.Zoom)
	e.sprites.DrawCells(screen, e.cells, e.grid.Cols(), 0, 0, scale)

	if e.showHUD {
		graphics.DrawLines(screen, e.hudLines(), hudX, hudY)
	}
}

func (e *Editor) Layout(_, _ int) (int, int) {
	return e.cfg.Viewer.ScreenWidth, e.cfg.Viewer.ScreenHeight
}

// refresh re-resolves the grid when it changed since the last pass. An
// unabsorbed fault stops the editor, as the tables no longer fit the grid.
func (e *Editor) refresh(ctx context.Context) error {
	if e.resolved && e.grid.Version() == e.version {
		return nil
	}
	version := e.grid.Version()
	cells, err := e.resolver.ResolveParallel(ctx, e.grid, e.pool)
	if err != nil {
		e.log.Error("resolution pass failed", zap.Error(err))
		return fmt.Errorf("resolve: %w", err)
	}
	e.cells = cells
	e.version = version
	e.resolved = true
	return nil
}

// regenerate replaces the grid with a freshly generated one.
func (e *Editor) regenerate(ctx context.Context, seed int64) error {
	e.params.Seed = seed
	g, err := world.Generate(ctx, e.params, e.pool)
	if err != nil {
		e.status = "generate failed: " + err.Error()
		e.log.Warn("regeneration failed", zap.Int64("seed", seed), zap.Error(err))
		return err
	}
	e.grid = g
	e.resolved = false
	e.hovered = nil
	e.status = fmt.Sprintf("generated seed %d", seed)
	e.log.Info("map regenerated", zap.Int64("seed", seed), zap.Int("rows", g.Rows()), zap.Int("cols", g.Cols()))
	return nil
}

func (e *Editor) hudLines() []string {
	p := e.bundle.Palette
	lines := []string{
		fmt.Sprintf("%dx%d  seed %d  edge %s", e.grid.Rows(), e.grid.Cols(), e.params.Seed, e.grid.EdgePolicy()),
		fmt.Sprintf("brush %d:%s size %.0f", e.brush+1, p.Name(e.Brush()), e.brushSize),
		"LMB paint  RMB inspect  1-9 brush  [ ] size  R regen  N next seed  H hud",
	}
	if e.hovered != nil {
		c := e.hovered
		lines = append(lines, fmt.Sprintf("(%d,%d) %s [%s] -> %s %s", c.Row, c.Col, p.Name(c.Category), c.Mask, c.Label, c.Tile))
	}
	if e.status != "" {
		lines = append(lines, e.status)
	}
	m := e.resolver.Monitor().GetCurrentMetrics()
	lines = append(lines, fmt.Sprintf("passes %d  last %s  faults %d", m.Passes, m.LastPass, m.Faults))
	return lines
}
