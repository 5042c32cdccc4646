package main

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"autotile/internal/config"
	"autotile/internal/graphics"
	"autotile/internal/logger"
	"autotile/internal/resolver"
	"autotile/internal/threading/core"
	"autotile/internal/tileset"
	"autotile/internal/world"
)

const (
	windowWidth  = 1200
	windowHeight = 800
	sidebarWidth = 300
	padding      = 16
)

type mapInfo struct {
	Key   string
	Grid  *world.Grid
	Cells []resolver.Cell
	Err   error
}

type viewer struct {
	maps        []mapInfo
	mapIndex    int
	sidebarTab  int
	legendLines []string
	bundle      *tileset.Bundle
	resolver    *resolver.Resolver
	sprites     *graphics.TileSprites
	lastErr     string
}

const (
	tabInfo = iota
	tabLegend
)

func main() {
	ensureRuntimeCWD()

	cfg := config.MustLoadConfig("config.yaml")
	if err := logger.InitWithFileConfig(cfg.Logging.Level, cfg.Logging.FileConfig(), true); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	b, err := tileset.LoadFromConfig(cfg.Tileset)
	if err != nil {
		log.Fatal(err)
	}
	r, err := b.NewResolver(cfg.Resolve)
	if err != nil {
		log.Fatal(err)
	}
	sprites, err := graphics.LoadTileSprites(b.Descriptor.ImagePath(), b.Atlas.Geometry())
	if err != nil {
		log.Printf("Warning: %v, drawing placeholders", err)
		sprites = graphics.NewTileSprites(nil, b.Atlas.Geometry())
	}

	pool := tileset.NewPool(cfg.Resolve)
	defer pool.Stop()

	v := &viewer{
		maps:        loadMaps(b, r, pool, filepath.Join("assets", "maps")),
		legendLines: buildLegendLines(b),
		bundle:      b,
		resolver:    r,
		sprites:     sprites,
	}
	if len(v.maps) == 0 {
		v.lastErr = "no maps loaded"
	}

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("autotile map viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.sidebarTab = 1 - v.sidebarTab
	}
	if inpututil.IsKeyJustPressed(ebiten.Key1) {
		v.sidebarTab = tabInfo
	}
	if inpututil.IsKeyJustPressed(ebiten.Key2) {
		v.sidebarTab = tabLegend
	}
	if n := len(v.maps); n > 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyRight) || inpututil.IsKeyJustPressed(ebiten.KeyD) {
			v.mapIndex = (v.mapIndex + 1) % n
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyLeft) || inpututil.IsKeyJustPressed(ebiten.KeyA) {
			v.mapIndex = (v.mapIndex + n - 1) % n
		}
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{15, 15, 22, 255})

	if len(v.maps) == 0 {
		ebitenutil.DebugPrintAt(screen, v.lastErr, padding, padding)
		return
	}
	m := v.maps[v.mapIndex]
	if m.Err != nil {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("map %s failed: %v", m.Key, m.Err), padding, padding)
		return
	}

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	mapAreaW := screenW - sidebarWidth - padding*3
	mapAreaH := screenH - padding*2
	sidebarX := padding*2 + mapAreaW

	graphics.DrawPanel(screen, padding, padding, mapAreaW, mapAreaH, color.RGBA{20, 20, 35, 255}, color.RGBA{70, 70, 90, 255})
	originX, originY, scale := v.fit(m, padding, padding+40, mapAreaW, mapAreaH-40)
	v.sprites.DrawCells(screen, m.Cells, m.Grid.Cols(), originX, originY, scale)

	graphics.DrawText(screen, fmt.Sprintf("%s (%d/%d)", m.Key, v.mapIndex+1, len(v.maps)), padding+12, padding+8, color.White)
	graphics.DrawText(screen, "Left/Right (or A/D) to switch maps, Esc to quit", padding+12, padding+24, color.Gray{Y: 180})

	graphics.DrawPanel(screen, sidebarX, padding, sidebarWidth, mapAreaH, color.RGBA{18, 18, 26, 255}, color.RGBA{70, 70, 90, 255})
	lines := v.legendLines
	if v.sidebarTab == tabInfo {
		lines = v.infoLines(m, originX, originY, scale)
	}
	for i, line := range lines {
		graphics.DrawText(screen, line, sidebarX+12, padding+12+i*graphics.LineHeight, color.White)
	}
}

func (v *viewer) Layout(_, _ int) (int, int) {
	return windowWidth, windowHeight
}

// fit scales the map to the largest whole zoom that fits the panel.
func (v *viewer) fit(m mapInfo, x, y, w, h int) (float64, float64, float64) {
	tw, th := v.sprites.TileSize()
	pixW, pixH := m.Grid.Cols()*tw, m.Grid.Rows()*th
	scale := max(1, min(w/max(1, pixW), h/max(1, pixH)))
	originX := x + (w-pixW*scale)/2
	originY := y + (h-pixH*scale)/2
	return float64(originX), float64(originY), float64(scale)
}

func (v *viewer) infoLines(m mapInfo, originX, originY, scale float64) []string {
	p := v.bundle.Palette
	lines := []string{
		"Info (1)  Legend (2)",
		"",
		fmt.Sprintf("Cells: %dx%d  edge %s", m.Grid.Rows(), m.Grid.Cols(), m.Grid.EdgePolicy()),
	}
	for _, c := range p.Categories() {
		lines = append(lines, fmt.Sprintf("  %-14s %5d", p.Name(c), m.Grid.Count(c)))
	}

	tw, th := v.sprites.TileSize()
	x, y := ebiten.CursorPosition()
	if row, col, ok := graphics.ScreenToCell(x, y, originX, originY, scale, tw, th, m.Grid.Rows(), m.Grid.Cols()); ok {
		c := m.Cells[row*m.Grid.Cols()+col]
		lines = append(lines, "",
			fmt.Sprintf("(%d,%d) %s", row, col, p.Name(c.Category)),
			fmt.Sprintf("mask %s", c.Mask),
			c.Label,
			c.Tile.String())
	}
	return lines
}

// loadMaps loads and resolves every .map file in dir, sorted by name.
func loadMaps(b *tileset.Bundle, r *resolver.Resolver, pool *core.WorkerPool, dir string) []mapInfo {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("Warning: %v", err)
		return nil
	}
	loader := world.NewMapLoader(b.Legend, logger.Named("maps"))

	var maps []mapInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".map") {
			continue
		}
		info := mapInfo{Key: e.Name()}
		info.Grid, info.Err = loader.LoadMap(filepath.Join(dir, e.Name()))
		if info.Err == nil {
			info.Cells, info.Err = r.ResolveParallel(context.Background(), info.Grid, pool)
		}
		maps = append(maps, info)
	}
	sort.Slice(maps, func(i, j int) bool { return maps[i].Key < maps[j].Key })
	return maps
}

// buildLegendLines lists every category with its map character and tiles.
func buildLegendLines(b *tileset.Bundle) []string {
	lines := []string{"Info (1)  Legend (2)", ""}
	for _, c := range b.Palette.Categories() {
		ch, ok := b.Legend.Char(c)
		if !ok {
			ch = ' '
		}
		rules := b.Table.Rules(c)
		lines = append(lines, fmt.Sprintf("%c %s: %d rules, %d alternates", ch, b.Palette.Name(c), len(rules), len(b.Table.Alternates(c))))
	}
	return lines
}

func ensureRuntimeCWD() {
	if _, err := os.Stat("config.yaml"); err == nil {
		return
	}
	exe, err := os.Executable()
	if err != nil {
		return
	}
	execDir := filepath.Dir(exe)
	_ = os.Chdir(execDir)
}
