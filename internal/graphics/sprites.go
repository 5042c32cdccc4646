package graphics

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	_ "image/png"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"autotile/internal/atlas"
	"autotile/internal/resolver"
)

// TileSprites cuts tiles out of an atlas image on demand. Without an image,
// or for rectangles outside it, tiles are drawn as flat placeholders.
type TileSprites struct {
	sheet        *ebiten.Image
	tileW, tileH int
	tiles        map[atlas.TileID]*ebiten.Image
	placeholders map[string]*ebiten.Image
}

// LoadTileSprites decodes the atlas image at path.
func LoadTileSprites(path string, g atlas.Geometry) (*TileSprites, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open atlas image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode atlas image %s: %w", path, err)
	}
	return NewTileSprites(ebiten.NewImageFromImage(img), g), nil
}

// NewTileSprites wraps an already loaded sheet, which may be nil.
func NewTileSprites(sheet *ebiten.Image, g atlas.Geometry) *TileSprites {
	return &TileSprites{
		sheet:        sheet,
		tileW:        g.TileWidth,
		tileH:        g.TileHeight,
		tiles:        make(map[atlas.TileID]*ebiten.Image),
		placeholders: make(map[string]*ebiten.Image),
	}
}

// TileSize returns the unscaled size of one tile in pixels.
func (ts *TileSprites) TileSize() (int, int) { return ts.tileW, ts.tileH }

// Tile returns the sprite for c. label picks the placeholder colour.
func (ts *TileSprites) Tile(c atlas.Coordinate, label string) *ebiten.Image {
	if sprite, ok := ts.tiles[c.Tile]; ok {
		return sprite
	}
	if ts.sheet == nil || !c.Rect.In(ts.sheet.Bounds()) {
		return ts.placeholder(label)
	}
	sprite := ts.sheet.SubImage(c.Rect).(*ebiten.Image)
	ts.tiles[c.Tile] = sprite
	return sprite
}

func (ts *TileSprites) placeholder(label string) *ebiten.Image {
	key := categoryKey(label)
	if img, ok := ts.placeholders[key]; ok {
		return img
	}
	img := ebiten.NewImage(max(1, ts.tileW), max(1, ts.tileH))
	img.Fill(PlaceholderColor(label))
	ts.placeholders[key] = img
	return img
}

// DrawCells draws a row-major pass over a grid with cols columns, its top
// left corner at (x, y) and every tile scaled by scale.
func (ts *TileSprites) DrawCells(screen *ebiten.Image, cells []resolver.Cell, cols int, x, y, scale float64) {
	op := &ebiten.DrawImageOptions{}
	for i, c := range cells {
		row, col := i/cols, i%cols
		op.GeoM.Reset()
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(x+float64(col*ts.tileW)*scale, y+float64(row*ts.tileH)*scale)
		screen.DrawImage(ts.Tile(c.Tile, c.Label), op)
	}
}

// ScreenToCell maps a screen position to the grid cell under it for a grid
// drawn by DrawCells at (x, y).
func ScreenToCell(px, py int, x, y, scale float64, tileW, tileH, rows, cols int) (row, col int, ok bool) {
	if scale <= 0 || tileW <= 0 || tileH <= 0 {
		return 0, 0, false
	}
	fx := (float64(px) - x) / (float64(tileW) * scale)
	fy := (float64(py) - y) / (float64(tileH) * scale)
	if fx < 0 || fy < 0 {
		return 0, 0, false
	}
	row, col = int(fy), int(fx)
	if row >= rows || col >= cols {
		return 0, 0, false
	}
	return row, col, true
}

// PlaceholderColor gives every category a stable colour. Labels of the
// same category share it.
func PlaceholderColor(label string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(categoryKey(label)))
	sum := h.Sum32()
	return color.RGBA{
		R: 64 + uint8(sum>>16)%160,
		G: 64 + uint8(sum>>8)%160,
		B: 64 + uint8(sum)%160,
		A: 255,
	}
}

// categoryKey trims a label to its first token, which is enough to tell the
// bundled categories apart.
func categoryKey(label string) string {
	if i := strings.IndexByte(label, '_'); i > 0 {
		return label[:i]
	}
	return label
}
