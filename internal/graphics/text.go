package graphics

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	ebitext "github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// LineHeight is the advance between HUD text lines.
const LineHeight = 16

// DrawText draws s with its top-left corner at (x, y).
func DrawText(screen *ebiten.Image, s string, x, y int, clr color.Color) {
	face := basicfont.Face7x13
	ebitext.Draw(screen, s, face, x, y+face.Ascent, clr)
}

// MeasureText returns the pixel width of s in the HUD font.
func MeasureText(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Round()
}

// DrawPanel draws a filled box with a border, as used behind HUD text.
func DrawPanel(screen *ebiten.Image, x, y, w, h int, fill, border color.RGBA) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), fill, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, border, false)
}

// DrawLines draws lines of text top to bottom inside a panel sized to fit.
func DrawLines(screen *ebiten.Image, lines []string, x, y int) {
	width := 0
	for _, l := range lines {
		width = max(width, MeasureText(l))
	}
	DrawPanel(screen, x, y, width+16, len(lines)*LineHeight+8,
		color.RGBA{18, 18, 26, 220}, color.RGBA{70, 70, 90, 255})
	for i, l := range lines {
		DrawText(screen, l, x+8, y+4+i*LineHeight, color.White)
	}
}
