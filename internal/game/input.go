package game

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	minBrushSize = 1
	maxBrushSize = 16
)

var brushKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

func (e *Editor) handleKeys() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	for i, k := range brushKeys {
		if inpututil.IsKeyJustPressed(k) {
			e.selectBrush(i)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		e.selectBrush((e.brush + 1) % e.bundle.Palette.Len())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		e.resizeBrush(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		e.resizeBrush(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		e.showHUD = !e.showHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		e.regenerate(context.Background(), e.params.Seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		e.regenerate(context.Background(), e.params.Seed+1)
	}
	return nil
}

// selectBrush picks the i-th palette category; out of range picks are ignored.
func (e *Editor) selectBrush(i int) {
	if i < 0 || i >= e.bundle.Palette.Len() {
		return
	}
	e.brush = i
	e.status = fmt.Sprintf("brush %s", e.bundle.Palette.Name(e.Brush()))
}

func (e *Editor) resizeBrush(delta float64) {
	e.brushSize = min(maxBrushSize, max(minBrushSize, e.brushSize+delta))
}
