// Package keytracker turns held inputs into press and release edges.
package keytracker

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Tracker remembers the previous state of one input.
type Tracker struct {
	prevPressed bool
}

// Update records the current state and reports whether the input went down
// or up since the last call.
func (t *Tracker) Update(pressed bool) (justPressed, justReleased bool) {
	justPressed = pressed && !t.prevPressed
	justReleased = !pressed && t.prevPressed
	t.prevPressed = pressed
	return justPressed, justReleased
}

// Held reports the state recorded by the last Update.
func (t *Tracker) Held() bool { return t.prevPressed }

// MouseJustPressed is Update for a mouse button, reporting only the press edge.
func (t *Tracker) MouseJustPressed(b ebiten.MouseButton) bool {
	down, _ := t.Update(ebiten.IsMouseButtonPressed(b))
	return down
}
