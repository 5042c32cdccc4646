package server

import "fmt"

const (
	esc     = "\x1b"
	csi     = esc + "["
	reset   = csi + "0m"
	reverse = csi + "7m"
)

// moveTo positions the cursor at row, col (1-based).
func moveTo(row, col int) string {
	return fmt.Sprintf("%s%d;%dH", csi, row, col)
}

func clearScreen() string      { return csi + "2J" }
func clearLine() string        { return csi + "2K" }
func hideCursor() string       { return csi + "?25l" }
func showCursor() string       { return csi + "?25h" }
func enableAltScreen() string  { return csi + "?1049h" }
func disableAltScreen() string { return csi + "?1049l" }
