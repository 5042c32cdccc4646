package graphics

import "testing"

func TestPlaceholderColorIsStablePerCategory(t *testing.T) {
	a := PlaceholderColor("grass")
	if b := PlaceholderColor("grass_water_north"); a != b {
		t.Errorf("labels of one category should share a colour: %v vs %v", a, b)
	}
	if a.A != 255 {
		t.Errorf("placeholder should be opaque, alpha %d", a.A)
	}
	if PlaceholderColor("beach") == a {
		t.Error("different categories should differ")
	}
}

func TestScreenToCell(t *testing.T) {
	tests := []struct {
		name     string
		px, py   int
		row, col int
		ok       bool
	}{
		{"origin", 10, 20, 0, 0, true},
		{"inside", 10 + 33, 20 + 17, 1, 2, true},
		{"left of grid", 9, 30, 0, 0, false},
		{"past last column", 10 + 16*4, 20, 0, 0, false},
		{"last cell", 10 + 16*4 - 1, 20 + 16*3 - 1, 2, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, col, ok := ScreenToCell(tt.px, tt.py, 10, 20, 2, 8, 8, 3, 4)
			if ok != tt.ok || (ok && (row != tt.row || col != tt.col)) {
				t.Errorf("got (%d,%d,%v), want (%d,%d,%v)", row, col, ok, tt.row, tt.col, tt.ok)
			}
		})
	}
}
