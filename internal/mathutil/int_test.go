package mathutil

import "testing"

func TestWrap(t *testing.T) {
	tests := []struct {
		v, n, want int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{5, 5, 0},
		{-1, 5, 4},
		{-6, 5, 4},
		{12, 5, 2},
	}
	for _, tt := range tests {
		if got := Wrap(tt.v, tt.n); got != tt.want {
			t.Errorf("Wrap(%d, %d) = %d, want %d", tt.v, tt.n, got, tt.want)
		}
	}
}

func TestSplitRange(t *testing.T) {
	spans := SplitRange(10, 3)
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	next := 0
	for _, s := range spans {
		if s[0] != next || s[1] <= s[0] {
			t.Fatalf("spans not contiguous: %v", spans)
		}
		next = s[1]
	}
	if next != 10 {
		t.Errorf("spans end at %d, expected 10", next)
	}

	if got := SplitRange(2, 8); len(got) != 2 {
		t.Errorf("expected parts clamped to n, got %v", got)
	}
	if got := SplitRange(0, 4); got != nil {
		t.Errorf("expected nil for empty range, got %v", got)
	}
}
