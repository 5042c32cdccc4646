package mathutil

// IntMin returns the smaller of two ints (search: int-math).
func IntMin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// IntMax returns the larger of two ints (search: int-math).
func IntMax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Wrap maps v into [0, n) with a non-negative remainder, for tiling coordinates (search: int-math).
// n must be positive.
func Wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// SplitRange cuts [0, n) into at most parts contiguous [start, end) spans of near-equal size.
func SplitRange(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	parts = IntMax(1, IntMin(parts, n))

	spans := make([][2]int, 0, parts)
	base, extra := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		size := base
		if i < extra {
			size++
		}
		spans = append(spans, [2]int{start, start + size})
		start += size
	}
	return spans
}
