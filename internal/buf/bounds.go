// Package buf contains overflow-safe arithmetic and bounds checks for
// computing spans inside an arena.
package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Within reports whether the span [off, off+n) lies inside [0, size).
func Within(size, off, n int) bool {
	if off < 0 || n < 0 || off > size {
		return false
	}
	end, ok := AddOverflowSafe(off, n)
	return ok && end <= size
}

// Slice returns the sub-slice b[off:off+n:off+n] if it fits within len(b).
// The capacity is clipped so appends cannot spill into neighbouring bytes.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if !Within(len(b), off, n) {
		return nil, false
	}
	return b[off : off+n : off+n], true
}
