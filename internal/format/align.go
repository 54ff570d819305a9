package format

// Alignment utilities for placing allocation headers in front of aligned payloads.
// Alignments are powers of two in [1, MaxAlignment]; validating that is the
// caller's job.

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// ValidAlignment reports whether alignment is a power of two in [1, MaxAlignment].
func ValidAlignment(alignment uint8) bool {
	return alignment != 0 && int(alignment) <= MaxAlignment && IsPowerOfTwo(int(alignment))
}

// AlignAdjustment returns the number of bytes to add to addr to reach the next
// multiple of alignment. It is 0 when addr is already aligned.
//
// Example:
//
//	AlignAdjustment(0x1000, 16) = 0
//	AlignAdjustment(0x1001, 16) = 15
//	AlignAdjustment(0x100F, 8)  = 1
func AlignAdjustment(addr uintptr, alignment uint8) uint8 {
	mask := uintptr(alignment) - 1
	adj := uintptr(alignment) - (addr & mask)
	if adj == uintptr(alignment) {
		return 0
	}
	return uint8(adj)
}

// AlignWithHeader returns the adjustment that aligns addr while leaving at least
// headerSize bytes between addr and the aligned address, so a header can be
// written directly in front of it. When the plain adjustment is too small it is
// bumped by whole multiples of alignment.
//
// Example (headerSize 16):
//
//	AlignWithHeader(0x1000, 8)   = 16
//	AlignWithHeader(0x1000, 64)  = 64
//	AlignWithHeader(0x1039, 64)  = 71
func AlignWithHeader(addr uintptr, alignment uint8, headerSize int) uint8 {
	adj := int(AlignAdjustment(addr, alignment))
	if adj < headerSize {
		need := headerSize - adj
		a := int(alignment)
		adj += a * ((need + a - 1) / a)
	}
	return uint8(adj)
}
