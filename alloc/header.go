package alloc

import "github.com/joshuapare/arenakit/internal/format"

// AllocationHeader is the record stored immediately before every live allocation.
type AllocationHeader struct {
	Size       int   // Total bytes reserved, padding and header included
	Adjustment uint8 // Bytes between the block start and the user pointer
}

// BlockStart returns the arena offset where the reservation begins, given the
// offset of the user pointer.
func (h AllocationHeader) BlockStart(ptr int) int {
	return ptr - int(h.Adjustment)
}

// BlockEnd returns the arena offset one past the reservation.
func (h AllocationHeader) BlockEnd(ptr int) int {
	return h.BlockStart(ptr) + h.Size
}

// readHeader decodes the header that precedes the user pointer at ptr.
func readHeader(data []byte, ptr int) AllocationHeader {
	off := ptr - format.AllocationHeaderSize
	return AllocationHeader{
		Size:       int(format.ReadU64(data, off+format.AllocationHeaderSizeOffset)),
		Adjustment: format.ReadU8(data, off+format.AllocationHeaderAdjustmentOffset),
	}
}

// writeHeader encodes h in front of the user pointer at ptr.
func writeHeader(data []byte, ptr int, h AllocationHeader) {
	off := ptr - format.AllocationHeaderSize
	format.PutU64(data, off+format.AllocationHeaderSizeOffset, uint64(h.Size))
	format.PutU8(data, off+format.AllocationHeaderAdjustmentOffset, h.Adjustment)
}

// writeHeaderSize rewrites only the size field, as in-place reallocation does.
func writeHeaderSize(data []byte, ptr, size int) {
	format.PutU64(data, ptr-format.AllocationHeaderSize+format.AllocationHeaderSizeOffset, uint64(size))
}
