// Package format holds the byte-level layout shared by the allocator and the
// tools that inspect an arena: alignment arithmetic, the allocation header and
// free block record sizes, and little-endian codecs for reading and writing
// them in place.
package format

const (
	// MaxAlignment is the largest alignment an allocation may request.
	MaxAlignment = 128

	// AllocationHeaderSize is the size of the record written immediately before
	// every live allocation.
	// Layout (little-endian):
	//   0x00  size        uint64  total bytes reserved (padding + header + payload)
	//   0x08  adjustment  uint8   padding between block start and the user pointer
	//   0x09  reserved    [7]byte
	AllocationHeaderSize = 16

	// AllocationHeaderSizeOffset is the offset of the size field inside a header.
	AllocationHeaderSizeOffset = 0x00

	// AllocationHeaderAdjustmentOffset is the offset of the adjustment byte.
	AllocationHeaderAdjustmentOffset = 0x08

	// FreeBlockSize is the size of the record at the start of every free block.
	// Layout (little-endian):
	//   0x00  size  uint64  bytes covered by this free block, record included
	//   0x08  next  int64   offset of the next free block, NoBlock at the tail
	FreeBlockSize = 16

	// FreeBlockSizeOffset is the offset of the size field inside a free block.
	FreeBlockSizeOffset = 0x00

	// FreeBlockNextOffset is the offset of the next link inside a free block.
	FreeBlockNextOffset = 0x08

	// NoBlock terminates the free chain.
	NoBlock = -1
)
