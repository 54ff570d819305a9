package alloc

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"unsafe"

	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
	"github.com/joshuapare/arenakit/internal/logger"
)

// FreeList is a general-purpose allocator over an address-ordered chain of
// free blocks kept inside the arena itself.
//
// The zero value is usable after Init.
type FreeList struct {
	data []byte  // The arena; never resized
	base uintptr // Address of data[0], used for alignment
	head int     // Offset of the lowest free block, format.NoBlock if none

	strategy             FitStrategy
	defragOnDeallocation bool
	log                  *slog.Logger

	usedMemory     int
	numAllocations int

	stats Stats
}

var _ Allocator = (*FreeList)(nil)

// NewFreeList creates an allocator managing mem, which must be longer than a
// free block record. The allocator borrows mem for its whole lifetime; the
// caller keeps ownership and must not touch it except through allocations.
//
// Parameters:
//   - mem: The arena
//   - cfg: Strategy, defrag and logging options (use nil for DefaultConfig)
func NewFreeList(mem []byte, cfg *Config) *FreeList {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	fl := &FreeList{
		head:                 format.NoBlock,
		strategy:             cfg.Strategy,
		defragOnDeallocation: cfg.DefragOnDeallocation,
		log:                  cfg.Logger,
	}
	fl.Init(mem)
	return fl
}

// Init attaches mem as the arena, leaving a single free block that spans it.
// The allocator must be empty.
func (fl *FreeList) Init(mem []byte) {
	if len(mem) <= format.FreeBlockSize {
		panic(fmt.Sprintf("alloc: arena of %d bytes cannot hold a %d-byte free block", len(mem), format.FreeBlockSize))
	}
	fl.mustBeIdle("init")

	fl.data = mem
	fl.base = uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	fl.resetChain()
	fl.logger().Debug("init", "size", len(mem), "base", fmt.Sprintf("%#x", fl.base))
}

// Destroy detaches the arena. Every allocation must have been released; the
// arena memory itself stays with its owner.
func (fl *FreeList) Destroy() {
	fl.mustBeIdle("destroy")
	fl.data = nil
	fl.base = 0
	fl.head = format.NoBlock
}

// Allocate reserves size bytes aligned to alignment. It panics if size is not
// positive or alignment is not a power of two in [1, 128].
func (fl *FreeList) Allocate(size int, alignment uint8) ([]byte, error) {
	fl.mustBeInitialized()
	if size <= 0 {
		panic(fmt.Sprintf("alloc: allocation size must be positive, got %d", size))
	}
	mustValidAlignment(alignment)
	fl.stats.AllocCalls++

	f, ok := fl.findFit(size, alignment)
	if !ok {
		fl.stats.AllocFailures++
		if fl.debugEnabled() {
			fl.logger().Debug("alloc failed",
				"size", size,
				"align", alignment,
				"strategy", fl.strategy.String(),
				"used", fl.usedMemory,
				"largest_free", fl.largestFree(),
			)
		}
		return nil, ErrNoSpace
	}

	total := fl.carve(f)
	ptr := f.off + f.adjust
	writeHeader(fl.data, ptr, AllocationHeader{Size: total, Adjustment: uint8(f.adjust)})

	fl.numAllocations++
	fl.usedMemory += total
	fl.stats.PeakUsed = max(fl.stats.PeakUsed, fl.usedMemory)

	if (fl.base+uintptr(ptr))%uintptr(alignment) != 0 {
		panic(fmt.Sprintf("alloc: offset %d is not %d-byte aligned", ptr, alignment))
	}

	if fl.debugEnabled() {
		fl.logger().Debug("alloc",
			"size", size,
			"align", alignment,
			"offset", ptr,
			"reserved", total,
			"block", f.off,
			"strategy", fl.strategy.String(),
		)
	}
	return fl.data[ptr : ptr+size : ptr+size], nil
}

// Reallocate resizes b without moving it, by negotiating with the free block
// that starts exactly where b's reservation ends.
//
//   - Shrinking hands the tail back to the chain, merged into that free block
//     if there is one. The tail must be larger than a free block record.
//   - Growing takes the difference from that free block, leaving more than a
//     free block record of it, or consumes it exactly.
//
// Every other request fails with ErrNoSpace, including a resize to the current
// usable size and a shrink whose tail could not hold a free block. Callers
// wanting relocation must allocate, copy and deallocate themselves. ErrMisaligned is returned when b's
// address does not satisfy alignment. On error b remains valid and unchanged.
func (fl *FreeList) Reallocate(b []byte, size int, alignment uint8) ([]byte, int, error) {
	fl.mustBeInitialized()
	if cap(b) == 0 {
		panic("alloc: reallocate of an empty slice")
	}
	if size <= 0 {
		panic(fmt.Sprintf("alloc: allocation size must be positive, got %d", size))
	}
	mustValidAlignment(alignment)
	fl.stats.ReallocCalls++

	ptr := fl.offsetOf(b)
	h := readHeader(fl.data, ptr)
	end := h.BlockEnd(ptr)
	oldUsable := end - ptr

	if (fl.base+uintptr(ptr))%uintptr(alignment) != 0 {
		fl.stats.ReallocFailures++
		return nil, 0, ErrMisaligned
	}

	prev, next := fl.locate(end)
	adjacent := next == end
	delta := size - oldUsable

	switch {
	case delta < 0 && -delta > format.FreeBlockSize:
		tail := ptr + size
		if adjacent {
			fl.writeBlock(tail, fl.blockSize(next)-delta, fl.blockNext(next))
		} else {
			fl.writeBlock(tail, -delta, next)
		}
		fl.link(prev, tail)
	case delta > 0 && adjacent && fl.blockSize(next) > delta+format.FreeBlockSize:
		moved := end + delta
		fl.writeBlock(moved, fl.blockSize(next)-delta, fl.blockNext(next))
		fl.link(prev, moved)
	case delta > 0 && adjacent && fl.blockSize(next) == delta:
		fl.link(prev, fl.blockNext(next))
	default:
		fl.stats.ReallocFailures++
		if fl.debugEnabled() {
			fl.logger().Debug("realloc failed",
				"offset", ptr,
				"usable", oldUsable,
				"size", size,
				"adjacent_free", adjacent,
			)
		}
		return nil, 0, ErrNoSpace
	}

	if fl.usedMemory+delta < 0 {
		panic(fmt.Sprintf("alloc: used memory underflow (%d%+d)", fl.usedMemory, delta))
	}
	writeHeaderSize(fl.data, ptr, h.Size+delta)
	fl.usedMemory += delta
	fl.stats.PeakUsed = max(fl.stats.PeakUsed, fl.usedMemory)

	if fl.debugEnabled() {
		fl.logger().Debug("realloc", "offset", ptr, "old_usable", oldUsable, "size", size, "delta", delta)
	}
	return fl.data[ptr : ptr+size : ptr+size], oldUsable, nil
}

// Deallocate returns b to the chain. Nil is a no-op. Once the last allocation
// is released the chain is reset to a single block spanning the arena.
func (fl *FreeList) Deallocate(b []byte) {
	if cap(b) == 0 {
		return
	}
	fl.mustBeInitialized()
	fl.stats.FreeCalls++

	ptr := fl.offsetOf(b)
	h := readHeader(fl.data, ptr)
	start := h.BlockStart(ptr)

	if fl.numAllocations == 0 {
		panic("alloc: deallocate with no live allocations")
	}
	if fl.usedMemory < h.Size {
		panic(fmt.Sprintf("alloc: used memory underflow (%d-%d)", fl.usedMemory, h.Size))
	}

	fl.insert(start, h.Size)
	fl.numAllocations--
	fl.usedMemory -= h.Size

	if fl.debugEnabled() {
		fl.logger().Debug("free", "offset", ptr, "block", start, "reserved", h.Size, "live", fl.numAllocations)
	}

	if fl.usedMemory == 0 && fl.numAllocations == 0 {
		fl.resetChain()
		fl.stats.Resets++
		return
	}
	if fl.defragOnDeallocation {
		fl.defragment()
	}
}

// Defragment coalesces every run of contiguous free blocks and returns the
// number of merges. Deallocate already merges with both neighbours, so this
// only finds work on chains built or modified by other means.
func (fl *FreeList) Defragment() int {
	fl.mustBeInitialized()
	merges := fl.defragment()
	if merges > 0 && fl.debugEnabled() {
		fl.logger().Debug("defrag", "merges", merges)
	}
	return merges
}

// SetFitStrategy changes the strategy used by subsequent allocations.
func (fl *FreeList) SetFitStrategy(s FitStrategy) { fl.strategy = s }

// FitStrategy returns the active strategy.
func (fl *FreeList) FitStrategy() FitStrategy { return fl.strategy }

// SetDefragOnDeallocation toggles the defragmentation pass after Deallocate.
func (fl *FreeList) SetDefragOnDeallocation(on bool) { fl.defragOnDeallocation = on }

// DefragOnDeallocation reports whether Deallocate runs a defragmentation pass.
func (fl *FreeList) DefragOnDeallocation() bool { return fl.defragOnDeallocation }

// UsedMemory returns the bytes reserved by live allocations, headers and padding included.
func (fl *FreeList) UsedMemory() int { return fl.usedMemory }

// NumAllocations returns the number of live allocations.
func (fl *FreeList) NumAllocations() int { return fl.numAllocations }

// Size returns the arena size in bytes.
func (fl *FreeList) Size() int { return len(fl.data) }

// Base returns the address of the first arena byte.
func (fl *FreeList) Base() uintptr { return fl.base }

// Bytes returns the arena for read-only inspection by tools.
func (fl *FreeList) Bytes() []byte { return fl.data }

// GetStats returns the allocator counters.
func (fl *FreeList) GetStats() Stats { return fl.stats }

// Block is a read-only view of one free block.
type Block struct {
	Offset int // Arena offset of the block
	Size   int // Bytes covered, record included
	next   int
}

// End returns the offset one past the block.
func (b Block) End() int { return b.Offset + b.Size }

func (fl *FreeList) blockAt(off int) Block {
	return Block{Offset: off, Size: fl.blockSize(off), next: fl.blockNext(off)}
}

// FirstFreeBlock returns the lowest-addressed free block.
func (fl *FreeList) FirstFreeBlock() (Block, bool) {
	if fl.data == nil || fl.head == format.NoBlock {
		return Block{}, false
	}
	return fl.blockAt(fl.head), true
}

// NextFreeBlock follows b's link to the next free block in the chain.
func (fl *FreeList) NextFreeBlock(b Block) (Block, bool) {
	if b.next == format.NoBlock {
		return Block{}, false
	}
	return fl.blockAt(b.next), true
}

// FreeBlocks yields the free chain in address order.
func (fl *FreeList) FreeBlocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for b, ok := fl.FirstFreeBlock(); ok; b, ok = fl.NextFreeBlock(b) {
			if !yield(b) {
				return
			}
		}
	}
}

// Offset returns the arena offset of b's first byte.
func (fl *FreeList) Offset(b []byte) int {
	return fl.offsetOf(b)
}

// Header decodes the allocation header in front of b.
func (fl *FreeList) Header(b []byte) AllocationHeader {
	return readHeader(fl.data, fl.offsetOf(b))
}

// offsetOf converts a slice handed out by this allocator back to an arena
// offset. It only checks that the slice lies inside the arena with room for a
// header in front.
func (fl *FreeList) offsetOf(b []byte) int {
	p := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if p < fl.base+format.AllocationHeaderSize || !buf.Within(len(fl.data), int(p-fl.base), len(b)) {
		panic(fmt.Sprintf("alloc: address %#x is outside the arena [%#x, %#x)", p, fl.base, fl.base+uintptr(len(fl.data))))
	}
	return int(p - fl.base)
}

func (fl *FreeList) largestFree() int {
	largest := 0
	for b := range fl.FreeBlocks() {
		largest = max(largest, b.Size)
	}
	return largest
}

func (fl *FreeList) logger() *slog.Logger {
	if fl.log != nil {
		return fl.log
	}
	return logger.L
}

func (fl *FreeList) debugEnabled() bool {
	return fl.logger().Enabled(context.Background(), slog.LevelDebug)
}

func (fl *FreeList) mustBeInitialized() {
	if fl.data == nil {
		panic("alloc: free list used before Init")
	}
}

func (fl *FreeList) mustBeIdle(op string) {
	if fl.usedMemory != 0 || fl.numAllocations != 0 {
		panic(fmt.Sprintf("alloc: %s with %d live allocations (%d bytes used)", op, fl.numAllocations, fl.usedMemory))
	}
}

func mustValidAlignment(alignment uint8) {
	if !format.ValidAlignment(alignment) {
		panic(fmt.Sprintf("alloc: alignment must be a power of two in [1, %d], got %d", format.MaxAlignment, alignment))
	}
}
