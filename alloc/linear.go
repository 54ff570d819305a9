package alloc

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
	"github.com/joshuapare/arenakit/internal/logger"
)

// Linear is a bump-pointer allocator over an arena.
//
// Key characteristics:
//   - O(1) allocation: pure bump pointer, no headers, no free chain
//   - Deallocate only counts releases; memory comes back when the last live
//     allocation is released, or on Reset
//   - Reallocate can resize only the most recent allocation
//
// This suits per-frame scratch memory that is thrown away wholesale.
type Linear struct {
	data []byte
	base uintptr
	log  *slog.Logger

	// offset is the bump pointer: the arena offset where the next allocation
	// starts looking for an aligned address.
	offset int

	// last is the offset of the most recent allocation, format.NoBlock when
	// nothing can be resized in place.
	last int

	numAllocations int
}

var _ Allocator = (*Linear)(nil)

// NewLinear creates a bump allocator over mem. A nil log uses the package logger.
func NewLinear(mem []byte, log *slog.Logger) *Linear {
	if len(mem) == 0 {
		panic("alloc: linear allocator needs a non-empty arena")
	}
	return &Linear{
		data: mem,
		base: uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
		log:  log,
		last: format.NoBlock,
	}
}

// Allocate bumps the pointer past size bytes at the next aligned address.
func (l *Linear) Allocate(size int, alignment uint8) ([]byte, error) {
	if size <= 0 {
		panic(fmt.Sprintf("alloc: allocation size must be positive, got %d", size))
	}
	mustValidAlignment(alignment)

	start := l.offset + int(format.AlignAdjustment(l.base+uintptr(l.offset), alignment))
	b, ok := buf.Slice(l.data, start, size)
	if !ok {
		return nil, ErrNoSpace
	}

	l.offset = start + size
	l.last = start
	l.numAllocations++
	l.logger().Debug("linear alloc", "offset", start, "size", size, "align", alignment)
	return b, nil
}

// Reallocate resizes b in place if it is the most recent allocation.
func (l *Linear) Reallocate(b []byte, size int, alignment uint8) ([]byte, int, error) {
	if cap(b) == 0 {
		panic("alloc: reallocate of an empty slice")
	}
	if size <= 0 {
		panic(fmt.Sprintf("alloc: allocation size must be positive, got %d", size))
	}
	mustValidAlignment(alignment)

	ptr := l.offsetOf(b)
	if (l.base+uintptr(ptr))%uintptr(alignment) != 0 {
		return nil, 0, ErrMisaligned
	}
	if ptr != l.last {
		return nil, 0, ErrNoSpace
	}
	nb, ok := buf.Slice(l.data, ptr, size)
	if !ok {
		return nil, 0, ErrNoSpace
	}

	old := l.offset - ptr
	l.offset = ptr + size
	return nb, old, nil
}

// Deallocate records the release of b. The arena is rewound once no
// allocation is live.
func (l *Linear) Deallocate(b []byte) {
	if cap(b) == 0 {
		return
	}
	l.offsetOf(b)
	if l.numAllocations == 0 {
		panic("alloc: deallocate with no live allocations")
	}
	l.numAllocations--
	if l.numAllocations == 0 {
		l.Reset()
	}
}

// Reset rewinds the bump pointer, invalidating every outstanding allocation.
func (l *Linear) Reset() {
	l.offset = 0
	l.last = format.NoBlock
	l.numAllocations = 0
}

// UsedMemory returns the bytes between the arena start and the bump pointer.
func (l *Linear) UsedMemory() int { return l.offset }

// NumAllocations returns the number of allocations not yet released.
func (l *Linear) NumAllocations() int { return l.numAllocations }

// Size returns the arena size in bytes.
func (l *Linear) Size() int { return len(l.data) }

func (l *Linear) offsetOf(b []byte) int {
	p := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	if p < l.base || p >= l.base+uintptr(len(l.data)) {
		panic(fmt.Sprintf("alloc: address %#x is outside the arena", p))
	}
	return int(p - l.base)
}

func (l *Linear) logger() *slog.Logger {
	if l.log != nil {
		return l.log
	}
	return logger.L
}
