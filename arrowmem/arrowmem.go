// Package arrowmem lets Apache Arrow place its buffers in a FreeList arena.
//
// Arrow builders and arrays allocate through memory.Allocator. Allocator
// implements that interface on top of alloc.FreeList: buffers are carved from
// the arena 64-byte aligned, as Arrow expects, and grow in place when the
// following block is free. memory.Allocator cannot report exhaustion, so
// requests the arena cannot satisfy spill to a fallback allocator (the Go heap
// by default).
//
//	a := arena.New(1 << 20)
//	mem := arrowmem.New(alloc.NewFreeList(a.Bytes(), nil), nil)
//	b := array.NewInt64Builder(mem)
//	defer b.Release()
package arrowmem

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/internal/logger"
)

// Alignment is the buffer alignment Arrow requires for SIMD-friendly access.
const Alignment = 64

// Allocator adapts a FreeList to memory.Allocator. It is safe for concurrent use.
type Allocator struct {
	mu       sync.Mutex
	fl       *alloc.FreeList
	fallback memory.Allocator

	spills int
}

var _ memory.Allocator = (*Allocator)(nil)

// New wraps fl. A nil fallback uses memory.NewGoAllocator.
func New(fl *alloc.FreeList, fallback memory.Allocator) *Allocator {
	if fallback == nil {
		fallback = memory.NewGoAllocator()
	}
	return &Allocator{fl: fl, fallback: fallback}
}

// Allocate returns size bytes, from the arena when it has room.
func (a *Allocator) Allocate(size int) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocate(size)
}

// Reallocate resizes b, in place when the arena allows it and by copying
// otherwise.
func (a *Allocator) Reallocate(size int, b []byte) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cap(b) == 0 {
		return a.allocate(size)
	}
	if !a.owns(b) {
		return a.fallback.Reallocate(size, b)
	}
	if size == 0 {
		a.fl.Deallocate(b)
		return []byte{}
	}

	nb, _, err := a.fl.Reallocate(b, size, Alignment)
	if err == nil {
		return nb
	}
	if !errors.Is(err, alloc.ErrNoSpace) {
		panic("arrowmem: " + err.Error())
	}
	if size <= len(b) {
		// The tail is too small to return to the arena; keep the reservation.
		return b[:size]
	}

	nb = a.allocate(size)
	copy(nb, b)
	a.fl.Deallocate(b)
	return nb
}

// Free releases b to whichever allocator produced it.
func (a *Allocator) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.owns(b) {
		a.fl.Deallocate(b)
		return
	}
	a.fallback.Free(b)
}

// Spills returns how many requests went to the fallback allocator.
func (a *Allocator) Spills() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spills
}

// InUse returns the arena bytes held by live buffers, headers included.
func (a *Allocator) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fl.UsedMemory()
}

func (a *Allocator) allocate(size int) []byte {
	if size <= 0 {
		return []byte{}
	}
	b, err := a.fl.Allocate(size, Alignment)
	if err == nil {
		return b
	}
	a.spills++
	logger.L.Debug("arrow buffer spilled", "size", size, "used", a.fl.UsedMemory(), "arena", a.fl.Size())
	return a.fallback.Allocate(size)
}

// owns reports whether b points into the arena.
func (a *Allocator) owns(b []byte) bool {
	p := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	base := a.fl.Base()
	return p >= base && p < base+uintptr(a.fl.Size())
}
