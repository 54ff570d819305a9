// Package alloc provides sub-allocators that carve variable-sized, aligned
// allocations out of a single pre-reserved byte arena.
//
// # Overview
//
// The arena is supplied by its owner (see package arena) as a []byte. The
// allocators never ask the operating system or the Go runtime for more memory
// and keep no bookkeeping outside the arena: every record they need lives in
// the arena's own bytes.
//
// # Allocator Interface
//
// The core abstraction is the Allocator interface, which supports:
//
//   - Allocate(size, alignment): reserve size bytes at an aligned address
//   - Reallocate(b, size, alignment): resize an allocation in place, never moving it
//   - Deallocate(b): return an allocation to the arena
//   - UsedMemory / NumAllocations / Size: accounting
//
// # Implementations
//
// FreeList: general-purpose allocator over an address-ordered free chain
//
//   - Intrusive singly linked list of free blocks, sorted by address
//   - First-fit, best-fit and worst-fit block selection, switchable at runtime
//   - 16-byte header in front of every allocation (reserved size + alignment padding)
//   - Coalescing with both neighbours on Deallocate
//   - Optional defragmentation pass after every Deallocate
//   - Resets to a single free block whenever the arena becomes idle
//
// Linear: bump-pointer allocator
//
//   - No headers, no free chain
//   - Deallocate only reclaims memory once every allocation has been released
//
// Locked: mutex wrapper for sharing any Allocator between goroutines
//
// # Usage Example
//
//	a := arena.New(64 << 10)
//	fl := alloc.NewFreeList(a.Bytes(), &alloc.Config{Strategy: alloc.BestFit})
//
//	buf, err := fl.Allocate(256, 16)
//	if errors.Is(err, alloc.ErrNoSpace) {
//	    // fall back to another allocator
//	}
//
//	// Grow in place if the following block is free, otherwise allocate and copy.
//	if grown, _, err := fl.Reallocate(buf, 512, 16); err == nil {
//	    buf = grown
//	}
//
//	fl.Deallocate(buf)
//	fl.Destroy()
//
// # Free Block Layout
//
// A free block starts with a 16-byte record: its size (record included) and
// the arena offset of the next free block, or -1 at the tail. The chain is
// strictly address-ascending and, after every Deallocate, no two consecutive
// blocks touch.
//
// # Allocation Layout
//
//	block start                       user pointer (aligned)
//	|<-------------- adjustment -------------->|
//	| padding ... | size u64 | adj u8 | pad    | payload ...           |
//	|<------------------------------ size ------------------------------>|
//
// The header records the total reserved size and the adjustment, so the block
// bounds are recovered from the user pointer alone.
//
// # Errors
//
// Running out of space is reported with ErrNoSpace. Programmer errors (a
// non-positive size, an alignment that is not a power of two in [1, 128],
// destroying or re-initializing an allocator with live allocations, counter
// underflow) panic. Freeing memory that did not come from the allocator, or
// freeing it twice, is not detected.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally, wrap the instance with NewLocked, or use one instance per goroutine.
//
// # Related Packages
//
//   - github.com/joshuapare/arenakit/arena: Reserves arena memory (heap or mmap)
//   - github.com/joshuapare/arenakit/verify: Checks free chain invariants
//   - github.com/joshuapare/arenakit/memmap: Builds a memory map for inspection
//   - github.com/joshuapare/arenakit/arrowmem: Serves Apache Arrow buffers from an arena
package alloc
