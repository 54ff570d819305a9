package alloc

import (
	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
)

// The free chain lives inside the arena. Each free block begins with its size
// and the offset of the next free block; fl.head is the lowest-addressed block.
// Offsets are arena-relative, so the chain is addressed by index and every
// access is bounds-checked.

func (fl *FreeList) blockSize(off int) int {
	return int(format.ReadU64(fl.data, off+format.FreeBlockSizeOffset))
}

func (fl *FreeList) blockNext(off int) int {
	return int(format.ReadI64(fl.data, off+format.FreeBlockNextOffset))
}

func (fl *FreeList) setBlockSize(off, size int) {
	format.PutU64(fl.data, off+format.FreeBlockSizeOffset, uint64(size))
}

func (fl *FreeList) setBlockNext(off, next int) {
	format.PutI64(fl.data, off+format.FreeBlockNextOffset, int64(next))
}

func (fl *FreeList) writeBlock(off, size, next int) {
	fl.setBlockSize(off, size)
	fl.setBlockNext(off, next)
}

// link points prev at off. A prev of format.NoBlock means the chain head.
func (fl *FreeList) link(prev, off int) {
	if prev == format.NoBlock {
		fl.head = off
		return
	}
	fl.setBlockNext(prev, off)
}

// resetChain discards the chain and covers the whole arena with one free block.
func (fl *FreeList) resetChain() {
	fl.head = 0
	fl.writeBlock(0, len(fl.data), format.NoBlock)
}

// fit is a candidate chosen by findFit.
type fit struct {
	prev   int // Predecessor in the chain, format.NoBlock for the head
	off    int // Offset of the chosen free block
	size   int // Size of the chosen free block
	adjust int // Padding from off to the aligned user pointer
	total  int // Bytes to reserve: adjust + requested size
}

// findFit scans the chain for a block that can hold size bytes at alignment,
// choosing among candidates according to the active strategy.
func (fl *FreeList) findFit(size int, alignment uint8) (fit, bool) {
	var best fit
	found := false

	prev := format.NoBlock
	for off := fl.head; off != format.NoBlock; prev, off = off, fl.blockNext(off) {
		adjust := int(format.AlignWithHeader(fl.base+uintptr(off), alignment, format.AllocationHeaderSize))
		total, ok := buf.AddOverflowSafe(size, adjust)
		if !ok {
			continue
		}
		bsize := fl.blockSize(off)
		if bsize < total {
			continue
		}

		candidate := fit{prev: prev, off: off, size: bsize, adjust: adjust, total: total}
		switch fl.strategy {
		case BestFit:
			if !found || bsize < best.size {
				best, found = candidate, true
			}
		case WorstFit:
			if !found || bsize > best.size {
				best, found = candidate, true
			}
		default:
			return candidate, true
		}
	}
	return best, found
}

// carve takes f out of the chain. When the leftover could not hold another
// allocation header the whole block is consumed, otherwise the tail becomes a
// new free block in f's place. Returns the bytes actually reserved.
func (fl *FreeList) carve(f fit) int {
	next := fl.blockNext(f.off)
	rest := f.size - f.total
	if rest <= format.AllocationHeaderSize {
		fl.link(f.prev, next)
		return f.size
	}

	tail := f.off + f.total
	fl.writeBlock(tail, rest, next)
	fl.link(f.prev, tail)
	fl.stats.Splits++
	return f.total
}

// locate returns the last free block starting before off and the first free
// block starting at or after it.
func (fl *FreeList) locate(off int) (prev, next int) {
	prev, next = format.NoBlock, fl.head
	for next != format.NoBlock && next < off {
		prev, next = next, fl.blockNext(next)
	}
	return prev, next
}

// insert returns [start, start+size) to the chain, merging it with the free
// blocks that end where it starts and start where it ends.
func (fl *FreeList) insert(start, size int) {
	end := start + size
	prev, next := fl.locate(start)

	mergePrev := prev != format.NoBlock && prev+fl.blockSize(prev) == start
	mergeNext := next != format.NoBlock && next == end

	switch {
	case mergePrev && mergeNext:
		fl.setBlockSize(prev, fl.blockSize(prev)+size+fl.blockSize(next))
		fl.setBlockNext(prev, fl.blockNext(next))
		fl.stats.CoalesceBackward++
		fl.stats.CoalesceForward++
	case mergePrev:
		fl.setBlockSize(prev, fl.blockSize(prev)+size)
		fl.stats.CoalesceBackward++
	case mergeNext:
		fl.writeBlock(start, size+fl.blockSize(next), fl.blockNext(next))
		fl.link(prev, start)
		fl.stats.CoalesceForward++
	default:
		fl.writeBlock(start, size, next)
		fl.link(prev, start)
	}
}

// defragment merges every run of contiguous free blocks in one forward pass.
func (fl *FreeList) defragment() int {
	merges := 0
	for off := fl.head; off != format.NoBlock; off = fl.blockNext(off) {
		for {
			next := fl.blockNext(off)
			if next == format.NoBlock || off+fl.blockSize(off) != next {
				break
			}
			fl.setBlockSize(off, fl.blockSize(off)+fl.blockSize(next))
			fl.setBlockNext(off, fl.blockNext(next))
			merges++
		}
	}
	fl.stats.DefragMerges += merges
	return merges
}
