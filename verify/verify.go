package verify

import (
	"fmt"
	"iter"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/internal/format"
)

// Chain is the read-only view of an allocator the checks need.
// *alloc.FreeList implements it.
type Chain interface {
	FreeBlocks() iter.Seq[alloc.Block]
	Size() int
	UsedMemory() int
	NumAllocations() int
}

var _ Chain = (*alloc.FreeList)(nil)

// ValidationError describes the first invariant violation a check found.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants runs every check and returns the first error encountered, or
// nil if all checks pass.
func AllInvariants(c Chain) error {
	if err := Sorted(c); err != nil {
		return err
	}
	if err := NoAdjacency(c); err != nil {
		return err
	}
	if err := Accounting(c); err != nil {
		return err
	}
	return IdleShape(c)
}

// Sorted checks that the free chain is strictly address-ascending, that blocks
// do not overlap, and that every block lies inside the arena and is large
// enough to hold its own record.
func Sorted(c Chain) error {
	size := c.Size()
	prevEnd := -1
	prevOff := -1
	for b := range c.FreeBlocks() {
		if b.Offset < 0 || b.Size < format.FreeBlockSize || b.End() > size {
			return &ValidationError{
				Type:    "Sorted",
				Message: fmt.Sprintf("free block [0x%X, 0x%X) outside arena of %d bytes", b.Offset, b.End(), size),
				Offset:  b.Offset,
				Details: map[string]any{"size": b.Size, "arena": size},
			}
		}
		if b.Offset <= prevOff {
			return &ValidationError{
				Type:    "Sorted",
				Message: fmt.Sprintf("free chain not address-ascending: 0x%X follows 0x%X", b.Offset, prevOff),
				Offset:  b.Offset,
				Details: map[string]any{"previous": prevOff},
			}
		}
		if b.Offset < prevEnd {
			return &ValidationError{
				Type:    "Sorted",
				Message: fmt.Sprintf("free block overlaps predecessor ending at 0x%X", prevEnd),
				Offset:  b.Offset,
				Details: map[string]any{"previous": prevOff, "previous_end": prevEnd},
			}
		}
		prevOff, prevEnd = b.Offset, b.End()
	}
	return nil
}

// NoAdjacency checks that no free block ends exactly where its chain
// successor begins. Adjacent blocks mean a coalesce was missed.
func NoAdjacency(c Chain) error {
	prevEnd := -1
	prevOff := -1
	for b := range c.FreeBlocks() {
		if b.Offset == prevEnd {
			return &ValidationError{
				Type:    "NoAdjacency",
				Message: fmt.Sprintf("free block at 0x%X touches free block at 0x%X", b.Offset, prevOff),
				Offset:  b.Offset,
				Details: map[string]any{"previous": prevOff},
			}
		}
		prevOff, prevEnd = b.Offset, b.End()
	}
	return nil
}

// Accounting checks that used memory and free bytes add up to the arena size.
func Accounting(c Chain) error {
	free := 0
	blocks := 0
	for b := range c.FreeBlocks() {
		free += b.Size
		blocks++
	}
	used, size := c.UsedMemory(), c.Size()
	if used+free != size {
		return &ValidationError{
			Type:    "Accounting",
			Message: fmt.Sprintf("used %d + free %d != arena %d", used, free, size),
			Offset:  -1,
			Details: map[string]any{"used": used, "free": free, "size": size, "blocks": blocks},
		}
	}
	return nil
}

// IdleShape checks that an arena with no live allocations is one free block
// covering all of it. Arenas with live allocations always pass.
func IdleShape(c Chain) error {
	if c.NumAllocations() != 0 || c.UsedMemory() != 0 {
		return nil
	}
	n := 0
	var first alloc.Block
	for b := range c.FreeBlocks() {
		if n == 0 {
			first = b
		}
		n++
	}
	if n != 1 || first.Offset != 0 || first.Size != c.Size() {
		return &ValidationError{
			Type:    "IdleShape",
			Message: fmt.Sprintf("idle arena has %d free blocks, first [0x%X, 0x%X)", n, first.Offset, first.End()),
			Offset:  first.Offset,
			Details: map[string]any{"blocks": n, "size": c.Size()},
		}
	}
	return nil
}
