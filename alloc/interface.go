package alloc

import (
	"fmt"
	"strings"
)

// Allocator defines the contract shared by the arena allocators.
//
// Implementations:
//   - FreeList: free chain with selectable fit strategy
//   - Linear: bump pointer
//   - NewLocked: mutex wrapper around either
type Allocator interface {
	// Allocate reserves size bytes whose first byte is aligned to alignment.
	// The returned slice has len == cap == size.
	// Returns ErrNoSpace when the arena cannot satisfy the request.
	Allocate(size int, alignment uint8) ([]byte, error)

	// Reallocate resizes b in place and returns the resized slice together with
	// the usable size the allocation had before the call. Data is never moved;
	// when the allocation cannot change size where it is, Reallocate returns an
	// error and b stays valid.
	Reallocate(b []byte, size int, alignment uint8) ([]byte, int, error)

	// Deallocate returns b to the arena. A nil slice is ignored.
	Deallocate(b []byte)

	// UsedMemory returns the bytes currently reserved, headers and padding included.
	UsedMemory() int

	// NumAllocations returns the number of live allocations.
	NumAllocations() int

	// Size returns the arena size in bytes.
	Size() int
}

// FitStrategy selects which free block satisfies an allocation when several could.
type FitStrategy uint8

const (
	// FirstFit takes the lowest-addressed block that fits.
	FirstFit FitStrategy = iota
	// BestFit takes the smallest block that fits; ties go to the lowest address.
	BestFit
	// WorstFit takes the largest block that fits; ties go to the lowest address.
	WorstFit
)

func (s FitStrategy) String() string {
	switch s {
	case FirstFit:
		return "first"
	case BestFit:
		return "best"
	case WorstFit:
		return "worst"
	default:
		return fmt.Sprintf("FitStrategy(%d)", uint8(s))
	}
}

// ParseFitStrategy parses "first", "best" or "worst" (an optional "-fit" or
// "fit" suffix is accepted, case-insensitive).
func ParseFitStrategy(s string) (FitStrategy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(strings.TrimSuffix(name, "fit"), "-")
	switch name {
	case "first":
		return FirstFit, nil
	case "best":
		return BestFit, nil
	case "worst":
		return WorstFit, nil
	default:
		return FirstFit, fmt.Errorf("alloc: unknown fit strategy %q", s)
	}
}
