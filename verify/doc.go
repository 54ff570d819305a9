// Package verify checks the structural invariants of a free-list arena.
//
// # Overview
//
// The checks only use the public traversal an external tool would use
// (FreeBlocks, Size, UsedMemory, NumAllocations), so they run against any
// FreeList without reaching into its internals. They are used by the tests and
// by arenactl after every replayed workload.
//
// Validation categories:
//   - Sorted: free chain strictly address-ascending, every block inside the arena
//   - NoAdjacency: no two chain neighbours are contiguous
//   - Accounting: used memory plus free bytes covers the arena exactly
//   - IdleShape: an idle arena is a single block spanning it
//
// # Quick Start
//
//	fl := alloc.NewFreeList(make([]byte, 1<<16), nil)
//	// ... allocate and free ...
//	if err := verify.AllInvariants(fl); err != nil {
//	    fmt.Printf("arena corrupt: %v\n", err)
//	}
//
// # ValidationError
//
// Every check returns *ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string         // Check that failed (e.g., "Sorted")
//	    Message string         // Human-readable description
//	    Offset  int            // Arena offset of the offending block (-1 if N/A)
//	    Details map[string]any // Additional context
//	}
//
// Example:
//
//	var verr *verify.ValidationError
//	if errors.As(err, &verr) {
//	    fmt.Printf("%s at 0x%X: %s\n", verr.Type, verr.Offset, verr.Message)
//	}
//
// # Related Packages
//
//   - github.com/joshuapare/arenakit/alloc: The allocator being checked
//   - github.com/joshuapare/arenakit/memmap: Renders the same chain as a map
package verify
