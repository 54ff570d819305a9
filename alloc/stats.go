package alloc

// Stats holds allocator counters for tests and instrumentation.
type Stats struct {
	AllocCalls       int // Total Allocate() calls
	AllocFailures    int // Allocate() calls that returned ErrNoSpace
	ReallocCalls     int // Total Reallocate() calls
	ReallocFailures  int // Reallocate() calls that returned an error
	FreeCalls        int // Deallocate() calls with a non-nil slice
	Splits           int // Free blocks split to satisfy an allocation
	CoalesceForward  int // Freed ranges merged with the following free block
	CoalesceBackward int // Freed ranges merged into the preceding free block
	Resets           int // Times the chain was reset because the arena became idle
	DefragMerges     int // Merges performed by defragmentation passes
	PeakUsed         int // High-water mark of UsedMemory()
}
