package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block can satisfy the request. For
	// Reallocate it means the block following the allocation cannot absorb the growth.
	ErrNoSpace = errors.New("alloc: no free block large enough")

	// ErrMisaligned indicates an in-place reallocation was asked for an alignment
	// the existing allocation does not satisfy.
	ErrMisaligned = errors.New("alloc: allocation does not satisfy requested alignment")
)
