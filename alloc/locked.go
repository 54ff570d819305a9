package alloc

import "sync"

type locked struct {
	mu sync.Mutex
	a  Allocator
}

// NewLocked returns an Allocator that serializes every call to a, making it
// safe to share between goroutines.
func NewLocked(a Allocator) Allocator {
	return &locked{a: a}
}

// Allocate satisfies the Allocator interface.
func (l *locked) Allocate(size int, alignment uint8) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Allocate(size, alignment)
}

// Reallocate satisfies the Allocator interface.
func (l *locked) Reallocate(b []byte, size int, alignment uint8) ([]byte, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Reallocate(b, size, alignment)
}

// Deallocate satisfies the Allocator interface.
func (l *locked) Deallocate(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.a.Deallocate(b)
}

// UsedMemory satisfies the Allocator interface.
func (l *locked) UsedMemory() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.UsedMemory()
}

// NumAllocations satisfies the Allocator interface.
func (l *locked) NumAllocations() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.NumAllocations()
}

// Size satisfies the Allocator interface.
func (l *locked) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Size()
}
