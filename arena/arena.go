// Package arena owns the contiguous byte ranges that allocators manage.
//
// An Arena reserves its memory once, either on the Go heap or as an anonymous
// private mapping, and hands the allocator a []byte view over it. The
// allocator never grows, shrinks, or frees that memory; only Close does.
//
//	a, err := arena.Map(1 << 20)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	fl := alloc.NewFreeList(a.Bytes(), nil)
package arena

import (
	"fmt"
	"unsafe"
)

// Arena is a fixed-size byte range reserved up front.
type Arena struct {
	data    []byte
	mapped  bool
	release func([]byte) error
}

// New reserves size bytes on the Go heap.
func New(size int) *Arena {
	if size <= 0 {
		panic(fmt.Sprintf("arena: size must be positive, got %d", size))
	}
	return &Arena{
		data:    make([]byte, size),
		release: func([]byte) error { return nil },
	}
}

// Bytes returns the whole arena. The slice stays valid until Close.
func (a *Arena) Bytes() []byte {
	return a.data
}

// Size returns the arena length in bytes, or 0 after Close.
func (a *Arena) Size() int {
	return len(a.data)
}

// Base returns the address of the first byte, or 0 after Close.
func (a *Arena) Base() uintptr {
	if len(a.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(a.data)))
}

// Mapped reports whether the memory came from an OS mapping rather than the Go heap.
func (a *Arena) Mapped() bool {
	return a.mapped
}

// Close releases the arena's memory. Any slice handed out from it must not be
// used afterwards. Closing twice is a no-op.
func (a *Arena) Close() error {
	if a.data == nil {
		return nil
	}
	data := a.data
	a.data = nil
	if err := a.release(data); err != nil {
		return fmt.Errorf("arena: release %d bytes: %w", len(data), err)
	}
	return nil
}
