//go:build unix

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Map reserves size bytes as an anonymous private mapping. The pages are
// zero-filled and page-aligned, and live outside the Go heap.
func Map(size int) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena: size must be positive, got %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap %d bytes: %w", size, err)
	}
	return &Arena{
		data:    data,
		mapped:  true,
		release: unix.Munmap,
	}, nil
}
