//go:build !unix

package arena

import "fmt"

// Map falls back to a heap reservation where anonymous mappings are unavailable.
func Map(size int) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena: size must be positive, got %d", size)
	}
	return New(size), nil
}
