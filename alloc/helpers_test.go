package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/internal/format"
)

// alignedArena returns a size-byte arena whose first byte is 128-byte aligned,
// so header placement in tests does not depend on where the Go heap put it.
func alignedArena(t testing.TB, size int) []byte {
	t.Helper()
	raw := make([]byte, size+format.MaxAlignment)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	skip := int(format.AlignAdjustment(base, format.MaxAlignment))
	return raw[skip : skip+size : skip+size]
}

// newTestFreeList builds a FreeList over an aligned arena.
func newTestFreeList(t testing.TB, size int, cfg *Config) *FreeList {
	t.Helper()
	return NewFreeList(alignedArena(t, size), cfg)
}

type span struct{ off, size int }

// chain returns the free chain as (offset, size) pairs.
func chain(fl *FreeList) []span {
	var out []span
	for b := range fl.FreeBlocks() {
		out = append(out, span{b.Offset, b.Size})
	}
	return out
}

// addrOf returns the address of b's first byte.
func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// requireInvariants checks sortedness, bounds, accounting and (optionally)
// that no two chain neighbours touch.
func requireInvariants(t testing.TB, fl *FreeList, noAdjacency bool) {
	t.Helper()

	free := 0
	prevEnd := -1
	for b := range fl.FreeBlocks() {
		require.GreaterOrEqual(t, b.Offset, 0)
		require.GreaterOrEqual(t, b.Size, format.FreeBlockSize, "free block at %d too small", b.Offset)
		require.LessOrEqual(t, b.End(), fl.Size(), "free block at %d overruns arena", b.Offset)
		if prevEnd >= 0 {
			require.Greater(t, b.Offset, prevEnd-1, "free chain not address-ascending at %d", b.Offset)
			if noAdjacency {
				require.NotEqual(t, prevEnd, b.Offset, "adjacent free blocks at %d", b.Offset)
			}
		}
		prevEnd = b.End()
		free += b.Size
	}
	require.Equal(t, fl.Size(), fl.UsedMemory()+free, "used + free must cover the arena")
}
