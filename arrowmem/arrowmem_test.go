package arrowmem

import (
	"testing"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/verify"
)

func newAllocator(t *testing.T, size int) (*Allocator, *alloc.FreeList) {
	t.Helper()
	a := arena.New(size)
	fl := alloc.NewFreeList(a.Bytes(), nil)
	return New(fl, nil), fl
}

func TestAllocator_AlignedAndOwned(t *testing.T) {
	mem, fl := newAllocator(t, 64<<10)

	b := mem.Allocate(100)
	require.Len(t, b, 100)
	require.True(t, mem.owns(b))
	require.Zero(t, (fl.Base()+uintptr(fl.Offset(b)))%Alignment)
	require.Positive(t, mem.InUse())

	mem.Free(b)
	require.Zero(t, mem.InUse())
	require.NoError(t, verify.AllInvariants(fl))
}

func TestAllocator_ReallocateInPlaceAndMoving(t *testing.T) {
	mem, fl := newAllocator(t, 4096)

	a := mem.Allocate(64)
	copy(a, "arrow")
	grown := mem.Reallocate(512, a)
	require.Equal(t, fl.Offset(a), fl.Offset(grown), "tail was free, so it grows in place")

	blocker := mem.Allocate(64)
	moved := mem.Reallocate(1024, grown)
	require.NotEqual(t, fl.Offset(grown), fl.Offset(moved))
	require.Equal(t, "arrow", string(moved[:5]))
	require.Len(t, moved, 1024)

	mem.Free(blocker)
	mem.Free(moved)
	require.Zero(t, fl.NumAllocations())
	require.Zero(t, mem.Spills())
}

func TestAllocator_SmallShrinkKeepsBuffer(t *testing.T) {
	mem, fl := newAllocator(t, 4096)

	b := mem.Allocate(256)
	copy(b, "arrow")
	used := mem.InUse()

	same := mem.Reallocate(256, b)
	require.Equal(t, fl.Offset(b), fl.Offset(same))
	require.Len(t, same, 256)

	shrunk := mem.Reallocate(250, same)
	require.Equal(t, fl.Offset(b), fl.Offset(shrunk))
	require.Len(t, shrunk, 250)
	require.Equal(t, "arrow", string(shrunk[:5]))
	require.Equal(t, used, mem.InUse())

	mem.Free(shrunk)
	require.Zero(t, fl.NumAllocations())
	require.NoError(t, verify.AllInvariants(fl))
}

func TestAllocator_SpillsToFallback(t *testing.T) {
	mem, fl := newAllocator(t, 1024)

	big := mem.Allocate(4096)
	require.Len(t, big, 4096)
	require.False(t, mem.owns(big))
	require.Equal(t, 1, mem.Spills())
	require.Zero(t, fl.NumAllocations())

	// Growing an arena buffer past the arena moves it to the heap.
	small := mem.Allocate(100)
	copy(small, "keep")
	spilled := mem.Reallocate(2000, small)
	require.False(t, mem.owns(spilled))
	require.Equal(t, "keep", string(spilled[:4]))
	require.Zero(t, fl.NumAllocations())

	mem.Free(big)
	mem.Free(spilled)
}

func TestAllocator_ZeroSizes(t *testing.T) {
	mem, fl := newAllocator(t, 1024)

	require.Empty(t, mem.Allocate(0))
	b := mem.Allocate(32)
	require.Empty(t, mem.Reallocate(0, b))
	require.Zero(t, fl.NumAllocations())
	mem.Free(nil)
}

func TestAllocator_ArrowBuilders(t *testing.T) {
	mem, fl := newAllocator(t, 1<<20)
	checked := memory.NewCheckedAllocator(mem)
	defer checked.AssertSize(t, 0)

	ib := array.NewInt64Builder(checked)
	sb := array.NewStringBuilder(checked)
	for i := range 5000 {
		ib.Append(int64(i))
		if i%7 == 0 {
			sb.AppendNull()
		} else {
			sb.Append("value")
		}
	}
	ints := ib.NewInt64Array()
	strs := sb.NewStringArray()
	ib.Release()
	sb.Release()

	require.Equal(t, 5000, ints.Len())
	require.Equal(t, int64(4999), ints.Value(4999))
	require.True(t, strs.IsNull(0))
	require.Equal(t, "value", strs.Value(1))
	require.Positive(t, fl.NumAllocations())
	require.NoError(t, verify.AllInvariants(fl))

	ints.Release()
	strs.Release()
	require.Zero(t, fl.NumAllocations())
	require.Zero(t, mem.Spills())
}
