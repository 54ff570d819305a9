package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidAlignment(t *testing.T) {
	for _, a := range []uint8{1, 2, 4, 8, 16, 32, 64, 128} {
		require.True(t, ValidAlignment(a), "alignment %d", a)
	}
	for _, a := range []uint8{0, 3, 6, 12, 100, 129, 255} {
		require.False(t, ValidAlignment(a), "alignment %d", a)
	}
}

func TestAlignAdjustment(t *testing.T) {
	tests := []struct {
		name  string
		addr  uintptr
		align uint8
		want  uint8
	}{
		{"aligned", 0x1000, 16, 0},
		{"one past", 0x1001, 16, 15},
		{"one short", 0x100F, 8, 1},
		{"byte alignment", 0x1003, 1, 0},
		{"max alignment", 0x1001, 128, 127},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AlignAdjustment(tt.addr, tt.align)
			require.Equal(t, tt.want, got)
			require.Zero(t, (tt.addr+uintptr(got))%uintptr(tt.align))
		})
	}
}

func TestAlignWithHeader(t *testing.T) {
	tests := []struct {
		name  string
		addr  uintptr
		align uint8
		want  uint8
	}{
		{"aligned small alignment", 0x1000, 8, 16},
		{"aligned large alignment", 0x1000, 64, 64},
		{"plain adjustment already fits", 0x1010, 32, 16},
		{"bumped by one alignment", 0x1039, 64, 71},
		{"byte alignment", 0x1003, 1, 16},
		{"max alignment just past boundary", 0x1071, 128, 15 + 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AlignWithHeader(tt.addr, tt.align, AllocationHeaderSize)
			require.Equal(t, tt.want, got)
			require.GreaterOrEqual(t, int(got), AllocationHeaderSize)
			require.Zero(t, (tt.addr+uintptr(got))%uintptr(tt.align))
		})
	}
}

func TestAlignWithHeader_AllAlignments(t *testing.T) {
	for addr := uintptr(0x2000); addr < 0x2000+256; addr++ {
		for shift := 0; shift <= 7; shift++ {
			align := uint8(1 << shift)
			adj := AlignWithHeader(addr, align, AllocationHeaderSize)
			require.GreaterOrEqual(t, int(adj), AllocationHeaderSize)
			require.Less(t, int(adj), AllocationHeaderSize+int(align))
			require.Zero(t, (addr+uintptr(adj))%uintptr(align))
		}
	}
}
