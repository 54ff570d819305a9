package format

import "encoding/binary"

// Binary encoding utilities for the little-endian records kept inside the arena.
//
// Implementation: Uses encoding/binary.LittleEndian. The compiler inlines these
// calls; going through unsafe pointers gains nothing measurable and would tie
// the records to the host's alignment rules.

// PutU8 writes a byte at the specified offset.
func PutU8(b []byte, off int, v uint8) {
	b[off] = v
}

// ReadU8 reads a byte at the specified offset.
func ReadU8(b []byte, off int) uint8 {
	return b[off]
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// PutI64 writes an int64 value to the buffer at the specified offset in little-endian format.
func PutI64(b []byte, off int, v int64) {
	binary.LittleEndian.PutUint64(b[off:off+8], uint64(v))
}

// ReadI64 reads an int64 value from the buffer at the specified offset in little-endian format.
func ReadI64(b []byte, off int) int64 {
	return int64(binary.LittleEndian.Uint64(b[off : off+8]))
}
