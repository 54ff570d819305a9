package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoding_InPlace(t *testing.T) {
	buf := make([]byte, 32)

	PutU64(buf, 0, 0x0102030405060708)
	PutI64(buf, 8, NoBlock)
	PutU8(buf, 16, 0x80)

	require.Equal(t, byte(0x08), buf[0], "little-endian low byte first")
	require.Equal(t, uint64(0x0102030405060708), ReadU64(buf, 0))
	require.Equal(t, int64(NoBlock), ReadI64(buf, 8))
	require.Equal(t, uint8(0x80), ReadU8(buf, 16))
	require.Zero(t, ReadU64(buf, 24), "untouched bytes stay zero")
}
