package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New(4096)
	require.Equal(t, 4096, a.Size())
	require.Len(t, a.Bytes(), 4096)
	require.NotZero(t, a.Base())
	require.False(t, a.Mapped())

	require.NoError(t, a.Close())
	require.Zero(t, a.Size())
	require.Zero(t, a.Base())
	require.NoError(t, a.Close(), "second close is a no-op")
}

func TestNew_PanicsOnNonPositiveSize(t *testing.T) {
	require.Panics(t, func() { New(0) })
	require.Panics(t, func() { New(-1) })
}

func TestMap(t *testing.T) {
	a, err := Map(1 << 16)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, a.Close())
	}()

	require.Equal(t, 1<<16, a.Size())
	data := a.Bytes()
	for i := range data {
		require.Zero(t, data[i], "fresh mapping must be zero-filled at %d", i)
		if i > 256 {
			break
		}
	}

	data[0] = 0xAB
	data[len(data)-1] = 0xCD
	require.Equal(t, byte(0xAB), a.Bytes()[0])
	require.Equal(t, byte(0xCD), a.Bytes()[a.Size()-1])
}

func TestMap_RejectsNonPositiveSize(t *testing.T) {
	_, err := Map(0)
	require.Error(t, err)
}
