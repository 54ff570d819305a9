package alloc

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFreeList_RandomOperations drives every strategy through a long seeded
// sequence of allocate, reallocate and deallocate calls, checking the chain
// after each step and that live allocations never overlap or get corrupted.
func TestFreeList_RandomOperations(t *testing.T) {
	for _, strategy := range []FitStrategy{FirstFit, BestFit, WorstFit} {
		for _, defrag := range []bool{false, true} {
			name := strategy.String()
			if defrag {
				name += "/defrag"
			}
			t.Run(name, func(t *testing.T) {
				runRandomOperations(t, strategy, defrag, 42)
			})
		}
	}
}

type liveAlloc struct {
	b    []byte
	fill byte
}

func runRandomOperations(t *testing.T, strategy FitStrategy, defrag bool, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	fl := newTestFreeList(t, 32<<10, &Config{Strategy: strategy, DefragOnDeallocation: defrag})

	var live []liveAlloc
	fill := byte(0)

	check := func() {
		t.Helper()
		requireInvariants(t, fl, true)
		require.Equal(t, len(live), fl.NumAllocations())
		for _, a := range live {
			for i, c := range a.b {
				if c != a.fill {
					require.Failf(t, "allocation corrupted", "offset %d byte %d: got %#x want %#x", fl.Offset(a.b), i, c, a.fill)
				}
			}
		}
	}

	for step := range 3000 {
		switch op := rng.Intn(10); {
		case op < 5 || len(live) == 0:
			size := 1 + rng.Intn(700)
			align := uint8(1 << rng.Intn(8))
			b, err := fl.Allocate(size, align)
			if errors.Is(err, ErrNoSpace) {
				continue
			}
			require.NoError(t, err, "step %d", step)
			require.Zero(t, addrOf(b)%uintptr(align))
			fill++
			for i := range b {
				b[i] = fill
			}
			live = append(live, liveAlloc{b: b, fill: fill})
		case op < 8:
			i := rng.Intn(len(live))
			fl.Deallocate(live[i].b)
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		default:
			i := rng.Intn(len(live))
			a := live[i]
			size := 1 + rng.Intn(900)
			b, old, err := fl.Reallocate(a.b, size, 1)
			if err != nil {
				require.ErrorIs(t, err, ErrNoSpace, "step %d", step)
				continue
			}
			require.GreaterOrEqual(t, old, len(a.b))
			for j := len(a.b); j < size; j++ {
				b[j] = a.fill
			}
			live[i].b = b
		}
		check()
	}

	for _, a := range live {
		fl.Deallocate(a.b)
	}
	require.Equal(t, []span{{0, fl.Size()}}, chain(fl))
	require.Zero(t, fl.UsedMemory())
}
