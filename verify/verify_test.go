package verify

import (
	"errors"
	"iter"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/arena"
)

// fakeChain lets the tests describe broken chains a FreeList never produces.
type fakeChain struct {
	blocks []alloc.Block
	size   int
	used   int
	live   int
}

func (f *fakeChain) FreeBlocks() iter.Seq[alloc.Block] {
	return func(yield func(alloc.Block) bool) {
		for _, b := range f.blocks {
			if !yield(b) {
				return
			}
		}
	}
}

func (f *fakeChain) Size() int           { return f.size }
func (f *fakeChain) UsedMemory() int     { return f.used }
func (f *fakeChain) NumAllocations() int { return f.live }

func blocks(pairs ...int) []alloc.Block {
	var out []alloc.Block
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, alloc.Block{Offset: pairs[i], Size: pairs[i+1]})
	}
	return out
}

func requireValidation(t *testing.T, err error, typ string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %T", err)
	require.Equal(t, typ, verr.Type)
	return verr
}

func TestAllInvariants_FreshFreeList(t *testing.T) {
	fl := alloc.NewFreeList(arena.New(4096).Bytes(), nil)
	require.NoError(t, AllInvariants(fl))
}

func TestSorted_OutOfOrder(t *testing.T) {
	c := &fakeChain{blocks: blocks(200, 50, 100, 50), size: 1024}
	verr := requireValidation(t, Sorted(c), "Sorted")
	require.Equal(t, 100, verr.Offset)
	require.Contains(t, verr.Error(), "not address-ascending")
}

func TestSorted_Overlap(t *testing.T) {
	c := &fakeChain{blocks: blocks(0, 120, 100, 50), size: 1024}
	verr := requireValidation(t, Sorted(c), "Sorted")
	require.Contains(t, verr.Message, "overlaps")
}

func TestSorted_OutsideArena(t *testing.T) {
	c := &fakeChain{blocks: blocks(1000, 100), size: 1024}
	requireValidation(t, Sorted(c), "Sorted")

	c = &fakeChain{blocks: blocks(0, 8), size: 1024}
	requireValidation(t, Sorted(c), "Sorted")
}

func TestNoAdjacency(t *testing.T) {
	c := &fakeChain{blocks: blocks(0, 100, 100, 50), size: 1024}
	verr := requireValidation(t, NoAdjacency(c), "NoAdjacency")
	require.Equal(t, 100, verr.Offset)
	require.Equal(t, 0, verr.Details["previous"])

	c = &fakeChain{blocks: blocks(0, 100, 101, 50), size: 1024}
	require.NoError(t, NoAdjacency(c))
}

func TestAccounting(t *testing.T) {
	c := &fakeChain{blocks: blocks(0, 100, 200, 824), size: 1024, used: 100, live: 1}
	require.NoError(t, Accounting(c))

	c.used = 90
	verr := requireValidation(t, Accounting(c), "Accounting")
	require.Equal(t, -1, verr.Offset)
	require.Equal(t, 924, verr.Details["free"])
	require.NotContains(t, verr.Error(), "offset")
}

func TestIdleShape(t *testing.T) {
	c := &fakeChain{blocks: blocks(0, 1024), size: 1024}
	require.NoError(t, IdleShape(c))

	c = &fakeChain{blocks: blocks(0, 512, 600, 424), size: 1024}
	verr := requireValidation(t, IdleShape(c), "IdleShape")
	require.Equal(t, 2, verr.Details["blocks"])

	// Live allocations exempt the arena.
	c.used, c.live = 88, 1
	require.NoError(t, IdleShape(c))
}

func TestAllInvariants_ReportsFirstFailure(t *testing.T) {
	c := &fakeChain{blocks: blocks(0, 100, 100, 924), size: 1024}
	requireValidation(t, AllInvariants(c), "NoAdjacency")
}

// TestAllInvariants_RandomWorkload holds the allocator to every invariant
// across a seeded mixed workload.
func TestAllInvariants_RandomWorkload(t *testing.T) {
	for _, strategy := range []alloc.FitStrategy{alloc.FirstFit, alloc.BestFit, alloc.WorstFit} {
		t.Run(strategy.String(), func(t *testing.T) {
			a := arena.New(16 << 10)
			fl := alloc.NewFreeList(a.Bytes(), &alloc.Config{Strategy: strategy})
			rng := rand.New(rand.NewSource(7))

			var live [][]byte
			for step := range 2000 {
				switch {
				case len(live) == 0 || rng.Intn(3) == 0:
					b, err := fl.Allocate(1+rng.Intn(400), uint8(1<<rng.Intn(8)))
					if err == nil {
						live = append(live, b)
					}
				case rng.Intn(4) == 0:
					i := rng.Intn(len(live))
					if b, _, err := fl.Reallocate(live[i], 1+rng.Intn(600), 1); err == nil {
						live[i] = b
					}
				default:
					i := rng.Intn(len(live))
					fl.Deallocate(live[i])
					live = append(live[:i], live[i+1:]...)
				}
				require.NoError(t, AllInvariants(fl), "step %d", step)
			}
			for _, b := range live {
				fl.Deallocate(b)
			}
			require.NoError(t, IdleShape(fl))
			require.Equal(t, 1, countBlocks(fl))
		})
	}
}

func countBlocks(c Chain) int {
	n := 0
	for range c.FreeBlocks() {
		n++
	}
	return n
}
