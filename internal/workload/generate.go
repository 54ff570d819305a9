package workload

import (
	"math/rand"
	"strconv"
)

// GenerateOptions shapes a random workload.
type GenerateOptions struct {
	Ops     int   // Number of operations to emit
	MaxSize int   // Largest request in bytes
	Seed    int64 // Same seed, same workload

	// AllocWeight, FreeWeight and ReallocWeight set the mix; zero values
	// default to 5:3:2.
	AllocWeight   int
	FreeWeight    int
	ReallocWeight int
}

// Generate builds a reproducible random mix of alloc, free and realloc. Frees
// and reallocs only name allocations that are live at that point, so the
// result replays without script errors.
func Generate(opts GenerateOptions) []Op {
	wa, wf, wr := opts.AllocWeight, opts.FreeWeight, opts.ReallocWeight
	if wa+wf+wr == 0 {
		wa, wf, wr = 5, 3, 2
	}
	maxSize := max(opts.MaxSize, 1)
	rng := rand.New(rand.NewSource(opts.Seed))

	ops := make([]Op, 0, opts.Ops)
	var live []string
	next := 0
	for len(ops) < opts.Ops {
		pick := rng.Intn(wa + wf + wr)
		switch {
		case pick < wa || len(live) == 0:
			name := "g" + strconv.Itoa(next)
			next++
			live = append(live, name)
			ops = append(ops, Op{
				Kind:  OpAlloc,
				Name:  name,
				Size:  1 + rng.Intn(maxSize),
				Align: uint8(1 << rng.Intn(5)),
			})
		case pick < wa+wf:
			i := rng.Intn(len(live))
			ops = append(ops, Op{Kind: OpFree, Name: live[i]})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		default:
			ops = append(ops, Op{
				Kind:  OpRealloc,
				Name:  live[rng.Intn(len(live))],
				Size:  1 + rng.Intn(maxSize),
				Align: 1,
			})
		}
	}
	return ops
}
