package workload

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/internal/logger"
)

var (
	// ErrUnknownName indicates free or realloc of a name that is not live.
	ErrUnknownName = errors.New("workload: unknown allocation")

	// ErrDuplicateName indicates alloc of a name that is already live.
	ErrDuplicateName = errors.New("workload: allocation already live")
)

// Outcome records what one operation did.
type Outcome struct {
	Op Op

	// Err is ErrNoSpace or ErrMisaligned when the allocator refused the
	// request; the script continues.
	Err error

	// Skipped is set for free or realloc of a name whose alloc was refused.
	Skipped bool

	Offset  int // Arena offset of the allocation (alloc, realloc)
	OldSize int // Usable size before a successful realloc
	Merges  int // Merges performed (defrag)
}

// Result is the replay log plus the allocations still live at the end.
type Result struct {
	Outcomes []Outcome
	Failures int
	Skipped  int

	// Live maps names to allocations that were never freed.
	Live map[string][]byte
}

// LiveNames returns the live allocation names in sorted order.
func (r Result) LiveNames() []string {
	return slices.Sorted(maps.Keys(r.Live))
}

// Release deallocates every live allocation.
func (r Result) Release(a alloc.Allocator) {
	for _, name := range r.LiveNames() {
		a.Deallocate(r.Live[name])
		delete(r.Live, name)
	}
}

// Replayer applies ops to a FreeList one at a time, keeping the names that are
// live or were refused between steps.
type Replayer struct {
	fl      *alloc.FreeList
	res     Result
	refused map[string]bool
}

// NewReplayer starts a replay against fl.
func NewReplayer(fl *alloc.FreeList) *Replayer {
	return &Replayer{
		fl:      fl,
		res:     Result{Live: make(map[string][]byte)},
		refused: make(map[string]bool),
	}
}

// Step applies op and records its outcome. Script errors leave the replay
// state unchanged.
func (r *Replayer) Step(op Op) (Outcome, error) {
	out, err := apply(r.fl, r.res.Live, r.refused, op)
	if err != nil {
		return out, fmt.Errorf("line %d: %w", op.Line, err)
	}
	switch {
	case out.Err != nil:
		r.res.Failures++
	case out.Skipped:
		r.res.Skipped++
	}
	r.res.Outcomes = append(r.res.Outcomes, out)

	logger.L.Debug("workload op", "line", op.Line, "op", op.String(), "err", out.Err)
	return out, nil
}

// Result returns the outcomes so far and the live allocations.
func (r *Replayer) Result() Result { return r.res }

// Run replays ops against fl. Allocator refusals are recorded as outcomes;
// script errors (unknown or duplicate names) and context cancellation stop
// the replay and return the partial result.
func Run(ctx context.Context, fl *alloc.FreeList, ops []Op) (Result, error) {
	r := NewReplayer(fl)
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return r.Result(), fmt.Errorf("workload: replay stopped before line %d: %w", op.Line, err)
		}
		if _, err := r.Step(op); err != nil {
			return r.Result(), err
		}
	}
	return r.Result(), nil
}

// apply runs one op. Names whose alloc was refused are tracked in refused so
// later free or realloc of them is skipped instead of failing the script.
func apply(fl *alloc.FreeList, live map[string][]byte, refused map[string]bool, op Op) (Outcome, error) {
	out := Outcome{Op: op}
	switch op.Kind {
	case OpAlloc:
		if _, ok := live[op.Name]; ok {
			return out, fmt.Errorf("%w: %q", ErrDuplicateName, op.Name)
		}
		b, err := fl.Allocate(op.Size, op.Align)
		if err != nil {
			refused[op.Name] = true
			out.Err = err
			return out, nil
		}
		delete(refused, op.Name)
		live[op.Name] = b
		out.Offset = fl.Offset(b)

	case OpRealloc:
		b, ok := live[op.Name]
		if !ok && refused[op.Name] {
			out.Skipped = true
			return out, nil
		}
		if !ok {
			return out, fmt.Errorf("%w: %q", ErrUnknownName, op.Name)
		}
		nb, old, err := fl.Reallocate(b, op.Size, op.Align)
		if err != nil {
			out.Err = err
			out.Offset = fl.Offset(b)
			return out, nil
		}
		live[op.Name] = nb
		out.Offset = fl.Offset(nb)
		out.OldSize = old

	case OpFree:
		b, ok := live[op.Name]
		if !ok && refused[op.Name] {
			delete(refused, op.Name)
			out.Skipped = true
			return out, nil
		}
		if !ok {
			return out, fmt.Errorf("%w: %q", ErrUnknownName, op.Name)
		}
		out.Offset = fl.Offset(b)
		fl.Deallocate(b)
		delete(live, op.Name)

	case OpDefrag:
		out.Merges = fl.Defragment()

	case OpStrategy:
		fl.SetFitStrategy(op.Strategy)

	case OpDefragOnFree:
		fl.SetDefragOnDeallocation(op.On)

	default:
		return out, fmt.Errorf("workload: unsupported operation %s", op.Kind)
	}
	return out, nil
}
