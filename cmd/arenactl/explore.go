package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/internal/logger"
	"github.com/joshuapare/arenakit/internal/workload"
	"github.com/joshuapare/arenakit/memmap"
)

var (
	exploreSize     int
	exploreStrategy string
	exploreDefrag   bool
)

func init() {
	cmd := newExploreCmd()
	cmd.Flags().IntVar(&exploreSize, "size", 64<<10, "Arena size in bytes")
	cmd.Flags().StringVar(&exploreStrategy, "strategy", "first", "Fit strategy: first, best or worst")
	cmd.Flags().BoolVar(&exploreDefrag, "defrag", false, "Defragment after every deallocation")
	rootCmd.AddCommand(cmd)
}

func newExploreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explore <script>",
		Short: "Step through a replay in an interactive memory map",
		Long: `The explore command replays a workload script and opens a terminal UI
that walks the replay one operation at a time. Each step redraws the arena
map, the free chain and the allocator counters as they stood after that line.

Keys:
  →/l/space  next operation      ←/h  previous operation
  g/home     before the first    G/end  after the last
  ?          toggle help         q  quit

Example:
  arenactl explore examples/workloads/fragment.txt --size 4096 --strategy best`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(cmd.Context(), args)
		},
	}
}

// frame is the allocator state after a number of replayed operations.
type frame struct {
	outcome *workload.Outcome // nil for the initial state
	m       memmap.Map
	blocks  []alloc.Block
	stats   alloc.Stats
	used    int
	live    int
}

// replayFrames replays ops and snapshots the arena after each one. A script
// error ends the replay early and is returned alongside the frames so far.
func replayFrames(ops []workload.Op, size int, cfg *alloc.Config) ([]frame, error) {
	a, err := newArena(size, false)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	fl := alloc.NewFreeList(a.Bytes(), cfg)
	r := workload.NewReplayer(fl)
	frames := []frame{snapshot(fl, nil)}

	var stepErr error
	for _, op := range ops {
		out, err := r.Step(op)
		if err != nil {
			stepErr = err
			break
		}
		frames = append(frames, snapshot(fl, &out))
	}

	r.Result().Release(fl)
	fl.Destroy()
	return frames, stepErr
}

func snapshot(fl *alloc.FreeList, out *workload.Outcome) frame {
	f := frame{
		outcome: out,
		m:       memmap.Build(fl),
		stats:   fl.GetStats(),
		used:    fl.UsedMemory(),
		live:    fl.NumAllocations(),
	}
	for b := range fl.FreeBlocks() {
		f.blocks = append(f.blocks, b)
	}
	return f
}

func runExplore(ctx context.Context, args []string) error {
	scriptPath := args[0]

	strategy, err := alloc.ParseFitStrategy(exploreStrategy)
	if err != nil {
		return err
	}
	if exploreSize <= 16 {
		return fmt.Errorf("--size must be larger than 16 bytes, got %d", exploreSize)
	}

	f, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	ops, err := workload.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", scriptPath, err)
	}

	frames, err := replayFrames(ops, exploreSize, &alloc.Config{
		Strategy:             strategy,
		DefragOnDeallocation: exploreDefrag,
		Logger:               logger.L,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", scriptPath, err)
	}

	p := tea.NewProgram(newExploreModel(scriptPath, frames), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		logger.L.Error("explorer stopped", "error", err)
		return fmt.Errorf("failed to run explorer: %w", err)
	}
	return nil
}
