package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/internal/logger"
	"github.com/joshuapare/arenakit/internal/workload"
	"github.com/joshuapare/arenakit/memmap"
	"github.com/joshuapare/arenakit/verify"
)

var (
	runSize     int
	runStrategy string
	runDefrag   bool
	runMmap     bool
	runWidth    int
	runLang     string
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVar(&runSize, "size", 64<<10, "Arena size in bytes")
	cmd.Flags().StringVar(&runStrategy, "strategy", "first", "Fit strategy: first, best or worst")
	cmd.Flags().BoolVar(&runDefrag, "defrag", false, "Defragment after every deallocation")
	cmd.Flags().BoolVar(&runMmap, "mmap", false, "Back the arena with an anonymous memory mapping")
	cmd.Flags().IntVar(&runWidth, "width", 64, "Memory map width in cells")
	cmd.Flags().StringVar(&runLang, "lang", "en", "Language tag for number formatting")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Replay an allocation script",
		Long: `The run command replays a workload script against a fresh arena and
prints the memory map, a usage summary and the allocator counters.

Script lines:
  alloc <name> <size> [align]
  realloc <name> <size> [align]
  free <name>
  defrag
  strategy <first|best|worst>
  defrag-on-free <on|off>

Example:
  arenactl run workload.txt
  arenactl run workload.txt --size 1048576 --strategy best --width 96
  arenactl run workload.txt --mmap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args)
		},
	}
	return cmd
}

type blockJSON struct {
	Offset int `json:"offset"`
	Size   int `json:"size"`
}

type outcomeJSON struct {
	Line    int    `json:"line"`
	Op      string `json:"op"`
	Offset  int    `json:"offset"`
	Error   string `json:"error,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

type runReport struct {
	Script         string        `json:"script"`
	Size           int           `json:"size"`
	Strategy       string        `json:"strategy"`
	Mapped         bool          `json:"mapped"`
	Ops            int           `json:"ops"`
	Refused        int           `json:"refused"`
	Skipped        int           `json:"skipped"`
	Live           []string      `json:"live"`
	UsedMemory     int           `json:"used_memory"`
	NumAllocations int           `json:"num_allocations"`
	FreeBlocks     []blockJSON   `json:"free_blocks"`
	Fragmentation  float64       `json:"fragmentation"`
	Stats          alloc.Stats   `json:"stats"`
	Outcomes       []outcomeJSON `json:"outcomes,omitempty"`
}

func runRun(ctx context.Context, args []string) error {
	scriptPath := args[0]

	strategy, err := alloc.ParseFitStrategy(runStrategy)
	if err != nil {
		return err
	}
	tag, err := language.Parse(runLang)
	if err != nil {
		return fmt.Errorf("invalid --lang %q: %w", runLang, err)
	}
	if runSize <= 16 {
		return fmt.Errorf("--size must be larger than 16 bytes, got %d", runSize)
	}

	printVerbose("Reading script: %s\n", scriptPath)
	f, err := os.Open(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	ops, err := workload.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", scriptPath, err)
	}

	a, err := newArena(runSize, runMmap)
	if err != nil {
		return err
	}
	defer a.Close()

	fl := alloc.NewFreeList(a.Bytes(), &alloc.Config{
		Strategy:             strategy,
		DefragOnDeallocation: runDefrag,
		Logger:               logger.L,
	})

	res, err := workload.Run(ctx, fl, ops)
	if err != nil {
		res.Release(fl)
		return fmt.Errorf("%s: %w", scriptPath, err)
	}
	if err := verify.AllInvariants(fl); err != nil {
		return fmt.Errorf("arena invariants violated after replay: %w", err)
	}

	m := memmap.Build(fl)
	report := runReport{
		Script:         scriptPath,
		Size:           fl.Size(),
		Strategy:       fl.FitStrategy().String(),
		Mapped:         a.Mapped(),
		Ops:            len(ops),
		Refused:        res.Failures,
		Skipped:        res.Skipped,
		Live:           res.LiveNames(),
		UsedMemory:     fl.UsedMemory(),
		NumAllocations: fl.NumAllocations(),
		Fragmentation:  m.Fragmentation(),
		Stats:          fl.GetStats(),
	}
	for b := range fl.FreeBlocks() {
		report.FreeBlocks = append(report.FreeBlocks, blockJSON{Offset: b.Offset, Size: b.Size})
	}
	for _, o := range res.Outcomes {
		oj := outcomeJSON{Line: o.Op.Line, Op: o.Op.String(), Offset: o.Offset, Skipped: o.Skipped}
		if o.Err != nil {
			oj.Error = o.Err.Error()
		}
		report.Outcomes = append(report.Outcomes, oj)
	}

	res.Release(fl)
	fl.Destroy()

	if jsonOut {
		return printJSON(report)
	}

	printInfo("%s\n", heading(fmt.Sprintf("Replay: %s", scriptPath)))
	printInfo("  %d ops, %d refused, %d skipped, strategy %s, arena %s (%s)\n\n",
		report.Ops, report.Refused, report.Skipped, report.Strategy, arenaKind(report.Mapped),
		humanize.IBytes(uint64(report.Size)))

	if verbose && !quiet {
		for _, o := range report.Outcomes {
			status := fmt.Sprintf("@0x%X", o.Offset)
			switch {
			case o.Error != "":
				status = "refused: " + o.Error
			case o.Skipped:
				status = "skipped"
			}
			printVerbose("  line %-4d %-28s %s\n", o.Line, o.Op, status)
		}
		printVerbose("\n")
	}

	printInfo("%s\n", renderMap(m, runWidth))
	printInfo("  # used   . free\n\n")
	if !quiet {
		if err := memmap.WriteSummary(os.Stdout, m, tag); err != nil {
			return err
		}
	}
	if len(report.Live) > 0 {
		printInfo("live at end:   %v\n", report.Live)
	}

	printInfo("\n%s\n", heading("Counters:"))
	printStats(report.Stats)
	return nil
}

func printStats(s alloc.Stats) {
	printInfo("  alloc calls:       %d (%d refused)\n", s.AllocCalls, s.AllocFailures)
	printInfo("  realloc calls:     %d (%d refused)\n", s.ReallocCalls, s.ReallocFailures)
	printInfo("  free calls:        %d\n", s.FreeCalls)
	printInfo("  splits:            %d\n", s.Splits)
	printInfo("  coalesce fwd/back: %d/%d\n", s.CoalesceForward, s.CoalesceBackward)
	printInfo("  idle resets:       %d\n", s.Resets)
	printInfo("  defrag merges:     %d\n", s.DefragMerges)
	printInfo("  peak used:         %d\n", s.PeakUsed)
}

func newArena(size int, mapped bool) (*arena.Arena, error) {
	if !mapped {
		return arena.New(size), nil
	}
	a, err := arena.Map(size)
	if err != nil {
		return nil, fmt.Errorf("failed to map arena: %w", err)
	}
	return a, nil
}

func arenaKind(mapped bool) string {
	if mapped {
		return "mmap"
	}
	return "heap"
}
