package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/internal/workload"
	"github.com/joshuapare/arenakit/memmap"
	"github.com/joshuapare/arenakit/verify"
)

var (
	benchSize     int
	benchOps      int
	benchSeed     int64
	benchMaxSize  int
	benchStrategy string
	benchDefrag   bool
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchSize, "size", 1<<20, "Arena size in bytes")
	cmd.Flags().IntVar(&benchOps, "ops", 10000, "Number of random operations")
	cmd.Flags().Int64Var(&benchSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&benchMaxSize, "max-size", 4096, "Largest request in bytes")
	cmd.Flags().StringVar(&benchStrategy, "strategy", "all", "Fit strategy: first, best, worst or all")
	cmd.Flags().BoolVar(&benchDefrag, "defrag", false, "Defragment after every deallocation")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare fit strategies on a random workload",
		Long: `The bench command generates one reproducible random workload of
allocations, frees and reallocations, replays it once per fit strategy and
compares refusals, fragmentation and timing.

Example:
  arenactl bench
  arenactl bench --ops 100000 --seed 7 --max-size 512
  arenactl bench --strategy best --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context())
		},
	}
	return cmd
}

type benchRow struct {
	Strategy      string        `json:"strategy"`
	Refused       int           `json:"refused"`
	Live          int           `json:"live"`
	UsedMemory    int           `json:"used_memory"`
	FreeBlocks    int           `json:"free_blocks"`
	LargestFree   int           `json:"largest_free"`
	Fragmentation float64       `json:"fragmentation"`
	PeakUsed      int           `json:"peak_used"`
	Splits        int           `json:"splits"`
	Coalesces     int           `json:"coalesces"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

type benchReport struct {
	Size    int        `json:"size"`
	Ops     int        `json:"ops"`
	Seed    int64      `json:"seed"`
	MaxSize int        `json:"max_size"`
	Results []benchRow `json:"results"`
}

func runBench(ctx context.Context) error {
	strategies, err := benchStrategies(benchStrategy)
	if err != nil {
		return err
	}
	if benchSize <= 16 {
		return fmt.Errorf("--size must be larger than 16 bytes, got %d", benchSize)
	}
	if benchOps <= 0 {
		return fmt.Errorf("--ops must be positive, got %d", benchOps)
	}

	ops := workload.Generate(workload.GenerateOptions{
		Ops:     benchOps,
		MaxSize: benchMaxSize,
		Seed:    benchSeed,
	})
	printVerbose("Generated %d operations (seed %d)\n", len(ops), benchSeed)

	report := benchReport{Size: benchSize, Ops: benchOps, Seed: benchSeed, MaxSize: benchMaxSize}
	for _, s := range strategies {
		row, err := benchOne(ctx, s, ops)
		if err != nil {
			return fmt.Errorf("%s fit: %w", s, err)
		}
		report.Results = append(report.Results, row)
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("%s\n", heading(fmt.Sprintf("Random workload: %d ops, seed %d, arena %s, requests up to %s",
		report.Ops, report.Seed, humanize.IBytes(uint64(report.Size)), humanize.IBytes(uint64(report.MaxSize)))))
	printInfo("  %-8s %8s %6s %10s %7s %10s %6s %10s\n",
		"strategy", "refused", "live", "used", "blocks", "largest", "frag", "elapsed")
	for _, r := range report.Results {
		printInfo("  %-8s %8d %6d %10d %7d %10d %6.3f %10s\n",
			r.Strategy, r.Refused, r.Live, r.UsedMemory, r.FreeBlocks, r.LargestFree,
			r.Fragmentation, r.Elapsed.Round(time.Microsecond))
	}
	return nil
}

func benchOne(ctx context.Context, s alloc.FitStrategy, ops []workload.Op) (benchRow, error) {
	a := arena.New(benchSize)
	defer a.Close()
	fl := alloc.NewFreeList(a.Bytes(), &alloc.Config{Strategy: s, DefragOnDeallocation: benchDefrag})

	start := time.Now()
	res, err := workload.Run(ctx, fl, ops)
	elapsed := time.Since(start)
	if err != nil {
		return benchRow{}, err
	}
	if err := verify.AllInvariants(fl); err != nil {
		return benchRow{}, err
	}

	m := memmap.Build(fl)
	stats := fl.GetStats()
	row := benchRow{
		Strategy:      s.String(),
		Refused:       res.Failures,
		Live:          fl.NumAllocations(),
		UsedMemory:    fl.UsedMemory(),
		FreeBlocks:    m.FreeCount(),
		LargestFree:   m.Largest().Size,
		Fragmentation: m.Fragmentation(),
		PeakUsed:      stats.PeakUsed,
		Splits:        stats.Splits,
		Coalesces:     stats.CoalesceForward + stats.CoalesceBackward,
		Elapsed:       elapsed,
	}
	printVerbose("  %s: %d refused, %d skipped\n", s, res.Failures, res.Skipped)

	res.Release(fl)
	fl.Destroy()
	return row, nil
}

func benchStrategies(name string) ([]alloc.FitStrategy, error) {
	if name == "all" {
		return []alloc.FitStrategy{alloc.FirstFit, alloc.BestFit, alloc.WorstFit}, nil
	}
	s, err := alloc.ParseFitStrategy(name)
	if err != nil {
		return nil, err
	}
	return []alloc.FitStrategy{s}, nil
}
