package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/internal/format"
	"github.com/joshuapare/arenakit/internal/workload"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type versionInfo struct {
	Version          string `json:"version"`
	Commit           string `json:"commit"`
	Built            string `json:"built"`
	Go               string `json:"go"`
	HeaderSize       int    `json:"allocation_header_size"`
	FreeBlockSize    int    `json:"free_block_size"`
	MaxAlignment     int    `json:"max_alignment"`
	MinArenaSize     int    `json:"min_arena_size"`
	DefaultAlignment int    `json:"default_script_alignment"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and arena layout information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func currentVersion() versionInfo {
	return versionInfo{
		Version:          version,
		Commit:           commit,
		Built:            date,
		Go:               runtime.Version(),
		HeaderSize:       format.AllocationHeaderSize,
		FreeBlockSize:    format.FreeBlockSize,
		MaxAlignment:     format.MaxAlignment,
		MinArenaSize:     format.FreeBlockSize + 1,
		DefaultAlignment: int(workload.DefaultAlignment),
	}
}

func runVersion() error {
	v := currentVersion()
	if jsonOut {
		return printJSON(v)
	}
	fmt.Printf("arenactl %s\n", v.Version)
	fmt.Printf("  commit: %s\n", v.Commit)
	fmt.Printf("  built: %s\n", v.Built)
	fmt.Printf("  go: %s\n", v.Go)
	fmt.Printf("  allocation header: %d bytes\n", v.HeaderSize)
	fmt.Printf("  free block record: %d bytes\n", v.FreeBlockSize)
	fmt.Printf("  alignment: 1..%d (scripts default to %d)\n", v.MaxAlignment, v.DefaultAlignment)
	fmt.Printf("  smallest arena: %d bytes\n", v.MinArenaSize)
	return nil
}
