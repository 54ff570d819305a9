package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool
	debug   bool
	logFile string

	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "arenactl",
	Short: "Replay and inspect free-list arena workloads",
	Long: `arenactl drives the arenakit free-list allocator from scripts or
random workloads and shows what the arena looks like afterwards: which bytes
are free, how fragmented they are, and what the allocator counted on the way.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		closeFn, err := logger.Init(logger.Options{
			Enabled: debug || logFile != "",
			LogFile: logFile,
			Level:   slog.LevelDebug,
		})
		if err != nil {
			return fmt.Errorf("failed to init logging: %w", err)
		}
		closeLog = closeFn
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Log allocator activity to stderr")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON debug logs to this file")
}

func execute() {
	// Interrupts cancel the context; replays stop between operations.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
