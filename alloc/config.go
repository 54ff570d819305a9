package alloc

import "log/slog"

// Config configures a FreeList at construction. Strategy and
// DefragOnDeallocation can be changed later through setters.
type Config struct {
	// Strategy chooses among free blocks large enough for a request.
	Strategy FitStrategy

	// DefragOnDeallocation runs a full coalescing pass after every Deallocate
	// that does not leave the arena idle.
	DefragOnDeallocation bool

	// Logger receives debug records for every operation. Nil uses the package
	// logger, which discards output unless ARENAKIT_LOG_ALLOC is set.
	Logger *slog.Logger
}

// DefaultConfig is used when NewFreeList is given a nil Config.
var DefaultConfig = Config{
	Strategy: FirstFit,
}
