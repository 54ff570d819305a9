package workload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/internal/format"
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("workload: syntax error")

const commentPrefix = "#"

// Parse reads a script. Errors carry the offending line number.
func Parse(r io.Reader) ([]Op, error) {
	scanner := bufio.NewScanner(r)
	var ops []Op
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, commentPrefix); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		op, err := parseLine(strings.Fields(line))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrSyntax, lineNo, err)
		}
		op.Line = lineNo
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("workload: read script: %w", err)
	}
	return ops, nil
}

func parseLine(fields []string) (Op, error) {
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "alloc", "realloc":
		if len(args) < 2 || len(args) > 3 {
			return Op{}, fmt.Errorf("%s takes <name> <size> [align], got %d arguments", cmd, len(args))
		}
		size, err := strconv.Atoi(args[1])
		if err != nil || size <= 0 {
			return Op{}, fmt.Errorf("invalid size %q", args[1])
		}
		align := DefaultAlignment
		if len(args) == 3 {
			n, err := strconv.ParseUint(args[2], 10, 8)
			if err != nil || !format.ValidAlignment(uint8(n)) {
				return Op{}, fmt.Errorf("invalid alignment %q (power of two up to %d)", args[2], format.MaxAlignment)
			}
			align = uint8(n)
		}
		kind := OpAlloc
		if cmd == "realloc" {
			kind = OpRealloc
		}
		return Op{Kind: kind, Name: args[0], Size: size, Align: align}, nil

	case "free":
		if len(args) != 1 {
			return Op{}, fmt.Errorf("free takes <name>, got %d arguments", len(args))
		}
		return Op{Kind: OpFree, Name: args[0]}, nil

	case "defrag":
		if len(args) != 0 {
			return Op{}, errors.New("defrag takes no arguments")
		}
		return Op{Kind: OpDefrag}, nil

	case "strategy":
		if len(args) != 1 {
			return Op{}, fmt.Errorf("strategy takes <first|best|worst>, got %d arguments", len(args))
		}
		s, err := alloc.ParseFitStrategy(args[0])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpStrategy, Strategy: s}, nil

	case "defrag-on-free":
		if len(args) != 1 {
			return Op{}, fmt.Errorf("defrag-on-free takes <on|off>, got %d arguments", len(args))
		}
		on, err := parseSwitch(args[0])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpDefragOnFree, On: on}, nil

	default:
		return Op{}, fmt.Errorf("unknown operation %q", cmd)
	}
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch %q (want on or off)", s)
}
