// Package workload parses and replays allocation scripts against a FreeList.
//
// A script is one operation per line; blank lines and lines starting with '#'
// are ignored:
//
//	# name  size  [align]
//	alloc   a     256   16
//	alloc   b     64
//	realloc a     512
//	free    b
//	defrag
//	strategy best
//	defrag-on-free on
//
// Alignment defaults to 8.
package workload

import (
	"fmt"

	"github.com/joshuapare/arenakit/alloc"
)

// DefaultAlignment applies when alloc or realloc omit the alignment column.
const DefaultAlignment uint8 = 8

// Kind identifies a script operation.
type Kind uint8

const (
	OpAlloc Kind = iota
	OpFree
	OpRealloc
	OpDefrag
	OpStrategy
	OpDefragOnFree
)

var kindNames = [...]string{
	OpAlloc:        "alloc",
	OpFree:         "free",
	OpRealloc:      "realloc",
	OpDefrag:       "defrag",
	OpStrategy:     "strategy",
	OpDefragOnFree: "defrag-on-free",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Op is one parsed script line. Only the fields relevant to Kind are set.
type Op struct {
	Kind     Kind
	Line     int // 1-based source line, 0 for generated ops
	Name     string
	Size     int
	Align    uint8
	Strategy alloc.FitStrategy
	On       bool
}

func (op Op) String() string {
	switch op.Kind {
	case OpAlloc, OpRealloc:
		return fmt.Sprintf("%s %s %d %d", op.Kind, op.Name, op.Size, op.Align)
	case OpFree:
		return fmt.Sprintf("%s %s", op.Kind, op.Name)
	case OpStrategy:
		return fmt.Sprintf("%s %s", op.Kind, op.Strategy)
	case OpDefragOnFree:
		if op.On {
			return op.Kind.String() + " on"
		}
		return op.Kind.String() + " off"
	default:
		return op.Kind.String()
	}
}
