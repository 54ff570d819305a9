// Package memmap turns a free-list arena into an ordered map of free and used
// regions for display and fragmentation analysis.
package memmap

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/arenakit/alloc"
)

// Kind classifies a region.
type Kind uint8

const (
	Free Kind = iota
	Used
)

func (k Kind) String() string {
	if k == Free {
		return "free"
	}
	return "used"
}

// Region is a contiguous range of one kind. Used regions may hold several
// adjacent allocations; the free chain cannot tell them apart.
type Region struct {
	Kind   Kind
	Offset int
	Size   int
}

// End returns the offset one past the region.
func (r Region) End() int { return r.Offset + r.Size }

// Source is what Build reads. *alloc.FreeList implements it.
type Source interface {
	FreeBlocks() iter.Seq[alloc.Block]
	Size() int
}

// Map is the full layout of an arena, regions in address order covering [0, Size).
type Map struct {
	Size    int
	Regions []Region
}

// Build derives the map from the free chain: every gap between free blocks is used.
func Build(src Source) Map {
	m := Map{Size: src.Size()}
	pos := 0
	for b := range src.FreeBlocks() {
		if b.Offset > pos {
			m.Regions = append(m.Regions, Region{Kind: Used, Offset: pos, Size: b.Offset - pos})
		}
		m.Regions = append(m.Regions, Region{Kind: Free, Offset: b.Offset, Size: b.Size})
		pos = b.End()
	}
	if pos < m.Size {
		m.Regions = append(m.Regions, Region{Kind: Used, Offset: pos, Size: m.Size - pos})
	}
	return m
}

// FreeBytes returns the total size of free regions.
func (m Map) FreeBytes() int {
	n := 0
	for _, r := range m.Regions {
		if r.Kind == Free {
			n += r.Size
		}
	}
	return n
}

// UsedBytes returns the total size of used regions.
func (m Map) UsedBytes() int {
	return m.Size - m.FreeBytes()
}

// Largest returns the biggest free region, or a zero Region if none is free.
func (m Map) Largest() Region {
	var best Region
	for _, r := range m.Regions {
		if r.Kind == Free && r.Size > best.Size {
			best = r
		}
	}
	return best
}

// FreeCount returns the number of free regions.
func (m Map) FreeCount() int {
	n := 0
	for _, r := range m.Regions {
		if r.Kind == Free {
			n++
		}
	}
	return n
}

// Fragmentation returns 1 - largest/free: 0 when all free memory is one
// block (or nothing is free), approaching 1 as it splinters.
func (m Map) Fragmentation() float64 {
	free := m.FreeBytes()
	if free == 0 {
		return 0
	}
	return 1 - float64(m.Largest().Size)/float64(free)
}

// Cells maps the arena onto width cells and reports, for each, whether any
// byte in it is used. Width is clamped to [1, Size].
func (m Map) Cells(width int) []bool {
	if m.Size == 0 {
		return nil
	}
	width = min(max(width, 1), m.Size)
	cells := make([]bool, width)
	for _, r := range m.Regions {
		if r.Kind != Used {
			continue
		}
		first := r.Offset * width / m.Size
		last := (r.End() - 1) * width / m.Size
		for i := first; i <= last; i++ {
			cells[i] = true
		}
	}
	return cells
}

// Render draws the map as width characters, '#' for cells touching used
// memory and '.' for fully free cells.
func (m Map) Render(width int) string {
	cells := m.Cells(width)
	var sb strings.Builder
	sb.Grow(len(cells))
	for _, used := range cells {
		if used {
			sb.WriteByte('#')
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// WriteSummary prints size, usage, free blocks and fragmentation with numbers
// formatted for tag.
func WriteSummary(w io.Writer, m Map, tag language.Tag) error {
	p := message.NewPrinter(tag)
	largest := m.Largest()
	lines := []struct {
		format string
		args   []any
	}{
		{"arena:         %d bytes\n", []any{m.Size}},
		{"used:          %d bytes (%.1f%%)\n", []any{m.UsedBytes(), percent(m.UsedBytes(), m.Size)}},
		{"free:          %d bytes in %d blocks\n", []any{m.FreeBytes(), m.FreeCount()}},
		{"largest free:  %d bytes at 0x%X\n", []any{largest.Size, largest.Offset}},
		{"fragmentation: %.3f\n", []any{m.Fragmentation()}},
	}
	for _, l := range lines {
		if _, err := p.Fprintf(w, l.format, l.args...); err != nil {
			return fmt.Errorf("memmap: write summary: %w", err)
		}
	}
	return nil
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
