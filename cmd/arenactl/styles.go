package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joshuapare/arenakit/memmap"
)

var (
	usedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	freeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("8"))
)

// renderMap draws the arena as a row of width cells, colored unless --no-color.
func renderMap(m memmap.Map, width int) string {
	plain := m.Render(width)
	if noColor {
		return "[" + plain + "]"
	}

	var sb strings.Builder
	for run := range runs(plain) {
		if run[0] == '#' {
			sb.WriteString(usedStyle.Render(run))
		} else {
			sb.WriteString(freeStyle.Render(run))
		}
	}
	return borderStyle.Render(sb.String())
}

// runs splits s into maximal runs of one repeated byte.
func runs(s string) func(yield func(string) bool) {
	return func(yield func(string) bool) {
		start := 0
		for i := 1; i <= len(s); i++ {
			if i == len(s) || s[i] != s[start] {
				if !yield(s[start:i]) {
					return
				}
				start = i
			}
		}
	}
}

func heading(s string) string {
	if noColor {
		return s
	}
	return headerStyle.Render(s)
}
