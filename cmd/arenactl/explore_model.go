package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// maxChainRows caps the free chain listing; the rest is summarized.
const maxChainRows = 8

type exploreKeyMap struct {
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Last  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func defaultExploreKeys() exploreKeyMap {
	return exploreKeyMap{
		Next: key.NewBinding(
			key.WithKeys("right", "l", "n", " "),
			key.WithHelp("→/l", "next op"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h", "p"),
			key.WithHelp("←/h", "previous op"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// exploreModel steps through precomputed replay frames.
type exploreModel struct {
	scriptPath string
	frames     []frame
	step       int
	keys       exploreKeyMap

	width    int
	showHelp bool
}

func newExploreModel(scriptPath string, frames []frame) exploreModel {
	return exploreModel{
		scriptPath: scriptPath,
		frames:     frames,
		keys:       defaultExploreKeys(),
		width:      80,
	}
}

func (m exploreModel) Init() tea.Cmd { return nil }

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, m.keys.Next):
			m.step = min(m.step+1, len(m.frames)-1)
		case key.Matches(msg, m.keys.Prev):
			m.step = max(m.step-1, 0)
		case key.Matches(msg, m.keys.First):
			m.step = 0
		case key.Matches(msg, m.keys.Last):
			m.step = len(m.frames) - 1
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m exploreModel) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderMapPane(),
		m.renderChain(),
		m.renderStatus(),
	)
}

func (m exploreModel) current() frame { return m.frames[m.step] }

func (m exploreModel) renderHeader() string {
	f := m.current()
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Explore: %s", m.scriptPath)))
	fmt.Fprintf(&sb, "\nstep %d/%d  ", m.step, len(m.frames)-1)

	if f.outcome == nil {
		sb.WriteString("initial state")
		return sb.String()
	}
	o := f.outcome
	fmt.Fprintf(&sb, "line %d: %s", o.Op.Line, o.Op)
	switch {
	case o.Err != nil:
		fmt.Fprintf(&sb, "  refused: %v", o.Err)
	case o.Skipped:
		sb.WriteString("  skipped")
	default:
		fmt.Fprintf(&sb, "  @0x%X", o.Offset)
	}
	return sb.String()
}

func (m exploreModel) renderMapPane() string {
	f := m.current()
	// Two border columns around the cells.
	width := max(m.width-2, 1)
	var sb strings.Builder
	sb.WriteString(renderMap(f.m, width))
	fmt.Fprintf(&sb, "\nused %s in %d allocations, free %s in %d blocks, largest %s, fragmentation %.1f%%",
		humanize.IBytes(uint64(f.used)), f.live,
		humanize.IBytes(uint64(f.m.FreeBytes())), f.m.FreeCount(),
		humanize.IBytes(uint64(f.m.Largest().Size)), f.m.Fragmentation()*100)
	return sb.String()
}

func (m exploreModel) renderChain() string {
	f := m.current()
	var sb strings.Builder
	sb.WriteString("\nfree chain:")
	if len(f.blocks) == 0 {
		sb.WriteString(" (empty)")
	}
	for i, b := range f.blocks {
		if i == maxChainRows {
			fmt.Fprintf(&sb, "\n  ... %d more", len(f.blocks)-maxChainRows)
			break
		}
		fmt.Fprintf(&sb, "\n  @0x%-6X %8d bytes", b.Offset, b.Size)
	}
	s := f.stats
	fmt.Fprintf(&sb, "\nsplits %d  coalesce fwd/back %d/%d  resets %d  defrag merges %d",
		s.Splits, s.CoalesceForward, s.CoalesceBackward, s.Resets, s.DefragMerges)
	return sb.String()
}

func (m exploreModel) renderStatus() string {
	return "\n" + m.helpLine()
}

func (m exploreModel) helpLine() string {
	bindings := []key.Binding{m.keys.Next, m.keys.Prev, m.keys.First, m.keys.Last, m.keys.Help, m.keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " │ ")
}

func (m exploreModel) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(heading("Keys"))
	sb.WriteString("\n")
	for _, b := range []key.Binding{m.keys.Next, m.keys.Prev, m.keys.First, m.keys.Last, m.keys.Help, m.keys.Quit} {
		fmt.Fprintf(&sb, "  %-8s %s\n", strings.Join(b.Keys(), "/"), b.Help().Desc)
	}
	sb.WriteString("\n# used   . free")
	return sb.String()
}
