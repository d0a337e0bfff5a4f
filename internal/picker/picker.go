// Package picker is a fuzzy-filtered chooser used for notes and commands.
package picker

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/sahilm/fuzzy"
)

// Item is one choice.
type Item struct {
	Label string
	Value string
}

// ChosenMsg is sent when the user accepts an item.
type ChosenMsg struct {
	ID   string
	Item Item
}

// CancelledMsg is sent when the user dismisses the picker.
type CancelledMsg struct {
	ID string
}

const defaultRows = 8

var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0A458")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFBE6")).Bold(true)
	itemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8D8B9")).Underline(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Model is a text input above a filtered list.
type Model struct {
	id      string
	input   textinput.Model
	items   []Item
	matches []fuzzy.Match
	cursor  int
	width   int
	rows    int
	empty   string
}

type itemSource []Item

func (s itemSource) String(i int) string { return s[i].Label }
func (s itemSource) Len() int            { return len(s) }

// New creates a focused picker. id is echoed back in its messages.
func New(id, placeholder, empty string, items []Item) Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = "> "
	in.PromptStyle = promptStyle
	in.Focus()
	m := Model{
		id:    id,
		input: in,
		items: items,
		width: 40,
		rows:  defaultRows,
		empty: empty,
	}
	m.filter()
	return m
}

// ID returns the picker's identifier.
func (m Model) ID() string { return m.id }

// SetSize bounds the rendered width and number of visible rows.
func (m *Model) SetSize(width, rows int) {
	m.width = max(width, 10)
	m.rows = max(rows, 1)
	m.input.Width = max(m.width-lipgloss.Width(m.input.Prompt)-1, 1)
}

// Query returns the current filter text.
func (m Model) Query() string { return m.input.Value() }

// Matches returns the items that pass the filter, best first.
func (m Model) Matches() []Item {
	out := make([]Item, len(m.matches))
	for i, match := range m.matches {
		out[i] = m.items[match.Index]
	}
	return out
}

// Selected returns the highlighted item.
func (m Model) Selected() (Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return Item{}, false
	}
	return m.items[m.matches[m.cursor].Index], true
}

func (m *Model) filter() {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		m.matches = make([]fuzzy.Match, len(m.items))
		for i, it := range m.items {
			m.matches[i] = fuzzy.Match{Str: it.Label, Index: i}
		}
	} else {
		m.matches = fuzzy.FindFrom(query, itemSource(m.items))
	}
	if m.cursor >= len(m.matches) {
		m.cursor = len(m.matches) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update handles navigation and typing.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc", "ctrl+c":
			id := m.id
			return m, func() tea.Msg { return CancelledMsg{ID: id} }
		case "enter":
			item, ok := m.Selected()
			if !ok {
				return m, nil
			}
			id := m.id
			return m, func() tea.Msg { return ChosenMsg{ID: id, Item: item} }
		case "up", "ctrl+p", "shift+tab":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n", "tab":
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.cursor = 0
		m.filter()
	}
	return m, cmd
}

// View renders the input and the visible window of matches.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if len(m.matches) == 0 {
		b.WriteString(mutedStyle.Render("  " + m.empty))
		return b.String()
	}

	start := 0
	if m.cursor >= m.rows {
		start = m.cursor - m.rows + 1
	}
	end := min(start+m.rows, len(m.matches))
	for i := start; i < end; i++ {
		label := highlight(m.matches[i], i == m.cursor)
		label = ansi.Truncate(label, m.width-4, "…")
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> ") + label)
		} else {
			b.WriteString("  " + label)
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func highlight(match fuzzy.Match, selected bool) string {
	base := itemStyle
	if selected {
		base = selectedStyle
	}
	if len(match.MatchedIndexes) == 0 {
		return base.Render(match.Str)
	}
	hit := make(map[int]bool, len(match.MatchedIndexes))
	for _, i := range match.MatchedIndexes {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range match.Str {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}
