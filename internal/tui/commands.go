package tui

import (
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gabrielfornes/teagrid/internal/i18n"
	"github.com/gabrielfornes/teagrid/internal/layout"
	"github.com/gabrielfornes/teagrid/internal/picker"
)

// --- Context menu ---

type menuAction int

const (
	actionChangeNote menuAction = iota
	actionClear
	actionOpenExternal
	actionSelectNote
)

type menuItem struct {
	label  string
	action menuAction
}

type menu struct {
	key    layout.Key
	items  []menuItem
	cursor int
	x, y   int
}

func (m *Model) openMenu(k layout.Key, x, y int) {
	var items []menuItem
	if m.hasNote(k) {
		items = []menuItem{
			{m.tr.T(i18n.MenuReplaceNote), actionChangeNote},
			{m.tr.T(i18n.MenuClear), actionClear},
			{m.tr.T(i18n.MenuOpenExternal), actionOpenExternal},
		}
	} else {
		items = []menuItem{{m.tr.T(i18n.MenuSelectNote), actionSelectNote}}
	}
	m.menu = menu{key: k, items: items, x: x, y: y}
	m.overlay = overlayMenu
}

func (m Model) menuView() string {
	lines := make([]string, len(m.menu.items))
	for i, it := range m.menu.items {
		if i == m.menu.cursor {
			lines[i] = menuSelectedStyle.Render("> " + it.label)
		} else {
			lines[i] = menuItemStyle.Render("  " + it.label)
		}
	}
	return menuStyle.Render(strings.Join(lines, "\n"))
}

// menuRect is where the menu is drawn, kept on screen.
func (m Model) menuRect() rect {
	v := m.menuView()
	w, h := lipgloss.Width(v), lipgloss.Height(v)
	x := max(min(m.menu.x, m.width-w), 0)
	y := max(min(m.menu.y, m.height-h), 0)
	return rect{x: x, y: y, w: w, h: h}
}

func (m Model) updateMenu(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "m":
		m.overlay = overlayNone
	case "up", "k":
		m.menu.cursor = max(m.menu.cursor-1, 0)
	case "down", "j":
		m.menu.cursor = min(m.menu.cursor+1, len(m.menu.items)-1)
	case "enter":
		return m.runMenuItem(m.menu.cursor)
	}
	return m, nil
}

func (m Model) clickMenu(x, y int) (Model, tea.Cmd) {
	r := m.menuRect()
	if !r.contains(x, y) {
		m.overlay = overlayNone
		return m, nil
	}
	// Border and the item lines inside it.
	i := y - r.y - 1
	if i < 0 || i >= len(m.menu.items) {
		return m, nil
	}
	return m.runMenuItem(i)
}

func (m Model) runMenuItem(i int) (Model, tea.Cmd) {
	m.overlay = overlayNone
	if i < 0 || i >= len(m.menu.items) {
		return m, nil
	}
	k := m.menu.key
	switch m.menu.items[i].action {
	case actionChangeNote, actionSelectNote:
		return m, m.listNotes(k)
	case actionClear:
		m.ctrl.ClearCell(k.Row, k.Col)
	case actionOpenExternal:
		return m, m.openExternal(k)
	}
	return m, nil
}

// --- External editor ---

type externalEditDoneMsg struct {
	path string
	err  error
}

func editorCommand() string {
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return "vi"
}

// openExternal suspends the program and runs $EDITOR on the cell's note.
func (m Model) openExternal(k layout.Key) tea.Cmd {
	p := m.ctrl.NotePath(k.Row, k.Col)
	if p == "" {
		return nil
	}
	if m.editor.Target() == p {
		_ = m.editor.Save()
	}
	full, err := m.vault.Abs(p)
	if err != nil {
		return func() tea.Msg { return externalEditDoneMsg{path: p, err: err} }
	}
	fields := strings.Fields(editorCommand())
	c := exec.Command(fields[0], append(fields[1:], full)...) //nolint:gosec
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return externalEditDoneMsg{path: p, err: err}
	})
}

// --- Command palette ---

type gridCreatedMsg struct {
	name string
	err  error
}

type command struct {
	id      string
	label   i18n.Key
	enabled func(m Model) bool
	run     func(m Model) (Model, tea.Cmd)
}

func always(Model) bool { return true }

func (m Model) commands() []command {
	return []command{
		{"create-grid", i18n.CommandCreateNewGrid, func(m Model) bool { return m.grids != nil }, func(m Model) (Model, tea.Cmd) {
			grids, base := m.grids, m.tr.T(i18n.GridBaseName)
			return m, func() tea.Msg {
				name, err := grids.CreateUnique(base)
				return gridCreatedMsg{name: name, err: err}
			}
		}},
		{"add-row-top", i18n.CommandAddRowAbove, canGrow(dimRows), func(m Model) (Model, tea.Cmd) {
			m.ctrl.AddRowTop()
			return m, nil
		}},
		{"add-row-bottom", i18n.CommandAddRowBelow, canGrow(dimRows), func(m Model) (Model, tea.Cmd) {
			m.ctrl.AddRow()
			return m, nil
		}},
		{"add-column-left", i18n.CommandAddColumnLeft, canGrow(dimCols), func(m Model) (Model, tea.Cmd) {
			m.ctrl.AddColumnLeft()
			return m, nil
		}},
		{"add-column-right", i18n.CommandAddColumnRight, canGrow(dimCols), func(m Model) (Model, tea.Cmd) {
			m.ctrl.AddColumn()
			return m, nil
		}},
		{"remove-row", i18n.CommandRemoveRow, canShrink(dimRows), func(m Model) (Model, tea.Cmd) {
			m.ctrl.RemoveRow()
			return m, nil
		}},
		{"remove-column", i18n.CommandRemoveColumn, canShrink(dimCols), func(m Model) (Model, tea.Cmd) {
			m.ctrl.RemoveColumn()
			return m, nil
		}},
		{"select-note", i18n.CommandSelectNote, func(m Model) bool {
			_, ok := m.ctrl.Active()
			return ok
		}, func(m Model) (Model, tea.Cmd) {
			k, ok := m.ctrl.Active()
			if !ok {
				m.setStatus(m.tr.T(i18n.NoticeNoActiveCell), true)
				return m, nil
			}
			return m, m.listNotes(k)
		}},
		{"clear-grid", i18n.CommandClearGrid, always, func(m Model) (Model, tea.Cmd) {
			m.ctrl.Reset()
			return m, nil
		}},
		{"undo", i18n.CommandUndo, func(m Model) bool { return m.ctrl.UndoAvailable() }, func(m Model) (Model, tea.Cmd) {
			m.undo()
			return m, nil
		}},
		{"quit", i18n.CommandQuit, always, func(m Model) (Model, tea.Cmd) {
			return m, tea.Quit
		}},
	}
}

type dimension int

const (
	dimRows dimension = iota
	dimCols
)

func (m Model) size(d dimension) int {
	if d == dimRows {
		return m.ctrl.Rows()
	}
	return m.ctrl.Cols()
}

func canGrow(d dimension) func(Model) bool {
	return func(m Model) bool { return m.size(d) < layout.MaxSize }
}

func canShrink(d dimension) func(Model) bool {
	return func(m Model) bool { return m.size(d) > layout.MinSize }
}

// openPalette lists the commands that are currently enabled.
func (m *Model) openPalette() {
	var items []picker.Item
	for _, c := range m.commands() {
		if c.enabled(*m) {
			items = append(items, picker.Item{Label: m.tr.T(c.label), Value: c.id})
		}
	}
	m.picker = picker.New(pickerPalette, m.tr.T(i18n.CommandPaletteHint), "", items)
	m.overlay = overlayPicker
	m.sizePicker()
}

// runCommand runs a palette command if it is still enabled.
func (m Model) runCommand(id string) (Model, tea.Cmd) {
	for _, c := range m.commands() {
		if c.id != id {
			continue
		}
		if !c.enabled(m) {
			if id == "select-note" {
				m.setStatus(m.tr.T(i18n.NoticeNoActiveCell), true)
			}
			return m, nil
		}
		return c.run(m)
	}
	return m, nil
}
