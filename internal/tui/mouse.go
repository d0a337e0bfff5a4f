package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gabrielfornes/teagrid/internal/hover"
	"github.com/gabrielfornes/teagrid/internal/i18n"
	"github.com/gabrielfornes/teagrid/internal/layout"
)

const wheelLines = 3

type hideMsg struct {
	hide hover.Hide
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	switch m.overlay {
	case overlayPicker:
		return m, nil
	case overlayMenu:
		if msg.Action == tea.MouseActionPress {
			return m.clickMenu(msg.X, msg.Y)
		}
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionMotion:
		return m.pointerMoved(msg.X, msg.Y)
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scrollAt(msg.X, msg.Y, -wheelLines)
		case tea.MouseButtonWheelDown:
			m.scrollAt(msg.X, msg.Y, wheelLines)
		case tea.MouseButtonLeft:
			return m.click(msg.X, msg.Y)
		case tea.MouseButtonRight:
			if k, ok := m.geo.cellAt(msg.X, msg.Y); ok {
				m.cursor = k
				m.openMenu(k, msg.X, msg.Y)
			}
		}
	}
	return m, nil
}

// pointerMoved updates the delete affordances and the swap target.
func (m Model) pointerMoved(x, y int) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	now := m.geo.zonesAt(x, y)
	for z := range now {
		if !m.zones[z] {
			m.hover.Enter(z)
		}
	}
	for z := range m.zones {
		if now[z] {
			continue
		}
		if h, ok := m.hover.Leave(z); ok {
			cmds = append(cmds, m.after(hover.HideDelay, hideMsg{hide: h}))
		}
	}
	m.zones = now

	if gap, ok := hover.DetectGap(m.geo.boxes(m.hasNote), pointerUnits(x, y), m.spacing); ok {
		m.gap = &gap
	} else {
		m.gap = nil
	}
	return m, tea.Batch(cmds...)
}

func (m Model) hasNote(k layout.Key) bool {
	return m.ctrl.NotePath(k.Row, k.Col) != ""
}

func (m *Model) scrollAt(x, y, lines int) {
	k, ok := m.geo.cellAt(x, y)
	if !ok {
		return
	}
	if s, ok := m.host.scope(k); ok {
		s.scroll(lines)
	}
}

// click resolves a left click, topmost affordance first.
func (m Model) click(x, y int) (Model, tea.Cmd) {
	if m.toast.undo && m.undoButton().contains(x, y) {
		m.undo()
		return m, nil
	}
	if m.gap != nil && swapButton(*m.gap).contains(x, y) {
		g := *m.gap
		m.gap = nil
		m.ctrl.SwapCells(g.A.Row, g.A.Col, g.B.Row, g.B.Col)
		return m, nil
	}
	if m.ctrl.Cols() < layout.MaxSize && m.geo.addCol.contains(x, y) {
		m.ctrl.AddColumn()
		return m, nil
	}
	if m.ctrl.Rows() < layout.MaxSize && m.geo.addRow.contains(x, y) {
		m.ctrl.AddRow()
		return m, nil
	}
	if m.ctrl.Rows() > layout.MinSize {
		for i, r := range m.geo.rowDelete {
			if m.hover.Visible(hover.Zone{Axis: hover.Row, Index: i}) && r.contains(x, y) {
				m.ctrl.RemoveRowAt(i)
				return m, nil
			}
		}
	}
	if m.ctrl.Cols() > layout.MinSize {
		for i, r := range m.geo.colDelete {
			if m.hover.Visible(hover.Zone{Axis: hover.Col, Index: i}) && r.contains(x, y) {
				m.ctrl.RemoveColumnAt(i)
				return m, nil
			}
		}
	}
	if k, ok := m.geo.cellAt(x, y); ok {
		return m.openCell(k)
	}
	return m, nil
}

// undoButton is where the toast's undo label sits on the status line.
func (m Model) undoButton() rect {
	label := "[" + m.tr.T(i18n.ToastUndo) + "]"
	return rect{
		x: m.geo.originX + lipgloss.Width(m.toast.text) + 2,
		y: m.geo.statusY,
		w: lipgloss.Width(label),
		h: 1,
	}
}
