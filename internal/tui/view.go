package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gabrielfornes/teagrid/internal/hover"
	"github.com/gabrielfornes/teagrid/internal/i18n"
	"github.com/gabrielfornes/teagrid/internal/layout"
	"github.com/gabrielfornes/teagrid/internal/reconcile"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	g := m.geo
	c := newCanvas(m.width, m.height)

	title := titleStyle.Render("▦ "+m.tr.T(i18n.AppName)) + mutedStyle.Render("  "+m.gridName)
	c.place(fitLine(title, g.contentW), g.originX, g.titleY)

	m.viewAffordances(c)

	frame := m.rec.Frame()
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			k := layout.Key{Row: row, Col: col}
			r, _ := g.cell(k)
			cf, ok := frame.At(row, col)
			if !ok {
				cf = reconcile.CellFrame{Key: k, State: reconcile.StateLoading}
			}
			c.place(m.viewCell(cf, r), r.x, r.y)
		}
	}

	if m.gap != nil {
		glyph := " ⇄ "
		if m.gap.Orientation == hover.Horizontal {
			glyph = " ⇅ "
		}
		b := swapButton(*m.gap)
		c.place(swapButtonStyle.Render(glyph), b.x, b.y)
	}

	c.place(m.viewStatus(), g.originX, g.statusY)
	c.place(fitLine(m.viewHelp(), g.contentW), g.originX, g.helpY)

	switch m.overlay {
	case overlayMenu:
		r := m.menuRect()
		c.place(m.menuView(), r.x, r.y)
	case overlayPicker:
		box := pickerStyle.Render(m.picker.View())
		w, h := lipgloss.Width(box), lipgloss.Height(box)
		c.place(box, max((m.width-w)/2, 0), max((m.height-h)/3, 0))
	}

	return c.String()
}

func (m Model) viewAffordances(c *canvas) {
	g := m.geo
	if m.ctrl.Rows() > layout.MinSize {
		for i, r := range g.rowDelete {
			if m.hover.Visible(hover.Zone{Axis: hover.Row, Index: i}) {
				c.place(deleteButtonStyle.Render("[×]"), r.x, r.y)
			}
		}
	}
	if m.ctrl.Cols() > layout.MinSize {
		for i, r := range g.colDelete {
			if m.hover.Visible(hover.Zone{Axis: hover.Col, Index: i}) {
				c.place(deleteButtonStyle.Render("[×]"), r.x, r.y)
			}
		}
	}
	if m.ctrl.Cols() < layout.MaxSize {
		c.place(addButtonStyle.Render("[+]"), g.addCol.x, g.addCol.y)
	}
	if m.ctrl.Rows() < layout.MaxSize {
		c.place(addButtonStyle.Render("[+]"), g.addRow.x, g.addRow.y)
	}
}

// viewCell draws one bordered cell: a header line and the body for its
// state.
func (m Model) viewCell(cf reconcile.CellFrame, r rect) string {
	w, h := max(r.w-2, 1), max(r.h-2, 1)

	style := cellStyle
	switch {
	case cf.Active:
		style = activeCellStyle
	case cf.Key == m.cursor:
		style = cursorCellStyle
	}

	header := ""
	if cf.Path != "" {
		header = cellTitleStyle.Render(truncateTitle(cf.Title, w))
	}
	if cf.State == reconcile.StateEditing {
		badge := editingBadgeStyle.Render(m.tr.T(i18n.CellEditing))
		room := w - lipgloss.Width(badge) - 1
		header = fitLine(cellTitleStyle.Render(truncateTitle(cf.Title, room)), max(room, 0)) + " " + badge
	}

	var body string
	switch cf.State {
	case reconcile.StateEmpty:
		body = placeholderStyle.Render(m.tr.T(i18n.CellEmptyPlaceholder))
	case reconcile.StateNotFound:
		body = errorStyle.Render(m.tr.T(i18n.CellFileNotFound)) + "\n" + mutedStyle.Render(cf.Path)
	case reconcile.StateReadFailed:
		body = errorStyle.Render(m.tr.T(i18n.CellReadFailed))
	case reconcile.StateRenderFailed:
		body = errorStyle.Render(m.tr.T(i18n.CellRenderFailed))
	case reconcile.StatePreview:
		if s, ok := m.host.scope(cf.Key); ok && s.ready {
			body = s.vp.View()
		}
	case reconcile.StateEditing:
		if at, ok := m.editor.Attached(); ok && at == cf.Key && m.editor.Target() == cf.Path {
			body = m.editor.View()
		} else {
			body = mutedStyle.Render(m.tr.T(i18n.CellLoading))
		}
	default:
		body = mutedStyle.Render(m.tr.T(i18n.CellLoading))
	}

	content := fitLine(header, w) + "\n" + fitBlock(body, w, max(h-1, 0))
	return style.Width(w).Height(h).Render(fitBlock(content, w, h))
}

func (m Model) viewStatus() string {
	if m.toast.text != "" {
		s := successStyle.Render(m.toast.text)
		if m.toast.undo {
			s += "  " + undoButtonStyle.Render("["+m.tr.T(i18n.ToastUndo)+"]")
		}
		return s
	}
	if m.statusMsg == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render(m.statusMsg)
	}
	return successStyle.Render(m.statusMsg)
}

func (m Model) viewHelp() string {
	switch {
	case m.overlay == overlayPicker:
		return helpLine(m.tr.T(i18n.HelpPicker))
	case m.editor.Focused():
		return helpLine(m.tr.T(i18n.HelpEditor))
	}
	return helpLine(m.tr.T(i18n.HelpGrid))
}
