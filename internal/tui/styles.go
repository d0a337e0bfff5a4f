package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/cellbuf"
	"github.com/muesli/reflow/truncate"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#E0A458") // warm tea gold
	colorSecondary = lipgloss.Color("#A8D8B9") // soft green
	colorMuted     = lipgloss.Color("#666666")
	colorHighlight = lipgloss.Color("#FFFBE6") // cream
	colorDanger    = lipgloss.Color("#E06C75")
	colorBorder    = lipgloss.Color("#444444")
	colorMenuBg    = lipgloss.Color("#2A2A2A")
)

// Layout styles
var (
	// App-level wrapper
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	// Title bar
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	// Cell boxes. Width/Height on these include the border.
	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	cursorCellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSecondary)

	activeCellStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorPrimary)
)

// Cell content
var (
	cellTitleStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	editingBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#1E1E1E")).
				Background(colorPrimary).
				Padding(0, 1)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Italic(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// Affordances
var (
	deleteButtonStyle = lipgloss.NewStyle().
				Foreground(colorDanger).
				Bold(true)

	addButtonStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	swapButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E1E")).
			Background(colorSecondary).
			Bold(true)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Background(colorMenuBg).
			Padding(0, 1)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC")).
			Background(colorMenuBg)

	menuSelectedStyle = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Background(colorMenuBg).
				Bold(true)

	pickerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)

// Help bar
var (
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// Status messages
var (
	successStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger)

	undoButtonStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Underline(true)
)

// helpEntry renders a single "[key] description" help item.
func helpEntry(key, desc string) string {
	return helpKeyStyle.Render("["+key+"]") + " " + helpDescStyle.Render(desc)
}

// helpLine renders a localized "key desc • key desc" hint as help entries.
func helpLine(hint string) string {
	parts := strings.Split(hint, " • ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		k, d, ok := strings.Cut(strings.TrimSpace(p), " ")
		if !ok {
			out = append(out, helpDescStyle.Render(p))
			continue
		}
		out = append(out, helpEntry(k, d))
	}
	return strings.Join(out, "  ")
}

// Constants for layout
const (
	defaultTerminalWidth  = 80
	defaultTerminalHeight = 24
)

// truncateTitle shortens a plain-text title to width cells.
func truncateTitle(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}

// fitLine pads or cuts a styled line to exactly width cells.
func fitLine(text string, width int) string {
	if width <= 0 {
		return ""
	}
	w := lipgloss.Width(text)
	if w == width {
		return text
	}
	if w < width {
		return text + strings.Repeat(" ", width-w)
	}
	cut := ansi.Truncate(text, width, "")
	return cut + strings.Repeat(" ", max(width-lipgloss.Width(cut), 0))
}

// fitBlock clips text to width×height, padding short lines.
func fitBlock(text string, width, height int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = fitLine(l, width)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// canvas composes styled blocks at absolute positions.
type canvas struct {
	buf           *cellbuf.Buffer
	width, height int
}

func newCanvas(width, height int) *canvas {
	c := &canvas{buf: cellbuf.NewBuffer(width, height), width: width, height: height}
	cellbuf.SetContent(c.buf, fitBlock("", width, height))
	return c
}

// place draws block with its top-left corner at (x, y), clipped to the
// canvas.
func (c *canvas) place(block string, x, y int) {
	w, h := lipgloss.Width(block), lipgloss.Height(block)
	if x < 0 || y < 0 || x >= c.width || y >= c.height || w <= 0 || h <= 0 {
		return
	}
	w = min(w, c.width-x)
	h = min(h, c.height-y)
	cellbuf.SetContentRect(c.buf, fitBlock(block, w, h), cellbuf.Rect(x, y, w, h))
}

func (c *canvas) String() string {
	lines := make([]string, c.height)
	for y := 0; y < c.height; y++ {
		_, line := cellbuf.RenderLine(c.buf, y)
		lines[y] = line
	}
	return strings.Join(lines, "\n")
}
