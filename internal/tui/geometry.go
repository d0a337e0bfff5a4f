package tui

import (
	"github.com/gabrielfornes/teagrid/internal/hover"
	"github.com/gabrielfornes/teagrid/internal/layout"
)

// One terminal column is unitsPerCol layout units wide and one row is
// unitsPerRow units tall, so hover geometry works in roughly square units.
const (
	unitsPerCol = 8
	unitsPerRow = 16

	gutterWidth = 3 // row delete buttons
	addColWidth = 3
	cellGapX    = 1
	minCellW    = 6
	minCellH    = 4
)

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// units converts r to hover layout units.
func (r rect) units() hover.Rect {
	return hover.Rect{
		X: float64(r.x * unitsPerCol),
		Y: float64(r.y * unitsPerRow),
		W: float64(r.w * unitsPerCol),
		H: float64(r.h * unitsPerRow),
	}
}

// pointerUnits maps a terminal cell to the centre of that cell in layout
// units.
func pointerUnits(x, y int) hover.Point {
	return hover.Point{
		X: float64(x*unitsPerCol + unitsPerCol/2),
		Y: float64(y*unitsPerRow + unitsPerRow/2),
	}
}

// unitsToCell maps a layout-unit point back to a terminal cell.
func unitsToCell(p hover.Point) (int, int) {
	return int(p.X) / unitsPerCol, int(p.Y) / unitsPerRow
}

// geometry is where everything sits on screen for one terminal size and
// grid shape. All rects are absolute terminal coordinates.
type geometry struct {
	rows, cols int

	titleY   int
	buttonsY int
	statusY  int
	helpY    int
	contentW int
	originX  int

	grid      rect
	cells     []rect // row-major
	rowBands  []rect
	colBands  []rect
	rowDelete []rect
	colDelete []rect
	addRow    rect
	addCol    rect
}

func computeGeometry(width, height, rows, cols int) geometry {
	padX, padY := appStyle.GetPaddingLeft(), appStyle.GetPaddingTop()
	rows, cols = max(rows, 1), max(cols, 1)

	g := geometry{rows: rows, cols: cols, originX: padX}
	g.titleY = padY
	g.buttonsY = padY + 1
	g.helpY = height - appStyle.GetPaddingBottom() - 1
	g.statusY = g.helpY - 1
	addRowY := g.statusY - 1
	g.contentW = max(width-padX-appStyle.GetPaddingRight(), 1)

	gridX := padX + gutterWidth
	gridY := g.buttonsY + 1
	gridW := max(width-appStyle.GetPaddingRight()-addColWidth-gridX, cols*minCellW+(cols-1)*cellGapX)
	gridH := max(addRowY-gridY, rows*minCellH)
	g.grid = rect{x: gridX, y: gridY, w: gridW, h: gridH}

	colW := split(gridW-(cols-1)*cellGapX, cols)
	rowH := split(gridH, rows)
	colX := make([]int, cols)
	x := gridX
	for c := 0; c < cols; c++ {
		colX[c] = x
		x += colW[c] + cellGapX
	}
	rowY := make([]int, rows)
	y := gridY
	for r := 0; r < rows; r++ {
		rowY[r] = y
		y += rowH[r]
	}

	g.cells = make([]rect, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.cells = append(g.cells, rect{x: colX[c], y: rowY[r], w: colW[c], h: rowH[r]})
		}
	}

	right := gridX + gridW + addColWidth
	bottom := gridY + gridH
	for r := 0; r < rows; r++ {
		g.rowBands = append(g.rowBands, rect{x: padX, y: rowY[r], w: right - padX, h: rowH[r]})
		g.rowDelete = append(g.rowDelete, rect{x: padX, y: rowY[r] + rowH[r]/2, w: gutterWidth, h: 1})
	}
	for c := 0; c < cols; c++ {
		g.colBands = append(g.colBands, rect{x: colX[c], y: g.buttonsY, w: colW[c], h: bottom - g.buttonsY})
		g.colDelete = append(g.colDelete, rect{x: colX[c] + colW[c]/2 - 1, y: g.buttonsY, w: 3, h: 1})
	}
	g.addCol = rect{x: gridX + gridW, y: gridY + gridH/2, w: addColWidth, h: 1}
	g.addRow = rect{x: gridX + gridW/2 - 1, y: bottom, w: 3, h: 1}
	return g
}

// split divides total into n parts, giving the remainder to the first
// parts.
func split(total, n int) []int {
	out := make([]int, n)
	base, extra := total/n, total%n
	for i := range out {
		out[i] = base
		if i < extra {
			out[i]++
		}
	}
	return out
}

func (g geometry) cell(k layout.Key) (rect, bool) {
	if k.Row < 0 || k.Row >= g.rows || k.Col < 0 || k.Col >= g.cols {
		return rect{}, false
	}
	return g.cells[k.Row*g.cols+k.Col], true
}

// contentSize is the area inside a cell box below its header line.
func (g geometry) contentSize(k layout.Key) (int, int) {
	r, ok := g.cell(k)
	if !ok {
		return 1, 1
	}
	return max(r.w-2, 1), max(r.h-3, 1)
}

func (g geometry) cellAt(x, y int) (layout.Key, bool) {
	for i, r := range g.cells {
		if r.contains(x, y) {
			return layout.Key{Row: i / g.cols, Col: i % g.cols}, true
		}
	}
	return layout.Key{}, false
}

// zonesAt returns the row and column hover zones under (x, y).
func (g geometry) zonesAt(x, y int) map[hover.Zone]bool {
	zones := make(map[hover.Zone]bool, 2)
	for i, r := range g.rowBands {
		if r.contains(x, y) {
			zones[hover.Zone{Axis: hover.Row, Index: i}] = true
		}
	}
	for i, r := range g.colBands {
		if r.contains(x, y) {
			zones[hover.Zone{Axis: hover.Col, Index: i}] = true
		}
	}
	return zones
}

// boxes returns every cell in layout units for gap detection.
func (g geometry) boxes(hasNote func(layout.Key) bool) []hover.Box {
	out := make([]hover.Box, 0, len(g.cells))
	for i, r := range g.cells {
		k := layout.Key{Row: i / g.cols, Col: i % g.cols}
		out = append(out, hover.Box{Key: k, Rect: r.units(), HasNote: hasNote(k)})
	}
	return out
}

// swapButton is where the swap affordance for gap is drawn and clicked.
func swapButton(gap hover.Gap) rect {
	x, y := unitsToCell(gap.Center)
	return rect{x: x - 1, y: y, w: 3, h: 1}
}
