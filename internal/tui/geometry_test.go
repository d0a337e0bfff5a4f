package tui

import (
	"testing"

	"github.com/gabrielfornes/teagrid/internal/hover"
	"github.com/gabrielfornes/teagrid/internal/layout"
)

func TestGeometryCellsTileTheGrid(t *testing.T) {
	for _, tc := range []struct{ w, h, rows, cols int }{
		{100, 40, 2, 2},
		{80, 24, 1, 1},
		{120, 50, 5, 5},
		{101, 33, 3, 4},
	} {
		g := computeGeometry(tc.w, tc.h, tc.rows, tc.cols)
		if len(g.cells) != tc.rows*tc.cols {
			t.Fatalf("%v: %d cells", tc, len(g.cells))
		}
		for i, a := range g.cells {
			if a.w < minCellW || a.h < minCellH {
				t.Errorf("%v: cell %d too small: %+v", tc, i, a)
			}
			for j, b := range g.cells {
				if i != j && overlaps(a, b) {
					t.Errorf("%v: cells %d and %d overlap", tc, i, j)
				}
			}
		}
		last := g.cells[len(g.cells)-1]
		if right := last.x + last.w; right != g.grid.x+g.grid.w {
			t.Errorf("%v: last column ends at %d, grid at %d", tc, right, g.grid.x+g.grid.w)
		}
		if bottom := last.y + last.h; bottom != g.grid.y+g.grid.h {
			t.Errorf("%v: last row ends at %d, grid at %d", tc, bottom, g.grid.y+g.grid.h)
		}
		if g.statusY >= g.helpY || g.addRow.y >= g.statusY {
			t.Errorf("%v: footer out of order: addRow %d status %d help %d", tc, g.addRow.y, g.statusY, g.helpY)
		}
	}
}

func overlaps(a, b rect) bool {
	return a.x < b.x+b.w && b.x < a.x+a.w && a.y < b.y+b.h && b.y < a.y+a.h
}

func TestGeometryLookups(t *testing.T) {
	g := computeGeometry(100, 40, 2, 2)

	if k, ok := g.cellAt(60, 25); !ok || k != (layout.Key{Row: 1, Col: 1}) {
		t.Errorf("cellAt(60, 25) = %v, %v", k, ok)
	}
	if _, ok := g.cellAt(50, 10); ok {
		t.Error("the column gap is not a cell")
	}

	zones := g.zonesAt(60, 10)
	if !zones[hover.Zone{Axis: hover.Row, Index: 0}] || !zones[hover.Zone{Axis: hover.Col, Index: 1}] || len(zones) != 2 {
		t.Errorf("zonesAt(60, 10) = %v", zones)
	}
	// The gutter belongs to the row band so its delete button stays reachable.
	if zones := g.zonesAt(g.rowDelete[1].x, g.rowDelete[1].y); !zones[hover.Zone{Axis: hover.Row, Index: 1}] {
		t.Errorf("row 1 delete button is outside its band: %v", zones)
	}

	if w, h := g.contentSize(layout.Key{}); w != g.cells[0].w-2 || h != g.cells[0].h-3 {
		t.Errorf("contentSize = %d×%d", w, h)
	}
	if _, ok := g.cell(layout.Key{Row: 2}); ok {
		t.Error("cell outside the grid")
	}
}

func TestPointerUnitsRoundTrip(t *testing.T) {
	for _, p := range [][2]int{{0, 0}, {50, 10}, {99, 39}} {
		x, y := unitsToCell(pointerUnits(p[0], p[1]))
		if x != p[0] || y != p[1] {
			t.Errorf("%v round trips to %d,%d", p, x, y)
		}
	}
}

func TestSwapButtonSitsOnGapCentre(t *testing.T) {
	g := computeGeometry(100, 40, 2, 2)
	boxes := g.boxes(func(layout.Key) bool { return true })
	gap, ok := hover.DetectGap(boxes, pointerUnits(50, 10), 8)
	if !ok {
		t.Fatal("no gap at the column divider")
	}
	b := swapButton(gap)
	if !b.contains(50, b.y) {
		t.Errorf("swap button %+v does not cover the divider column", b)
	}
}
