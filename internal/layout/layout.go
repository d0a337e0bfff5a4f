// Package layout holds the persisted shape of a grid: its dimensions, the
// note bound to each cell, and the schema versions it has been stored under.
package layout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Grid dimension bounds, inclusive.
const (
	MinSize = 1
	MaxSize = 5
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 3

// Mode is the display mode recorded for a cell.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeEdit    Mode = "edit"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModePreview || m == ModeEdit
}

// Cell binds a note to one grid coordinate. An empty NotePath means the
// cell is unassigned; it is stored as null.
type Cell struct {
	Row      int
	Col      int
	NotePath string
	Mode     Mode
}

// Assigned reports whether the cell is bound to a note.
func (c Cell) Assigned() bool {
	return c.NotePath != ""
}

// Key returns the cell's coordinate.
func (c Cell) Key() Key {
	return Key{Row: c.Row, Col: c.Col}
}

type cellJSON struct {
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	NotePath *string `json:"notePath"`
	Mode     Mode    `json:"mode"`
}

// MarshalJSON implements json.Marshaler.
func (c Cell) MarshalJSON() ([]byte, error) {
	out := cellJSON{Row: c.Row, Col: c.Col, Mode: c.Mode}
	if c.NotePath != "" {
		path := c.NotePath
		out.NotePath = &path
	}
	return json.Marshal(out)
}

// Layout is a rows×cols grid with a sparse list of cells.
type Layout struct {
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Cells []Cell `json:"cells"`
}

// Data is the top-level persisted envelope.
type Data struct {
	Version int    `json:"version"`
	Layout  Layout `json:"layout"`
}

// Key identifies a cell by coordinate.
type Key struct {
	Row int
	Col int
}

// String renders the key as "row-col".
func (k Key) String() string {
	return strconv.Itoa(k.Row) + "-" + strconv.Itoa(k.Col)
}

// ParseKey parses the "row-col" form produced by Key.String.
func ParseKey(s string) (Key, error) {
	r, c, ok := strings.Cut(s, "-")
	if !ok {
		return Key{}, fmt.Errorf("layout: malformed cell key %q", s)
	}
	row, err := strconv.Atoi(r)
	if err != nil {
		return Key{}, fmt.Errorf("layout: malformed cell key %q: %w", s, err)
	}
	col, err := strconv.Atoi(c)
	if err != nil {
		return Key{}, fmt.Errorf("layout: malformed cell key %q: %w", s, err)
	}
	return Key{Row: row, Col: col}, nil
}

// Default returns a fresh 2×2 grid of empty preview cells.
func Default() Data {
	return Data{
		Version: CurrentVersion,
		Layout: Layout{
			Rows: 2,
			Cols: 2,
			Cells: []Cell{
				{Row: 0, Col: 0, Mode: ModePreview},
				{Row: 0, Col: 1, Mode: ModePreview},
				{Row: 1, Col: 0, Mode: ModePreview},
				{Row: 1, Col: 1, Mode: ModePreview},
			},
		},
	}
}

// Clone returns a deep copy of d.
func Clone(d Data) Data {
	out := d
	out.Layout.Cells = append([]Cell(nil), d.Layout.Cells...)
	if out.Layout.Cells == nil {
		out.Layout.Cells = []Cell{}
	}
	return out
}

// Contains reports whether (row, col) lies inside the grid.
func (l Layout) Contains(row, col int) bool {
	return row >= 0 && row < l.Rows && col >= 0 && col < l.Cols
}

// Index returns the position of the cell at (row, col) in Cells, or -1.
func (l Layout) Index(row, col int) int {
	for i, c := range l.Cells {
		if c.Row == row && c.Col == col {
			return i
		}
	}
	return -1
}

// At returns the cell stored at (row, col).
func (l Layout) At(row, col int) (Cell, bool) {
	if i := l.Index(row, col); i >= 0 {
		return l.Cells[i], true
	}
	return Cell{}, false
}

// Put replaces the cell at c's coordinate, or appends it.
func (l *Layout) Put(c Cell) {
	if i := l.Index(c.Row, c.Col); i >= 0 {
		l.Cells[i] = c
		return
	}
	l.Cells = append(l.Cells, c)
}

// Decode parses a stored blob. Anything that is not valid JSON yields the
// default grid; valid JSON goes through Migrate.
func Decode(b []byte) Data {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return Default()
	}
	return Migrate(raw)
}

// Encode renders d in the canonical version-3 shape.
func Encode(d Data) ([]byte, error) {
	d.Version = CurrentVersion
	if d.Layout.Cells == nil {
		d.Layout.Cells = []Cell{}
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not encode layout: %w", err)
	}
	return b, nil
}
