// Package grid owns the live grid state: dimensions, note bindings, the
// active cell and the single-slot undo snapshot for destructive resizes.
package grid

import (
	"log/slog"
	"time"

	"github.com/gabrielfornes/teagrid/internal/layout"
)

// UndoWindow is how long a row or column deletion stays undoable.
const UndoWindow = 5000 * time.Millisecond

// View is the display side of the grid. Render schedules a reconciliation
// pass; the other two release host resources immediately.
type View interface {
	Render()
	DetachEditor()
	DiscardPreviews()
}

// Saver persists the current state. Implementations are expected to
// debounce.
type Saver interface {
	Save(data layout.Data)
}

// NoticeKind names a user-facing notice raised by the controller.
type NoticeKind int

const (
	NoticeRowDeleted NoticeKind = iota
	NoticeColumnDeleted
)

// Notice is a timed message offering undo.
type Notice struct {
	Kind     NoticeKind
	Undoable bool
	TTL      time.Duration
}

// Notifier shows controller notices.
type Notifier interface {
	Notify(n Notice)
}

// Option configures a Controller.
type Option func(*Controller)

// WithView sets the display the controller drives.
func WithView(v View) Option {
	return func(c *Controller) { c.view = v }
}

// WithSaver sets the persistence sink.
func WithSaver(s Saver) Option {
	return func(c *Controller) { c.saver = s }
}

// WithNotifier sets where undo notices go.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

type snapshot struct {
	data  layout.Data
	taken time.Time
}

// Controller mutates grid state. It is not safe for concurrent use; the
// program's update loop is its only caller.
type Controller struct {
	data    layout.Data
	active  *layout.Key
	pending *layout.Key
	undo    *snapshot

	view     View
	saver    Saver
	notifier Notifier
	now      func() time.Time
}

// New creates a controller over a migrated copy of data.
func New(data layout.Data, opts ...Option) *Controller {
	c := &Controller{
		data:     layout.Clone(layout.Migrate(data)),
		view:     nopView{},
		saver:    nopSaver{},
		notifier: nopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Queries ---

// Data returns a deep copy of the current state.
func (c *Controller) Data() layout.Data {
	return layout.Clone(c.data)
}

// Rows returns the row count.
func (c *Controller) Rows() int { return c.data.Layout.Rows }

// Cols returns the column count.
func (c *Controller) Cols() int { return c.data.Layout.Cols }

// Cell returns the stored cell at (row, col).
func (c *Controller) Cell(row, col int) (layout.Cell, bool) {
	return c.data.Layout.At(row, col)
}

// NotePath returns the note bound at (row, col), or "".
func (c *Controller) NotePath(row, col int) string {
	cell, _ := c.data.Layout.At(row, col)
	return cell.NotePath
}

// Active returns the active cell, if any.
func (c *Controller) Active() (layout.Key, bool) {
	if c.active == nil {
		return layout.Key{}, false
	}
	return *c.active, true
}

// PendingFocus returns the cell waiting for editor focus, if any.
func (c *Controller) PendingFocus() (layout.Key, bool) {
	if c.pending == nil {
		return layout.Key{}, false
	}
	return *c.pending, true
}

// HasPath reports whether any cell is bound to path.
func (c *Controller) HasPath(path string) bool {
	for _, cell := range c.data.Layout.Cells {
		if cell.NotePath == path {
			return true
		}
	}
	return false
}

// IsActivePath reports whether path is the note in the active cell.
func (c *Controller) IsActivePath(path string) bool {
	k, ok := c.Active()
	return ok && c.NotePath(k.Row, k.Col) == path
}

// UndoAvailable reports whether an unexpired snapshot exists.
func (c *Controller) UndoAvailable() bool {
	return c.undo != nil && c.now().Sub(c.undo.taken) <= UndoWindow
}

// --- Resizing ---

// AddRow appends an empty row at the bottom.
func (c *Controller) AddRow() {
	l := &c.data.Layout
	if l.Rows >= layout.MaxSize {
		return
	}
	for col := 0; col < l.Cols; col++ {
		l.Put(layout.Cell{Row: l.Rows, Col: col, Mode: layout.ModePreview})
	}
	l.Rows++
	c.commit()
}

// AddColumn appends an empty column on the right.
func (c *Controller) AddColumn() {
	l := &c.data.Layout
	if l.Cols >= layout.MaxSize {
		return
	}
	for row := 0; row < l.Rows; row++ {
		l.Put(layout.Cell{Row: row, Col: l.Cols, Mode: layout.ModePreview})
	}
	l.Cols++
	c.commit()
}

// AddRowTop inserts an empty row above the first one.
func (c *Controller) AddRowTop() {
	l := &c.data.Layout
	if l.Rows >= layout.MaxSize {
		return
	}
	for i := range l.Cells {
		l.Cells[i].Row++
	}
	for col := 0; col < l.Cols; col++ {
		l.Cells = append(l.Cells, layout.Cell{Row: 0, Col: col, Mode: layout.ModePreview})
	}
	l.Rows++
	c.shift(func(k *layout.Key) { k.Row++ })
	c.commit()
}

// AddColumnLeft inserts an empty column before the first one.
func (c *Controller) AddColumnLeft() {
	l := &c.data.Layout
	if l.Cols >= layout.MaxSize {
		return
	}
	for i := range l.Cells {
		l.Cells[i].Col++
	}
	for row := 0; row < l.Rows; row++ {
		l.Cells = append(l.Cells, layout.Cell{Row: row, Col: 0, Mode: layout.ModePreview})
	}
	l.Cols++
	c.shift(func(k *layout.Key) { k.Col++ })
	c.commit()
}

// RemoveRowAt deletes row i, shifting the rows below it up. The previous
// state stays undoable for UndoWindow.
func (c *Controller) RemoveRowAt(i int) {
	l := &c.data.Layout
	if l.Rows <= layout.MinSize || i < 0 || i >= l.Rows {
		return
	}
	c.SaveUndoState()

	kept := l.Cells[:0]
	for _, cell := range l.Cells {
		switch {
		case cell.Row == i:
			continue
		case cell.Row > i:
			cell.Row--
		}
		kept = append(kept, cell)
	}
	l.Cells = kept
	l.Rows--

	c.remap(func(k layout.Key) (layout.Key, bool) {
		switch {
		case k.Row == i:
			return k, false
		case k.Row > i:
			k.Row--
		}
		return k, true
	})

	c.commit()
	c.notifier.Notify(Notice{Kind: NoticeRowDeleted, Undoable: true, TTL: UndoWindow})
}

// RemoveColumnAt deletes column i, shifting the columns to its right left.
func (c *Controller) RemoveColumnAt(i int) {
	l := &c.data.Layout
	if l.Cols <= layout.MinSize || i < 0 || i >= l.Cols {
		return
	}
	c.SaveUndoState()

	kept := l.Cells[:0]
	for _, cell := range l.Cells {
		switch {
		case cell.Col == i:
			continue
		case cell.Col > i:
			cell.Col--
		}
		kept = append(kept, cell)
	}
	l.Cells = kept
	l.Cols--

	c.remap(func(k layout.Key) (layout.Key, bool) {
		switch {
		case k.Col == i:
			return k, false
		case k.Col > i:
			k.Col--
		}
		return k, true
	})

	c.commit()
	c.notifier.Notify(Notice{Kind: NoticeColumnDeleted, Undoable: true, TTL: UndoWindow})
}

// RemoveRow deletes the last row.
func (c *Controller) RemoveRow() {
	c.RemoveRowAt(c.data.Layout.Rows - 1)
}

// RemoveColumn deletes the last column.
func (c *Controller) RemoveColumn() {
	c.RemoveColumnAt(c.data.Layout.Cols - 1)
}

// --- Cells ---

// SetCell binds path (or nothing, when path is "") at (row, col).
// Coordinates outside the grid are ignored.
func (c *Controller) SetCell(row, col int, path string, mode layout.Mode) {
	if !c.setCell(row, col, path, mode) {
		return
	}
	c.commit()
}

func (c *Controller) setCell(row, col int, path string, mode layout.Mode) bool {
	l := &c.data.Layout
	if !l.Contains(row, col) {
		return false
	}
	if !mode.Valid() {
		mode = layout.ModePreview
	}
	l.Put(layout.Cell{Row: row, Col: col, NotePath: path, Mode: mode})
	if path == "" {
		c.clearActiveAt(layout.Key{Row: row, Col: col})
	}
	return true
}

// AssignNote binds path at (row, col) in preview mode.
func (c *Controller) AssignNote(row, col int, path string) {
	c.SetCell(row, col, path, layout.ModePreview)
}

// ClearCell unbinds the note at (row, col).
func (c *Controller) ClearCell(row, col int) {
	c.SetCell(row, col, "", layout.ModePreview)
}

// SwapCells exchanges the notes and modes of two bound cells; it does
// nothing unless both have a note. The active cell follows its note. The
// change is persisted and rendered once.
func (c *Controller) SwapCells(r1, c1, r2, c2 int) {
	l := &c.data.Layout
	if !l.Contains(r1, c1) || !l.Contains(r2, c2) || (r1 == r2 && c1 == c2) {
		return
	}
	a, _ := l.At(r1, c1)
	b, _ := l.At(r2, c2)
	if !a.Assigned() || !b.Assigned() {
		return
	}
	if !a.Mode.Valid() {
		a.Mode = layout.ModePreview
	}
	if !b.Mode.Valid() {
		b.Mode = layout.ModePreview
	}
	l.Put(layout.Cell{Row: r1, Col: c1, NotePath: b.NotePath, Mode: b.Mode})
	l.Put(layout.Cell{Row: r2, Col: c2, NotePath: a.NotePath, Mode: a.Mode})

	ka, kb := layout.Key{Row: r1, Col: c1}, layout.Key{Row: r2, Col: c2}
	c.remap(func(k layout.Key) (layout.Key, bool) {
		switch k {
		case ka:
			return kb, true
		case kb:
			return ka, true
		}
		return k, true
	})
	c.commit()
}

// ActivateCell makes (row, col) the edited cell and requests editor focus.
// Cells without a note cannot be activated.
func (c *Controller) ActivateCell(row, col int) {
	cell, ok := c.data.Layout.At(row, col)
	if !ok || !cell.Assigned() {
		return
	}
	k := layout.Key{Row: row, Col: col}
	if c.active != nil && *c.active == k {
		return
	}
	c.active = &k
	p := k
	c.pending = &p
	c.view.Render()
}

// ClearActive drops the active cell and any pending focus without
// rendering.
func (c *Controller) ClearActive() {
	c.active = nil
	c.pending = nil
}

// Deactivate leaves edit mode and renders.
func (c *Controller) Deactivate() {
	if c.active == nil {
		return
	}
	c.ClearActive()
	c.view.DetachEditor()
	c.view.Render()
}

// ValidateActive clears the active cell when it no longer names a bound
// cell inside the grid. It reports whether a cell is still active.
func (c *Controller) ValidateActive() bool {
	if c.active == nil {
		c.pending = nil
		return false
	}
	cell, ok := c.data.Layout.At(c.active.Row, c.active.Col)
	if !ok || !cell.Assigned() {
		c.ClearActive()
		return false
	}
	return true
}

// ConsumePendingFocus reports whether k was waiting for focus and clears
// the request.
func (c *Controller) ConsumePendingFocus(k layout.Key) bool {
	if c.pending == nil || *c.pending != k {
		return false
	}
	c.pending = nil
	return true
}

// Reset replaces the grid with the default 2×2 layout.
func (c *Controller) Reset() {
	c.data = layout.Default()
	c.ClearActive()
	c.undo = nil
	c.view.DetachEditor()
	c.view.DiscardPreviews()
	c.commit()
}

// --- Undo ---

// SaveUndoState captures the current state, replacing any older snapshot.
func (c *Controller) SaveUndoState() {
	c.undo = &snapshot{data: layout.Clone(c.data), taken: c.now()}
}

// Undo restores the snapshot if it is younger than UndoWindow. The
// snapshot is consumed either way.
func (c *Controller) Undo() bool {
	s := c.undo
	c.undo = nil
	if s == nil {
		return false
	}
	if c.now().Sub(s.taken) > UndoWindow {
		slog.Debug("grid: undo snapshot expired", "age", c.now().Sub(s.taken))
		return false
	}
	c.data = s.data
	c.ClearActive()
	c.view.DetachEditor()
	c.commit()
	return true
}

// --- Document events ---

// ForgetPath unbinds every cell showing path. It reports whether anything
// changed.
func (c *Controller) ForgetPath(path string) bool {
	changed := false
	for _, cell := range c.data.Layout.Cells {
		if cell.NotePath == path {
			c.setCell(cell.Row, cell.Col, "", cell.Mode)
			changed = true
		}
	}
	if changed {
		c.commit()
	}
	return changed
}

// RenamePath rebinds cells from oldPath to newPath.
func (c *Controller) RenamePath(oldPath, newPath string) bool {
	changed := false
	for i, cell := range c.data.Layout.Cells {
		if cell.NotePath == oldPath {
			c.data.Layout.Cells[i].NotePath = newPath
			changed = true
		}
	}
	if changed {
		c.commit()
	}
	return changed
}

// --- Helpers ---

func (c *Controller) commit() {
	c.saver.Save(layout.Clone(c.data))
	c.view.Render()
}

func (c *Controller) shift(fn func(*layout.Key)) {
	if c.active != nil {
		fn(c.active)
	}
	if c.pending != nil {
		fn(c.pending)
	}
}

// remap rewrites the active and pending keys; a false result clears them.
func (c *Controller) remap(fn func(layout.Key) (layout.Key, bool)) {
	if c.active != nil {
		k, ok := fn(*c.active)
		if !ok {
			c.active = nil
			c.view.DetachEditor()
		} else {
			c.active = &k
		}
	}
	if c.pending != nil {
		k, ok := fn(*c.pending)
		if !ok {
			c.pending = nil
		} else {
			c.pending = &k
		}
	}
}

func (c *Controller) clearActiveAt(k layout.Key) {
	if c.active != nil && *c.active == k {
		c.active = nil
		c.view.DetachEditor()
	}
	if c.pending != nil && *c.pending == k {
		c.pending = nil
	}
}

type nopView struct{}

func (nopView) Render()          {}
func (nopView) DetachEditor()    {}
func (nopView) DiscardPreviews() {}

type nopSaver struct{}

func (nopSaver) Save(layout.Data) {}

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
