package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gabrielfornes/teagrid/internal/editor"
	"github.com/gabrielfornes/teagrid/internal/grid"
	"github.com/gabrielfornes/teagrid/internal/hover"
	"github.com/gabrielfornes/teagrid/internal/i18n"
	"github.com/gabrielfornes/teagrid/internal/layout"
	"github.com/gabrielfornes/teagrid/internal/picker"
	"github.com/gabrielfornes/teagrid/internal/reconcile"
	"github.com/gabrielfornes/teagrid/internal/vault"
)

// Vault is the note store the view reads, edits and lists.
type Vault interface {
	reconcile.Documents
	editor.Writer
	List() ([]vault.Note, error)
	Abs(p string) (string, error)
}

// GridCreator makes new, uniquely named grids.
type GridCreator interface {
	CreateUnique(base string) (string, error)
}

// Options wires a Model.
type Options struct {
	Context     context.Context
	Data        layout.Data
	GridName    string
	Saver       grid.Saver
	Vault       Vault
	Markdown    reconcile.Markdown
	Translator  *i18n.Translator
	Events      <-chan vault.Event
	Grids       GridCreator
	SwapSpacing float64
	// Notice is shown in the status line on start.
	Notice string
}

// overlay is what currently takes keyboard input above the grid.
type overlay int

const (
	overlayNone overlay = iota
	overlayPicker
	overlayMenu
)

const (
	pickerNote    = "note"
	pickerPalette = "palette"
)

// toast is a timed status message, optionally with an undo button. A newer
// toast replaces the older one.
type toast struct {
	seq  uint64
	text string
	undo bool
}

// Model is the root Bubble Tea model for the grid view.
type Model struct {
	tr       *i18n.Translator
	vault    Vault
	grids    GridCreator
	gridName string
	keys     keyMap

	ctrl   *grid.Controller
	rec    *reconcile.Reconciler
	host   *host
	editor *editor.Surface
	hover  *hover.Tracker
	events <-chan vault.Event

	// Terminal dimensions
	width  int
	height int
	geo    geometry

	cursor layout.Key

	// Overlays
	overlay overlay
	picker  picker.Model
	pickFor layout.Key
	menu    menu

	// Pointer state
	zones   map[hover.Zone]bool
	gap     *hover.Gap
	spacing float64

	toast    toast
	toastSeq uint64

	// Status message (shown until the next one)
	statusMsg string
	statusErr bool

	shape [2]int
	after func(time.Duration, tea.Msg) tea.Cmd
}

// NewModel creates the grid view and the controller behind it.
func NewModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tr := opts.Translator
	if tr == nil {
		tr = i18n.New("")
	}

	h := newHost()
	ed := editor.New(opts.Vault, "")
	ed.OnSaved(func(path string, err error) {
		h.saves = append(h.saves, saveResult{path: path, err: err})
	})
	rec := reconcile.New(ctx, reconcile.Config{
		Documents: opts.Vault,
		Markdown:  opts.Markdown,
		Scopes:    h,
		Editor:    ed,
	})
	h.rec = rec

	ctrlOpts := []grid.Option{grid.WithView(h), grid.WithNotifier(h)}
	if opts.Saver != nil {
		ctrlOpts = append(ctrlOpts, grid.WithSaver(opts.Saver))
	}
	ctrl := grid.New(opts.Data, ctrlOpts...)

	m := Model{
		tr:        tr,
		vault:     opts.Vault,
		grids:     opts.Grids,
		gridName:  opts.GridName,
		keys:      defaultKeys(),
		ctrl:      ctrl,
		rec:       rec,
		host:      h,
		editor:    ed,
		hover:     hover.NewTracker(),
		events:    opts.Events,
		width:     defaultTerminalWidth,
		height:    defaultTerminalHeight,
		zones:     make(map[hover.Zone]bool),
		spacing:   opts.SwapSpacing,
		statusMsg: opts.Notice,
		after:     after,
	}
	m.shape = [2]int{ctrl.Rows(), ctrl.Cols()}
	m.geo = computeGeometry(m.width, m.height, ctrl.Rows(), ctrl.Cols())
	return m
}

// Controller exposes the grid state, mainly for tests and shutdown.
func (m Model) Controller() *grid.Controller { return m.ctrl }

// Close saves the editor and releases every preview.
func (m Model) Close() {
	m.rec.Close()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("▦ "+m.tr.T(i18n.AppName)+" · "+m.gridName),
		waitForEvent(m.events),
	)
}

// Update implements tea.Model. Whatever the message changed, the grid is
// re-rendered at most once afterwards.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	cmd = tea.Batch(cmd, m.flush())
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.host.dirty = true
		if m.overlay == overlayPicker {
			m.sizePicker()
		}
		return m, nil

	case tea.FocusMsg:
		// Notes may have changed while we were in the background.
		m.host.dirty = true
		return m, nil

	case jobDoneMsg:
		follow := m.rec.Complete(m.ctrl, msg.res)
		return m, tea.Batch(append(jobCmds(follow), m.editor.Cmd())...)

	case hideMsg:
		m.hover.Expire(msg.hide)
		return m, nil

	case toastExpiredMsg:
		if msg.seq == m.toast.seq {
			m.toast = toast{}
		}
		return m, nil

	case vaultEventMsg:
		m.applyVaultEvent(msg.ev)
		return m, waitForEvent(m.events)

	case notesListedMsg:
		return m.openNotePicker(msg)

	case picker.ChosenMsg:
		return m.choose(msg)

	case picker.CancelledMsg:
		m.overlay = overlayNone
		return m, nil

	case externalEditDoneMsg:
		if msg.err != nil {
			m.setStatus(m.tr.T(i18n.NoticeExternalEdit, "err", msg.err), true)
		}
		if m.editor.Target() == msg.path {
			m.editor.Invalidate()
		}
		m.host.dirty = true
		return m, nil

	case ErrorMsg:
		m.setStatus(msg.Err.Error(), true)
		return m, nil

	case gridCreatedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else {
			m.setStatus(m.tr.T(i18n.NoticeGridCreated, "name", msg.name), false)
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blinks and other component messages.
	if m.overlay == overlayPicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, m.editor.Update(msg)
}

// flush turns what the last message did into output: a render pass when
// the grid changed, toasts for controller notices, and save results.
func (m *Model) flush() tea.Cmd {
	var cmds []tea.Cmd

	if shape := [2]int{m.ctrl.Rows(), m.ctrl.Cols()}; shape != m.shape {
		m.shape = shape
		m.hover.Reset()
		clear(m.zones)
		m.gap = nil
	}
	m.cursor.Row = min(m.cursor.Row, m.ctrl.Rows()-1)
	m.cursor.Col = min(m.cursor.Col, m.ctrl.Cols()-1)
	m.geo = computeGeometry(m.width, m.height, m.ctrl.Rows(), m.ctrl.Cols())

	if m.host.dirty {
		m.host.dirty = false
		cmds = append(cmds, jobCmds(m.rec.Render(m.ctrl, m.geo.contentSize))...)
		cmds = append(cmds, m.editor.Cmd())
	}

	for _, n := range m.host.notices {
		cmds = append(cmds, m.showToast(n))
	}
	m.host.notices = m.host.notices[:0]

	for _, s := range m.host.saves {
		if s.err != nil {
			m.setStatus(s.err.Error(), true)
		} else {
			m.setStatus(m.tr.T(i18n.NoticeSaved, "path", s.path), false)
		}
	}
	m.host.saves = m.host.saves[:0]

	return tea.Batch(cmds...)
}

// ErrorMsg reports a failure from outside the update loop, such as a
// background save, in the status line.
type ErrorMsg struct {
	Err error
}

type toastExpiredMsg struct {
	seq uint64
}

func (m *Model) showToast(n grid.Notice) tea.Cmd {
	text := m.tr.T(i18n.ToastRowDeleted)
	if n.Kind == grid.NoticeColumnDeleted {
		text = m.tr.T(i18n.ToastColumnDeleted)
	}
	m.toastSeq++
	m.toast = toast{seq: m.toastSeq, text: text, undo: n.Undoable}
	return m.after(n.TTL, toastExpiredMsg{seq: m.toastSeq})
}

func (m *Model) setStatus(text string, isErr bool) {
	m.statusMsg = text
	m.statusErr = isErr
}

func (m *Model) undo() {
	if m.ctrl.Undo() {
		m.toast = toast{}
	}
}

// --- Vault events ---

func (m *Model) applyVaultEvent(ev vault.Event) {
	switch ev.Op {
	case vault.Deleted:
		m.ctrl.ForgetPath(ev.Path)
	case vault.Renamed:
		m.editor.Rename(ev.OldPath, ev.Path)
		if !m.ctrl.RenamePath(ev.OldPath, ev.Path) {
			// The new name may be bound to a cell that showed it as missing.
			m.host.dirty = m.host.dirty || m.ctrl.HasPath(ev.Path)
		}
	case vault.Modified:
		// The note being edited is the source of its own changes.
		if m.ctrl.HasPath(ev.Path) && !m.ctrl.IsActivePath(ev.Path) {
			m.host.dirty = true
		}
	case vault.Created:
		if m.ctrl.HasPath(ev.Path) {
			m.host.dirty = true
		}
	}
}

// --- Notes picker ---

type notesListedMsg struct {
	key   layout.Key
	notes []vault.Note
	err   error
}

func (m Model) listNotes(k layout.Key) tea.Cmd {
	v := m.vault
	return func() tea.Msg {
		notes, err := v.List()
		return notesListedMsg{key: k, notes: notes, err: err}
	}
}

func (m Model) openNotePicker(msg notesListedMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatus(msg.err.Error(), true)
		return m, nil
	}
	items := make([]picker.Item, 0, len(msg.notes))
	for _, n := range msg.notes {
		items = append(items, picker.Item{Label: n.Path, Value: n.Path})
	}
	m.pickFor = msg.key
	m.picker = picker.New(pickerNote, m.tr.T(i18n.PickerPlaceholder), m.tr.T(i18n.PickerEmpty), items)
	m.overlay = overlayPicker
	m.sizePicker()
	return m, nil
}

func (m *Model) sizePicker() {
	m.picker.SetSize(min(m.width-8, 60), max(min(m.height-10, 12), 3))
}

func (m Model) choose(msg picker.ChosenMsg) (Model, tea.Cmd) {
	m.overlay = overlayNone
	switch msg.ID {
	case pickerNote:
		m.ctrl.AssignNote(m.pickFor.Row, m.pickFor.Col, msg.Item.Value)
		return m, nil
	case pickerPalette:
		return m.runCommand(msg.Item.Value)
	}
	return m, nil
}

// --- Keys ---

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.overlay {
	case overlayPicker:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	case overlayMenu:
		return m.updateMenu(msg)
	}

	if m.editor.Focused() {
		return m.updateEditing(msg)
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Done):
		m.ctrl.Deactivate()
	case key.Matches(msg, k.Up):
		m.cursor.Row = max(m.cursor.Row-1, 0)
	case key.Matches(msg, k.Down):
		m.cursor.Row = min(m.cursor.Row+1, m.ctrl.Rows()-1)
	case key.Matches(msg, k.Left):
		m.cursor.Col = max(m.cursor.Col-1, 0)
	case key.Matches(msg, k.Right):
		m.cursor.Col = min(m.cursor.Col+1, m.ctrl.Cols()-1)
	case key.Matches(msg, k.SwapUp):
		m.swapCursor(-1, 0)
	case key.Matches(msg, k.SwapDown):
		m.swapCursor(1, 0)
	case key.Matches(msg, k.SwapLeft):
		m.swapCursor(0, -1)
	case key.Matches(msg, k.SwapRight):
		m.swapCursor(0, 1)
	case key.Matches(msg, k.Open):
		return m.openCell(m.cursor)
	case key.Matches(msg, k.Select):
		return m, m.listNotes(m.cursor)
	case key.Matches(msg, k.Clear):
		m.ctrl.ClearCell(m.cursor.Row, m.cursor.Col)
	case key.Matches(msg, k.External):
		return m, m.openExternal(m.cursor)
	case key.Matches(msg, k.Menu):
		if r, ok := m.geo.cell(m.cursor); ok {
			m.openMenu(m.cursor, r.x+2, r.y+1)
		}
	case key.Matches(msg, k.Undo):
		m.undo()
	case key.Matches(msg, k.Palette):
		m.openPalette()
	case key.Matches(msg, k.AddRow):
		m.ctrl.AddRow()
	case key.Matches(msg, k.AddColumn):
		m.ctrl.AddColumn()
	case key.Matches(msg, k.RemoveRow):
		m.ctrl.RemoveRowAt(m.cursor.Row)
	case key.Matches(msg, k.RemoveColumn):
		m.ctrl.RemoveColumnAt(m.cursor.Col)
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Done):
		// Detaching the editor saves it.
		m.ctrl.Deactivate()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		_ = m.editor.Save()
		return m, nil
	case msg.String() == "ctrl+c":
		_ = m.editor.Save()
		return m, tea.Quit
	}
	return m, m.editor.Update(msg)
}

func (m *Model) swapCursor(dr, dc int) {
	to := layout.Key{Row: m.cursor.Row + dr, Col: m.cursor.Col + dc}
	if !m.hasNote(m.cursor) || !m.hasNote(to) {
		return
	}
	m.ctrl.SwapCells(m.cursor.Row, m.cursor.Col, to.Row, to.Col)
	m.cursor = to
}

// openCell edits a bound cell or picks a note for an empty one.
func (m Model) openCell(k layout.Key) (Model, tea.Cmd) {
	m.cursor = k
	cell, ok := m.ctrl.Cell(k.Row, k.Col)
	if !ok || !cell.Assigned() {
		return m, m.listNotes(k)
	}
	if active, ok := m.ctrl.Active(); ok && active == k {
		if !m.editor.Focused() {
			if at, attached := m.editor.Attached(); attached && at == k {
				m.editor.Focus()
				return m, m.editor.Cmd()
			}
		}
		return m, nil
	}
	m.ctrl.ActivateCell(k.Row, k.Col)
	return m, nil
}
