package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/gabrielfornes/teagrid/internal/grid"
	"github.com/gabrielfornes/teagrid/internal/hover"
	"github.com/gabrielfornes/teagrid/internal/i18n"
	"github.com/gabrielfornes/teagrid/internal/layout"
	"github.com/gabrielfornes/teagrid/internal/reconcile"
	"github.com/gabrielfornes/teagrid/internal/vault"
)

// Commands that have not produced a message by then are cursor blinks and
// other timers; the tests drop them.
const cmdTimeout = 200 * time.Millisecond

type fakeMarkdown struct{}

func (fakeMarkdown) Render(_ context.Context, text, _ string, _ int) (string, error) {
	return "md:" + strings.TrimSpace(text), nil
}

type recordingSaver struct {
	saved []layout.Data
}

func (s *recordingSaver) Save(d layout.Data) { s.saved = append(s.saved, d) }

type scheduled struct {
	delay time.Duration
	msg   tea.Msg
}

type harness struct {
	t     *testing.T
	m     Model
	dir   string
	saver *recordingSaver
	ticks []scheduled
	quit  bool
}

func newHarness(t *testing.T, data layout.Data, notes map[string]string) *harness {
	t.Helper()
	dir := t.TempDir()
	for p, content := range notes {
		full := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	v, err := vault.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	h := &harness{t: t, dir: dir, saver: &recordingSaver{}}
	m := NewModel(Options{
		Data:        data,
		GridName:    "grid-layout",
		Saver:       h.saver,
		Vault:       v,
		Markdown:    fakeMarkdown{},
		Translator:  i18n.New("en"),
		SwapSpacing: 8,
	})
	m.after = func(d time.Duration, msg tea.Msg) tea.Cmd {
		h.ticks = append(h.ticks, scheduled{delay: d, msg: msg})
		return nil
	}
	h.m = m
	t.Cleanup(m.Close)

	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.run(cmd)
}

// run executes cmd and everything it leads to, feeding each message back
// into the model in order.
func (h *harness) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := runCmd(c)
		if !ok || msg == nil {
			continue
		}
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			h.quit = true
			continue
		}
		next, more := h.m.Update(msg)
		h.m = next.(Model)
		queue = append(queue, more)
	}
}

func runCmd(c tea.Cmd) (tea.Msg, bool) {
	out := make(chan tea.Msg, 1)
	go func() { out <- c() }()
	select {
	case msg := <-out:
		return msg, true
	case <-time.After(cmdTimeout):
		return nil, false
	}
}

func (h *harness) key(s string) {
	h.t.Helper()
	switch s {
	case "enter":
		h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		h.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "down":
		h.send(tea.KeyMsg{Type: tea.KeyDown})
	case "right":
		h.send(tea.KeyMsg{Type: tea.KeyRight})
	case "ctrl+s":
		h.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	default:
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	}
}

func (h *harness) move(x, y int) {
	h.send(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone})
}

func (h *harness) click(x, y int) {
	h.send(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
}

// deliver feeds every scheduled message matching keep and forgets it.
func (h *harness) deliver(keep func(tea.Msg) bool) int {
	var rest []scheduled
	var due []tea.Msg
	for _, s := range h.ticks {
		if keep(s.msg) {
			due = append(due, s.msg)
		} else {
			rest = append(rest, s)
		}
	}
	h.ticks = rest
	for _, msg := range due {
		h.send(msg)
	}
	return len(due)
}

func (h *harness) cellState(row, col int) reconcile.State {
	h.t.Helper()
	cf, ok := h.m.rec.Frame().At(row, col)
	if !ok {
		h.t.Fatalf("no frame for %d-%d", row, col)
	}
	return cf.State
}

func (h *harness) readNote(p string) string {
	h.t.Helper()
	b, err := os.ReadFile(filepath.Join(h.dir, p))
	if err != nil {
		h.t.Fatal(err)
	}
	return string(b)
}

func bound(paths map[layout.Key]string) layout.Data {
	d := layout.Default()
	for i, c := range d.Layout.Cells {
		d.Layout.Cells[i].NotePath = paths[c.Key()]
	}
	return d
}

func isHide(msg tea.Msg) bool {
	_, ok := msg.(hideMsg)
	return ok
}

func isToastExpiry(msg tea.Msg) bool {
	_, ok := msg.(toastExpiredMsg)
	return ok
}

func TestStartupRendersPreviews(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{
		{Row: 0, Col: 0}: "a.md",
		{Row: 1, Col: 1}: "gone.md",
	}), map[string]string{"a.md": "# Alpha"})

	if got := h.cellState(0, 0); got != reconcile.StatePreview {
		t.Fatalf("0-0 state = %v, want preview", got)
	}
	if got := h.cellState(0, 1); got != reconcile.StateEmpty {
		t.Errorf("0-1 state = %v, want empty", got)
	}
	if got := h.cellState(1, 1); got != reconcile.StateNotFound {
		t.Errorf("1-1 state = %v, want not found", got)
	}

	view := ansi.Strip(h.m.View())
	for _, want := range []string{"md:# Alpha", "File not found", "gone.md", "grid-layout"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q:\n%s", want, view)
		}
	}
}

func TestEditAndSaveOnDeactivate(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{{Row: 0, Col: 0}: "a.md"}), map[string]string{"a.md": "# Alpha"})

	h.key("enter")
	if k, ok := h.m.ctrl.Active(); !ok || k != (layout.Key{}) {
		t.Fatalf("active = %v, %v; want 0-0", k, ok)
	}
	if got := h.cellState(0, 0); got != reconcile.StateEditing {
		t.Fatalf("state = %v, want editing", got)
	}
	if !h.m.editor.Focused() {
		t.Fatal("editor should be focused after activation")
	}
	if view := ansi.Strip(h.m.View()); !strings.Contains(view, "Editing") {
		t.Errorf("view should show the editing badge:\n%s", view)
	}

	h.key("!")
	if !h.m.editor.Dirty() {
		t.Fatal("typing should mark the editor dirty")
	}

	h.key("esc")
	if _, ok := h.m.ctrl.Active(); ok {
		t.Fatal("esc should deactivate the cell")
	}
	if got := h.readNote("a.md"); got != "# Alpha!" {
		t.Errorf("saved content = %q", got)
	}
	if h.m.statusMsg != "Saved a.md" || h.m.statusErr {
		t.Errorf("status = %q (err %v)", h.m.statusMsg, h.m.statusErr)
	}
	if got := h.cellState(0, 0); got != reconcile.StatePreview {
		t.Errorf("state after esc = %v, want preview", got)
	}
}

func TestSwitchingCellsRefreshesPreviousPreview(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{
		{Row: 0, Col: 0}: "a.md",
		{Row: 0, Col: 1}: "b.md",
	}), map[string]string{"a.md": "# Alpha", "b.md": "# Beta"})

	h.key("enter")
	h.key("!")
	h.click(70, 10)

	if k, ok := h.m.ctrl.Active(); !ok || k != (layout.Key{Row: 0, Col: 1}) {
		t.Fatalf("active = %v, %v; want 0-1", k, ok)
	}
	if got := h.readNote("a.md"); got != "# Alpha!" {
		t.Fatalf("a.md = %q", got)
	}
	if got := h.cellState(0, 0); got != reconcile.StatePreview {
		t.Fatalf("0-0 state = %v, want preview", got)
	}
	if view := ansi.Strip(h.m.View()); !strings.Contains(view, "md:# Alpha!") {
		t.Errorf("preview of a.md should show the saved edit:\n%s", view)
	}
}

func TestEmptyCellOpensNotePicker(t *testing.T) {
	h := newHarness(t, layout.Default(), map[string]string{"a.md": "a", "notes/b.md": "b"})

	h.key("right")
	h.key("enter")
	if h.m.overlay != overlayPicker || h.m.picker.ID() != pickerNote {
		t.Fatalf("overlay = %v, want the note picker", h.m.overlay)
	}
	if got := len(h.m.picker.Matches()); got != 2 {
		t.Fatalf("picker lists %d notes, want 2", got)
	}

	h.key("b.md")
	h.key("enter")
	if h.m.overlay != overlayNone {
		t.Fatal("choosing should close the picker")
	}
	if got := h.m.ctrl.NotePath(0, 1); got != "notes/b.md" {
		t.Fatalf("0-1 = %q, want notes/b.md", got)
	}
	if _, ok := h.m.ctrl.Active(); ok {
		t.Error("assigning a note should not activate the cell")
	}
	if len(h.saver.saved) == 0 {
		t.Error("assignment should be persisted")
	}
	if got := h.cellState(0, 1); got != reconcile.StatePreview {
		t.Errorf("state = %v, want preview", got)
	}
}

func TestPickerEscapeLeavesCellEmpty(t *testing.T) {
	h := newHarness(t, layout.Default(), map[string]string{"a.md": "a"})

	h.key("s")
	if h.m.overlay != overlayPicker {
		t.Fatal("s should open the picker")
	}
	h.key("esc")
	if h.m.overlay != overlayNone {
		t.Fatal("esc should close the picker")
	}
	if got := h.m.ctrl.NotePath(0, 0); got != "" {
		t.Errorf("0-0 = %q, want empty", got)
	}
}

func TestRemoveRowToastAndUndo(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{{Row: 0, Col: 0}: "a.md"}), map[string]string{"a.md": "a"})

	h.key("R")
	if got := h.m.ctrl.Rows(); got != 1 {
		t.Fatalf("rows = %d, want 1", got)
	}
	if h.m.toast.text != "Row deleted" || !h.m.toast.undo {
		t.Fatalf("toast = %+v", h.m.toast)
	}
	var ttl time.Duration
	for _, s := range h.ticks {
		if isToastExpiry(s.msg) {
			ttl = s.delay
		}
	}
	if ttl != grid.UndoWindow {
		t.Errorf("toast ttl = %v, want %v", ttl, grid.UndoWindow)
	}

	h.key("u")
	if got := h.m.ctrl.Rows(); got != 2 {
		t.Fatalf("rows after undo = %d, want 2", got)
	}
	if got := h.m.ctrl.NotePath(0, 0); got != "a.md" {
		t.Errorf("0-0 after undo = %q", got)
	}
	if h.m.toast.text != "" {
		t.Error("undo should dismiss the toast")
	}
}

func TestUndoButtonOnStatusLine(t *testing.T) {
	h := newHarness(t, layout.Default(), nil)

	h.key("C")
	if got := h.m.ctrl.Cols(); got != 1 {
		t.Fatalf("cols = %d, want 1", got)
	}
	b := h.m.undoButton()
	h.click(b.x+1, b.y)
	if got := h.m.ctrl.Cols(); got != 2 {
		t.Fatalf("cols after clicking undo = %d, want 2", got)
	}
}

func TestToastExpires(t *testing.T) {
	h := newHarness(t, layout.Default(), nil)

	h.key("R")
	first := h.m.toast.seq
	h.key("r")
	h.key("R")
	if h.m.toast.seq == first {
		t.Fatal("a second deletion should replace the toast")
	}

	// Both expiries arrive; only the one for the current toast clears it.
	if n := h.deliver(func(msg tea.Msg) bool {
		e, ok := msg.(toastExpiredMsg)
		return ok && e.seq == first
	}); n != 1 {
		t.Fatalf("delivered %d stale expiries, want 1", n)
	}
	if h.m.toast.text == "" {
		t.Fatal("a stale expiry must not clear the newer toast")
	}
	h.deliver(isToastExpiry)
	if h.m.toast.text != "" {
		t.Error("toast should be gone after its expiry")
	}
}

// With a 100x40 terminal and a 2x2 grid, column 0 spans x 5..49, the gap
// column is x 50 and column 1 spans x 51..94. Row 0 spans y 3..19.
func TestHoverShowsDeleteButtonsAndHidesLater(t *testing.T) {
	h := newHarness(t, layout.Default(), nil)
	row0 := hover.Zone{Axis: hover.Row, Index: 0}
	col1 := hover.Zone{Axis: hover.Col, Index: 1}

	h.move(60, 10)
	if !h.m.hover.Visible(row0) || !h.m.hover.Visible(col1) {
		t.Fatal("hovering a cell should show its row and column buttons")
	}

	h.move(0, 0)
	if got := len(h.ticks); got != 2 {
		t.Fatalf("scheduled %d hides, want 2", got)
	}
	for _, s := range h.ticks {
		if s.delay != hover.HideDelay {
			t.Errorf("hide delay = %v, want %v", s.delay, hover.HideDelay)
		}
	}
	if !h.m.hover.Visible(row0) {
		t.Fatal("buttons should linger until the hide fires")
	}

	h.deliver(isHide)
	if h.m.hover.Visible(row0) || h.m.hover.Visible(col1) {
		t.Error("buttons should be hidden after the delay")
	}
}

func TestReenteringCancelsPendingHide(t *testing.T) {
	h := newHarness(t, layout.Default(), nil)
	col1 := hover.Zone{Axis: hover.Col, Index: 1}

	h.move(60, 10)
	h.move(0, 0)
	h.move(60, 10)
	h.deliver(isHide)
	if !h.m.hover.Visible(col1) {
		t.Error("a hide scheduled before re-entering must not hide the button")
	}
}

func TestClickColumnDeleteButton(t *testing.T) {
	h := newHarness(t, layout.Default(), nil)

	r := h.m.geo.colDelete[1]
	h.click(r.x+1, r.y)
	if got := h.m.ctrl.Cols(); got != 2 {
		t.Fatal("a hidden delete button must not react to clicks")
	}

	h.move(60, 10)
	h.click(r.x+1, r.y)
	if got := h.m.ctrl.Cols(); got != 1 {
		t.Fatalf("cols = %d, want 1", got)
	}
	if h.m.hover.Visible(hover.Zone{Axis: hover.Col, Index: 1}) {
		t.Error("hover state should reset when the grid shape changes")
	}
}

func TestAddButtons(t *testing.T) {
	h := newHarness(t, layout.Default(), nil)

	h.click(h.m.geo.addCol.x+1, h.m.geo.addCol.y)
	if got := h.m.ctrl.Cols(); got != 3 {
		t.Fatalf("cols = %d, want 3", got)
	}
	h.click(h.m.geo.addRow.x+1, h.m.geo.addRow.y)
	if got := h.m.ctrl.Rows(); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
}

func TestSwapThroughGap(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{
		{Row: 0, Col: 0}: "a.md",
		{Row: 0, Col: 1}: "b.md",
	}), map[string]string{"a.md": "a", "b.md": "b"})

	h.move(50, 10)
	if h.m.gap == nil {
		t.Fatal("the pointer in the gap between two bound cells should offer a swap")
	}
	if h.m.gap.Orientation != hover.Vertical {
		t.Errorf("orientation = %v, want vertical", h.m.gap.Orientation)
	}
	if view := ansi.Strip(h.m.View()); !strings.Contains(view, "⇄") {
		t.Errorf("view should draw the swap button:\n%s", view)
	}

	b := swapButton(*h.m.gap)
	h.click(b.x+1, b.y)
	if a, b := h.m.ctrl.NotePath(0, 0), h.m.ctrl.NotePath(0, 1); a != "b.md" || b != "a.md" {
		t.Errorf("after swap 0-0 = %q, 0-1 = %q", a, b)
	}
	if h.m.gap != nil {
		t.Error("swapping should clear the gap")
	}
}

func TestNoSwapNextToEmptyCell(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{{Row: 0, Col: 0}: "a.md"}), map[string]string{"a.md": "a"})

	h.move(50, 10)
	if h.m.gap != nil {
		t.Error("no swap should be offered next to an empty cell")
	}
}

func TestKeyboardSwap(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{
		{Row: 0, Col: 0}: "a.md",
		{Row: 1, Col: 0}: "b.md",
	}), map[string]string{"a.md": "a", "b.md": "b"})

	h.key("J")
	if a, b := h.m.ctrl.NotePath(0, 0), h.m.ctrl.NotePath(1, 0); a != "b.md" || b != "a.md" {
		t.Fatalf("after swap 0-0 = %q, 1-0 = %q", a, b)
	}
	if h.m.cursor != (layout.Key{Row: 1}) {
		t.Errorf("cursor = %v, want it to follow the note", h.m.cursor)
	}
	h.key("J")
	if got := h.m.ctrl.NotePath(1, 0); got != "a.md" {
		t.Error("swapping past the edge should do nothing")
	}
	h.key("L")
	if got := h.m.ctrl.NotePath(1, 0); got != "a.md" || h.m.cursor != (layout.Key{Row: 1}) {
		t.Error("swapping with an empty cell should do nothing")
	}
}

func TestContextMenuClear(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{{Row: 0, Col: 0}: "a.md"}), map[string]string{"a.md": "a"})

	h.send(tea.MouseMsg{X: 10, Y: 8, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	if h.m.overlay != overlayMenu {
		t.Fatal("right click should open the cell menu")
	}
	if got := len(h.m.menu.items); got != 3 {
		t.Fatalf("menu has %d items, want 3", got)
	}
	h.key("down")
	h.key("enter")
	if h.m.overlay != overlayNone {
		t.Error("running an item should close the menu")
	}
	if got := h.m.ctrl.NotePath(0, 0); got != "" {
		t.Errorf("0-0 = %q, want cleared", got)
	}
}

func TestPaletteListsEnabledCommands(t *testing.T) {
	h := newHarness(t, layout.Default(), nil)

	h.key(":")
	if h.m.overlay != overlayPicker || h.m.picker.ID() != pickerPalette {
		t.Fatal(": should open the command palette")
	}
	labels := map[string]bool{}
	for _, it := range h.m.picker.Matches() {
		labels[it.Label] = true
	}
	for _, hidden := range []string{"Select note for active cell", "Undo", "Create new grid"} {
		if labels[hidden] {
			t.Errorf("%q should not be offered", hidden)
		}
	}
	if !labels["Add row at top"] || !labels["Clear grid"] {
		t.Errorf("palette = %v", labels)
	}

	h.key("row at top")
	h.key("enter")
	if got := h.m.ctrl.Rows(); got != 3 {
		t.Fatalf("rows = %d, want 3", got)
	}
}

func TestSelectNoteCommandNeedsActiveCell(t *testing.T) {
	h := newHarness(t, layout.Default(), nil)

	m, cmd := h.m.runCommand("select-note")
	if cmd != nil {
		t.Error("no picker should open without an active cell")
	}
	if m.statusMsg != "No active cell" || !m.statusErr {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestVaultEvents(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{
		{Row: 0, Col: 0}: "a.md",
		{Row: 0, Col: 1}: "b.md",
	}), map[string]string{"a.md": "a", "b.md": "b"})

	h.send(vaultEventMsg{ev: vault.Event{Op: vault.Deleted, Path: "a.md"}})
	if got := h.m.ctrl.NotePath(0, 0); got != "" {
		t.Errorf("0-0 = %q after delete, want empty", got)
	}

	if err := os.Rename(filepath.Join(h.dir, "b.md"), filepath.Join(h.dir, "c.md")); err != nil {
		t.Fatal(err)
	}
	h.send(vaultEventMsg{ev: vault.Event{Op: vault.Renamed, Path: "c.md", OldPath: "b.md"}})
	if got := h.m.ctrl.NotePath(0, 1); got != "c.md" {
		t.Errorf("0-1 = %q after rename, want c.md", got)
	}
	if got := h.cellState(0, 1); got != reconcile.StatePreview {
		t.Errorf("renamed cell state = %v, want preview", got)
	}
}

func TestExternalChangeRefreshesPreview(t *testing.T) {
	h := newHarness(t, bound(map[layout.Key]string{{Row: 0, Col: 0}: "a.md"}), map[string]string{"a.md": "one"})

	if err := os.WriteFile(filepath.Join(h.dir, "a.md"), []byte("two"), 0644); err != nil {
		t.Fatal(err)
	}
	h.send(vaultEventMsg{ev: vault.Event{Op: vault.Modified, Path: "a.md"}})
	s, ok := h.m.host.scope(layout.Key{})
	if !ok {
		t.Fatal("0-0 should have a preview scope")
	}
	if got := s.vp.View(); !strings.Contains(got, "md:two") {
		t.Errorf("preview = %q, want the new content", got)
	}
}

func TestQuit(t *testing.T) {
	h := newHarness(t, layout.Default(), nil)
	h.key("q")
	if !h.quit {
		t.Error("q should quit")
	}
}
