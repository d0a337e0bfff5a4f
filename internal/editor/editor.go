// Package editor provides the single shared editing surface. It is pointed
// at one note at a time and moved between grid cells; unsaved text is
// written back before it is re-pointed or detached.
package editor

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gabrielfornes/teagrid/internal/layout"
)

// Writer persists note content.
type Writer interface {
	Write(path, content string) error
}

// Surface wraps a textarea and implements reconcile.Editor.
type Surface struct {
	ta     textarea.Model
	writer Writer

	path     string
	dirty    bool
	attached bool
	key      layout.Key
	cmd      tea.Cmd
	onSaved  func(path string, err error)
}

// New creates a surface that saves through w.
func New(w Writer, placeholder string) *Surface {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""
	return &Surface{ta: ta, writer: w}
}

// OnSaved registers a callback run after every write attempt.
func (s *Surface) OnSaved(fn func(path string, err error)) {
	s.onSaved = fn
}

// Target is the note the surface holds.
func (s *Surface) Target() string { return s.path }

// Load points the surface at path. Unsaved edits to a different note are
// written first.
func (s *Surface) Load(path, content string) {
	if s.path != path {
		_ = s.Save()
	}
	s.path = path
	s.ta.SetValue(content)
	s.dirty = false
}

// Rename follows a note that moved on disk.
func (s *Surface) Rename(oldPath, newPath string) {
	if s.path == oldPath {
		s.path = newPath
	}
}

// Invalidate drops the loaded note without saving, so the next render
// reads it again.
func (s *Surface) Invalidate() {
	s.path = ""
	s.dirty = false
}

// Attach places the surface in cell k with the given content size.
func (s *Surface) Attach(k layout.Key, width, height int) {
	s.attached = true
	s.key = k
	s.ta.SetWidth(max(width, 1))
	s.ta.SetHeight(max(height, 1))
}

// Detach removes the surface from the grid, saving pending edits.
func (s *Surface) Detach() {
	if !s.attached {
		return
	}
	_ = s.Save()
	s.ta.Blur()
	s.attached = false
}

// Focus gives keyboard focus to the surface.
func (s *Surface) Focus() {
	s.cmd = s.ta.Focus()
}

// Blur releases keyboard focus without detaching.
func (s *Surface) Blur() {
	s.ta.Blur()
}

// Attached reports the cell the surface sits in.
func (s *Surface) Attached() (layout.Key, bool) {
	return s.key, s.attached
}

// Focused reports whether keys go to the surface.
func (s *Surface) Focused() bool {
	return s.attached && s.ta.Focused()
}

// Dirty reports unsaved edits.
func (s *Surface) Dirty() bool { return s.dirty }

// Value returns the current text.
func (s *Surface) Value() string { return s.ta.Value() }

// Cmd returns and clears the command produced by the last Focus.
func (s *Surface) Cmd() tea.Cmd {
	cmd := s.cmd
	s.cmd = nil
	return cmd
}

// Save writes the text if it changed since the last load or save.
func (s *Surface) Save() error {
	if !s.dirty || s.path == "" {
		return nil
	}
	err := s.writer.Write(s.path, s.ta.Value())
	if err != nil {
		err = fmt.Errorf("could not save %s: %w", s.path, err)
		slog.Error("editor: save failed", "path", s.path, "err", err)
	} else {
		s.dirty = false
		slog.Debug("editor: saved", "path", s.path)
	}
	if s.onSaved != nil {
		s.onSaved(s.path, err)
	}
	return err
}

// Update forwards a message to the textarea while focused.
func (s *Surface) Update(msg tea.Msg) tea.Cmd {
	if !s.Focused() {
		return nil
	}
	before := s.ta.Value()
	var cmd tea.Cmd
	s.ta, cmd = s.ta.Update(msg)
	if s.ta.Value() != before {
		s.dirty = true
	}
	return cmd
}

// View renders the textarea.
func (s *Surface) View() string {
	return s.ta.View()
}
