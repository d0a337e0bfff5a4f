package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gabrielfornes/teagrid/internal/grid"
	"github.com/gabrielfornes/teagrid/internal/layout"
	"github.com/gabrielfornes/teagrid/internal/reconcile"
	"github.com/gabrielfornes/teagrid/internal/vault"
)

// host is what the grid controller and the reconciler call back into.
// Every copy of Model shares one host; the update loop is its only user.
type host struct {
	rec    *reconcile.Reconciler
	dirty  bool
	scopes map[layout.Key]*scope

	notices []grid.Notice
	saves   []saveResult
}

type saveResult struct {
	path string
	err  error
}

func newHost() *host {
	return &host{dirty: true, scopes: make(map[layout.Key]*scope)}
}

// Render implements grid.View. The pass itself runs after the current
// message has been handled.
func (h *host) Render() { h.dirty = true }

func (h *host) DetachEditor() {
	if h.rec != nil {
		h.rec.DetachEditor()
	}
}

func (h *host) DiscardPreviews() {
	if h.rec != nil {
		h.rec.DiscardPreviews()
	}
}

// Notify implements grid.Notifier.
func (h *host) Notify(n grid.Notice) {
	h.notices = append(h.notices, n)
}

// NewScope implements reconcile.Scopes with one viewport per cell.
func (h *host) NewScope(k layout.Key, width, height int) reconcile.Scope {
	s := &scope{host: h, key: k, vp: viewport.New(width, height)}
	h.scopes[k] = s
	return s
}

func (h *host) scope(k layout.Key) (*scope, bool) {
	s, ok := h.scopes[k]
	return s, ok
}

type scope struct {
	host  *host
	key   layout.Key
	vp    viewport.Model
	ready bool
}

func (s *scope) SetContent(body string) {
	s.vp.SetContent(body)
	s.ready = true
}

func (s *scope) Release() {
	if s.host.scopes[s.key] == s {
		delete(s.host.scopes, s.key)
	}
}

func (s *scope) scroll(lines int) {
	s.vp.SetYOffset(s.vp.YOffset + lines)
}

// --- Async plumbing ---

type jobDoneMsg struct {
	res reconcile.Result
}

func jobCmds(jobs []reconcile.Job) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(jobs))
	for _, job := range jobs {
		cmds = append(cmds, func() tea.Msg { return jobDoneMsg{res: job()} })
	}
	return cmds
}

type vaultEventMsg struct {
	ev vault.Event
}

// waitForEvent delivers the next vault change. The model re-arms it after
// each event.
func waitForEvent(events <-chan vault.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return vaultEventMsg{ev: ev}
	}
}

func after(d time.Duration, msg tea.Msg) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}
