// Package reconcile turns grid state into a displayable frame. Each call to
// Render starts a numbered pass; asynchronous reads and markdown renders
// carry that number and are thrown away if a newer pass has started by the
// time they finish.
package reconcile

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/gabrielfornes/teagrid/internal/layout"
)

// Grid is the state a pass reads. *grid.Controller implements it.
type Grid interface {
	Rows() int
	Cols() int
	Cell(row, col int) (layout.Cell, bool)
	Active() (layout.Key, bool)
	ValidateActive() bool
	ClearActive()
	ConsumePendingFocus(k layout.Key) bool
}

// Documents resolves and reads notes.
type Documents interface {
	Lookup(path string) (title string, ok bool)
	Read(ctx context.Context, path string) (string, error)
}

// Markdown renders note text for display at a given width.
type Markdown interface {
	Render(ctx context.Context, text, path string, width int) (string, error)
}

// Scope is a host-side display resource backing one cell's preview.
type Scope interface {
	SetContent(body string)
	Release()
}

// Scopes creates preview scopes.
type Scopes interface {
	NewScope(k layout.Key, width, height int) Scope
}

// Editor is the single shared editing surface.
type Editor interface {
	// Target is the note the surface holds, "" before first use.
	Target() string
	// Load points the surface at path with the given content.
	Load(path, content string)
	Attach(k layout.Key, width, height int)
	Detach()
	Focus()
}

// Size reports the content area of a cell.
type Size func(k layout.Key) (width, height int)

// State is what a cell displays.
type State int

const (
	StateEmpty State = iota
	StateNotFound
	StateLoading
	StatePreview
	StateReadFailed
	StateRenderFailed
	StateEditing
)

var stateNames = [...]string{"empty", "not-found", "loading", "preview", "read-failed", "render-failed", "editing"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// CellFrame is one cell of a frame.
type CellFrame struct {
	Key    layout.Key
	Path   string
	Title  string
	State  State
	Active bool
	Width  int
	Height int
}

// Frame is the display decision for every cell in one pass.
type Frame struct {
	Pass  uint64
	Rows  int
	Cols  int
	Cells []CellFrame
}

// At returns the cell at (row, col).
func (f Frame) At(row, col int) (CellFrame, bool) {
	if row < 0 || row >= f.Rows || col < 0 || col >= f.Cols {
		return CellFrame{}, false
	}
	i := row*f.Cols + col
	if i >= len(f.Cells) {
		return CellFrame{}, false
	}
	return f.Cells[i], true
}

type stage int

const (
	stageFetch stage = iota
	stageRender
	stageEditor
)

// Result is the outcome of a Job, handed back to Complete.
type Result struct {
	pass  uint64
	key   layout.Key
	stage stage
	path  string
	text  string
	err   error
}

// Pass returns the pass the result belongs to.
func (r Result) Pass() uint64 { return r.pass }

// Job is asynchronous work started by a pass. It only reads; all state
// changes happen in Complete.
type Job func() Result

type preview struct {
	pass  uint64
	path  string
	width int
	scope Scope
}

// Config wires a Reconciler to its collaborators.
type Config struct {
	Documents Documents
	Markdown  Markdown
	Scopes    Scopes
	Editor    Editor
}

// Reconciler owns the preview scopes and drives the shared editor.
type Reconciler struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	pass     uint64
	frame    Frame
	previews map[layout.Key]*preview
}

// New creates a reconciler. Close releases everything it holds.
func New(ctx context.Context, cfg Config) *Reconciler {
	ctx, cancel := context.WithCancel(ctx)
	return &Reconciler{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		previews: make(map[layout.Key]*preview),
	}
}

// Pass returns the current pass id.
func (r *Reconciler) Pass() uint64 { return r.pass }

// Frame returns the latest frame.
func (r *Reconciler) Frame() Frame { return r.frame }

// Previews returns the number of live preview scopes.
func (r *Reconciler) Previews() int { return len(r.previews) }

// Render starts a new pass over g and returns the work it needs done.
func (r *Reconciler) Render(g Grid, size Size) []Job {
	r.pass++
	pass := r.pass

	hasActive := g.ValidateActive()
	active, _ := g.Active()
	// Detaching saves pending edits, so it must happen before any preview
	// read of the note the editor held.
	if !hasActive {
		r.cfg.Editor.Detach()
	} else if cell, _ := g.Cell(active.Row, active.Col); r.cfg.Editor.Target() != cell.NotePath {
		r.cfg.Editor.Detach()
	}

	rows, cols := g.Rows(), g.Cols()
	for k := range r.previews {
		cell, ok := g.Cell(k.Row, k.Col)
		inside := k.Row < rows && k.Col < cols
		if !inside || !ok || !cell.Assigned() || (hasActive && k == active) {
			r.release(k)
		}
	}

	frame := Frame{Pass: pass, Rows: rows, Cols: cols, Cells: make([]CellFrame, 0, rows*cols)}
	var jobs []Job
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			k := layout.Key{Row: row, Col: col}
			cell, _ := g.Cell(row, col)
			w, h := size(k)
			cf := CellFrame{Key: k, Path: cell.NotePath, Width: w, Height: h}

			if !cell.Assigned() {
				cf.State = StateEmpty
				frame.Cells = append(frame.Cells, cf)
				continue
			}

			title, ok := r.cfg.Documents.Lookup(cell.NotePath)
			if !ok {
				r.release(k)
				if hasActive && k == active {
					g.ClearActive()
					r.cfg.Editor.Detach()
					hasActive = false
				}
				cf.Title = fallbackTitle(cell.NotePath)
				cf.State = StateNotFound
				frame.Cells = append(frame.Cells, cf)
				continue
			}
			cf.Title = title

			if hasActive && k == active {
				cf.State = StateEditing
				cf.Active = true
				if r.cfg.Editor.Target() == cell.NotePath {
					r.cfg.Editor.Attach(k, w, h)
					if g.ConsumePendingFocus(k) {
						r.cfg.Editor.Focus()
					}
				} else {
					jobs = append(jobs, r.readJob(pass, k, cell.NotePath, stageEditor))
				}
				frame.Cells = append(frame.Cells, cf)
				continue
			}

			r.release(k)
			r.previews[k] = &preview{
				pass:  pass,
				path:  cell.NotePath,
				width: w,
				scope: r.cfg.Scopes.NewScope(k, w, h),
			}
			cf.State = StateLoading
			jobs = append(jobs, r.readJob(pass, k, cell.NotePath, stageFetch))
			frame.Cells = append(frame.Cells, cf)
		}
	}

	r.frame = frame
	slog.Debug("reconcile: pass started", "pass", pass, "jobs", len(jobs), "previews", len(r.previews))
	return jobs
}

// Complete applies a finished job. Results from superseded passes are
// dropped. It may return follow-up work.
func (r *Reconciler) Complete(g Grid, res Result) []Job {
	switch res.stage {
	case stageFetch:
		p := r.previews[res.key]
		if p == nil || p.pass != res.pass {
			return nil
		}
		if res.pass != r.pass {
			r.release(res.key)
			return nil
		}
		if res.err != nil {
			slog.Warn("reconcile: read failed", "path", res.path, "err", res.err)
			r.release(res.key)
			r.setState(res.key, StateReadFailed)
			return nil
		}
		return []Job{r.renderJob(res.pass, res.key, res.path, res.text, p.width)}

	case stageRender:
		p := r.previews[res.key]
		if p == nil || p.pass != res.pass {
			return nil
		}
		if res.pass != r.pass {
			r.release(res.key)
			return nil
		}
		if res.err != nil {
			slog.Warn("reconcile: render failed", "path", res.path, "err", res.err)
			r.release(res.key)
			r.setState(res.key, StateRenderFailed)
			return nil
		}
		p.scope.SetContent(res.text)
		r.setState(res.key, StatePreview)
		return nil

	case stageEditor:
		if res.pass != r.pass {
			return nil
		}
		active, ok := g.Active()
		if !ok || active != res.key {
			return nil
		}
		if cell, _ := g.Cell(res.key.Row, res.key.Col); cell.NotePath != res.path {
			return nil
		}
		if res.err != nil {
			slog.Warn("reconcile: editor load failed", "path", res.path, "err", res.err)
			r.setState(res.key, StateReadFailed)
			return nil
		}
		cf, _ := r.frame.At(res.key.Row, res.key.Col)
		r.cfg.Editor.Load(res.path, res.text)
		r.cfg.Editor.Attach(res.key, cf.Width, cf.Height)
		if g.ConsumePendingFocus(res.key) {
			r.cfg.Editor.Focus()
		}
		return nil
	}
	return nil
}

// DiscardPreviews releases every preview scope.
func (r *Reconciler) DiscardPreviews() {
	for k := range r.previews {
		r.release(k)
	}
}

// DetachEditor removes the shared editor from the grid.
func (r *Reconciler) DetachEditor() {
	r.cfg.Editor.Detach()
}

// Close cancels outstanding jobs and releases all resources.
func (r *Reconciler) Close() {
	r.cancel()
	r.DiscardPreviews()
	r.cfg.Editor.Detach()
}

func (r *Reconciler) readJob(pass uint64, k layout.Key, notePath string, st stage) Job {
	ctx, docs := r.ctx, r.cfg.Documents
	return func() Result {
		text, err := docs.Read(ctx, notePath)
		return Result{pass: pass, key: k, stage: st, path: notePath, text: text, err: err}
	}
}

func (r *Reconciler) renderJob(pass uint64, k layout.Key, notePath, text string, width int) Job {
	ctx, md := r.ctx, r.cfg.Markdown
	return func() Result {
		out, err := md.Render(ctx, text, notePath, width)
		return Result{pass: pass, key: k, stage: stageRender, path: notePath, text: out, err: err}
	}
}

func (r *Reconciler) release(k layout.Key) {
	p, ok := r.previews[k]
	if !ok {
		return
	}
	delete(r.previews, k)
	p.scope.Release()
}

func (r *Reconciler) setState(k layout.Key, s State) {
	i := k.Row*r.frame.Cols + k.Col
	if k.Row < r.frame.Rows && k.Col < r.frame.Cols && i < len(r.frame.Cells) {
		r.frame.Cells[i].State = s
	}
}

func fallbackTitle(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}
