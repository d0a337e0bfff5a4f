package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gabrielfornes/teagrid/internal/layout"
)

// SaveDelay is the quiet period before a pending layout is written.
const SaveDelay = 300 * time.Millisecond

// Persister debounces grid saves: a burst of Save calls produces one write
// of the latest state, SaveDelay after the last call.
type Persister struct {
	store *Store
	name  string
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *layout.Data
	closed  bool
	onError func(error)
}

// NewPersister returns a debounced writer for the named grid. A delay of
// zero uses SaveDelay.
func NewPersister(s *Store, name string, delay time.Duration) *Persister {
	if delay <= 0 {
		delay = SaveDelay
	}
	return &Persister{store: s, name: name, delay: delay}
}

// OnError registers a callback for failed background writes.
func (p *Persister) OnError(fn func(error)) {
	p.mu.Lock()
	p.onError = fn
	p.mu.Unlock()
}

// Save schedules data to be written.
func (p *Persister) Save(data layout.Data) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	d := layout.Clone(data)
	p.pending = &d
	if p.timer == nil {
		p.timer = time.AfterFunc(p.delay, p.fire)
		return
	}
	p.timer.Reset(p.delay)
}

func (p *Persister) fire() {
	if err := p.Flush(); err != nil {
		p.mu.Lock()
		fn := p.onError
		p.mu.Unlock()
		slog.Error("store: save grid", "grid", p.name, "err", err)
		if fn != nil {
			fn(err)
		}
	}
}

// Flush writes any pending state now.
func (p *Persister) Flush() error {
	p.mu.Lock()
	d := p.pending
	p.pending = nil
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	if d == nil {
		return nil
	}
	slog.Debug("store: saving grid", "grid", p.name, "rows", d.Layout.Rows, "cols", d.Layout.Cols)
	return p.store.Save(p.name, *d)
}

// Close flushes pending state and rejects further saves.
func (p *Persister) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.Flush()
}
