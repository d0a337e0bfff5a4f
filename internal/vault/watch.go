package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op describes a change to a note.
type Op int

const (
	Created Op = iota
	Deleted
	Renamed
	Modified
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Event is emitted by Watch when a note changes.
type Event struct {
	Op      Op
	Path    string
	OldPath string // set for Renamed
}

// renameWindow is how long a rename waits for the matching create before
// it is reported as a delete.
const renameWindow = 100 * time.Millisecond

// Watch streams note changes until ctx is cancelled. A rename inside the
// vault arrives as one Renamed event; moving a note out of the vault is a
// Deleted event. Bursts of writes to one note are coalesced.
func (s *Store) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("vault: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				slog.Warn("vault: watcher close", "err", err)
			}
		})
	}

	dirs, err := collectDirs(s.Root)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("vault: enumerate directories: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("vault: watch %s: %w", dir, err)
		}
	}

	events := make(chan Event, 64)

	go func() {
		defer close(events)
		defer closeWatcher()

		quit := make(chan struct{})
		send := func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			case <-quit:
			}
		}
		throttle := newEventThrottle(100 * time.Millisecond)
		defer func() {
			close(quit)
			throttle.Stop()
		}()

		var (
			pending     string
			renameTimer *time.Timer
			renameC     <-chan time.Time
		)
		stopRename := func() {
			if renameTimer != nil {
				renameTimer.Stop()
			}
			renameTimer, renameC, pending = nil, nil, ""
		}

		for {
			select {
			case <-ctx.Done():
				stopRename()
				return
			case <-renameC:
				send(Event{Op: Deleted, Path: pending})
				stopRename()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("vault: watcher error", "err", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}

				if evt.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						if err := watcher.Add(evt.Name); err != nil {
							slog.Warn("vault: watch directory", "dir", evt.Name, "err", err)
						}
						continue
					}
				}

				rel, ok := s.notePath(evt.Name)
				if !ok {
					continue
				}

				switch {
				case evt.Op&fsnotify.Rename == fsnotify.Rename:
					if pending != "" {
						send(Event{Op: Deleted, Path: pending})
						stopRename()
					}
					pending = rel
					renameTimer = time.NewTimer(renameWindow)
					renameC = renameTimer.C
				case evt.Op&fsnotify.Create == fsnotify.Create:
					if pending != "" {
						send(Event{Op: Renamed, Path: rel, OldPath: pending})
						stopRename()
						continue
					}
					send(Event{Op: Created, Path: rel})
				case evt.Op&fsnotify.Remove == fsnotify.Remove:
					send(Event{Op: Deleted, Path: rel})
				case evt.Op&fsnotify.Write == fsnotify.Write:
					throttle.Enqueue(rel, send)
				}
			}
		}
	}()

	return events, nil
}

func (s *Store) notePath(full string) (string, bool) {
	if !strings.HasSuffix(full, ".md") {
		return "", false
	}
	rel, err := s.Rel(full)
	if err != nil {
		return "", false
	}
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return "", false
		}
	}
	return rel, true
}

// collectDirs walks base and returns all directories that should be watched.
func collectDirs(base string) ([]string, error) {
	dirs := []string{base}
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && p != base {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			dirs = append(dirs, p)
		}
		return nil
	})
	return dirs, err
}

// eventThrottle coalesces rapid writes to the same note so the grid
// re-renders once per burst.
type eventThrottle struct {
	mu       sync.Mutex
	timer    *time.Timer
	pending  map[string]struct{}
	delay    time.Duration
	stopped  bool
	inflight sync.WaitGroup
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[string]struct{}),
	}
}

func (t *eventThrottle) Enqueue(p string, send func(Event)) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.pending[p] = struct{}{}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	pending := t.pending
	t.pending = make(map[string]struct{})
	t.timer = nil
	t.inflight.Add(1)
	t.mu.Unlock()
	defer t.inflight.Done()

	for p := range pending {
		send(Event{Op: Modified, Path: p})
	}
}

// Stop cancels any scheduled flush and waits for one already sending.
func (t *eventThrottle) Stop() {
	t.mu.Lock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
	t.inflight.Wait()
}
