// Package hover tracks pointer-driven affordances on the grid: the
// per-row and per-column delete buttons and the swap button that appears
// over the gap between two neighbouring cells.
package hover

import "time"

// HideDelay is how long a delete affordance lingers after the pointer
// leaves its row or column.
const HideDelay = 1000 * time.Millisecond

// Axis selects rows or columns.
type Axis int

const (
	Row Axis = iota
	Col
)

func (a Axis) String() string {
	if a == Row {
		return "row"
	}
	return "col"
}

// Zone is one row or column hover area.
type Zone struct {
	Axis  Axis
	Index int
}

// Hide is a scheduled hide. The caller delivers it back through Expire
// once HideDelay has passed.
type Hide struct {
	Zone  Zone
	token uint64
}

// Tracker holds affordance visibility and the outstanding hide timers.
// Timers are tokens: cancelling one just forgets its token, so a late
// Expire for it does nothing.
type Tracker struct {
	visible map[Zone]bool
	timers  map[Zone]uint64
	seq     uint64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		visible: make(map[Zone]bool),
		timers:  make(map[Zone]uint64),
	}
}

// Enter shows z and cancels its pending hide.
func (t *Tracker) Enter(z Zone) {
	delete(t.timers, z)
	t.visible[z] = true
}

// Leave schedules a hide for z unless one is already pending. The second
// result is false when nothing new was scheduled.
func (t *Tracker) Leave(z Zone) (Hide, bool) {
	if _, pending := t.timers[z]; pending {
		return Hide{}, false
	}
	if !t.visible[z] {
		return Hide{}, false
	}
	t.seq++
	t.timers[z] = t.seq
	return Hide{Zone: z, token: t.seq}, true
}

// Expire applies h if its timer is still outstanding. It reports whether
// the affordance was hidden.
func (t *Tracker) Expire(h Hide) bool {
	tok, ok := t.timers[h.Zone]
	if !ok || tok != h.token {
		return false
	}
	delete(t.timers, h.Zone)
	delete(t.visible, h.Zone)
	return true
}

// Reset cancels every timer and hides everything.
func (t *Tracker) Reset() {
	clear(t.timers)
	clear(t.visible)
}

// Visible reports whether z's affordance is shown.
func (t *Tracker) Visible(z Zone) bool {
	return t.visible[z]
}

// Pending returns the number of outstanding hide timers.
func (t *Tracker) Pending() int {
	return len(t.timers)
}
