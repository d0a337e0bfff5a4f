package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrViewConflict is returned when a view type is held by another owner or
// by a live process.
var ErrViewConflict = errors.New("store: view type already registered")

// ConflictError describes who holds a contested view type.
type ConflictError struct {
	ViewType string
	Owner    string
	PID      int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: view type %q already registered by %s (pid %d)", e.ViewType, e.Owner, e.PID)
}

// Is makes errors.Is(err, ErrViewConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrViewConflict
}

// Owner identifies who registers a view type.
type Owner struct {
	ID  string `json:"owner"`
	PID int    `json:"pid"`
}

type registration struct {
	Owner
	Started time.Time `json:"started"`
}

// Registry records which process owns each view type.
type Registry struct {
	store *Store
	alive func(pid int) bool
	now   func() time.Time
}

// NewRegistry returns a registry kept in s.
func NewRegistry(s *Store) *Registry {
	return &Registry{store: s, alive: processAlive, now: time.Now}
}

// Claim is a held registration.
type Claim struct {
	ViewType string
	// TookOver is set when a stale registration left by an earlier run of
	// the same owner was replaced.
	TookOver bool

	reg   *Registry
	owner Owner
}

// Claim registers viewType for owner. A registration by a different owner,
// or by the same owner in another live process, is a conflict.
func (r *Registry) Claim(viewType string, owner Owner) (*Claim, error) {
	key := viewPrefix + viewType
	claim := &Claim{ViewType: viewType, reg: r, owner: owner}

	if r.store.d.Has(key) {
		existing, err := r.read(key)
		if err != nil {
			slog.Warn("store: unreadable view registration, replacing", "view", viewType, "err", err)
			claim.TookOver = true
		} else {
			switch {
			case existing.ID != owner.ID:
				return nil, &ConflictError{ViewType: viewType, Owner: existing.ID, PID: existing.PID}
			case existing.PID == owner.PID:
				return claim, nil
			case r.alive(existing.PID):
				return nil, &ConflictError{ViewType: viewType, Owner: existing.ID, PID: existing.PID}
			default:
				slog.Info("store: taking over stale view registration", "view", viewType, "pid", existing.PID)
				claim.TookOver = true
			}
		}
	}

	b, err := json.Marshal(registration{Owner: owner, Started: r.now()})
	if err != nil {
		return nil, err
	}
	if err := r.store.d.Write(key, b); err != nil {
		return nil, fmt.Errorf("store: register view %s: %w", viewType, err)
	}
	return claim, nil
}

// Holder returns the current registration for viewType, if any.
func (r *Registry) Holder(viewType string) (Owner, bool) {
	key := viewPrefix + viewType
	if !r.store.d.Has(key) {
		return Owner{}, false
	}
	reg, err := r.read(key)
	if err != nil {
		return Owner{}, false
	}
	return reg.Owner, true
}

// LiveHolder is Holder restricted to registrations whose process is still
// running.
func (r *Registry) LiveHolder(viewType string) (Owner, bool) {
	o, ok := r.Holder(viewType)
	if !ok || !r.alive(o.PID) {
		return Owner{}, false
	}
	return o, true
}

// Release removes the registration if it is still ours.
func (c *Claim) Release() error {
	key := viewPrefix + c.ViewType
	if !c.reg.store.d.Has(key) {
		return nil
	}
	existing, err := c.reg.read(key)
	if err == nil && existing.Owner != c.owner {
		return nil
	}
	if err := c.reg.store.d.Erase(key); err != nil {
		return fmt.Errorf("store: release view %s: %w", c.ViewType, err)
	}
	return nil
}

func (r *Registry) read(key string) (registration, error) {
	var reg registration
	b, err := r.store.d.Read(key)
	if err != nil {
		return reg, err
	}
	if err := json.Unmarshal(b, &reg); err != nil {
		return reg, err
	}
	return reg, nil
}
