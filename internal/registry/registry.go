// Package registry holds the single source of truth for all active gates.
//
// The Telegram dispatcher runs handlers on multiple goroutines and the sweep
// ticker runs on its own, so every mutation and its snapshot save happen
// together under one mutex. Reads hand out deep copies; callers never see
// live gate state.
package registry

import (
	"errors"
	"log/slog"
	"sync"

	"subgate/entity"
	"subgate/lib/sl"
)

var (
	ErrDuplicateID = errors.New("gate id already exists")
	ErrNotFound    = errors.New("gate not found")
)

// Store is the snapshot persistence the registry depends on.
// Implemented by the drivers in internal/storage.
type Store interface {
	Load() ([]*entity.Gate, error)
	Save(gates []*entity.Gate) error
}

type Registry struct {
	mu    sync.Mutex
	gates map[string]*entity.Gate
	order []string // gate ids in insertion order
	store Store
	log   *slog.Logger
}

// New loads the persisted snapshot into a fresh registry. A failing load is
// logged and the registry starts empty; persistence is never fatal.
func New(store Store, log *slog.Logger) *Registry {
	r := &Registry{
		gates: make(map[string]*entity.Gate),
		store: store,
		log:   log.With(sl.Module("registry")),
	}

	loaded, err := store.Load()
	if err != nil {
		r.log.Error("loading gates, starting empty", sl.Err(err))
		return r
	}
	for _, g := range loaded {
		r.gates[g.ID] = g
		r.order = append(r.order, g.ID)
	}
	r.log.Debug("loaded gates", slog.Int("count", len(r.order)))
	return r
}

// Add inserts a new gate and persists the snapshot.
func (r *Registry) Add(g *entity.Gate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.gates[g.ID]; ok {
		return ErrDuplicateID
	}
	r.gates[g.ID] = g.Clone()
	r.order = append(r.order, g.ID)
	r.persist()
	return nil
}

// Remove deletes a gate and persists the snapshot.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.gates[id]; !ok {
		return ErrNotFound
	}
	delete(r.gates, id)
	for i, gid := range r.order {
		if gid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.persist()
	return nil
}

func (r *Registry) Get(id string) (*entity.Gate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gates[id]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// List returns a snapshot of all gates in insertion order.
func (r *Registry) List() []*entity.Gate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// AddMember adds a user to one gate's member set and reports whether the
// user was newly added. An absent gate is not an error; it signals a no-op.
// The snapshot is persisted only when a mutation occurred.
func (r *Registry) AddMember(id string, userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gates[id]
	if !ok {
		return false
	}
	if !g.AddMember(userID) {
		return false
	}
	r.persist()
	return true
}

// RegisterUser adds the user to every gate they are not yet a member of and
// returns copies of the gates newly joined. Calling it again for the same
// user returns an empty result until a new gate appears; membership is kept
// until a gate retires.
func (r *Registry) RegisterUser(userID int64) []*entity.Gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	var joined []*entity.Gate
	for _, id := range r.order {
		g := r.gates[id]
		if g.AddMember(userID) {
			joined = append(joined, g.Clone())
		}
	}
	if len(joined) > 0 {
		r.persist()
	}
	return joined
}

// persist saves the current snapshot; callers must hold the mutex. A failing
// save is logged and the in-memory state stays authoritative.
func (r *Registry) persist() {
	if err := r.store.Save(r.snapshot()); err != nil {
		r.log.Error("persisting gates", sl.Err(err))
	}
}

func (r *Registry) snapshot() []*entity.Gate {
	gates := make([]*entity.Gate, 0, len(r.order))
	for _, id := range r.order {
		gates = append(gates, r.gates[id].Clone())
	}
	return gates
}
