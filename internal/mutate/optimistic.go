// Package mutate applies new arrangements to the outline model before the
// authoritative store has confirmed them, and restores them when it refuses.
package mutate

import (
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/outline"
)

// Phase is the per-container lifecycle of one optimistic mutation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseApplied
	PhaseCommitted
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseApplied:
		return "optimistically-applied"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled-back"
	default:
		return "idle"
	}
}

// Snapshot is an immutable copy of one container's elements taken before a mutation.
type Snapshot struct {
	container model.ContainerID
	entries   []model.Entry
	version   uint64
}

func (s Snapshot) Container() model.ContainerID { return s.container }

// Entries returns a copy of the captured elements.
func (s Snapshot) Entries() []model.Entry { return append([]model.Entry(nil), s.entries...) }

// Version is the model version the snapshot was taken at.
func (s Snapshot) Version() uint64 { return s.version }

// Mutator is the only writer of container arrangements on an outline.Model.
// Like the model it is owned by a single event loop.
type Mutator struct {
	model   *outline.Model
	pending map[model.ContainerID]int
}

func NewMutator(m *outline.Model) *Mutator {
	return &Mutator{model: m, pending: map[model.ContainerID]int{}}
}

// Apply snapshots the container's current (possibly already optimistic) state and
// replaces it with next. The model reflects next when Apply returns.
func (mu *Mutator) Apply(c model.ContainerID, next []model.Entry) (*Handle, error) {
	cur, err := mu.model.Entries(c)
	if err != nil {
		return nil, ContainerNotFoundError{Container: c}
	}
	snap := Snapshot{container: c, entries: cur, version: mu.model.Version()}
	if err := mu.model.Replace(c, append([]model.Entry(nil), next...)); err != nil {
		return nil, ContainerNotFoundError{Container: c}
	}
	mu.pending[c]++
	return &Handle{mu: mu, snap: snap, next: append([]model.Entry(nil), next...), phase: PhaseApplied}, nil
}

// Pending returns the number of unsettled mutations on a container.
func (mu *Mutator) Pending(c model.ContainerID) int { return mu.pending[c] }

// PendingTotal returns the number of unsettled mutations across all containers.
func (mu *Mutator) PendingTotal() int {
	n := 0
	for _, v := range mu.pending {
		n += v
	}
	return n
}

func (mu *Mutator) settle(c model.ContainerID) {
	if mu.pending[c] <= 1 {
		delete(mu.pending, c)
		return
	}
	mu.pending[c]--
}

// Handle settles one optimistic mutation.
type Handle struct {
	mu    *Mutator
	snap  Snapshot
	next  []model.Entry
	phase Phase
}

func (h *Handle) Container() model.ContainerID { return h.snap.container }
func (h *Handle) Snapshot() Snapshot           { return h.snap }
func (h *Handle) Phase() Phase                 { return h.phase }

// Next returns the arrangement that was applied.
func (h *Handle) Next() []model.Entry { return append([]model.Entry(nil), h.next...) }

// Commit discards the snapshot; the applied state stays.
func (h *Handle) Commit() error {
	if h.phase != PhaseApplied {
		return ErrAlreadySettled
	}
	h.phase = PhaseCommitted
	h.snap.entries = nil
	h.mu.settle(h.snap.container)
	return nil
}

// Rollback restores the container to the snapshot.
//
// If another mutation on the same container was applied after this one, its
// effect is discarded too. That is the accepted cost of snapshotting from
// optimistic rather than confirmed state.
func (h *Handle) Rollback() error {
	if h.phase != PhaseApplied {
		return ErrAlreadySettled
	}
	h.phase = PhaseRolledBack
	h.mu.settle(h.snap.container)
	if err := h.mu.model.Replace(h.snap.container, h.snap.Entries()); err != nil {
		return ContainerNotFoundError{Container: h.snap.container}
	}
	return nil
}
