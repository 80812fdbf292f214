// Package registry holds the in-memory room registry: the map from room id
// to live draft state, demand-loaded from the draft store and evicted once
// the last peer leaves.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Fouche-Hugo/draft-together/internal/draftmodel"
	"github.com/Fouche-Hugo/draft-together/internal/metrics"
	"github.com/Fouche-Hugo/draft-together/internal/store"
)

// DraftStore is the subset of *store.DraftStore the registry needs. It is
// exported so other packages' tests can back a Registry with a fake store
// instead of a live Postgres connection.
type DraftStore interface {
	Exists(ctx context.Context, roomID string) (bool, error)
	Create(ctx context.Context, roomID string) (int, error)
	Load(ctx context.Context, roomID string) (int, draftmodel.Draft, error)
	Save(ctx context.Context, id int, d draftmodel.Draft) error
}

// entry is the runtime record for one active room. Its own mutex guards the
// draft and peer count, so mutations to different rooms never contend with
// each other; only the registry's map mutex is shared, and only briefly.
type entry struct {
	mu    sync.Mutex
	rowID int
	draft draftmodel.Draft
	peers int
}

// Registry is the process-wide map of live rooms, keyed by the client-supplied
// room id. Hydration from the draft store happens on demand; when two peers
// race to join an unseen room concurrently, both may read the store, but
// only one durable row and one live entry result per room id.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*entry

	drafts DraftStore
}

// RoomSnapshot is one row of Registry.SnapshotAll, used by the persistence
// worker's periodic flush.
type RoomSnapshot struct {
	RoomID string
	RowID  int
	Draft  draftmodel.Draft
}

// New returns an empty registry backed by the given draft store.
func New(drafts DraftStore) *Registry {
	return &Registry{
		rooms:  make(map[string]*entry),
		drafts: drafts,
	}
}

// Acquire hydrates roomID into memory if it is not already live, creating a
// fresh row in the draft store on first-ever join. The socket handler calls
// it on join, before IncPeers has anything to count.
func (r *Registry) Acquire(ctx context.Context, roomID string) error {
	_, err := r.acquireEntry(ctx, roomID)
	return err
}

// acquireEntry returns the live room for roomID, hydrating it from the draft
// store if it is not yet in memory. Two concurrent calls for the same absent
// room may both reach the store; the store's duplicate-key rejection on
// Create resolves the race so exactly one durable row is created, and this
// registry's map mutex resolves which in-memory entry wins, so both callers
// observe the same live room.
func (r *Registry) acquireEntry(ctx context.Context, roomID string) (*entry, error) {
	if e := r.lookup(roomID); e != nil {
		return e, nil
	}

	exists, err := r.drafts.Exists(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("registry: check room exists: %w", err)
	}

	var rowID int
	var draft draftmodel.Draft

	if exists {
		rowID, draft, err = r.drafts.Load(ctx, roomID)
		if err != nil {
			return nil, fmt.Errorf("registry: load room: %w", err)
		}
	} else {
		rowID, err = r.drafts.Create(ctx, roomID)
		if errors.Is(err, store.ErrDuplicateRoom) {
			// Someone else created the row between our Exists check and our
			// Create call. Reload instead of retrying the insert.
			rowID, draft, err = r.drafts.Load(ctx, roomID)
			if err != nil {
				return nil, fmt.Errorf("registry: reload room after duplicate create: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("registry: create room: %w", err)
		}
	}

	candidate := &entry{rowID: rowID, draft: draft}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rooms[roomID]; ok {
		// Another goroutine hydrated and inserted the entry first.
		return existing, nil
	}
	r.rooms[roomID] = candidate
	metrics.ActiveRooms.Inc()
	return candidate, nil
}

func (r *Registry) lookup(roomID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[roomID]
}

// Mutate acquires roomID and applies edit to its draft under the room's
// exclusive lock.
func (r *Registry) Mutate(ctx context.Context, roomID string, edit draftmodel.Edit) error {
	e, err := r.acquireEntry(ctx, roomID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.draft.Apply(edit)
	e.mu.Unlock()
	return nil
}

// Draft acquires roomID and returns a deep copy of its current draft,
// safe to hand to a goroutine that outlives this call.
func (r *Registry) Draft(ctx context.Context, roomID string) (draftmodel.Draft, error) {
	e, err := r.acquireEntry(ctx, roomID)
	if err != nil {
		return draftmodel.Draft{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.draft.Clone(), nil
}

// IncPeers records a newly joined peer and returns the new count.
func (r *Registry) IncPeers(roomID string) int {
	e := r.lookup(roomID)
	if e == nil {
		return 0
	}

	e.mu.Lock()
	e.peers++
	n := e.peers
	e.mu.Unlock()

	metrics.RoomPeers.WithLabelValues(roomID).Set(float64(n))
	return n
}

// DecPeers records a departed peer and returns the new count. The count
// saturates at zero and never wraps negative.
func (r *Registry) DecPeers(roomID string) int {
	e := r.lookup(roomID)
	if e == nil {
		return 0
	}

	e.mu.Lock()
	if e.peers > 0 {
		e.peers--
	}
	n := e.peers
	e.mu.Unlock()

	metrics.RoomPeers.WithLabelValues(roomID).Set(float64(n))
	return n
}

// SnapshotAll returns a point-in-time copy of every live room, for the
// persistence worker's periodic safety-net flush.
func (r *Registry) SnapshotAll() []RoomSnapshot {
	r.mu.Lock()
	ids := make([]string, 0, len(r.rooms))
	entries := make([]*entry, 0, len(r.rooms))
	for id, e := range r.rooms {
		ids = append(ids, id)
		entries = append(entries, e)
	}
	r.mu.Unlock()

	out := make([]RoomSnapshot, 0, len(entries))
	for i, e := range entries {
		e.mu.Lock()
		snap := RoomSnapshot{RoomID: ids[i], RowID: e.rowID, Draft: *e.draft.Clone()}
		e.mu.Unlock()
		out = append(out, snap)
	}
	return out
}

// FlushAndEvict writes roomID's current draft back to the draft store and
// removes it from the registry, regardless of whether the write succeeds.
// A later join re-hydrates from storage, and the periodic persistence
// worker gives any still-live room another chance to flush in the meantime.
func (r *Registry) FlushAndEvict(ctx context.Context, roomID string) error {
	e := r.lookup(roomID)
	if e == nil {
		return nil
	}

	e.mu.Lock()
	rowID := e.rowID
	draft := *e.draft.Clone()
	e.mu.Unlock()

	saveErr := r.drafts.Save(ctx, rowID, draft)

	r.mu.Lock()
	if _, ok := r.rooms[roomID]; ok {
		delete(r.rooms, roomID)
		metrics.ActiveRooms.Dec()
		metrics.RoomPeers.DeleteLabelValues(roomID)
	}
	r.mu.Unlock()

	if saveErr != nil {
		return fmt.Errorf("registry: flush room %s on evict: %w", roomID, saveErr)
	}
	return nil
}

// Len reports the number of rooms currently held in memory. Test-only helper.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
