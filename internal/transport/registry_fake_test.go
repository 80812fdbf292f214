package transport

import (
	"context"
	"sync"

	"github.com/Fouche-Hugo/draft-together/internal/draftmodel"
)

// fakeRegistry is an in-memory stand-in for *registry.Registry, letting
// hub and client tests run without a live draft store.
type fakeRegistry struct {
	mu sync.Mutex

	drafts map[string]draftmodel.Draft
	peers  map[string]int

	evicted    []string
	draftErr   error
	mutateErr  error
	acquireErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		drafts: make(map[string]draftmodel.Draft),
		peers:  make(map[string]int),
	}
}

func (f *fakeRegistry) Acquire(_ context.Context, roomID string) error {
	if f.acquireErr != nil {
		return f.acquireErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.drafts[roomID]; !ok {
		f.drafts[roomID] = draftmodel.Draft{}
	}
	return nil
}

func (f *fakeRegistry) Mutate(_ context.Context, roomID string, edit draftmodel.Edit) error {
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.drafts[roomID]
	d.Apply(edit)
	f.drafts[roomID] = d
	return nil
}

func (f *fakeRegistry) Draft(_ context.Context, roomID string) (draftmodel.Draft, error) {
	if f.draftErr != nil {
		return draftmodel.Draft{}, f.draftErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drafts[roomID], nil
}

func (f *fakeRegistry) IncPeers(roomID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.peers[roomID]++
	return f.peers[roomID]
}

func (f *fakeRegistry) DecPeers(roomID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.peers[roomID] > 0 {
		f.peers[roomID]--
	}
	return f.peers[roomID]
}

func (f *fakeRegistry) FlushAndEvict(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evicted = append(f.evicted, roomID)
	// The draft is kept so tests can assert on the final board state after
	// the pump's deferred leave has run.
	return nil
}
