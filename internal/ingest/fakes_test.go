package ingest

import (
	"context"
	"net/http"
	"sync"

	"github.com/Fouche-Hugo/draft-together/internal/champion"
	"github.com/Fouche-Hugo/draft-together/internal/store"
)

// fakeCatalogStore is an in-memory stand-in for *store.CatalogStore, letting
// worker tests run without a live Postgres connection.
type fakeCatalogStore struct {
	mu sync.Mutex

	champions      map[string]champion.Champion
	version        string
	versionIsSet   bool
	upsertErr      error
	setRolesCalls  []string
	setRolesByName map[string][]champion.Role
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		champions:      make(map[string]champion.Champion),
		setRolesByName: make(map[string][]champion.Role),
	}
}

func (f *fakeCatalogStore) ListChampions(context.Context) ([]champion.Champion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]champion.Champion, 0, len(f.champions))
	for _, c := range f.champions {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCatalogStore) Upsert(_ context.Context, c store.ChampionInsertion) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.champions[c.RiotID]
	id := len(f.champions) + 1
	if ok {
		id = existing.ID
	}
	f.champions[c.RiotID] = champion.Champion{
		ID:                           id,
		RiotID:                       c.RiotID,
		Name:                         c.Name,
		DefaultSkinImagePath:         c.DefaultSkinImagePath,
		CenteredDefaultSkinImagePath: c.CenteredDefaultSkinImagePath,
	}
	return nil
}

func (f *fakeCatalogStore) SetRoles(_ context.Context, name, alias string, roles []champion.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setRolesCalls = append(f.setRolesCalls, name)
	f.setRolesByName[name] = roles

	for riotID, c := range f.champions {
		if c.Name == name {
			c.Roles = roles
			f.champions[riotID] = c
			return nil
		}
	}
	return nil
}

func (f *fakeCatalogStore) CurrentVersion(context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, f.versionIsSet, nil
}

func (f *fakeCatalogStore) SetCurrentVersion(_ context.Context, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = version
	f.versionIsSet = true
	return nil
}

// roundTripFunc lets a test redirect the worker's hardcoded upstream URLs to
// canned in-memory responses, keyed by request URL.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
