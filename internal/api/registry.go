package api

import (
	"context"
	"sync"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/logging"
	"github.com/nhle/novelstudio/internal/store"
)

// workspaceEntry is one loaded project. Its mutex serialises the requests
// that use it, since each request may select a different chapter.
type workspaceEntry struct {
	mu     sync.Mutex
	ws     *chapter.Workspace
	loaded bool
}

// registry caches one workspace per (user, project).
type registry struct {
	store store.Store
	bus   *events.Bus
	log   *logging.Logger

	mu      sync.Mutex
	entries map[store.ProjectKey]*workspaceEntry
}

func newRegistry(s store.Store, bus *events.Bus, log *logging.Logger) *registry {
	return &registry{
		store:   s,
		bus:     bus,
		log:     log,
		entries: make(map[store.ProjectKey]*workspaceEntry),
	}
}

// acquire returns the locked workspace for key, loading its chapters on
// first use. The caller must call the returned release func.
func (r *registry) acquire(ctx context.Context, key store.ProjectKey) (*chapter.Workspace, func(), error) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &workspaceEntry{ws: chapter.New(r.store, key,
			chapter.WithEventBus(r.bus),
			chapter.WithLogger(r.log),
		)}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	if !e.loaded {
		if err := e.ws.LoadChapters(ctx); err != nil {
			e.mu.Unlock()
			return nil, nil, err
		}
		e.loaded = true
	}
	return e.ws, e.mu.Unlock, nil
}

// forget drops a cached workspace, after its project was deleted.
func (r *registry) forget(key store.ProjectKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}
