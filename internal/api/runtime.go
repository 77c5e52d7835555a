package api

import (
	"sync"

	"github.com/example/storefront-gateway/internal/bootstrap"
	"github.com/example/storefront-gateway/internal/bus"
	"github.com/example/storefront-gateway/internal/fetch"
	"github.com/example/storefront-gateway/internal/remote"
	"github.com/example/storefront-gateway/internal/session"
	"github.com/example/storefront-gateway/internal/state"
)

// Runtime is the full data layer for one UI session: its state store,
// cache partitions, fetchers and bootstrapper, all sharing the client
// bound to that session's upstream token.
type Runtime struct {
	Store    *state.Store
	Caches   *fetch.Caches
	Fetchers *fetch.Fetchers
	Boot     *bootstrap.Bootstrapper
	detach   func()
}

// Runtimes creates and retains one Runtime per session id.
type Runtimes struct {
	mu       sync.Mutex
	byID     map[string]*Runtime
	client   *remote.Client
	sessions session.Store
	changes  *bus.Bus
}

func NewRuntimes(client *remote.Client, sessions session.Store, changes *bus.Bus) *Runtimes {
	return &Runtimes{
		byID:     make(map[string]*Runtime),
		client:   client,
		sessions: sessions,
		changes:  changes,
	}
}

// Get returns the session's runtime, creating it on first use.
func (r *Runtimes) Get(sessionID string) *Runtime {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rt, ok := r.byID[sessionID]; ok {
		return rt
	}

	store := state.NewStore()
	caches := fetch.NewCaches()
	detach := caches.Attach(r.changes)
	client := r.client.WithTokenSource(session.TokenSource{
		Sessions:  r.sessions,
		SessionID: sessionID,
	})

	rt := &Runtime{
		Store:    store,
		Caches:   caches,
		Fetchers: fetch.New(client, store, caches, r.sessions, sessionID, r.changes),
		Boot:     bootstrap.New(r.sessions, client, store),
		detach:   detach,
	}
	r.byID[sessionID] = rt
	return rt
}

// Drop removes a session's runtime and detaches its caches from the
// change bus.
func (r *Runtimes) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rt, ok := r.byID[sessionID]; ok {
		rt.detach()
		delete(r.byID, sessionID)
	}
}
