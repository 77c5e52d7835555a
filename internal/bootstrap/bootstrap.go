// Package bootstrap resolves a restored session into an authenticated
// or anonymous state before any route-level data loads.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/example/storefront-gateway/internal/catalog"
	"github.com/example/storefront-gateway/internal/remote"
	"github.com/example/storefront-gateway/internal/session"
	"github.com/example/storefront-gateway/internal/state"
)

// Phase is the bootstrap state machine position.
type Phase int

const (
	PhaseUnchecked Phase = iota
	PhaseChecking
	PhaseAuthenticated
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseUnchecked:
		return "unchecked"
	case PhaseChecking:
		return "checking"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Bootstrapper verifies a persisted session against the upstream
// profile endpoint and settles the store into a terminal auth state.
type Bootstrapper struct {
	sessions session.Store
	client   *remote.Client
	store    *state.Store
	phase    Phase
}

func New(sessions session.Store, client *remote.Client, store *state.Store) *Bootstrapper {
	return &Bootstrapper{
		sessions: sessions,
		client:   client,
		store:    store,
		phase:    PhaseUnchecked,
	}
}

// Phase returns the current machine position.
func (b *Bootstrapper) Phase() Phase { return b.phase }

// Run drives the machine to a terminal phase. With no resumable
// session it settles anonymous without any network call. With one, the
// upstream profile endpoint is the sole authority: verification
// failure clears the persisted session and settles anonymous.
// AuthCheckComplete is dispatched on every path so consumers can block
// rendering until the check is done.
func (b *Bootstrapper) Run(ctx context.Context, sessionID string) (Phase, error) {
	b.phase = PhaseChecking

	sess, ok, err := b.sessions.Load(ctx, sessionID)
	if err != nil {
		b.settleAnonymous()
		return b.phase, fmt.Errorf("load session: %w", err)
	}
	if !ok || !sess.Resumable() {
		b.settleAnonymous()
		return b.phase, nil
	}

	var profile catalog.Profile
	if err := b.client.GetJSON(ctx, "/api/users/profile", nil, &profile); err != nil {
		log.Printf("[Bootstrap] Session %s verification failed: %v", sessionID, err)
		if delErr := b.sessions.Delete(ctx, sessionID); delErr != nil {
			log.Printf("[Bootstrap] Failed to clear session %s: %v", sessionID, delErr)
		}
		b.store.Dispatch(state.Action{Type: state.ActionSetError, Payload: err.Error()})
		b.settleAnonymous()
		return b.phase, err
	}

	if profile.Role == "" {
		profile.Role = sess.Role
	}
	b.store.Dispatch(state.Action{Type: state.ActionLoginSuccess, Payload: profile})
	b.store.Dispatch(state.Action{Type: state.ActionAuthCheckComplete})
	b.phase = PhaseAuthenticated
	return b.phase, nil
}

func (b *Bootstrapper) settleAnonymous() {
	b.store.Dispatch(state.Action{Type: state.ActionLogout})
	b.store.Dispatch(state.Action{Type: state.ActionAuthCheckComplete})
	b.phase = PhaseAnonymous
}
