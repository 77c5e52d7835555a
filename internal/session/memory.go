package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory session store for tests and single-node
// development runs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (ms *MemoryStore) Save(_ context.Context, sess *Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored := *sess
	stored.UpdatedAt = time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	ms.sessions[sess.ID] = stored
	return nil
}

func (ms *MemoryStore) Load(_ context.Context, id string) (*Session, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stored, ok := ms.sessions[id]
	if !ok {
		return nil, false, nil
	}
	return &stored, true, nil
}

func (ms *MemoryStore) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, id)
	return nil
}
