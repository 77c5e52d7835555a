package state

import "sync"

// Listener observes every state transition. It is called synchronously
// after the new state is applied, in dispatch order.
type Listener func(AppState)

// Store holds the AppState and applies actions to it. Dispatches are
// serialized under a single mutex, so listeners observe every transition
// exactly once and in order. Snapshots are plain values: the reducer is
// copy-on-write, so a returned snapshot never changes under the caller.
type Store struct {
	mu        sync.RWMutex
	state     AppState
	listeners map[int]Listener
	nextID    int
}

func NewStore() *Store {
	return &Store{
		state:     initialState(),
		listeners: make(map[int]Listener),
	}
}

// Dispatch applies an action and notifies listeners with the new state.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = reduce(s.state, a)
	next := s.state
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// Snapshot returns the current state value.
func (s *Store) Snapshot() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers a listener and returns its unsubscribe function.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
