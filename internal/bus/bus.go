// Package bus carries resource-change notifications from mutation
// operations to the cache partitions that hold copies of the mutated
// resource. A mutation publishes once; every subscribed partition
// patches or invalidates itself, so mutations never enumerate caches.
package bus

import (
	"encoding/json"
	"sync"
)

// Resource names published on the bus.
const (
	ResourceProducts   = "products"
	ResourceCategories = "categories"
	ResourceOrders     = "orders"
	ResourceUsers      = "users"
	ResourceReports    = "reports"
)

const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpInvalidate = "invalidate"
)

// Change describes one mutation of an upstream resource. Data carries
// the server-confirmed entity for create/update so subscribers can
// patch in place; delete and invalidate carry only the id.
type Change struct {
	Resource string          `json:"resource"`
	Op       string          `json:"op"`
	ID       string          `json:"id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Origin   string          `json:"origin,omitempty"`
}

// Entity unmarshals the change payload into out, reporting whether a
// payload was present and well-formed.
func (c Change) Entity(out any) bool {
	if len(c.Data) == 0 {
		return false
	}
	return json.Unmarshal(c.Data, out) == nil
}

type Handler func(Change)

// Bus is an in-process publish/subscribe fan-out. Publishes are
// synchronous: when Publish returns, every local subscriber has run.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]map[int]Handler
	nextID  int
	forward func(Change)
}

func New() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Publish delivers the change to local subscribers of its resource and,
// when a relay is attached, forwards it to other gateway instances.
func (b *Bus) Publish(ch Change) {
	b.dispatch(ch)

	b.mu.RLock()
	forward := b.forward
	b.mu.RUnlock()
	if forward != nil {
		forward(ch)
	}
}

// dispatch runs local subscribers only. Used by Publish and by the
// relay when applying a change received from another instance.
func (b *Bus) dispatch(ch Change) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ch.Resource]))
	for _, h := range b.subs[ch.Resource] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ch)
	}
}

// Subscribe registers a handler for one resource and returns its
// unsubscribe function.
func (b *Bus) Subscribe(resource string, h Handler) func() {
	b.mu.Lock()
	if b.subs[resource] == nil {
		b.subs[resource] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[resource][id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs[resource], id)
		b.mu.Unlock()
	}
}

func (b *Bus) setForwarder(fn func(Change)) {
	b.mu.Lock()
	b.forward = fn
	b.mu.Unlock()
}

// MarshalEntity is a convenience for publishers: it JSON-encodes the
// entity for the Change payload, returning nil on encode failure so a
// publish degrades to an invalidation rather than failing.
func MarshalEntity(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
