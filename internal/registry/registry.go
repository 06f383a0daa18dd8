package registry

import (
	"errors"
	"sync"
)

// DefaultCapacity is the maximum number of simultaneous connections.
const DefaultCapacity = 100

var (
	// ErrCapacity is returned by Insert when the registry is full.
	ErrCapacity = errors.New("registry: connection limit reached")

	// ErrClosed is returned by Insert after CloseAll.
	ErrClosed = errors.New("registry: closed")
)

// Registry is the set of live connections.
// The acceptor, every connection handler and the broadcaster share a single
// Registry instance.
type Registry struct {
	clients  map[*Client]struct{}
	capacity int
	closed   bool
	mu       sync.RWMutex
}

// New creates a Registry holding at most capacity clients. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		clients:  make(map[*Client]struct{}),
		capacity: capacity,
	}
}

// Insert adds a client unless the registry is full or closed.
func (r *Registry) Insert(client *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if len(r.clients) >= r.capacity {
		return ErrCapacity
	}
	r.clients[client] = struct{}{}
	return nil
}

// Remove deletes the client. It reports whether this call removed it; only
// that caller may close the client's connection.
func (r *Registry) Remove(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[client]; !ok {
		return false
	}
	delete(r.clients, client)
	return true
}

// Snapshot returns the clients registered at the time of the call.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		out = append(out, client)
	}
	return out
}

// CloseAll closes every registered connection, empties the registry and
// refuses further inserts. It returns the number of connections closed.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[*Client]struct{})
	r.closed = true
	r.mu.Unlock()

	for client := range clients {
		client.SetState(Closed)
		client.Conn.Close()
	}
	return len(clients)
}

// Len returns number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Capacity returns the connection limit.
func (r *Registry) Capacity() int {
	return r.capacity
}
