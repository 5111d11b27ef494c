package realtime

import (
	"sync"

	"github.com/google/uuid"

	"bell-registry/contract"
)

type connSet map[string]contract.StreamSink

// ConnectionRegistry maps a user to the set of their live stream
// connections. One user may hold several connections at once (multiple
// tabs or devices), each with its own connection id.
//
// The registry is process-local: a user connected to another instance is
// invisible here, and fanning out to them requires an external relay that
// this module does not provide.
type ConnectionRegistry struct {
	mu          sync.RWMutex
	connections map[string]connSet // ownerUserID -> connectionID -> sink
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		connections: make(map[string]connSet),
	}
}

// Register stores the sink under the owner and returns the new connection id.
func (r *ConnectionRegistry) Register(ownerUserID string, sink contract.StreamSink) string {
	connectionID := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[ownerUserID]; !ok {
		r.connections[ownerUserID] = make(connSet)
	}
	r.connections[ownerUserID][connectionID] = sink
	return connectionID
}

// Remove tears down exactly the connection being closed, never the owner's
// other connections: closing one tab must not disconnect the rest.
// It is idempotent, so racing cleanup paths are harmless.
func (r *ConnectionRegistry) Remove(ownerUserID, connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.connections[ownerUserID]
	if !ok {
		return
	}
	delete(set, connectionID)

	// No empty sets are left behind, to prevent the map growing with
	// every user who ever connected.
	if len(set) == 0 {
		delete(r.connections, ownerUserID)
	}
}

// Sinks returns the owner's live sinks. An empty result means the user is
// offline and fanout to them is a silent no-op.
func (r *ConnectionRegistry) Sinks(ownerUserID string) []contract.StreamSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.connections[ownerUserID]
	if !ok {
		return nil
	}
	sinks := make([]contract.StreamSink, 0, len(set))
	for _, sink := range set {
		sinks = append(sinks, sink)
	}
	return sinks
}

// ConnectedUsers reports how many distinct users hold at least one
// connection. Used by the ops stats endpoint.
func (r *ConnectionRegistry) ConnectedUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// OpenConnections reports the total number of live connections.
func (r *ConnectionRegistry) OpenConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, set := range r.connections {
		total += len(set)
	}
	return total
}
