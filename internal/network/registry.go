package network

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ConnectionRegistry tracks the live connection per server role.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[Role]*Connection
}

// NewConnectionRegistry creates a new ConnectionRegistry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[Role]*Connection),
	}
}

// Register makes conn the connection for its role, disconnecting any
// previous one.
func (r *ConnectionRegistry) Register(conn *Connection) {
	role := conn.Info().Role

	r.mu.Lock()
	existing, ok := r.conns[role]
	r.conns[role] = conn
	r.mu.Unlock()

	if ok && existing != conn {
		existing.Disconnect()
	}
	log.Debug().Str("role", string(role)).Str("server", conn.Info().Addr()).Msg("connection registered")
}

// Unregister disconnects and removes the connection for role.
func (r *ConnectionRegistry) Unregister(role Role) {
	r.mu.Lock()
	conn, ok := r.conns[role]
	delete(r.conns, role)
	r.mu.Unlock()

	if ok {
		conn.Disconnect()
		log.Debug().Str("role", string(role)).Msg("connection unregistered")
	}
}

// Get returns the connection for role.
func (r *ConnectionRegistry) Get(role Role) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[role]
	return conn, ok
}

// GetAll returns all registered connections.
func (r *ConnectionRegistry) GetAll() map[Role]*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[Role]*Connection, len(r.conns))
	for k, v := range r.conns {
		result[k] = v
	}
	return result
}

// Count returns the number of registered connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll disconnects and removes every connection.
func (r *ConnectionRegistry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[Role]*Connection)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Disconnect()
	}
	log.Info().Int("count", len(conns)).Msg("all connections closed")
}

// CleanStale disconnects connections with no traffic for longer than
// timeout and returns how many were removed.
func (r *ConnectionRegistry) CleanStale(timeout time.Duration) int {
	cutoff := time.Now().Add(-timeout)

	r.mu.Lock()
	var stale []*Connection
	for role, conn := range r.conns {
		if conn.LastActivity().Before(cutoff) {
			stale = append(stale, conn)
			delete(r.conns, role)
		}
	}
	r.mu.Unlock()

	for _, conn := range stale {
		log.Warn().
			Str("role", string(conn.Info().Role)).
			Time("last_activity", conn.LastActivity()).
			Msg("disconnecting idle connection")
		conn.Disconnect()
	}
	return len(stale)
}
