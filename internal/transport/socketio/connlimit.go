package socketio

import (
	"net"
	"sync"
)

// ClientLimiter caps concurrent external (non-loopback) clients. Loopback
// clients are never limited. When admitting an external client exceeds the
// cap, the oldest external client is evicted.
type ClientLimiter struct {
	mu          sync.Mutex
	maxExternal int

	// external client IDs, oldest first
	external []string
	// every admitted client: ID -> loopback
	clients map[string]bool
}

// NewClientLimiter creates a limiter allowing up to maxExternal concurrent
// external clients. maxExternal <= 0 disables the cap.
func NewClientLimiter(maxExternal int) *ClientLimiter {
	return &ClientLimiter{
		maxExternal: maxExternal,
		clients:     make(map[string]bool),
	}
}

// Admit registers a client connecting from addr and returns the ID of the
// client it displaced, or "" if none. addr may include a port.
func (l *ClientLimiter) Admit(clientID, addr string) (evictedID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.clients[clientID]; exists {
		return ""
	}

	loopback := isLoopback(addr)
	l.clients[clientID] = loopback
	if loopback {
		return ""
	}

	l.external = append(l.external, clientID)
	if l.maxExternal <= 0 || len(l.external) <= l.maxExternal {
		return ""
	}

	evictedID = l.external[0]
	l.external = l.external[1:]
	delete(l.clients, evictedID)
	return evictedID
}

// Release unregisters a disconnected client.
func (l *ClientLimiter) Release(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loopback, exists := l.clients[clientID]
	if !exists {
		return
	}
	delete(l.clients, clientID)

	if loopback {
		return
	}
	for i, id := range l.external {
		if id == clientID {
			l.external = append(l.external[:i], l.external[i+1:]...)
			break
		}
	}
}

// Count returns the number of admitted clients.
func (l *ClientLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// isLoopback reports whether addr (with or without port) is a loopback address.
func isLoopback(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
