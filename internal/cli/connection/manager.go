package connection

import (
	"fmt"
	"net/url"
	"sync"
)

// Factory builds a client bound to server.
type Factory func(server string) *HTTPClient

// Manager holds the client the REPL is currently talking to. Connecting to
// another server rebuilds the client with the same classifier and options,
// so the expiry episode state survives a reconnect.
type Manager struct {
	mu      sync.RWMutex
	factory Factory
	current *HTTPClient
}

// NewManager creates a manager with no current client.
func NewManager(factory Factory) *Manager {
	return &Manager{factory: factory}
}

// Connect validates server and makes a client for it current.
func (m *Manager) Connect(server string) (*HTTPClient, error) {
	normalized := NormalizeServer(server)
	u, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid server %q: %w", server, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("invalid server %q: missing host", server)
		}
	case "unix":
		if _, ok := SocketPath(normalized); !ok || u.Path == "" {
			return nil, fmt.Errorf("invalid server %q: missing socket path", server)
		}
	default:
		return nil, fmt.Errorf("invalid server %q: unsupported scheme %q", server, u.Scheme)
	}

	client := m.factory(normalized)

	m.mu.Lock()
	m.current = client
	m.mu.Unlock()
	return client, nil
}

// Disconnect forgets the current client.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

// Current returns the current client, or nil.
func (m *Manager) Current() *HTTPClient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsConnected returns true if a client is current.
func (m *Manager) IsConnected() bool {
	return m.Current() != nil
}
