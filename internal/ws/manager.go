// Package ws provides the WebSocket journaling channel.
package ws

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// ConnManager tracks the active journaling connection per user.
type ConnManager struct {
	mu     sync.RWMutex
	active map[string]*websocket.Conn
}

// NewConnManager creates a new connection manager.
func NewConnManager() *ConnManager {
	return &ConnManager{
		active: make(map[string]*websocket.Conn),
	}
}

// GetActive returns the active connection for a user.
func (m *ConnManager) GetActive(userID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[userID]
}

// Register adds a new connection for a user, replacing any previous one.
func (m *ConnManager) Register(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.active[userID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "connection replaced")
	}

	m.active[userID] = conn
	slog.Info("Journal channel registered", "user_id", userID)
}

// Unregister removes a connection for a user if it is still current.
func (m *ConnManager) Unregister(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.active[userID]; exists && current == conn {
		delete(m.active, userID)
		slog.Info("Journal channel unregistered", "user_id", userID)
	}
}

// CloseUser forcefully terminates the active connection for a user.
func (m *ConnManager) CloseUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.active[userID]
	if !ok {
		return
	}

	_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
	delete(m.active, userID)
	slog.Info("Journal channel closed", "user_id", userID)
}
