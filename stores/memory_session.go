package stores

import (
	"context"
	"sync"

	recordauth "github.com/andreibyf/aishacrm-2-sub006"
)

// MemorySessionStore keeps session overrides in process memory. It backs
// tests and single-node deployments that accept losing overrides on
// restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]recordauth.SessionContext
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]recordauth.SessionContext)}
}

func (m *MemorySessionStore) Load(ctx context.Context, sessionID string) (recordauth.SessionContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionID], nil
}

func (m *MemorySessionStore) Save(ctx context.Context, sessionID string, sc recordauth.SessionContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = sc
	return nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
