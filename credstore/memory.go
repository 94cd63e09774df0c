package credstore

import (
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store. Credentials do not survive a restart.
type Memory struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = access
	m.refresh = refresh
	return nil
}

func (m *Memory) Load(_ context.Context) (string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access, m.refresh, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = ""
	m.refresh = ""
	return nil
}
