package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Expired snapshots are dropped on read.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Snapshot
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*Snapshot),
		now:   time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Snapshot, error) {
	m.mu.RLock()
	s, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if s.Expired(m.now()) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur == s {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}
	return s, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = s
	return nil
}

// Len reports how many snapshots are held, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
