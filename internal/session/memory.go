package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[int64]Entry
}

// NewMemoryStore returns an empty store. ttl <= 0 uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[int64]Entry)}
}

func (m *MemoryStore) Put(_ context.Context, userID int64, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = e
	return nil
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if expired(e, m.now(), m.ttl) {
		delete(m.entries, userID)
		return Entry{}, ErrExpired
	}
	return e, nil
}

func (m *MemoryStore) Take(_ context.Context, userID int64) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	delete(m.entries, userID)
	if expired(e, m.now(), m.ttl) {
		return Entry{}, ErrExpired
	}
	return e, nil
}

// Len counts live entries and prunes expired ones.
func (m *MemoryStore) Len(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.entries {
		if expired(e, now, m.ttl) {
			delete(m.entries, id)
		}
	}
	return len(m.entries), nil
}
