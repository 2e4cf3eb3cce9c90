package sharelink

import (
	"context"
	"drive-gateway/pkg/models"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStore is an in-process Store for deployments without a database
// path configured. Links do not survive a restart.
type MemoryStore struct {
	entries map[string]memoryEntry
	mutex   sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		entries: make(map[string]memoryEntry),
	}

	go store.startCleanupRoutine()

	return store
}

// Issue stores the record under a random v4 identifier with a fixed TTL.
func (m *MemoryStore) Issue(_ context.Context, rec Record) (string, error) {
	id := uuid.NewString()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries[id] = memoryEntry{
		record:    rec,
		expiresAt: time.Now().Add(TTL),
	}

	return id, nil
}

// Redeem looks up a record; unknown and expired ids both report
// models.ErrNotFound.
func (m *MemoryStore) Redeem(_ context.Context, id string) (*Record, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry, exists := m.entries[id]
	if !exists {
		return nil, models.ErrNotFound
	}

	if !time.Now().Before(entry.expiresAt) {
		delete(m.entries, id)
		return nil, models.ErrNotFound
	}

	rec := entry.record
	return &rec, nil
}

func (m *MemoryStore) startCleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		m.cleanupExpired()
	}
}

func (m *MemoryStore) cleanupExpired() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	for id, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
}
